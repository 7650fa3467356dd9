// Package keyring stores secrets, currently the PostgreSQL connection
// string, in the OS keyring under the application's service name.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitual/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get reads the secret stored for user.
func Get(user string) (string, error) {
	v, err := keyring.Get(constants.AppName, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func Set(user, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(user string) error {
	err := keyring.Delete(constants.AppName, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

func GetConnectionString() (string, error) {
	return Get(constants.DefaultKeyringUser)
}

func SetConnectionString(connStr string) error {
	return Set(constants.DefaultKeyringUser, connStr)
}

func DeleteConnectionString() error {
	return Delete(constants.DefaultKeyringUser)
}

// ResolveConnectionString prefers the HABITUAL_DB_CONNECTION environment
// variable and falls back to the keyring.
func ResolveConnectionString() (string, error) {
	if v := strings.TrimSpace(os.Getenv(constants.PostgresConnEnvName)); v != "" {
		return v, nil
	}
	v, err := GetConnectionString()
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("no connection string: set %s or run 'habitual keyring set'", constants.PostgresConnEnvName)
	}
	return v, err
}

// IsAvailable reports whether the OS keyring answers at all.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
