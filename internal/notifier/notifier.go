// Package notifier delivers reminders. Notifier posts to the tray
// companion app over its local webhook; LogDeliverer only writes to the
// log for headless use.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/reminder"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess

	ErrTrayNotRunning = errors.New(constants.TrayProcessName + " is not running")
)

type Notifier struct {
	client *http.Client
}

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

func New() *Notifier {
	return &Notifier{client: &http.Client{}}
}

// Deliver implements reminder.Deliverer.
func (n *Notifier) Deliver(ctx context.Context, note reminder.Notification) error {
	port, secret, err := locateTray()
	if err != nil {
		return err
	}
	text := note.Title
	if note.Body != "" {
		text += ": " + note.Body
	}
	return n.send(ctx, port, secret, WebhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDurationMs,
	})
}

// Authorized implements reminder.Authorizer: notifications are allowed
// while the tray app is running.
func (n *Notifier) Authorized(context.Context) bool {
	if _, _, err := locateTray(); err != nil {
		logger.Debug("notifications unavailable", "error", err)
		return false
	}
	return true
}

func locateTray() (string, string, error) {
	dir, err := TrayAppConfigDir()
	if err != nil {
		return "", "", err
	}
	return findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
}

// TrayAppConfigDir returns the tray app's config directory, honouring a
// lockfile_dir override in its settings.json.
func TrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil {
		if d := store.Settings.LockfileDir; d != nil && *d != "" {
			return *d, nil
		}
	}
	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads "port|pid|secret" from the lockfile and
// checks that pid belongs to the tray app.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayProcessName) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayProcessName, process.Executable())
	}
	return port, secret, nil
}

func (n *Notifier) send(ctx context.Context, port, secret string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://127.0.0.1:"+port, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}

// LogDeliverer writes notifications to the application log.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(_ context.Context, n reminder.Notification) error {
	logger.Info(n.Title, "body", n.Body, "habit", n.HabitID)
	return nil
}

// Always grants authorization unconditionally.
type Always struct{}

func (Always) Authorized(context.Context) bool {
	return true
}

// SettingsGate denies authorization while notifications are switched off in
// settings, and otherwise defers to Next.
type SettingsGate struct {
	Enabled func() bool
	Next    reminder.Authorizer
}

func (g SettingsGate) Authorized(ctx context.Context) bool {
	if g.Enabled != nil && !g.Enabled() {
		return false
	}
	if g.Next == nil {
		return true
	}
	return g.Next.Authorized(ctx)
}
