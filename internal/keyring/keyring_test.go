package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitual/internal/constants"
)

func TestConnectionStringLifecycle(t *testing.T) {
	gokeyring.MockInit()
	connStr := "postgres://habitual@localhost:5432/habits?sslmode=disable"

	require.NoError(t, SetConnectionString(connStr))
	got, err := GetConnectionString()
	require.NoError(t, err)
	assert.Equal(t, connStr, got)

	require.NoError(t, DeleteConnectionString())
	_, err = GetConnectionString()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, DeleteConnectionString(), ErrNotFound)
}

func TestSetRejectsEmpty(t *testing.T) {
	gokeyring.MockInit()
	assert.Error(t, SetConnectionString("  "))
}

func TestResolveConnectionString(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(constants.PostgresConnEnvName, "")

	_, err := ResolveConnectionString()
	assert.ErrorContains(t, err, constants.PostgresConnEnvName)

	require.NoError(t, SetConnectionString("host=keyring"))
	got, err := ResolveConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "host=keyring", got)

	t.Setenv(constants.PostgresConnEnvName, "host=env")
	got, err = ResolveConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "host=env", got)
}

func TestIsAvailableWithMock(t *testing.T) {
	gokeyring.MockInit()
	assert.True(t, IsAvailable())
}

func TestMockError(t *testing.T) {
	gokeyring.MockInitWithError(assert.AnError)
	_, err := Get("anything")
	assert.ErrorIs(t, err, ErrKeyringUnavailable)
	assert.False(t, IsAvailable())
}
