package storage

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web_deriv/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })

	return store
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStorage(t)

	user, err := store.CreateUser("alice", "hash123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	found, err := store.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash123", found.PasswordHash)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.CreateUser("alice", "hash123")
	require.NoError(t, err)

	_, err = store.CreateUser("alice", "hash456")
	assert.Error(t, err)
}

func TestGetSettings_EmptyByDefault(t *testing.T) {
	store := newTestStorage(t)

	settings, err := store.GetSettings(1)
	require.NoError(t, err)
	assert.Empty(t, settings.Loginid)
	assert.Empty(t, settings.UserToken)
	assert.Empty(t, settings.TraderToken)
}

func TestSaveAndGetSettings(t *testing.T) {
	store := newTestStorage(t)

	user, err := store.CreateUser("alice", "hash")
	require.NoError(t, err)

	saved := &models.Settings{
		UserID:      user.ID,
		Loginid:     "CR123",
		UserToken:   "T1",
		TraderToken: "TRADER1",
	}
	require.NoError(t, store.SaveSettings(saved))

	settings, err := store.GetSettings(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "CR123", settings.Loginid)
	assert.Equal(t, "T1", settings.UserToken)
	assert.Equal(t, "TRADER1", settings.TraderToken)

	// Повторный Save перезаписывает
	saved.TraderToken = "TRADER2"
	require.NoError(t, store.SaveSettings(saved))

	settings, err = store.GetSettings(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "TRADER2", settings.TraderToken)
}

func TestActivityLog_NewestFirst(t *testing.T) {
	store := newTestStorage(t)

	user, err := store.CreateUser("alice", "hash")
	require.NoError(t, err)

	require.NoError(t, store.AddActivityLog(user.ID, "INFO", "first"))
	require.NoError(t, store.AddActivityLog(user.ID, "INFO", "second"))
	require.NoError(t, store.AddActivityLog(user.ID, "ERROR", "third"))

	logs, err := store.GetActivityLogs(user.ID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "third", logs[0].Message)
	assert.Equal(t, "ERROR", logs[0].Level)
	assert.Equal(t, "second", logs[1].Message)
}
