package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "strive-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, DefaultGuestUserID, cfg.GuestUserID)
	assert.Equal(t, 10, cfg.FriendSuggestionCount)
	assert.Equal(t, 10*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, "@every 1m", cfg.ChallengeWatchSchedule)
	assert.False(t, cfg.IsRelease())
	assert.False(t, cfg.MailEnabled())
}

func TestLoadConfig_MissingProject(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "strive-test")
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("FRIEND_SUGGESTION_COUNT", "5")
	t.Setenv("USER_CACHE_TTL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsRelease())
	assert.Equal(t, 5, cfg.FriendSuggestionCount)
	assert.Equal(t, 30*time.Second, cfg.UserCacheTTL)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("FIREBASE_PROJECT_ID: from-file\nSMTP_HOST: smtp.example.com\nMAIL_FROM: noreply@example.com\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FIREBASE_PROJECT_ID", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.FirebaseProjectID)
	assert.True(t, cfg.MailEnabled())
}

func TestEncryptionKeyBytes(t *testing.T) {
	cfg := &Config{FirebaseProjectID: "p", FriendSuggestionCount: 10}

	key, err := cfg.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Nil(t, key)

	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
	key, err = cfg.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.NoError(t, cfg.Validate())

	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 16))
	_, err = cfg.EncryptionKeyBytes()
	assert.Error(t, err)
	assert.Error(t, cfg.Validate())

	cfg.EncryptionKey = "not base64!"
	_, err = cfg.EncryptionKeyBytes()
	assert.Error(t, err)
}
