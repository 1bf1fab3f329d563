package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, []string{"Calendars.Read"}, cfg.OAuth.Scopes)
	assert.Equal(t, CompleteModeSingle, cfg.OAuth.CompleteMode)
	assert.Equal(t, "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode", cfg.OAuth.DeviceAuthURL())
	assert.Equal(t, "https://login.microsoftonline.com/consumers/oauth2/v2.0/token", cfg.OAuth.TokenURL())
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.Graph.BaseURL)
	assert.Equal(t, StoreFile, cfg.Credentials.Store)
	assert.Equal(t, "token_cache.json", cfg.Credentials.FilePath)
	assert.False(t, cfg.DeviceSessions.Enabled)
	assert.Equal(t, 15*time.Second, cfg.OAuth.HTTPClientTimeout)
	assert.Equal(t, 5*time.Second, cfg.OAuth.PollInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OUTLOOK_CLIENT_ID", "client-123")
	t.Setenv("OAUTH_AUTHORITY", "https://login.example.com/tenant/")
	t.Setenv("OAUTH_COMPLETE_MODE", "POLL")
	t.Setenv("OAUTH_POLL_TIMEOUT", "not-a-duration")
	t.Setenv("CREDENTIAL_STORE", "Redis")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("DEVICE_SESSION_TRACKING", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-123", cfg.OAuth.ClientID)
	assert.Equal(t, CompleteModePoll, cfg.OAuth.CompleteMode)
	assert.Equal(t, 2*time.Minute, cfg.OAuth.PollTimeout)
	assert.Equal(t, "https://login.example.com/tenant/oauth2/v2.0/token", cfg.OAuth.TokenURL())
	assert.Equal(t, StoreRedis, cfg.Credentials.Store)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.DeviceSessions.Enabled)
}

func TestUnknownCompleteModeFallsBackToSingle(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OAUTH_COMPLETE_MODE", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CompleteModeSingle, cfg.OAuth.CompleteMode)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
