package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8391", cfg.Server.Addr)
	assert.Equal(t, 10*1024*1024, cfg.Server.MaxUploadBytes)
	assert.Equal(t, "info", cfg.Global.LogLevel)
	assert.Equal(t, 300, cfg.Global.Timeout)

	// Unset credentials keep documented placeholders so the manifest can be
	// served without configuration.
	assert.Equal(t, "YOUR_CLIENT_ID.apps.googleusercontent.com", cfg.OAuth.ClientID)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth", cfg.OAuth.AuthURI)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.OAuth.TokenURI)
	assert.NotEmpty(t, cfg.OAuth.Scopes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_REDIRECT_URI", "http://localhost:7777/cb")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-client-id", cfg.OAuth.ClientID)
	assert.Equal(t, "env-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, []string{"http://localhost:7777/cb"}, cfg.OAuth.RedirectURIs)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Global.LogLevel)
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600))
	chdir(t, dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.json")
}

func TestLoadFromFileFailureLeavesConfigUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"addr":":1"},`), 0600))

	cfg := &Config{Server: ServerConfig{Addr: ":8391"}}
	require.Error(t, cfg.loadFromFile(path))
	assert.Equal(t, ":8391", cfg.Server.Addr)
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"global":{"timeout":0}}`), 0600))
	chdir(t, dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestValidateTimeout(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Global.Timeout = 0
	assert.Error(t, cfg.validate())
	cfg.Global.Timeout = -5
	assert.Error(t, cfg.validate())
	cfg.Global.Timeout = 1
	assert.NoError(t, cfg.validate())
}
