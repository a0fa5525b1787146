package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv makes the test independent of the caller's environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KB_CONFIG", "KB_API_URL", "KB_API_TIMEOUT", "KB_THEME", "KB_PREFS_BACKEND",
		"KB_PREFS_PATH", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "KB_LOG_LEVEL", "KB_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("KB_CONFIG", "")

	cfg, err := Load("")
	if cfg != nil && cfg.Path != "" {
		t.Skip("a config file exists in the user config dir")
	}
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout())
	assert.Equal(t, "file", cfg.Prefs.Backend)
	assert.Equal(t, "default", cfg.Prefs.Profile)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Log.Level)
	assert.Empty(t, cfg.UI.Theme)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://kb.internal:9000/api"
timeout_seconds = 30

[ui]
theme = "dark"

[prefs]
backend = "redis"
profile = "ops"

[redis]
addr = "cache:6379"
db = 2
`), 0o644))

	t.Setenv("KB_API_URL", "https://kb.example.com/api")
	t.Setenv("REDIS_DB", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "https://kb.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, "redis", cfg.Prefs.Backend)
	assert.Equal(t, "ops", cfg.Prefs.Profile)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Redis.DB)
	// untouched defaults survive a partial file
	assert.Equal(t, "dark", cfg.UI.MarkdownStyleDark)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("KB_API_URL=http://from-dotenv:8080/api\n"), 0o644))
	// godotenv does not override variables that are already set, even empty ones
	require.NoError(t, os.Unsetenv("KB_API_URL"))

	path := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8080/api", cfg.API.BaseURL)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadBadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadLeavesValidationToCaller(t *testing.T) {
	clearEnv(t)
	t.Setenv("KB_API_URL", "localhost:8080")

	cfg, err := Load(writeEmptyConfig(t))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.API.BaseURL = "http://kb:8080/api"
	assert.NoError(t, cfg.Validate())
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"https", func(c *Config) { c.API.BaseURL = "https://kb.example.com" }, false},
		{"no scheme", func(c *Config) { c.API.BaseURL = "localhost:8080" }, true},
		{"ftp", func(c *Config) { c.API.BaseURL = "ftp://kb" }, true},
		{"negative timeout", func(c *Config) { c.API.TimeoutSeconds = -1 }, true},
		{"dark theme", func(c *Config) { c.UI.Theme = "dark" }, false},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
		{"bad backend", func(c *Config) { c.Prefs.Backend = "sqlite" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
