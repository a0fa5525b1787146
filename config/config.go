// Package config loads the client configuration.
//
// Sources, later ones winning:
//   - built-in defaults
//   - TOML file (KB_CONFIG, default <user config dir>/knowledge-center/config.toml)
//   - environment variables (a .env file in the working directory is loaded first)
//   - command line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// AppName names the config, cache and preference directories.
const AppName = "knowledge-center"

type Config struct {
	API   APIConfig   `toml:"api"`
	UI    UIConfig    `toml:"ui"`
	Prefs PrefsConfig `toml:"prefs"`
	Redis RedisConfig `toml:"redis"`
	Log   LogConfig   `toml:"log"`

	// Path is the file the config was read from, empty when none was found.
	Path string `toml:"-"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
	// TimeoutSeconds bounds each request; 0 waits indefinitely.
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

type UIConfig struct {
	// Theme is "light", "dark" or empty to follow the saved preference and
	// then the terminal background.
	Theme              string `toml:"theme"`
	MarkdownStyleDark  string `toml:"markdown_style_dark"`
	MarkdownStyleLight string `toml:"markdown_style_light"`
}

type PrefsConfig struct {
	// Backend is "file" or "redis".
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Profile string `toml:"profile"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LogConfig struct {
	// Level is empty unless set; main picks info for the TUI and warn for
	// the CLI.
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8080/api",
			UserAgent: AppName,
		},
		UI: UIConfig{
			MarkdownStyleDark:  "dark",
			MarkdownStyleLight: "light",
		},
		Prefs: PrefsConfig{
			Backend: "file",
			Path:    filepath.Join(userDir(os.UserConfigDir), AppName, "prefs.json"),
			Profile: "default",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			File: filepath.Join(userDir(os.UserCacheDir), AppName, "kb.log"),
		},
	}
}

// Load reads .env, the TOML file and the environment. path overrides KB_CONFIG
// when non-empty. A missing file is not an error; an explicit path that does
// not exist is. The result is not validated, so callers can apply flag
// overrides before calling Validate.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	explicit := path != ""
	if path == "" {
		path = getEnv("KB_CONFIG", "")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
		cfg.Path = path
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	overrideFromEnv(cfg)
	return cfg, nil
}

// DefaultPath is where Load looks for the TOML file.
func DefaultPath() string {
	return filepath.Join(userDir(os.UserConfigDir), AppName, "config.toml")
}

func overrideFromEnv(cfg *Config) {
	cfg.API.BaseURL = getEnv("KB_API_URL", cfg.API.BaseURL)
	cfg.API.TimeoutSeconds = getEnvInt("KB_API_TIMEOUT", cfg.API.TimeoutSeconds)
	cfg.UI.Theme = getEnv("KB_THEME", cfg.UI.Theme)
	cfg.Prefs.Backend = getEnv("KB_PREFS_BACKEND", cfg.Prefs.Backend)
	cfg.Prefs.Path = getEnv("KB_PREFS_PATH", cfg.Prefs.Path)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Log.Level = getEnv("KB_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("KB_LOG_FILE", cfg.Log.File)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must not be negative")
	}
	switch strings.ToLower(c.UI.Theme) {
	case "", "light", "dark":
	default:
		return fmt.Errorf("ui.theme %q must be light or dark", c.UI.Theme)
	}
	switch c.Prefs.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("prefs.backend %q must be file or redis", c.Prefs.Backend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func userDir(fn func() (string, error)) string {
	dir, err := fn()
	if err != nil || dir == "" {
		return "."
	}
	return dir
}
