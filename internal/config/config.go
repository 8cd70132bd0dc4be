// Package config handles the XDG configuration directory, file paths, and
// client settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// SettingsFile is the optional settings filename.
	SettingsFile = "config.yaml"

	// DBFile is the local key-value store holding the credential.
	DBFile = "taskboard.db"
)

// Settings are read from config.yaml in the config directory, with
// environment variables taking precedence.
type Settings struct {
	APIURL   string        `yaml:"api_url" env:"TASKBOARD_API_URL" env-default:"http://127.0.0.1:8000/api"`
	Timeout  time.Duration `yaml:"timeout" env:"TASKBOARD_TIMEOUT" env-default:"10s"`
	LogLevel string        `yaml:"log_level" env:"TASKBOARD_LOG_LEVEL" env-default:"WARN"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings Settings

	// Log is the process logger, set by the dispatcher.
	Log *slog.Logger
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskboard or
// $HOME/.config/taskboard.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load reads Settings. A missing settings file falls back to the
// environment and defaults.
func (c *Config) Load() error {
	var s Settings
	if err := cleanenv.ReadConfig(c.SettingsPath(), &s); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return fmt.Errorf("read %s: %w", c.SettingsPath(), err)
		}
		if err := cleanenv.ReadEnv(&s); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	c.Settings = s
	return nil
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// DBPath returns the path to the credential store.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, DBFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// Logger returns a text logger writing to w at the configured level.
// Debug overrides the level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := ParseLevel(c.Settings.LogLevel)
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a level name to a slog level. Unknown names mean WARN.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
