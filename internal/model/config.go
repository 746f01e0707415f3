package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds settings for the local SQLite file.
type DatabaseConfig struct {
	// Path is the SQLite file location. Empty means the default data dir.
	Path string `mapstructure:"path" yaml:"path"`

	// BusyTimeoutMS is how long a connection waits on a locked database.
	BusyTimeoutMS int `mapstructure:"busy_timeout_ms" yaml:"busy_timeout_ms"`

	// PollIntervalMS is how often open streams check for writes made by
	// other processes.
	PollIntervalMS int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// BusyTimeout returns the configured busy timeout as a duration.
func (c DatabaseConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// PollInterval returns the configured poll interval as a duration.
func (c DatabaseConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// SearchConfig holds settings for the interactive search controller.
type SearchConfig struct {
	// DebounceMS is the quiet period before a typed query is executed.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// Debounce returns the configured debounce as a duration.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// LogConfig holds logging preferences.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Search   SearchConfig   `mapstructure:"search" yaml:"search"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

const (
	defaultBusyTimeoutMS = 5000
	defaultPollMS        = 500
	defaultDebounceMS    = 300
	defaultLogLevel      = "info"
)

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notekeeper/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "notekeeper", "config.yaml")
}

// DefaultDatabasePath returns $XDG_DATA_HOME/notekeeper/notes.db, falling
// back to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultDatabasePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "notes.db"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "notekeeper", "notes.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path:          DefaultDatabasePath(),
			BusyTimeoutMS:  defaultBusyTimeoutMS,
			PollIntervalMS: defaultPollMS,
		},
		Search: SearchConfig{DebounceMS: defaultDebounceMS},
		Log:    LogConfig{Level: defaultLogLevel},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// NOTEKEEPER_DATABASE_PATH style environment variables override the file.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("notekeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("database.busy_timeout_ms", defaultBusyTimeoutMS)
	v.SetDefault("database.poll_interval_ms", defaultPollMS)
	v.SetDefault("search.debounce_ms", defaultDebounceMS)
	v.SetDefault("log.level", defaultLogLevel)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Database.BusyTimeoutMS <= 0 {
		cfg.Database.BusyTimeoutMS = defaultBusyTimeoutMS
	}
	if cfg.Database.PollIntervalMS <= 0 {
		cfg.Database.PollIntervalMS = defaultPollMS
	}
	if cfg.Search.DebounceMS < 0 {
		cfg.Search.DebounceMS = defaultDebounceMS
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database.path", cfg.Database.Path)
	v.Set("database.busy_timeout_ms", cfg.Database.BusyTimeoutMS)
	v.Set("search.debounce_ms", cfg.Search.DebounceMS)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
