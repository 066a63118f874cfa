// Package config holds the application configuration and the small
// persisted state (auth token, last sync marker) the sync engine needs
// across runs. Everything is threaded through constructors; there is no
// global settings object.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName        = "pinbook"
	configFilename = "config.yml"
	stateFilename  = "state.yml"
	dbFilename     = "pinbook.db"

	// EnvHome overrides the data directory.
	EnvHome = "PINBOOK_HOME"
)

// Duration is a time.Duration that travels through YAML as a string like
// "5m".
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(v)

	return nil
}

// Config is the application configuration, loaded from config.yml in the
// data directory.
type Config struct {
	DataDir      string   `yaml:"-"`
	DBName       string   `yaml:"database"`
	APIURL       string   `yaml:"api_url"`
	SyncInterval Duration `yaml:"sync_interval"`
	LogLevel     string   `yaml:"log_level"`
}

// Default returns the configuration defaults for the given data directory.
func Default(dataDir string) *Config {
	return &Config{
		DataDir:      dataDir,
		DBName:       dbFilename,
		APIURL:       "https://api.pinboard.in/v1",
		SyncInterval: Duration(5 * time.Minute),
		LogLevel:     "info",
	}
}

// DataDir resolves the data directory: $PINBOOK_HOME if set, otherwise the
// platform user config dir.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}

	return filepath.Join(base, appName), nil
}

// Load reads config.yml from the data directory, writing the defaults on
// first run.
func Load(dataDir string) (*Config, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	cfg := Default(dataDir)
	path := filepath.Join(dataDir, configFilename)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("writing default config", "path", path)
		return cfg, cfg.save(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	cfg.DataDir = dataDir

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DBPath returns the full path to the database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName)
}

// StatePath returns the full path to the persisted state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, stateFilename)
}

func (c *Config) validate() error {
	if c.DBName == "" {
		return errors.New("config: database name is empty")
	}
	if c.APIURL == "" {
		return errors.New("config: api_url is empty")
	}
	if c.SyncInterval <= 0 {
		return errors.New("config: sync_interval must be positive")
	}

	return nil
}

func (c *Config) save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
