package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/launcher"
)

const (
	defaultListen     = "127.0.0.1:9323"
	defaultQueueHint  = 64
	defaultProbeLimit = 2 * time.Second
	maxPollAttempts   = 1000
)

// Config is the runner's YAML configuration.
type Config struct {
	// SettingsRoot holds one folder per module. Empty means the user config
	// directory.
	SettingsRoot string `yaml:"settings_root"`
	HelperPath   string `yaml:"helper_path"`
	RelayPath    string `yaml:"relay_path"`
	// Listen is the address for /live, /ready and /metrics. Empty disables
	// the endpoints.
	Listen   string `yaml:"listen"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	PollInterval  time.Duration `yaml:"poll_interval"`
	PollAttempts  int           `yaml:"poll_attempts"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	QueueHint     int           `yaml:"queue_hint"`
	EnableOnStart bool          `yaml:"enable_on_start"`
	WatchSettings bool          `yaml:"watch_settings"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		LogLevel:      "warn",
		PollInterval:  launcher.DefaultPollInterval,
		PollAttempts:  launcher.DefaultPollAttempts,
		ProbeTimeout:  defaultProbeLimit,
		QueueHint:     defaultQueueHint,
		EnableOnStart: true,
		WatchSettings: true,
	}
}

// VerifyConfig checks a configuration before use.
func VerifyConfig(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.PollAttempts <= 0 || c.PollAttempts > maxPollAttempts {
		return fmt.Errorf("poll_attempts must be in 1..%d, got %d", maxPollAttempts, c.PollAttempts)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.QueueHint < 1 {
		return fmt.Errorf("queue_hint must be at least 1, got %d", c.QueueHint)
	}
	return nil
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := VerifyConfig(c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}
