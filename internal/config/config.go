package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

const (
	defaultSeedsDir      = "./seeds"
	defaultOutputDir     = "./public/api"
	defaultAPIPrefix     = "/api"
	defaultTimezone      = "America/Los_Angeles"
	defaultListen        = "127.0.0.1:8080"
	defaultRecompile     = "5 0 * * *"
	defaultWorkers       = 4
	defaultEventDuration = 120
	defaultLogLevel      = "info"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// SeedsDir is the root of the authored file tree (organizations/, users/,
	// locations/, runs/).
	SeedsDir string `yaml:"seeds_dir" json:"seeds_dir"`

	// OutputDir is where compiled documents are persisted.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// APIPrefix is the URL prefix used for relationship links (e.g. "/api").
	APIPrefix string `yaml:"api_prefix" json:"api_prefix"`

	// Timezone is the IANA timezone whose civil date defines "today".
	Timezone string `yaml:"timezone" json:"timezone"`

	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// Recompile is a cron-style schedule string (e.g. "5 0 * * *") that
	// drives full recompilation in serve mode.
	Recompile string `yaml:"recompile" json:"recompile"`

	// Workers bounds concurrent document assembly.
	Workers int `yaml:"workers" json:"workers"`

	// Strict aborts the whole compilation when any run has a malformed
	// recurrence. When false the failing runs are dropped and logged.
	Strict *bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// ICS toggles iCalendar feed output next to the JSON documents.
	ICS *bool `yaml:"ics,omitempty" json:"ics,omitempty"`

	// EventDurationMinutes is the length given to ICS events.
	EventDurationMinutes int `yaml:"event_duration_minutes" json:"event_duration_minutes"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.SeedsDir == "" {
		c.SeedsDir = defaultSeedsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.APIPrefix == "" {
		c.APIPrefix = defaultAPIPrefix
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Recompile == "" {
		c.Recompile = defaultRecompile
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Strict == nil {
		v := true
		c.Strict = &v
	}
	if c.ICS == nil {
		v := true
		c.ICS = &v
	}
	if c.EventDurationMinutes <= 0 {
		c.EventDurationMinutes = defaultEventDuration
	}
	switch c.LogLevel {
	case "debug", "info", "error":
		// ok
	default:
		c.LogLevel = defaultLogLevel
	}
}

// Validate checks values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Recompile); err != nil {
		return fmt.Errorf("config: recompile schedule %q: %w", c.Recompile, err)
	}
	return nil
}

// Location resolves Timezone. Validate should have been called first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) StrictMode() bool { return c.Strict == nil || *c.Strict }

func (c *Config) ICSEnabled() bool { return c.ICS == nil || *c.ICS }

func (c *Config) EventDuration() time.Duration {
	return time.Duration(c.EventDurationMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".trailcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
