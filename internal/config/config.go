package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the JSON API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Catalog is the path to the net catalog (YAML or JSON). Empty selects
	// the embedded Greater Los Angeles catalog.
	Catalog string `yaml:"catalog" json:"catalog"`

	// Timezone is the IANA zone whose wall clock supplies "now". Net times
	// are not converted; they are read as wall-clock times in this zone.
	// Empty uses the process local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "* * * * *")
	// driving the live/soon monitor.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the default expansion window for the iCalendar feed
	// and occurrence listings, at most one year.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// UpcomingLimit caps the upcoming bucket in API responses.
	UpcomingLimit int `yaml:"upcoming_limit" json:"upcoming_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen        = "127.0.0.1:8080"
	defaultRefreshCron   = "* * * * *"
	defaultHorizonDays   = 14
	maxHorizonDays       = 366
	defaultUpcomingLimit = 5
	defaultLogLevel      = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		Catalog:       "",
		Timezone:      "",
		RefreshCron:   defaultRefreshCron,
		HorizonDays:   defaultHorizonDays,
		UpcomingLimit: defaultUpcomingLimit,
		LogLevel:      defaultLogLevel,
		BasicAuth:     nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.HorizonDays > maxHorizonDays {
		c.HorizonDays = maxHorizonDays
	}
	if c.UpcomingLimit <= 0 {
		c.UpcomingLimit = defaultUpcomingLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Location resolves Timezone, falling back to time.Local when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the YAML config at path. A missing file is created with
// DefaultConfig (mode 0600) and those defaults are returned; if that write
// fails the defaults come back alongside the error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg := DefaultConfig()
		return cfg, Save(path, cfg)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save normalizes cfg and replaces the file at path with it. The file is
// never observed half-written and ends up with mode 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := replaceFile(path, data); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".netsched-config-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
