// Package config holds the settings of the arga-admin console.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultINaturalistURL = "https://api.inaturalist.org/v1/"
	defaultTimeout        = 30 * time.Second
)

// Config is the console configuration, read from YAML and overridden by the
// environment and command line flags.
type Config struct {
	APIURL         string `yaml:"api_url"`
	INaturalistURL string `yaml:"inaturalist_url"`
	Timeout        string `yaml:"timeout"` // e.g. "30s"
	MaxRetries     int    `yaml:"max_retries"`
	Concurrency    int    `yaml:"concurrency"` // rows persisted at once
	PageSize       int    `yaml:"page_size"`
	DryRun         bool   `yaml:"dry_run"`
	CacheDir       string `yaml:"cache_dir"`
	LogLevel       string `yaml:"log_level"` // debug, info, warn, error
}

func DefaultConfig() *Config {
	return &Config{
		INaturalistURL: DefaultINaturalistURL,
		Timeout:        defaultTimeout.String(),
		MaxRetries:     2,
		Concurrency:    4,
		PageSize:       100,
		LogLevel:       "info",
	}
}

// DefaultPath is ~/.config/arga-admin/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "arga-admin", "config.yaml")
}

// Load reads the configuration at path. A missing file yields the defaults. The
// environment is applied on top in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		log.Debugf("Loaded config from %s", path)
	case os.IsNotExist(err):
		log.Debugf("No config at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("ARGA_API_URL"); url != "" {
		c.APIURL = url
	}
	if v := os.Getenv("ARGA_DRY_RUN"); v != "" {
		if dryRun, err := strconv.ParseBool(v); err == nil {
			c.DryRun = dryRun
		} else {
			log.Warnf("Ignoring ARGA_DRY_RUN=%q: %v", v, err)
		}
	}
	if level := os.Getenv("ARGA_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// GetTimeout returns the per request timeout, falling back to 30s when unset or
// unparsable.
func (c *Config) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return defaultTimeout
}

// GetLogLevel returns the configured level, info when unset or unknown.
func (c *Config) GetLogLevel() log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// GetCacheDir returns the baseline cache directory, ~/.cache/arga-admin when unset.
func (c *Config) GetCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "arga-admin")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is required (set it in the config file or ARGA_API_URL)")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http or https URL, got %q", c.APIURL)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1, got %d", c.PageSize)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
			return fmt.Errorf("invalid log_level %q", c.LogLevel)
		}
	}
	return nil
}
