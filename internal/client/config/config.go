package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Config holds runtime settings for the loandesk CLI.
//
// Durations are time.Duration values; the file loader accepts either
// strings like "30s" or integer nanoseconds.
type Config struct {
	BaseURL        string
	StoragePath    string
	RequestTimeout time.Duration
	PageSize       int

	StaleTime  time.Duration
	GCTime     time.Duration
	Retry      int
	RetryDelay time.Duration

	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://localhost:3000/api/v1"
	c.StoragePath = defaultStoragePath()
	c.RequestTimeout = 10 * time.Second
	c.PageSize = 10
	c.StaleTime = 30 * time.Second
	c.GCTime = 5 * time.Minute
	c.Retry = 1
	c.RetryDelay = time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "loandesk.db"
	}
	return filepath.Join(dir, "loandesk", "loandesk.db")
}

// Load constructs a Config, applies defaults, then overlays the config file
// (if any), the environment (including a .env file), and finally the flags
// set explicitly on cmd. Later sources take precedence over earlier ones.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(envFileFlag(cmd)); err != nil {
		return nil, err
	}

	path := configFileFlag(cmd)
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if err := parseFile(cfg, path); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, cmd); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.BaseURL)
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("storage path is empty")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.Retry < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", c.Retry)
	}
	return nil
}
