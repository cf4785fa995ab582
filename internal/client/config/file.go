package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Pointer
// fields tell "absent" from "zero" so a partial file only overrides what it
// names. Durations use timex.Duration.
type FileConfig struct {
	BaseURL             *string         `json:"api_url" yaml:"api_url"`
	StoragePath         *string         `json:"storage_path" yaml:"storage_path"`
	RequestTimeout      *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	PageSize            *int            `json:"page_size" yaml:"page_size"`
	StaleTime           *timex.Duration `json:"stale_time" yaml:"stale_time"`
	GCTime              *timex.Duration `json:"gc_time" yaml:"gc_time"`
	Retry               *int            `json:"retry" yaml:"retry"`
	RetryDelay          *timex.Duration `json:"retry_delay" yaml:"retry_delay"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	LogLevel            *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the values found in the file at path. An
// empty path is a no-op. Files ending in .yaml or .yml are read as YAML,
// everything else as JSON.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.StoragePath != nil {
		cfg.StoragePath = *fc.StoragePath
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.PageSize != nil {
		cfg.PageSize = *fc.PageSize
	}
	if fc.StaleTime != nil {
		cfg.StaleTime = fc.StaleTime.Duration
	}
	if fc.GCTime != nil {
		cfg.GCTime = fc.GCTime.Duration
	}
	if fc.Retry != nil {
		cfg.Retry = *fc.Retry
	}
	if fc.RetryDelay != nil {
		cfg.RetryDelay = fc.RetryDelay.Duration
	}
	if fc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}
