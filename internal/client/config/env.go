package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "LOANDESK_"

// loadDotEnv exports the variables of a .env file into the process
// environment. Variables already set win; a missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays cfg with LOANDESK_* variables.
func parseEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("API_URL", &cfg.BaseURL)
	str("STORAGE_PATH", &cfg.StoragePath)
	str("LOG_LEVEL", &cfg.LogLevel)

	ints := []struct {
		name string
		dst  *int
	}{
		{"PAGE_SIZE", &cfg.PageSize},
		{"RETRY", &cfg.Retry},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(envPrefix + e.name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, e.name, err)
		}
		*e.dst = n
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"STALE_TIME", &cfg.StaleTime},
		{"GC_TIME", &cfg.GCTime},
		{"RETRY_DELAY", &cfg.RetryDelay},
		{"ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval},
	}
	for _, e := range durations {
		v, ok := os.LookupEnv(envPrefix + e.name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, e.name, err)
		}
		*e.dst = d
	}
	return nil
}
