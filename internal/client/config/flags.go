package config

import (
	"github.com/spf13/cobra"
)

const (
	flagConfig              = "config"
	flagEnvFile             = "env-file"
	flagAPI                 = "api"
	flagStorage             = "storage"
	flagTimeout             = "timeout"
	flagPageSize            = "page-size"
	flagStaleTime           = "stale-time"
	flagGCTime              = "gc-time"
	flagRetry               = "retry"
	flagRetryDelay          = "retry-delay"
	flagOnlineCheckInterval = "online-check-interval"
	flagLogLevel            = "log-level"
)

// BindFlags registers the configuration flags on cmd as persistent flags so
// every subcommand accepts them. Defaults shown in help are the built-in
// ones; Load only applies flags the user actually set.
func BindFlags(cmd *cobra.Command) {
	var d Config
	d.LoadDefaults()

	fs := cmd.PersistentFlags()
	fs.StringP(flagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(flagEnvFile, ".env", "path to a .env file")
	fs.StringP(flagAPI, "a", d.BaseURL, "API base URL")
	fs.String(flagStorage, d.StoragePath, "local storage file")
	fs.Duration(flagTimeout, d.RequestTimeout, "per-request timeout")
	fs.Int(flagPageSize, d.PageSize, "contracts per page")
	fs.Duration(flagStaleTime, d.StaleTime, "how long cached reads count as fresh")
	fs.Duration(flagGCTime, d.GCTime, "how long unused cached reads are kept")
	fs.Int(flagRetry, d.Retry, "retries for a failed read")
	fs.Duration(flagRetryDelay, d.RetryDelay, "base delay between retries")
	fs.DurationP(flagOnlineCheckInterval, "i", d.OnlineCheckInterval, "online status check interval")
	fs.String(flagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
}

func configFileFlag(cmd *cobra.Command) string {
	if cmd == nil {
		return ""
	}
	v, _ := cmd.Flags().GetString(flagConfig)
	return v
}

func envFileFlag(cmd *cobra.Command) string {
	if cmd == nil {
		return ".env"
	}
	v, err := cmd.Flags().GetString(flagEnvFile)
	if err != nil {
		return ".env"
	}
	return v
}

// parseFlags overlays cfg with flags changed on the command line.
func parseFlags(cfg *Config, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	fs := cmd.Flags()

	var err error
	set := func(name string, apply func() error) {
		if err != nil || !fs.Changed(name) {
			return
		}
		err = apply()
	}

	set(flagAPI, func() (e error) { cfg.BaseURL, e = fs.GetString(flagAPI); return })
	set(flagStorage, func() (e error) { cfg.StoragePath, e = fs.GetString(flagStorage); return })
	set(flagTimeout, func() (e error) { cfg.RequestTimeout, e = fs.GetDuration(flagTimeout); return })
	set(flagPageSize, func() (e error) { cfg.PageSize, e = fs.GetInt(flagPageSize); return })
	set(flagStaleTime, func() (e error) { cfg.StaleTime, e = fs.GetDuration(flagStaleTime); return })
	set(flagGCTime, func() (e error) { cfg.GCTime, e = fs.GetDuration(flagGCTime); return })
	set(flagRetry, func() (e error) { cfg.Retry, e = fs.GetInt(flagRetry); return })
	set(flagRetryDelay, func() (e error) { cfg.RetryDelay, e = fs.GetDuration(flagRetryDelay); return })
	set(flagOnlineCheckInterval, func() (e error) {
		cfg.OnlineCheckInterval, e = fs.GetDuration(flagOnlineCheckInterval)
		return
	})
	set(flagLogLevel, func() (e error) { cfg.LogLevel, e = fs.GetString(flagLogLevel); return })
	return err
}
