// Package config loads runtime configuration for the loandesk CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c/--config or LOANDESK_CONFIG.
//     Files ending in .yaml/.yml are YAML, anything else is JSON.
//  3. Environment variables (LOANDESK_*), after loading a .env file
//     (--env-file, default ".env") with godotenv.
//  4. Command-line flags set explicitly (see BindFlags).
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "api_url": "https://api.example.com/api/v1",
//	  "storage_path": "/home/me/.config/loandesk/loandesk.db",
//	  "request_timeout": "10s",
//	  "page_size": 10,
//	  "stale_time": "30s",
//	  "gc_time": "5m",
//	  "retry": 1,
//	  "retry_delay": "1s",
//	  "online_check_interval": "3s",
//	  "log_level": "info"
//	}
//
// # Environment
//
//	LOANDESK_API_URL, LOANDESK_STORAGE_PATH, LOANDESK_REQUEST_TIMEOUT,
//	LOANDESK_PAGE_SIZE, LOANDESK_STALE_TIME, LOANDESK_GC_TIME,
//	LOANDESK_RETRY, LOANDESK_RETRY_DELAY, LOANDESK_ONLINE_CHECK_INTERVAL,
//	LOANDESK_LOG_LEVEL, LOANDESK_CONFIG
package config
