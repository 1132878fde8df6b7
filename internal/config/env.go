package config

import (
	"os"
	"strconv"
)

// FromEnv overlays RUNLOG_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RUNLOG_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("RUNLOG_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("RUNLOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RUNLOG_LIST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ListLimit = n
		}
	}
	if v := os.Getenv("RUNLOG_DEFAULT_SOURCE"); v != "" {
		cfg.DefaultSource = v
	}
	if v := os.Getenv("RUNLOG_ALLOC_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Alloc.MaxAttempts = n
		}
	}
	if v := os.Getenv("RUNLOG_ALLOC_BACKOFF_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Alloc.BackoffMs = n
		}
	}
	if v := os.Getenv("RUNLOG_ALLOC_STALE_LOCK_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Alloc.StaleLockMs = n
		}
	}
}
