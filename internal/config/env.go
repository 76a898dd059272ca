package config

import (
	"os"
	"strconv"
)

// FromEnv overlays DLOG_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("DLOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DLOG_PAGER"); v != "" {
		cfg.Pager = v
	}
	if v := os.Getenv("DLOG_AUTO_MERGE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoMerge = b
		}
	}
	if v := os.Getenv("DLOG_CONFIRM_NEW"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ConfirmNew = b
		}
	}
}
