package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the name of the configuration file in the data directory.
const FileName = "dlog.config"

// Config is the root configuration for dlog, stored as TOML in
// <data dir>/dlog.config.
type Config struct {
	// ConfirmNew asks before starting an entry with a name not used before.
	ConfirmNew bool `toml:"confirm_new"`
	// AutoMerge folds a filled entry into the previous one when both have
	// the same activity, project and tags.
	AutoMerge bool `toml:"auto_merge"`
	// TimeFormat, DateFormat and LongDateFormat are Go time layouts.
	TimeFormat     string `toml:"time_format"`
	DateFormat     string `toml:"date_format"`
	LongDateFormat string `toml:"long_date_format"`
	// Pager is the command used to page long output. "-" disables paging.
	Pager    string `toml:"pager"`
	LogLevel string `toml:"log_level"`

	Outlook OutlookConfig `toml:"outlook"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `toml:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `toml:"client_id"`
	// DefaultProject is the project name assigned to imported events.
	DefaultProject string `toml:"default_project"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `toml:"timezone"`
}

const (
	DefaultTimeFormat     = "15:04:05"
	DefaultDateFormat     = "2006-01-02"
	DefaultLongDateFormat = "Monday, 2006-01-02"
	DefaultLogLevel       = "warn"

	// DefaultTenantID is the Microsoft "common" tenant.
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID. It supports
	// device code flow without a client secret.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	DefaultProject  = "meetings"
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		TimeFormat:     DefaultTimeFormat,
		DateFormat:     DefaultDateFormat,
		LongDateFormat: DefaultLongDateFormat,
		LogLevel:       DefaultLogLevel,
		Outlook: OutlookConfig{
			TenantID:       DefaultTenantID,
			ClientID:       DefaultClientID,
			DefaultProject: DefaultProject,
		},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# dlog configuration
#
# All settings are optional; the values below are the built-in defaults.

# Ask for confirmation before logging an activity that was never used.
confirm_new = false

# Merge a filled entry into the previous one if both share activity,
# project and tags.
auto_merge = false

# Go time layouts, see https://pkg.go.dev/time#pkg-constants
time_format = "15:04:05"
date_format = "2006-01-02"
long_date_format = "Monday, 2006-01-02"

# Pager for long output. Empty uses $PAGER or "less -R", "-" disables paging.
pager = ""

# One of debug, info, warn, error. Overridden by DLOG_LOG_LEVEL.
log_level = "warn"

# Microsoft Graph / Outlook calendar import
[outlook]
# "common" works for personal Microsoft accounts and most organisations.
tenant_id = "common"
# The built-in value is the public Azure CLI app; no registration needed.
client_id = "04b07795-8542-4c4a-95af-30b2c573d5ab"
# Project assigned to imported events. Override with --project.
default_project = "meetings"
# IANA timezone for event times, e.g. "Europe/Berlin". Empty uses UTC.
timezone = ""
`

// Load reads dlog.config from the data directory of loc, creating it with
// annotated defaults on first run. Unset fields keep their defaults and
// DLOG_* environment variables are applied last.
func Load(loc Locator) (Config, error) {
	cfg := Default()
	path, err := loc.File(FileName)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := writeDefault(path); err != nil {
			return cfg, err
		}
	case err != nil:
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	cfg.fillDefaults()
	FromEnv(&cfg)
	return cfg, nil
}

// fillDefaults replaces fields emptied in the file with built-in defaults.
func (c *Config) fillDefaults() {
	d := Default()
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.DateFormat == "" {
		c.DateFormat = d.DateFormat
	}
	if c.LongDateFormat == "" {
		c.LongDateFormat = d.LongDateFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = d.Outlook.TenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = d.Outlook.ClientID
	}
	if c.Outlook.DefaultProject == "" {
		c.Outlook.DefaultProject = d.Outlook.DefaultProject
	}
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
