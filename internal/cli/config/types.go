// Package config provides configuration management for the chartdash CLI.
//
// Values are layered from built-in defaults, an optional chartdash.yaml,
// CHARTDASH_* environment variables and explicitly set command-line flags,
// in increasing order of precedence.
package config

import "time"

// UIConfig holds configuration for the dashboard server.
type UIConfig struct {
	Port     int    `koanf:"port"`
	Host     string `koanf:"host"`
	AutoOpen bool   `koanf:"auto_open"`

	// MaxUploadMB caps the upload request body. Zero means unlimited.
	MaxUploadMB int `koanf:"max_upload_mb"`
	// WorkspaceTTL evicts dashboards that have been idle this long.
	WorkspaceTTL time.Duration `koanf:"workspace_ttl"`
	// SessionSecret signs the session cookie. Supports ${VAR} expansion.
	SessionSecret string `koanf:"session_secret"`

	// Data is a CSV or XLSX file loaded into every new dashboard.
	Data  string `koanf:"data"`
	Watch bool   `koanf:"watch"`

	PlotlySrc string `koanf:"plotly_src"`
	Dev       bool   `koanf:"dev"`
}

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool      `koanf:"verbose"`
	OutputFormat string    `koanf:"output"`
	UI           *UIConfig `koanf:"ui"`
}

// Default configuration values.
const (
	DefaultPort         = 8050
	DefaultHost         = "127.0.0.1"
	DefaultWorkspaceTTL = 30 * time.Minute
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:         DefaultPort,
		Host:         DefaultHost,
		WorkspaceTTL: DefaultWorkspaceTTL,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.WorkspaceTTL == 0 {
		ui.WorkspaceTTL = DefaultWorkspaceTTL
	}
	return ui
}
