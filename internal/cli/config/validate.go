package config

import (
	"errors"
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}

	ui := c.GetUIConfig()
	if ui.Port < 1 || ui.Port > 65535 {
		return fmt.Errorf("ui.port must be between 1 and 65535, got %d", ui.Port)
	}
	if ui.MaxUploadMB < 0 {
		return errors.New("ui.max_upload_mb must not be negative")
	}
	if ui.WorkspaceTTL < 0 {
		return errors.New("ui.workspace_ttl must not be negative")
	}
	if ui.Watch && ui.Data == "" {
		return errors.New("ui.watch requires ui.data\nHint: pass --data path/to/file.csv")
	}
	return nil
}

// ValidateDataFile checks that the configured seed file exists.
func (c *Config) ValidateDataFile() error {
	data := c.GetUIConfig().Data
	if data == "" {
		return nil
	}
	if _, err := os.Stat(data); os.IsNotExist(err) {
		return fmt.Errorf("data file does not exist: %s\nHint: check the path or use --data to specify a different file", data)
	}
	return nil
}
