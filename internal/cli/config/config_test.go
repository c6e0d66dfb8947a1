package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a chartdash.yaml into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chartdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// testFlags mirrors the flags the root and serve commands register.
func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BoolP("verbose", "v", false, "")
	flags.String("output", "", "")
	flags.Int("port", 0, "")
	flags.String("host", "", "")
	flags.String("data", "", "")
	flags.Bool("watch", false, "")
	flags.Duration("workspace-ttl", 0, "")
	flags.String("type", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	require.NotNil(t, cfg.UI)
	assert.Equal(t, 8050, cfg.UI.Port)
	assert.Equal(t, DefaultHost, cfg.UI.Host)
	assert.Equal(t, 30*time.Minute, cfg.UI.WorkspaceTTL)
	assert.False(t, cfg.UI.AutoOpen)
	assert.Zero(t, cfg.UI.MaxUploadMB)
	assert.Empty(t, cfg.UI.Data)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
verbose: true
ui:
  port: 9000
  auto_open: true
  max_upload_mb: 5
  workspace_ttl: 10m
  data: data/cities.csv
  plotly_src: /vendor/plotly.js
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 9000, cfg.UI.Port)
	assert.True(t, cfg.UI.AutoOpen)
	assert.Equal(t, 5, cfg.UI.MaxUploadMB)
	assert.Equal(t, 10*time.Minute, cfg.UI.WorkspaceTTL)
	assert.Equal(t, "/vendor/plotly.js", cfg.UI.PlotlySrc)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "cities.csv"), cfg.UI.Data,
		"data path from the config file is relative to the file")
}

func TestLoadConfig_DiscoversFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chartdash.yml"), []byte("ui:\n  port: 7000\n"), 0600))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "chartdash.yml", GetConfigFileUsed())
	assert.Equal(t, 7000, cfg.UI.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "ui:\n  port: 9000\n  max_upload_mb: 2\n")
	t.Setenv("CHARTDASH_UI_PORT", "9100")
	t.Setenv("CHARTDASH_UI_MAX_UPLOAD_MB", "8")
	t.Setenv("CHARTDASH_VERBOSE", "true")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.UI.Port)
	assert.Equal(t, 8, cfg.UI.MaxUploadMB)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "ui:\n  port: 9000\n  workspace_ttl: 10m\n")
	t.Setenv("CHARTDASH_UI_PORT", "9100")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--port", "9200", "--workspace-ttl", "45m", "--type", "pie"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.UI.Port)
	assert.Equal(t, 45*time.Minute, cfg.UI.WorkspaceTTL)
	assert.False(t, k.Exists("type"), "command options must not leak into config")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("CHARTDASH_UI_HOST", "0.0.0.0")

	flags := testFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.UI.Host)
	assert.Equal(t, DefaultPort, cfg.UI.Port)
}

func TestLoadConfig_DataFlagIsRelativeToWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, "ui:\n  data: from-file.csv\n")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--data", "cities.csv"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "cities.csv"), cfg.UI.Data)
}

func TestLoadConfig_SessionSecretExpandsEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "ui:\n  session_secret: ${TEST_CHARTDASH_SECRET}\n")
	t.Setenv("TEST_CHARTDASH_SECRET", "s3cret")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.UI.SessionSecret)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"port out of range", "ui:\n  port: 70000\n", "ui.port"},
		{"negative upload cap", "ui:\n  max_upload_mb: -1\n", "max_upload_mb"},
		{"watch without data", "ui:\n  watch: true\n", "ui.watch requires ui.data"},
		{"unknown output", "output: html\n", "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateDataFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "cities.csv")
	require.NoError(t, os.WriteFile(existing, []byte("a,b\n"), 0600))

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"no data file", "", false},
		{"existing file", existing, false},
		{"missing file", filepath.Join(dir, "missing.csv"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{UI: &UIConfig{Data: tt.data}}
			err := cfg.ValidateDataFile()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "data file does not exist")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetUIConfig_AppliesDefaults(t *testing.T) {
	cfg := &Config{UI: &UIConfig{Host: "example"}}
	ui := cfg.GetUIConfig()
	assert.Equal(t, DefaultPort, ui.Port)
	assert.Equal(t, DefaultWorkspaceTTL, ui.WorkspaceTTL)
	assert.Equal(t, "example", ui.Host)

	assert.Equal(t, DefaultUIConfig(), (&Config{}).GetUIConfig())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${TEST_EXPAND_A}", "alpha"},
		{"pre-${TEST_EXPAND_A}-post", "pre-alpha-post"},
		{"${TEST_EXPAND_UNSET_VAR}", "${TEST_EXPAND_UNSET_VAR}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.in))
		})
	}
}

func TestGetLogger(t *testing.T) {
	fallback := GetLogger(context.Background())
	require.NotNil(t, fallback)
	assert.False(t, fallback.Enabled(context.Background(), -8), "fallback logger discards everything")

	logger := NewLogger(os.Stderr, true)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.True(t, logger.Enabled(ctx, -4), "verbose logger enables debug")
	assert.False(t, NewLogger(os.Stderr, false).Enabled(ctx, -4))
}
