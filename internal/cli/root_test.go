package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chartdash/internal/cli/config"
	"github.com/leapstack-labs/chartdash/internal/cli/testutil"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "chartdash", cmd.Use)
	assert.NotNil(t, cmd.RunE, "bare chartdash serves the dashboard")

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"serve", "render", "inspect", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "persistent flag %q should exist", flag)
	}
	assert.Empty(t, cmd.PersistentFlags().Lookup("output").Shorthand)
	assert.NotNil(t, cmd.Flags().Lookup("port"), "serve flags are on the root command")
}

func TestRoot_InspectJSON(t *testing.T) {
	path := testutil.SetupTestData(t, "cities.csv", testutil.SampleCSV)

	out, err := runRoot(t, "inspect", path, "--output", "json")
	require.NoError(t, err)

	var got struct {
		Rows     int      `json:"rows"`
		XOptions []string `json:"xOptions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, []string{"city", "pop"}, got.XOptions)
}

func TestRoot_OutputFromConfigFile(t *testing.T) {
	path := testutil.SetupTestData(t, "cities.csv", testutil.SampleCSV)
	require.NoError(t, os.WriteFile("chartdash.yaml", []byte("output: json\n"), 0600))

	out, err := runRoot(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"file": "`+path+`"`)
	testutil.AssertNoANSI(t, out)
}

func TestRoot_Completion(t *testing.T) {
	out, err := runRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "chartdash")
	assert.Contains(t, out, "bash completion")
}

func TestRoot_Version(t *testing.T) {
	out, err := runRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "chartdash "+Version)
	assert.Contains(t, out, "commit")
}

func TestRoot_ConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		args      func(dir string) []string
		setup     func(t *testing.T, dir string)
		errSubstr string
	}{
		{
			name: "missing config file",
			args: func(dir string) []string {
				return []string{"--config", filepath.Join(dir, "nope.yaml"), "inspect", "cities.csv"}
			},
			errSubstr: "nope.yaml",
		},
		{
			name: "invalid port",
			args: func(string) []string { return []string{"inspect", "cities.csv"} },
			setup: func(t *testing.T, dir string) {
				t.Helper()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "chartdash.yaml"), []byte("ui:\n  port: 70000\n"), 0600))
			},
			errSubstr: "port",
		},
		{
			name:      "watch without data",
			args:      func(string) []string { return []string{"serve", "--watch"} },
			errSubstr: "ui.watch requires ui.data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.SetupTestData(t, "cities.csv", testutil.SampleCSV)
			dir := filepath.Dir(path)
			if tt.setup != nil {
				tt.setup(t, dir)
			}

			_, err := runRoot(t, tt.args(dir)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}
