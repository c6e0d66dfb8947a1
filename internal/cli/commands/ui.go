package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chartdash/internal/cli/config"
	"github.com/leapstack-labs/chartdash/internal/cli/output"
	"github.com/leapstack-labs/chartdash/internal/ui"
)

// NewServeCommand creates the serve command. Its flags are read through the
// config loader, so each one can also be set in chartdash.yaml or the
// environment.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the chartdash dashboard",
		Long: `Start a local web server with the chart dashboard.

Upload a CSV file, pick the X and Y columns and a chart type, and the chart
redraws on every change. Each browser gets its own dashboard.`,
		Example: `  # Start on the default port (8050)
  chartdash serve

  # Start with a file preloaded and reload it when it changes
  chartdash serve --data sales.csv --watch

  # Listen on all interfaces and open a browser
  chartdash serve --host 0.0.0.0 --port 3000 --open`,
		Args: cobra.NoArgs,
		RunE: RunServe,
	}

	AddServeFlags(cmd)
	return cmd
}

// AddServeFlags registers the server flags on cmd. The root command carries
// them too so that a bare `chartdash` serves.
func AddServeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("port", config.DefaultPort, "Port to serve on")
	cmd.Flags().String("host", config.DefaultHost, "Interface to listen on")
	cmd.Flags().Bool("open", false, "Open the dashboard in a browser")
	cmd.Flags().String("data", "", "CSV or XLSX file loaded into every new dashboard")
	cmd.Flags().Bool("watch", false, "Reload --data when the file changes")
	cmd.Flags().Int("max-upload-mb", 0, "Largest accepted upload in MB (0 = unlimited)")
	cmd.Flags().Duration("workspace-ttl", config.DefaultWorkspaceTTL, "Drop dashboards idle for this long")
	cmd.Flags().String("plotly-src", "", "URL of the plotly.js bundle")
	cmd.Flags().Bool("dev", false, "Enable live reload endpoints")
	_ = cmd.Flags().MarkHidden("dev")
}

// RunServe starts the dashboard server and blocks until the command's
// context is cancelled.
func RunServe(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd, "")
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	uiCfg := cfg.GetUIConfig()

	if err := cfg.ValidateDataFile(); err != nil {
		return err
	}

	server, err := ui.NewServer(ui.Config{
		Host:          uiCfg.Host,
		Port:          uiCfg.Port,
		SessionSecret: uiCfg.SessionSecret,
		Logger:        logger,
		SeedPath:      uiCfg.Data,
		Watch:         uiCfg.Watch,
		WorkspaceTTL:  uiCfg.WorkspaceTTL,
		MaxUploadMB:   uiCfg.MaxUploadMB,
		PlotlySrc:     uiCfg.PlotlySrc,
		Dev:           uiCfg.Dev,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	printBanner(cmdCtx.Renderer, server.URL(), uiCfg)

	if uiCfg.AutoOpen {
		go openBrowser(server.URL())
	}

	return server.Serve(cmd.Context())
}

func printBanner(r *output.Renderer, url string, uiCfg *config.UIConfig) {
	styles := r.Styles()
	lines := "chartdash dashboard\n" + url
	if uiCfg.Data != "" {
		lines += "\n" + "data: " + uiCfg.Data
		if uiCfg.Watch {
			lines += " (watching)"
		}
	}
	r.Println(styles.Banner.Render(lines))
	r.Println(styles.Muted.Render("Press Ctrl+C to stop"))
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
