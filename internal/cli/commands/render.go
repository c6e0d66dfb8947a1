package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/chartdash/internal/chart"
	"github.com/leapstack-labs/chartdash/internal/render"
	"github.com/leapstack-labs/chartdash/internal/table"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Type   string
	X      string
	Y      string
	Format string
	Output string
	Width  int
	Height int
}

// Render output formats besides the image formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a chart from a CSV file without the browser",
		Long: `Build the chart the dashboard would show for a file, axes and chart type.

Formats:
  json  the plotly figure the browser draws
  yaml  the chart description (type, bound columns, layout)
  svg   a static image
  png   a static image

Static images support scatter, line, bubble, bar, histogram and pie charts.`,
		Example: `  # Plotly figure JSON on stdout
  chartdash render sales.csv --type bar -x region -y revenue

  # Save a PNG
  chartdash render sales.csv --type pie -x region -y revenue --format png -o pie.png

  # Inspect the chart description
  chartdash render sales.csv --type sunburst -x region -y product --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", string(chart.DefaultChartType), "Chart type")
	cmd.Flags().StringVarP(&opts.X, "x", "x", "", "X-axis column")
	cmd.Flags().StringVarP(&opts.Y, "y", "y", "", "Y-axis column")
	cmd.Flags().StringVar(&opts.Format, "format", formatJSON, "Output format (json|yaml|svg|png)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Image height in pixels (default: chart height)")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return chartTypeNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{formatJSON, formatYAML, string(render.SVG), string(render.PNG)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRender(cmd *cobra.Command, path string, opts *RenderOptions) error {
	logger := NewCommandContext(cmd, "").Logger

	ct, ok := chart.ParseChartType(opts.Type)
	if !ok {
		return fmt.Errorf("unknown chart type %q (want one of %s)", opts.Type, strings.Join(chartTypeNames(), ", "))
	}

	format := strings.ToLower(opts.Format)
	var imageFormat render.Format
	if format != formatJSON && format != formatYAML {
		f, err := render.ParseFormat(format)
		if err != nil {
			return err
		}
		imageFormat = f
		if err := (render.Size{Width: opts.Width, Height: opts.Height}).Validate(); err != nil {
			return err
		}
	}

	t, err := table.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Debug("loaded table", "file", path, "shape", table.Summary(t))

	spec := chart.BuildChart(t, opts.X, opts.Y, ct)
	if spec.IsEmpty() {
		return fmt.Errorf("nothing to render: choose both -x and -y from %s", strings.Join(t.Columns(), ", "))
	}
	logger.Debug("built chart", "chart", chart.Describe(spec))

	w, closeOut, err := openOutput(cmd.OutOrStdout(), opts.Output)
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(chart.Figure(spec, t))
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(spec)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = render.Write(w, spec, t, imageFormat, render.Size{Width: opts.Width, Height: opts.Height})
	}

	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", chart.Describe(spec), err)
	}
	if opts.Output != "" {
		logger.Info("chart written", "file", opts.Output, "chart", chart.Describe(spec))
	}
	return nil
}

// openOutput returns stdout or a newly created file.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // path is supplied by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func chartTypeNames() []string {
	types := chart.AllChartTypes()
	names := make([]string, len(types))
	for i, ct := range types {
		names[i] = string(ct)
	}
	return names
}
