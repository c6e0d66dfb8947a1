package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/chartdash/internal/chart"
	"github.com/leapstack-labs/chartdash/internal/cli/output"
	"github.com/leapstack-labs/chartdash/internal/table"
)

// InspectOutput is the JSON shape of the inspect command.
type InspectOutput struct {
	File     string                `json:"file"`
	Rows     int                   `json:"rows"`
	Columns  int                   `json:"columns"`
	XOptions []string              `json:"xOptions"`
	YOptions []string              `json:"yOptions"`
	Profile  []table.ColumnProfile `json:"profile"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the columns and a profile of a CSV file",
		Long: `Decode a file the same way the dashboard does and print its shape,
the columns offered for the X and Y axes, and per-column statistics.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown

Use --format to override: table, markdown, json`,
		Example: `  # Profile a file
  chartdash inspect sales.csv

  # Machine-readable profile
  chartdash inspect sales.csv --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format (table|markdown|json)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runInspect(cmd *cobra.Command, path, format string) error {
	if format == "table" {
		format = string(output.ModeText)
	}
	cmdCtx := NewCommandContext(cmd, format)
	r := cmdCtx.Renderer

	t, err := table.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	cmdCtx.Logger.Debug("loaded table", "file", path, "shape", table.Summary(t))

	x, y := chart.ResolveOptions(t)
	profile := table.Profile(t)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(InspectOutput{
			File:     path,
			Rows:     t.Len(),
			Columns:  t.NumColumns(),
			XOptions: x,
			YOptions: y,
			Profile:  profile,
		})
	}

	r.Header(1, path)
	r.Println(table.Summary(t))
	r.Println("")
	if t.NumColumns() == 0 {
		return nil
	}

	r.Header(2, "Columns")
	r.Table(profileHeader, profileRows(profile))
	return nil
}

var profileHeader = []string{"Column", "Kind", "Count", "Nulls", "Distinct", "Min", "Max", "Mean", "Median", "Std Dev"}

func profileRows(profile []table.ColumnProfile) [][]string {
	rows := make([][]string, 0, len(profile))
	for _, p := range profile {
		row := []string{p.Name, p.Kind, strconv.Itoa(p.Count), strconv.Itoa(p.Nulls), "", "", "", "", "", ""}
		switch p.Kind {
		case table.KindText.String():
			row[4] = strconv.Itoa(p.Distinct)
		case table.KindNumber.String():
			for i, f := range []float64{p.Min, p.Max, p.Mean, p.Median, p.StdDev} {
				row[5+i] = table.FormatNumber(f)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
