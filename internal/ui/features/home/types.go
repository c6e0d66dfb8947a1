// Package home provides the dashboard page: upload, axis and chart-type
// controls, and the live chart.
package home

import (
	"encoding/json"
	"strconv"

	"github.com/leapstack-labs/chartdash/internal/chart"
	"github.com/leapstack-labs/chartdash/internal/dashboard"
	"github.com/leapstack-labs/chartdash/internal/render"
	"github.com/leapstack-labs/chartdash/internal/table"
)

// UploadSignals is the body posted by the upload control.
type UploadSignals struct {
	Contents string `json:"contents"`
	Filename string `json:"filename"`
}

// ControlSignals are the datastar signals bound to the three selects.
type ControlSignals struct {
	ChartType string `json:"chartType"`
	XAxis     string `json:"xAxis"`
	YAxis     string `json:"yAxis"`
}

func signalsFor(c dashboard.Controls) ControlSignals {
	return ControlSignals{ChartType: string(c.ChartType), XAxis: c.X, YAxis: c.Y}
}

func (s ControlSignals) controls() dashboard.Controls {
	return dashboard.Controls{ChartType: chart.ChartType(s.ChartType), X: s.XAxis, Y: s.YAxis}
}

// Option is one entry of a select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// ViewData is everything the dashboard view renders.
type ViewData struct {
	Revision   uint64
	ChartTypes []Option
	XOptions   []Option
	YOptions   []Option
	Filename   string
	Summary    string
	Notice     string
	Figure     string
	Describe   string
	Exportable bool
	Profile    []table.ColumnProfile
}

// PageData wraps the view with page-level settings.
type PageData struct {
	Title     string
	IsDev     bool
	PlotlySrc string
	Signals   string
	View      ViewData
}

func buildViewData(s dashboard.Snapshot) (ViewData, error) {
	fig, err := json.Marshal(s.Figure())
	if err != nil {
		return ViewData{}, err
	}

	v := ViewData{
		Revision:   s.Revision,
		ChartTypes: make([]Option, 0, len(chart.AllChartTypes())),
		XOptions:   columnOptions(s.XOptions, s.Controls.X),
		YOptions:   columnOptions(s.YOptions, s.Controls.Y),
		Filename:   s.Filename,
		Notice:     s.Notice,
		Figure:     string(fig),
		Describe:   chart.Describe(s.Spec),
		Exportable: !s.Spec.IsEmpty() && render.Supported(s.Spec.Type),
		Profile:    table.Profile(s.Table),
	}
	if s.Table != nil {
		v.Summary = table.Summary(s.Table)
	}
	for _, ct := range chart.AllChartTypes() {
		v.ChartTypes = append(v.ChartTypes, Option{
			Value:    string(ct),
			Label:    ct.Label(),
			Selected: ct == s.Controls.ChartType,
		})
	}
	return v, nil
}

func columnOptions(names []string, selected string) []Option {
	out := make([]Option, len(names))
	for i, n := range names {
		out[i] = Option{Value: n, Label: n, Selected: n == selected}
	}
	return out
}

func anySelected(opts []Option) bool {
	for _, o := range opts {
		if o.Selected {
			return true
		}
	}
	return false
}

var profileHeaders = []string{"Column", "Kind", "Count", "Nulls", "Distinct", "Min", "Max", "Mean", "Std Dev"}

// profileStats returns the Distinct, Min, Max, Mean and Std Dev cells of a
// profile row. Text columns fill only Distinct, number columns only the rest.
func profileStats(p table.ColumnProfile) []string {
	cells := make([]string, 5)
	switch p.Kind {
	case table.KindText.String():
		cells[0] = strconv.Itoa(p.Distinct)
	case table.KindNumber.String():
		for i, f := range []float64{p.Min, p.Max, p.Mean, p.StdDev} {
			cells[i+1] = table.FormatNumber(f)
		}
	}
	return cells
}

func signalsJSON(c dashboard.Controls) (string, error) {
	b, err := json.Marshal(signalsFor(c))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
