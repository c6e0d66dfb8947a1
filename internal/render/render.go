// Package render draws chart specs to static images with go-chart.
//
// It backs the dashboard's export downloads and the `chartdash render`
// command. Only the chart kinds go-chart can draw faithfully are supported;
// the rest report ErrUnsupported and stay browser-only.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/leapstack-labs/chartdash/internal/chart"
	"github.com/leapstack-labs/chartdash/internal/table"
)

// Sentinel errors returned by Write.
var (
	// ErrEmpty is returned for the Empty spec.
	ErrEmpty = errors.New("nothing to render")
	// ErrUnsupported is returned for chart kinds without a static renderer.
	ErrUnsupported = errors.New("chart type cannot be exported")
	// ErrInvalidData is returned when the bound columns cannot be drawn.
	ErrInvalidData = errors.New("chart data cannot be drawn")
	// ErrInvalidSize is returned for a negative or oversized canvas.
	ErrInvalidSize = errors.New("invalid image size")
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case SVG, PNG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown image format %q (want svg or png)", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Size is the output canvas size in pixels. Zero fields take the defaults.
type Size struct {
	Width  int
	Height int
}

// DefaultWidth is used when Size.Width is zero. The default height is the
// spec's layout height.
const DefaultWidth = 1024

// MaxDimension bounds both sides of the canvas.
const MaxDimension = 4096

// Validate checks that both sides are zero or within 1..MaxDimension.
func (s Size) Validate() error {
	for _, d := range []struct {
		name string
		v    int
	}{{"width", s.Width}, {"height", s.Height}} {
		if d.v < 0 || d.v > MaxDimension {
			return fmt.Errorf("%w: %s %d not in 0..%d", ErrInvalidSize, d.name, d.v, MaxDimension)
		}
	}
	return nil
}

var paperColor = drawing.ColorFromHex("B0C4DE") // LightSteelBlue

// Supported reports whether ct has a static renderer.
func Supported(ct chart.ChartType) bool {
	_, ok := drawers[ct]
	return ok
}

type drawer func(w io.Writer, rp gochart.RendererProvider, s chart.Spec, t *table.Table, size Size) error

var drawers = map[chart.ChartType]drawer{
	chart.Scatter:   drawPoints,
	chart.Line:      drawPoints,
	chart.Bubble:    drawPoints,
	chart.Bar:       drawBars,
	chart.Histogram: drawHistogram,
	chart.Pie:       drawPie,
}

// Write renders s, built from t, to w in the given format.
func Write(w io.Writer, s chart.Spec, t *table.Table, format Format, size Size) error {
	if s.IsEmpty() || t == nil {
		return ErrEmpty
	}
	if err := size.Validate(); err != nil {
		return err
	}
	draw, ok := drawers[s.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, s.Type.Label())
	}

	var rp gochart.RendererProvider
	switch format {
	case SVG:
		rp = gochart.SVG
	case PNG:
		rp = gochart.PNG
	default:
		return fmt.Errorf("unknown image format %q", format)
	}

	if size.Width <= 0 {
		size.Width = DefaultWidth
	}
	if size.Height <= 0 {
		size.Height = s.Layout.Height
	}
	return draw(w, rp, s, t, size)
}

func background() gochart.Style {
	return gochart.Style{
		FillColor: paperColor,
		Padding:   gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
	}
}

func tickStyle(s chart.Spec) gochart.Style {
	return gochart.Style{
		TextRotationDegrees: float64(s.Layout.XTickAngle),
		FontSize:            float64(s.Layout.TickFontSize),
	}
}
