package render

import (
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/leapstack-labs/chartdash/internal/chart"
	"github.com/leapstack-labs/chartdash/internal/table"
)

const (
	dotWidth       = 5.0
	bubbleMinWidth = 3.0
	bubbleMaxWidth = 20.0
	lineWidth      = 2.0
)

func drawPoints(w io.Writer, rp gochart.RendererProvider, s chart.Spec, t *table.Table, size Size) error {
	xcol, err := column(t, s.X)
	if err != nil {
		return err
	}
	ys, yok, err := numeric(t, s.Y)
	if err != nil {
		return err
	}
	xs, xok, ticks := positions(xcol)

	var px, py []float64
	for i := range xs {
		if xok[i] && yok[i] {
			px = append(px, xs[i])
			py = append(py, ys[i])
		}
	}
	if len(px) == 0 {
		return fmt.Errorf("%w: no rows with both %q and %q", ErrInvalidData, s.X, s.Y)
	}

	style := gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: dotWidth}
	switch s.Type {
	case chart.Line:
		style = gochart.Style{StrokeWidth: lineWidth}
	case chart.Bubble:
		style.DotWidthProvider = bubbleSizes(py)
	}

	xaxis := gochart.XAxis{
		Name:      s.X,
		TickStyle: tickStyle(s),
		Range:     paddedRange(px),
	}
	if ticks != nil {
		xaxis.Ticks = ticks
	}

	c := gochart.Chart{
		Title:      s.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: background(),
		XAxis:      xaxis,
		YAxis:      gochart.YAxis{Name: s.Y, Range: paddedRange(py)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    s.Y,
				Style:   style,
				XValues: px,
				YValues: py,
			},
		},
	}
	return c.Render(rp, w)
}

// bubbleSizes scales dot widths so that marker area tracks the value.
func bubbleSizes(ys []float64) gochart.SizeProvider {
	maxY := 0.0
	for _, y := range ys {
		maxY = math.Max(maxY, y)
	}
	return func(_, _ gochart.Range, _ int, _, y float64) float64 {
		if maxY <= 0 || y <= 0 {
			return bubbleMinWidth
		}
		return bubbleMinWidth + (bubbleMaxWidth-bubbleMinWidth)*math.Sqrt(y/maxY)
	}
}

func drawBars(w io.Writer, rp gochart.RendererProvider, s chart.Spec, t *table.Table, size Size) error {
	xcol, err := column(t, s.X)
	if err != nil {
		return err
	}
	ys, yok, err := numeric(t, s.Y)
	if err != nil {
		return err
	}

	labels, totals := sumByLabel(xcol, ys, yok)
	if len(labels) == 0 {
		return fmt.Errorf("%w: no rows with both %q and %q", ErrInvalidData, s.X, s.Y)
	}
	bars := make([]gochart.Value, len(labels))
	for i, l := range labels {
		bars[i] = gochart.Value{Label: l, Value: totals[i]}
	}
	return renderBars(w, rp, s, size, bars)
}

func drawHistogram(w io.Writer, rp gochart.RendererProvider, s chart.Spec, t *table.Table, size Size) error {
	xs, xok, err := numeric(t, s.X)
	if err != nil {
		return err
	}

	var weights []float64
	ys, yok, yerr := numeric(t, s.Y)
	var vx []float64
	for i := range xs {
		if !xok[i] {
			continue
		}
		vx = append(vx, xs[i])
		if yerr == nil {
			wt := 0.0
			if yok[i] {
				wt = ys[i]
			}
			weights = append(weights, wt)
		}
	}
	if len(vx) == 0 {
		return fmt.Errorf("%w: column %q has no numbers", ErrInvalidData, s.X)
	}

	bins := Bins(vx, weights)
	bars := make([]gochart.Value, len(bins))
	for i, b := range bins {
		bars[i] = gochart.Value{Label: table.FormatNumber(b.Lo), Value: b.Total}
	}
	return renderBars(w, rp, s, size, bars)
}

func renderBars(w io.Writer, rp gochart.RendererProvider, s chart.Spec, size Size, bars []gochart.Value) error {
	vals := make([]float64, len(bars))
	for i, b := range bars {
		vals[i] = b.Value
	}
	lo, hi := bounds(vals)
	yr := &gochart.ContinuousRange{Min: math.Min(0, lo), Max: math.Max(0, hi)}
	if yr.Min == yr.Max {
		yr.Max = yr.Min + 1
	}

	slot := (size.Width - 120) / len(bars)
	barWidth := clamp(slot*3/5, 2, 60)

	bc := gochart.BarChart{
		Title:      s.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: background(),
		XAxis:      tickStyle(s),
		YAxis:      gochart.YAxis{Name: s.Y, Range: yr},
		BarWidth:   barWidth,
		BarSpacing: clamp(slot-barWidth, 1, 40),
		Bars:       bars,
	}
	return bc.Render(rp, w)
}

func drawPie(w io.Writer, rp gochart.RendererProvider, s chart.Spec, t *table.Table, size Size) error {
	names, err := column(t, s.Names)
	if err != nil {
		return err
	}
	vs, vok, err := numeric(t, s.Values)
	if err != nil {
		return err
	}

	labels, totals := sumByLabel(names, vs, vok)
	var values []gochart.Value
	for i, l := range labels {
		if totals[i] > 0 {
			values = append(values, gochart.Value{Label: l, Value: totals[i]})
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: column %q has no positive values", ErrInvalidData, s.Values)
	}

	pc := gochart.PieChart{
		Title:      s.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: background(),
		Values:     values,
	}
	return pc.Render(rp, w)
}

func column(t *table.Table, name string) (*table.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: no column %q", ErrInvalidData, name)
	}
	return col, nil
}

func numeric(t *table.Table, name string) ([]float64, []bool, error) {
	col, err := column(t, name)
	if err != nil {
		return nil, nil, err
	}
	if !col.Numeric() {
		return nil, nil, fmt.Errorf("%w: column %q is not numeric", ErrInvalidData, name)
	}
	xs, ok := col.Floats()
	return xs, ok, nil
}

// positions maps a column onto the x axis. Numeric columns are used as-is;
// text columns become category positions 0..k-1 with one tick per category.
func positions(col *table.Column) ([]float64, []bool, []gochart.Tick) {
	if col.Numeric() {
		xs, ok := col.Floats()
		return xs, ok, nil
	}

	xs := make([]float64, len(col.Values))
	ok := make([]bool, len(col.Values))
	index := make(map[string]int)
	var ticks []gochart.Tick
	for i, v := range col.Values {
		if v.IsNull() {
			continue
		}
		pos, seen := index[v.Text]
		if !seen {
			pos = len(index)
			index[v.Text] = pos
			ticks = append(ticks, gochart.Tick{Value: float64(pos), Label: v.Text})
		}
		xs[i] = float64(pos)
		ok[i] = true
	}
	return xs, ok, ticks
}

// sumByLabel totals ys per distinct label of col, keeping first-seen order.
func sumByLabel(col *table.Column, ys []float64, yok []bool) ([]string, []float64) {
	var labels []string
	var totals []float64
	index := make(map[string]int)
	for i, v := range col.Values {
		if v.IsNull() || !yok[i] {
			continue
		}
		l := v.String()
		j, seen := index[l]
		if !seen {
			j = len(labels)
			index[l] = j
			labels = append(labels, l)
			totals = append(totals, 0)
		}
		totals[j] += ys[i]
	}
	return labels, totals
}

// paddedRange returns an explicit axis range, widened when all values are
// equal so the axis never has zero span.
func paddedRange(xs []float64) *gochart.ContinuousRange {
	lo, hi := bounds(xs)
	if lo == hi {
		return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func bounds(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
