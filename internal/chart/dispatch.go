package chart

import (
	"math"

	"github.com/leapstack-labs/chartdash/internal/table"
)

// builder binds the selected columns for one chart type. Title and layout are
// filled in by BuildChart.
type builder func(t *table.Table, x, y string) Spec

var builders = map[ChartType]builder{
	Scatter:   cartesian(GeometryPoints),
	Bar:       cartesian(GeometryBars),
	Line:      cartesian(GeometryLine),
	Histogram: cartesian(GeometryBins),
	Box:       cartesian(GeometryBox),
	Bubble:    buildBubble,
	Pie:       buildPie,
	Heatmap:   buildHeatmap,
	Sunburst:  buildSunburst,
}

// BuildChart produces the Spec for the current table, axis selection and
// chart type. It returns Empty when there is no table, when either axis is
// unset, or when ct is not a known chart type.
//
// Columns named by x or y are not checked against the table; a missing
// column shows up as an empty series when the spec is drawn.
func BuildChart(t *table.Table, x, y string, ct ChartType) Spec {
	if t == nil || x == "" || y == "" {
		return Empty
	}
	build, ok := builders[ct]
	if !ok {
		return Empty
	}

	s := build(t, x, y)
	s.Type = ct
	s.Title = ct.Label()
	s.Layout = DefaultLayout()
	return s
}

func cartesian(g Geometry) builder {
	return func(_ *table.Table, x, y string) Spec {
		return Spec{Geometry: g, X: x, Y: y}
	}
}

func buildBubble(_ *table.Table, x, y string) Spec {
	return Spec{Geometry: GeometryPoints, X: x, Y: y, Size: y}
}

func buildPie(_ *table.Table, x, y string) Spec {
	return Spec{Geometry: GeometrySectors, Names: x, Values: y}
}

func buildSunburst(_ *table.Table, x, y string) Spec {
	return Spec{Geometry: GeometryRings, Path: []string{x, y}}
}

// buildHeatmap ignores the selected axes and binds the whole table.
func buildHeatmap(t *table.Table, _, _ string) Spec {
	hm := &HeatmapBinding{
		Columns: t.Columns(),
		Rows:    make([]int, t.Len()),
		Cells:   make([][]float64, t.Len()),
	}
	for r := range hm.Rows {
		hm.Rows[r] = r
		row := t.Row(r)
		cells := make([]float64, len(row))
		for c, v := range row {
			if v.Kind == table.KindNumber {
				cells[c] = v.Num
			} else {
				cells[c] = math.NaN()
			}
		}
		hm.Cells[r] = cells
	}
	return Spec{Geometry: GeometryGrid, Heatmap: hm}
}
