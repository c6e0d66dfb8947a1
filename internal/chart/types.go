// Package chart maps a decoded table and the user's control values to a
// declarative chart description.
//
// The package owns three pieces of logic: the axis options offered for a
// table (ResolveOptions), the per-chart-type binding rules (BuildChart), and
// the conversion of a Spec into the plotly.js figure the browser draws
// (Figure). Drawing itself is left to plotly.js or to the render package.
package chart

// ChartType names one of the supported chart kinds. Values outside the
// enumerated set are representable so that a control value received from the
// browser can be stored verbatim; BuildChart yields Empty for them.
type ChartType string

// Supported chart types.
const (
	Scatter   ChartType = "scatter"
	Bar       ChartType = "bar"
	Line      ChartType = "line"
	Histogram ChartType = "histogram"
	Bubble    ChartType = "bubble"
	Pie       ChartType = "pie"
	Box       ChartType = "box"
	Heatmap   ChartType = "heatmap"
	Sunburst  ChartType = "sunburst"
)

// DefaultChartType is selected before the user picks one.
const DefaultChartType = Scatter

var chartTypes = []ChartType{Scatter, Bar, Line, Histogram, Bubble, Pie, Box, Heatmap, Sunburst}

var labels = map[ChartType]string{
	Scatter:   "Scatter Plot",
	Bar:       "Bar Chart",
	Line:      "Line Chart",
	Histogram: "Histogram",
	Bubble:    "Bubble Chart",
	Pie:       "Pie Chart",
	Box:       "Box Plot",
	Heatmap:   "Heatmap",
	Sunburst:  "Sunburst Plot",
}

// AllChartTypes returns the enumerated chart types in display order.
func AllChartTypes() []ChartType {
	out := make([]ChartType, len(chartTypes))
	copy(out, chartTypes)
	return out
}

// Valid reports whether ct is one of the enumerated chart types.
func (ct ChartType) Valid() bool {
	_, ok := labels[ct]
	return ok
}

// Label returns the display label, which doubles as the chart title.
// Unknown types return their raw value.
func (ct ChartType) Label() string {
	if l, ok := labels[ct]; ok {
		return l
	}
	return string(ct)
}

func (ct ChartType) String() string {
	return string(ct)
}

// ParseChartType converts a control value into a ChartType. The second
// result is false when s is not an enumerated type.
func ParseChartType(s string) (ChartType, bool) {
	ct := ChartType(s)
	return ct, ct.Valid()
}

// Geometry is the visual primitive a chart is drawn with.
type Geometry string

// Geometries produced by BuildChart.
const (
	GeometryPoints  Geometry = "points"
	GeometryBars    Geometry = "bars"
	GeometryLine    Geometry = "line"
	GeometryBins    Geometry = "bins"
	GeometrySectors Geometry = "sectors"
	GeometryBox     Geometry = "box"
	GeometryGrid    Geometry = "grid"
	GeometryRings   Geometry = "rings"
)
