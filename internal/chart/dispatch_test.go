package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chartdash/internal/table"
)

func mustTable(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.Decode(table.EncodePayload(table.MIMECSV, []byte(csv)))
	require.NoError(t, err)
	return tbl
}

func TestResolveOptions(t *testing.T) {
	t.Run("no table clears options", func(t *testing.T) {
		x, y := ResolveOptions(nil)
		assert.NotNil(t, x)
		assert.NotNil(t, y)
		assert.Empty(t, x)
		assert.Empty(t, y)
	})

	t.Run("columns in order for both axes", func(t *testing.T) {
		tbl := mustTable(t, "a,b,c\n1,2,3\n")
		x, y := ResolveOptions(tbl)
		assert.Equal(t, []string{"a", "b", "c"}, x)
		assert.Equal(t, []string{"a", "b", "c"}, y)

		x[0] = "changed"
		assert.Equal(t, "a", y[0], "x and y options must not share storage")
	})

	t.Run("idempotent", func(t *testing.T) {
		tbl := mustTable(t, "a,b\n1,2\n")
		x1, y1 := ResolveOptions(tbl)
		x2, y2 := ResolveOptions(tbl)
		assert.Equal(t, x1, x2)
		assert.Equal(t, y1, y2)
	})
}

func TestBuilders_CoverEveryChartType(t *testing.T) {
	for _, ct := range AllChartTypes() {
		_, ok := builders[ct]
		assert.True(t, ok, "no builder for %s", ct)
	}
	assert.Len(t, builders, len(AllChartTypes()))
}

func TestBuildChart_IncompleteSelectionIsEmpty(t *testing.T) {
	tbl := mustTable(t, "x,y\n1,2\n")

	for _, ct := range AllChartTypes() {
		t.Run(string(ct), func(t *testing.T) {
			assert.True(t, BuildChart(tbl, "x", "", ct).IsEmpty())
			assert.True(t, BuildChart(nil, "x", "y", ct).IsEmpty())
			assert.True(t, BuildChart(tbl, "", "y", ct).IsEmpty())
			assert.True(t, BuildChart(tbl, "", "", ct).IsEmpty())
		})
	}
}

func TestBuildChart_UnknownTypeIsEmpty(t *testing.T) {
	tbl := mustTable(t, "x,y\n1,2\n")

	for _, ct := range []ChartType{"", "treemap", "SCATTER"} {
		assert.True(t, BuildChart(tbl, "x", "y", ct).IsEmpty(), "type %q", ct)
	}
}

func TestBuildChart_Bindings(t *testing.T) {
	tbl := mustTable(t, "x,y\n1,2\n3,4\n")

	tests := []struct {
		ct   ChartType
		want Spec
	}{
		{Scatter, Spec{Geometry: GeometryPoints, X: "x", Y: "y"}},
		{Bar, Spec{Geometry: GeometryBars, X: "x", Y: "y"}},
		{Line, Spec{Geometry: GeometryLine, X: "x", Y: "y"}},
		{Histogram, Spec{Geometry: GeometryBins, X: "x", Y: "y"}},
		{Box, Spec{Geometry: GeometryBox, X: "x", Y: "y"}},
		{Bubble, Spec{Geometry: GeometryPoints, X: "x", Y: "y", Size: "y"}},
		{Pie, Spec{Geometry: GeometrySectors, Names: "x", Values: "y"}},
		{Sunburst, Spec{Geometry: GeometryRings, Path: []string{"x", "y"}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.ct), func(t *testing.T) {
			got := BuildChart(tbl, "x", "y", tt.ct)
			require.False(t, got.IsEmpty())

			tt.want.Type = tt.ct
			tt.want.Title = tt.ct.Label()
			tt.want.Layout = DefaultLayout()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildChart_BubbleSizeFollowsY(t *testing.T) {
	tbl := mustTable(t, "x,y\n1,2\n")
	s := BuildChart(tbl, "x", "y", Bubble)
	assert.Equal(t, s.Y, s.Size)
	assert.Equal(t, "y", s.Size)
}

func TestBuildChart_SunburstPathOrder(t *testing.T) {
	tbl := mustTable(t, "x,y\nA,B\n")
	s := BuildChart(tbl, "x", "y", Sunburst)
	assert.Equal(t, []string{"x", "y"}, s.Path)

	s = BuildChart(tbl, "y", "x", Sunburst)
	assert.Equal(t, []string{"y", "x"}, s.Path)
}

func TestBuildChart_LayoutOnEveryType(t *testing.T) {
	tbl := mustTable(t, "x,y\n1,2\n")

	for _, ct := range AllChartTypes() {
		s := BuildChart(tbl, "x", "y", ct)
		require.False(t, s.IsEmpty(), "type %s", ct)
		assert.Equal(t, 700, s.Layout.Height, "type %s", ct)
		assert.Equal(t, 45, s.Layout.XTickAngle, "type %s", ct)
		assert.Equal(t, 16, s.Layout.TickFontSize, "type %s", ct)
		assert.Equal(t, "LightSteelBlue", s.Layout.PaperBackground, "type %s", ct)
		assert.Equal(t, ct.Label(), s.Title)
	}
}

func TestBuildChart_MissingColumnIsNotAnError(t *testing.T) {
	tbl := mustTable(t, "x,y\n1,2\n")
	s := BuildChart(tbl, "nope", "y", Scatter)
	assert.False(t, s.IsEmpty())
	assert.Equal(t, "nope", s.X)
}

func TestBuildChart_PieScenario(t *testing.T) {
	tbl := mustTable(t, "city,pop\nA,10\nB,20\n")
	s := BuildChart(tbl, "city", "pop", Pie)

	assert.Equal(t, Pie, s.Type)
	assert.Equal(t, GeometrySectors, s.Geometry)
	assert.Equal(t, "city", s.Names)
	assert.Equal(t, "pop", s.Values)
	assert.Equal(t, 700, s.Layout.Height)
}

func TestBuildChart_HeatmapScenario(t *testing.T) {
	tbl := mustTable(t, "city,pop\nA,10\nB,20\n")

	s := BuildChart(tbl, "city", "pop", Heatmap)
	require.NotNil(t, s.Heatmap)
	assert.Equal(t, GeometryGrid, s.Geometry)
	assert.Equal(t, []string{"city", "pop"}, s.Heatmap.Columns)
	assert.Equal(t, []int{0, 1}, s.Heatmap.Rows)
	require.Len(t, s.Heatmap.Cells, 2)
	assert.True(t, math.IsNaN(s.Heatmap.Cells[0][0]))
	assert.Equal(t, 10.0, s.Heatmap.Cells[0][1])
	assert.Equal(t, 20.0, s.Heatmap.Cells[1][1])

	// The selected columns only gate the chart; they do not change it.
	other := BuildChart(tbl, "pop", "pop", Heatmap)
	assert.Equal(t, s.Heatmap.Columns, other.Heatmap.Columns)
	assert.Equal(t, s.Heatmap.Rows, other.Heatmap.Rows)
	assert.Empty(t, other.X)
	assert.Empty(t, other.Y)
}

func TestParseChartType(t *testing.T) {
	ct, ok := ParseChartType("pie")
	assert.True(t, ok)
	assert.Equal(t, Pie, ct)

	ct, ok = ParseChartType("radar")
	assert.False(t, ok)
	assert.Equal(t, ChartType("radar"), ct)
	assert.Equal(t, "radar", ct.Label())
}

func TestDescribe(t *testing.T) {
	tbl := mustTable(t, "city,pop\nA,10\n")

	assert.Equal(t, "empty chart", Describe(Empty))
	assert.Equal(t, "Pie Chart of pop by city", Describe(BuildChart(tbl, "city", "pop", Pie)))
	assert.Equal(t, "Scatter Plot of pop against city", Describe(BuildChart(tbl, "city", "pop", Scatter)))
	assert.Equal(t, "Sunburst Plot of city > pop", Describe(BuildChart(tbl, "city", "pop", Sunburst)))
	assert.Equal(t, "Heatmap of 2 columns x 1 rows", Describe(BuildChart(tbl, "city", "pop", Heatmap)))
}
