package chart

// Presentation defaults applied to every non-empty Spec.
const (
	LayoutHeight          = 700
	LayoutPaperBackground = "LightSteelBlue"
	LayoutXTickAngle      = 45
	LayoutTickFontSize    = 16
)

// Layout holds the fixed presentation overrides of a chart.
type Layout struct {
	Height          int    `json:"height" yaml:"height"`
	PaperBackground string `json:"paperBackground" yaml:"paper_background"`
	XTickAngle      int    `json:"xTickAngle" yaml:"x_tick_angle"`
	TickFontSize    int    `json:"tickFontSize" yaml:"tick_font_size"`
}

// DefaultLayout returns the layout every built chart carries.
func DefaultLayout() Layout {
	return Layout{
		Height:          LayoutHeight,
		PaperBackground: LayoutPaperBackground,
		XTickAngle:      LayoutXTickAngle,
		TickFontSize:    LayoutTickFontSize,
	}
}

// HeatmapBinding binds a heatmap to the whole table: one x label per column,
// one y label per row, and the numeric content of every cell. Cells that are
// not numbers are NaN.
type HeatmapBinding struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Rows    []int       `json:"rows" yaml:"rows"`
	Cells   [][]float64 `json:"-" yaml:"cells,flow"`
}

// Spec is a declarative description of one chart. Specs are built fresh on
// every recomputation and never modified afterwards.
//
// Which binding fields are set depends on Type: cartesian kinds use X and Y,
// bubble adds Size, pie uses Names and Values, sunburst uses Path and heatmap
// uses Heatmap.
type Spec struct {
	Type     ChartType `json:"type" yaml:"type"`
	Geometry Geometry  `json:"geometry" yaml:"geometry"`
	Title    string    `json:"title" yaml:"title"`

	X      string   `json:"x,omitempty" yaml:"x,omitempty"`
	Y      string   `json:"y,omitempty" yaml:"y,omitempty"`
	Size   string   `json:"size,omitempty" yaml:"size,omitempty"`
	Names  string   `json:"names,omitempty" yaml:"names,omitempty"`
	Values string   `json:"values,omitempty" yaml:"values,omitempty"`
	Path   []string `json:"path,omitempty" yaml:"path,omitempty"`

	Heatmap *HeatmapBinding `json:"heatmap,omitempty" yaml:"heatmap,omitempty"`

	Layout Layout `json:"layout" yaml:"layout"`
}

// Empty is the "nothing to render" result. It is not an error: it is what the
// dashboard shows until a table and both axes are chosen.
var Empty = Spec{}

// IsEmpty reports whether s is the Empty spec.
func (s Spec) IsEmpty() bool {
	return s.Type == ""
}
