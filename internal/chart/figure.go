package chart

import (
	"math"
	"strconv"

	"github.com/leapstack-labs/chartdash/internal/table"
)

// bubbleMaxSize is the marker diameter, in pixels, of the largest bubble.
const bubbleMaxSize = 20

// Trace is one plotly.js trace object.
type Trace map[string]any

// FigureFont is a plotly.js font object.
type FigureFont struct {
	Size int `json:"size"`
}

// FigureTitle is a plotly.js title object.
type FigureTitle struct {
	Text string `json:"text"`
}

// FigureAxis is a plotly.js cartesian axis object.
type FigureAxis struct {
	Title     *FigureTitle `json:"title,omitempty"`
	TickAngle int          `json:"tickangle,omitempty"`
	TickFont  *FigureFont  `json:"tickfont,omitempty"`
}

// FigureLayout is the plotly.js layout object.
type FigureLayout struct {
	Title        FigureTitle `json:"title"`
	Height       int         `json:"height"`
	PaperBGColor string      `json:"paper_bgcolor"`
	XAxis        FigureAxis  `json:"xaxis"`
	YAxis        *FigureAxis `json:"yaxis,omitempty"`
}

// FigureJSON is a plotly.js figure. The zero value marshals to "{}", which
// plotly draws as a blank chart area.
type FigureJSON struct {
	Data   []Trace       `json:"data,omitempty"`
	Layout *FigureLayout `json:"layout,omitempty"`
}

// Figure converts a Spec and the table it was built from into a plotly.js
// figure. Empty specs and nil tables give the empty figure. Bindings naming
// columns the table lacks produce empty arrays.
func Figure(s Spec, t *table.Table) FigureJSON {
	if s.IsEmpty() || t == nil {
		return FigureJSON{}
	}

	var tr Trace
	switch s.Type {
	case Scatter:
		tr = Trace{"type": "scatter", "mode": "markers", "x": cells(t, s.X), "y": cells(t, s.Y)}
	case Line:
		tr = Trace{"type": "scatter", "mode": "lines", "x": cells(t, s.X), "y": cells(t, s.Y)}
	case Bar:
		tr = Trace{"type": "bar", "x": cells(t, s.X), "y": cells(t, s.Y)}
	case Box:
		tr = Trace{"type": "box", "x": cells(t, s.X), "y": cells(t, s.Y)}
	case Histogram:
		tr = Trace{"type": "histogram", "x": cells(t, s.X), "y": cells(t, s.Y), "histfunc": "sum"}
	case Bubble:
		tr = bubbleTrace(s, t)
	case Pie:
		tr = Trace{"type": "pie", "labels": cells(t, s.Names), "values": cells(t, s.Values)}
	case Heatmap:
		tr = heatmapTrace(s.Heatmap)
	case Sunburst:
		tr = sunburstTrace(s.Path, t)
	default:
		return FigureJSON{}
	}

	return FigureJSON{
		Data:   []Trace{tr},
		Layout: figureLayout(s),
	}
}

func figureLayout(s Spec) *FigureLayout {
	l := &FigureLayout{
		Title:        FigureTitle{Text: s.Title},
		Height:       s.Layout.Height,
		PaperBGColor: s.Layout.PaperBackground,
		XAxis: FigureAxis{
			TickAngle: s.Layout.XTickAngle,
			TickFont:  &FigureFont{Size: s.Layout.TickFontSize},
		},
	}
	if s.X != "" {
		l.XAxis.Title = &FigureTitle{Text: s.X}
	}
	if s.Y != "" {
		l.YAxis = &FigureAxis{Title: &FigureTitle{Text: s.Y}}
	}
	return l
}

// cells returns the named column as JSON values, or an empty array when the
// column does not exist.
func cells(t *table.Table, name string) []any {
	col, ok := t.Column(name)
	if !ok {
		return []any{}
	}
	out := make([]any, len(col.Values))
	for i, v := range col.Values {
		out[i] = v.Any()
	}
	return out
}

func bubbleTrace(s Spec, t *table.Table) Trace {
	sizes := cells(t, s.Size)
	maxSize := 0.0
	for _, v := range sizes {
		if f, ok := v.(float64); ok && f > maxSize {
			maxSize = f
		}
	}
	sizeref := 1.0
	if maxSize > 0 {
		sizeref = 2 * maxSize / (bubbleMaxSize * bubbleMaxSize)
	}
	return Trace{
		"type": "scatter",
		"mode": "markers",
		"x":    cells(t, s.X),
		"y":    cells(t, s.Y),
		"marker": map[string]any{
			"size":     sizes,
			"sizemode": "area",
			"sizeref":  sizeref,
		},
	}
}

func heatmapTrace(hm *HeatmapBinding) Trace {
	if hm == nil {
		return Trace{"type": "heatmap", "z": [][]any{}, "x": []string{}, "y": []int{}}
	}
	z := make([][]any, len(hm.Cells))
	for r, row := range hm.Cells {
		zr := make([]any, len(row))
		for c, f := range row {
			if math.IsNaN(f) {
				zr[c] = nil
			} else {
				zr[c] = f
			}
		}
		z[r] = zr
	}
	return Trace{"type": "heatmap", "z": z, "x": hm.Columns, "y": hm.Rows}
}

// sunburstTrace counts rows for each distinct [parent, child] pair of the
// path columns. Rows with a null on either level are skipped. Nodes keep the
// order in which they first appear. Ids are Go-quoted labels, "outer" for
// the inner ring and "outer"/"inner" for the outer ring, so a label holding
// the separator cannot merge two nodes.
func sunburstTrace(path []string, t *table.Table) Trace {
	ids, names, parents := []string{}, []string{}, []string{}
	values := []int{}
	trace := func() Trace {
		return Trace{
			"type":         "sunburst",
			"branchvalues": "total",
			"ids":          ids,
			"labels":       names,
			"parents":      parents,
			"values":       values,
		}
	}

	if len(path) != 2 {
		return trace()
	}
	outer, okOuter := t.Column(path[0])
	inner, okInner := t.Column(path[1])
	if !okOuter || !okInner {
		return trace()
	}

	type key struct {
		outer, inner string
		leaf         bool
	}
	index := make(map[key]int)
	node := func(k key, id, label, parent string) int {
		if i, ok := index[k]; ok {
			return i
		}
		index[k] = len(ids)
		ids = append(ids, id)
		names = append(names, label)
		parents = append(parents, parent)
		values = append(values, 0)
		return len(ids) - 1
	}

	for r := range outer.Values {
		p, c := outer.Values[r], inner.Values[r]
		if p.IsNull() || c.IsNull() {
			continue
		}
		pl, cl := p.String(), c.String()
		pid := strconv.Quote(pl)
		pi := node(key{outer: pl}, pid, pl, "")
		ci := node(key{outer: pl, inner: cl, leaf: true}, pid+"/"+strconv.Quote(cl), cl, pid)
		values[pi]++
		values[ci]++
	}

	return trace()
}

// Describe returns a one-line description of a spec for logs and the CLI.
func Describe(s Spec) string {
	if s.IsEmpty() {
		return "empty chart"
	}
	switch {
	case s.Heatmap != nil:
		return s.Title + " of " + strconv.Itoa(len(s.Heatmap.Columns)) + " columns x " + strconv.Itoa(len(s.Heatmap.Rows)) + " rows"
	case len(s.Path) == 2:
		return s.Title + " of " + s.Path[0] + " > " + s.Path[1]
	case s.Names != "":
		return s.Title + " of " + s.Values + " by " + s.Names
	default:
		return s.Title + " of " + s.Y + " against " + s.X
	}
}
