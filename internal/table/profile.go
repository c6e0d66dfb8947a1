package table

import (
	"encoding/json"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ColumnProfile summarizes one column. The numeric statistics are only
// meaningful, and only encoded, for number columns.
type ColumnProfile struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Count    int     `json:"count"`
	Nulls    int     `json:"nulls"`
	Distinct int     `json:"distinct,omitempty"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"stddev"`
}

// MarshalJSON encodes every statistic of a number column, zeros included,
// and leaves them out for other kinds.
func (p ColumnProfile) MarshalJSON() ([]byte, error) {
	type plain ColumnProfile
	if p.Kind == KindNumber.String() {
		return json.Marshal(plain(p))
	}
	return json.Marshal(struct {
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		Count    int    `json:"count"`
		Nulls    int    `json:"nulls"`
		Distinct int    `json:"distinct,omitempty"`
	}{p.Name, p.Kind, p.Count, p.Nulls, p.Distinct})
}

// Profile computes a summary of every column in table order.
func Profile(t *Table) []ColumnProfile {
	if t == nil {
		return nil
	}
	out := make([]ColumnProfile, 0, t.NumColumns())
	for i := 0; i < t.NumColumns(); i++ {
		out = append(out, profileColumn(t.ColumnAt(i)))
	}
	return out
}

func profileColumn(c *Column) ColumnProfile {
	p := ColumnProfile{Name: c.Name, Kind: c.Kind.String()}

	var xs []float64
	distinct := make(map[string]struct{})
	for _, v := range c.Values {
		switch v.Kind {
		case KindNull:
			p.Nulls++
			continue
		case KindNumber:
			xs = append(xs, v.Num)
		case KindText:
			distinct[v.Text] = struct{}{}
		}
		p.Count++
	}

	if c.Kind == KindText {
		p.Distinct = len(distinct)
	}
	if len(xs) > 0 {
		s := stats.Sample{Xs: xs}
		p.Min, p.Max = s.Bounds()
		p.Mean = s.Mean()
		p.Median = s.Quantile(0.5)
		if len(xs) > 1 {
			p.StdDev = s.StdDev()
		}
	}
	return p
}

var printer = message.NewPrinter(language.English)

// Summary returns a short human-readable description of the table's shape,
// e.g. "1,204 rows, 6 columns".
func Summary(t *Table) string {
	if t == nil {
		return "no data"
	}
	return printer.Sprintf("%d rows, %d columns", t.Len(), t.NumColumns())
}

// FormatNumber formats a float for display with digit grouping.
func FormatNumber(f float64) string {
	return printer.Sprintf("%.2f", f)
}
