package chart

import "github.com/leapstack-labs/chartdash/internal/table"

// ResolveOptions returns the column names offered by the X and Y pickers.
// Both lists hold every column in table order; a nil table clears them.
// The returned slices are never nil and never share storage.
func ResolveOptions(t *table.Table) (x, y []string) {
	if t == nil {
		return []string{}, []string{}
	}
	x = t.Columns()
	y = make([]string, len(x))
	copy(y, x)
	return x, y
}
