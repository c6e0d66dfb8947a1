// Package table decodes uploaded files into immutable in-memory tables.
//
// A Table is an ordered set of named columns with a shared row count. Column
// kinds are inferred once at decode time: a column whose non-empty cells all
// parse as numbers is numeric, anything else is text. Empty cells, NA tokens
// and non-finite numbers are null.
package table

import (
	"math"
	"strconv"
)

// Kind classifies a single cell or a whole column.
type Kind int

const (
	// KindNull marks a missing or unparsed cell.
	KindNull Kind = iota
	// KindNumber marks a numeric cell or column.
	KindNumber
	// KindText marks a text cell or column.
	KindText
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a single scalar cell.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Any returns the cell as a JSON-friendly value: float64, string, or nil.
func (v Value) Any() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Text
	default:
		return nil
	}
}

// String formats the cell for display. Null cells render as an empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// Column is a named sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Numeric reports whether every non-null cell of the column is a number.
func (c *Column) Numeric() bool {
	return c.Kind == KindNumber
}

// Floats returns the numeric cells of the column and a parallel validity mask.
// Text and null cells are reported as invalid.
func (c *Column) Floats() ([]float64, []bool) {
	xs := make([]float64, len(c.Values))
	ok := make([]bool, len(c.Values))
	for i, v := range c.Values {
		if v.Kind == KindNumber {
			xs[i] = v.Num
			ok[i] = true
		}
	}
	return xs, ok
}

// Strings returns the display form of every cell.
func (c *Column) Strings() []string {
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.String()
	}
	return out
}

// Table is an immutable columnar dataset. All columns have the same length
// and column names are unique.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a Table from header names and string records. It applies the
// same header normalization and kind inference as Decode. Records shorter
// than the header are padded with nulls; longer records are rejected.
func New(header []string, records [][]string) (*Table, error) {
	names := normalizeHeader(header)
	raw := make([][]string, len(names))
	for i := range raw {
		raw[i] = make([]string, 0, len(records))
	}
	for n, rec := range records {
		if len(rec) > len(names) {
			return nil, &fieldCountError{line: n + 2, want: len(names), got: len(rec)}
		}
		for i := range names {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	t := &Table{
		columns: make([]Column, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(records),
	}
	for i, name := range names {
		t.columns[i] = inferColumn(name, raw[i])
		t.index[name] = i
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.rows
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i := range t.columns {
		names[i] = t.columns[i].Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.columns[i], true
}

// ColumnAt returns the i'th column.
func (t *Table) ColumnAt(i int) *Column {
	return &t.columns[i]
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for c := range t.columns {
		row[c] = t.columns[c].Values[i]
	}
	return row
}

// naTokens are the cell values read as missing, matching the pandas
// defaults.
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// IsNA reports whether a raw cell is read as null.
func IsNA(s string) bool {
	if s == "" {
		return true
	}
	_, ok := naTokens[s]
	return ok
}

// inferColumn types a column of raw strings. Empty strings, NA tokens and
// infinities are null.
func inferColumn(name string, raw []string) Column {
	col := Column{Name: name, Values: make([]Value, len(raw)), Kind: KindNull}

	numeric := true
	for _, s := range raw {
		if IsNA(s) {
			continue
		}
		if _, err := parseNumber(s); err != nil {
			numeric = false
			break
		}
	}

	for i, s := range raw {
		if IsNA(s) {
			continue
		}
		if numeric {
			f, _ := parseNumber(s)
			if math.IsInf(f, 0) || math.IsNaN(f) {
				continue
			}
			col.Values[i] = Value{Kind: KindNumber, Num: f}
			col.Kind = KindNumber
		} else {
			col.Values[i] = Value{Kind: KindText, Text: s}
			col.Kind = KindText
		}
	}
	return col
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// normalizeHeader fills empty names and de-duplicates repeats with a numeric
// suffix so every column name is unique.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		if _, dup := seen[h]; dup {
			for k := seen[h] + 1; ; k++ {
				candidate := h + "." + strconv.Itoa(k)
				if _, taken := seen[candidate]; !taken {
					seen[h] = k
					name = candidate
					break
				}
			}
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}
