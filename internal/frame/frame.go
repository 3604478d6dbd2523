// Package frame holds the columnar, row-aligned table type shared by the
// normalization pipeline, validator, preview composer, and supplemental
// qualifier builder (spec §3 "Standardized frame"). Frames are value
// types: producers return newly-owned frames and consumers never mutate
// one in place (spec §5).
package frame

// Missing is the sentinel for an explicit "no value" cell, distinct from
// an empty string that happens to be the source data (spec §3).
const Missing = "\x00missing"

// Column is one named, ordered sequence of cell values. Values are
// always stored as strings; numeric columns additionally expose parsed
// float64s via Frame.NumericAt so callers avoid re-parsing.
type Column struct {
	Name     string
	Values   []string
	Numeric  bool
	Floats   []float64 // parsed only when Numeric; NaN-backed missing cells are tracked separately
	IsAbsent []bool    // true where Floats[i] has no valid numeric value
}

// Frame is a columnar table whose Columns exactly equal a domain's
// variables in declared order (spec §3).
type Frame struct {
	Domain  string
	Columns []Column
	// RowCount is the number of rows; every Column.Values has this length.
	RowCount int
}

// New builds an all-missing frame for the given column names, each typed
// Character, with the given row count. Callers overwrite columns with
// SetColumn once a rule has computed real values.
func New(domain string, columnNames []string, rowCount int) *Frame {
	cols := make([]Column, len(columnNames))
	for i, name := range columnNames {
		values := make([]string, rowCount)
		for r := range values {
			values[r] = Missing
		}
		cols[i] = Column{Name: name, Values: values}
	}
	return &Frame{Domain: domain, Columns: cols, RowCount: rowCount}
}

// ColumnIndex returns the index of the named column (case-insensitive),
// or -1 if absent. The validator relies on this for case-insensitive
// column resolution (spec §4.6).
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if equalFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Column returns the named column and whether it is present.
func (f *Frame) Column(name string) (Column, bool) {
	i := f.ColumnIndex(name)
	if i < 0 {
		return Column{}, false
	}
	return f.Columns[i], true
}

// SetColumn overwrites the named column's string values in place. The
// column must already exist (created by New) since frame width is fixed
// by the domain's variable list.
func (f *Frame) SetColumn(name string, values []string) {
	i := f.ColumnIndex(name)
	if i < 0 {
		return
	}
	f.Columns[i].Values = values
}

// SetNumericColumn overwrites the named column with parsed numeric
// values; cells where ok[i] is false are treated as missing.
func (f *Frame) SetNumericColumn(name string, floats []float64, ok []bool, rendered []string) {
	i := f.ColumnIndex(name)
	if i < 0 {
		return
	}
	f.Columns[i].Numeric = true
	f.Columns[i].Floats = floats
	f.Columns[i].IsAbsent = invert(ok)
	f.Columns[i].Values = rendered
}

func invert(ok []bool) []bool {
	out := make([]bool, len(ok))
	for i, v := range ok {
		out[i] = !v
	}
	return out
}

// IsMissing reports whether a cell holds the Missing sentinel or an
// empty/whitespace-only string (spec: "Values are trimmed before
// emptiness checks").
func IsMissing(v string) bool {
	if v == Missing {
		return true
	}
	for _, r := range v {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
