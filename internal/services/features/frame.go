package features

import (
	"time"

	domsvc "StockPredictor/internal/domain/service"
)

// Frame is a date-indexed table of named float64 columns kept in insertion order.
type Frame struct {
	Dates []time.Time
	cols  map[string][]float64
	order []string
}

// NewFrame creates an empty table over the given dates.
func NewFrame(dates []time.Time) *Frame {
	return &Frame{Dates: dates, cols: make(map[string][]float64)}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Dates)
}

// Empty reports whether the table has no rows.
func (f *Frame) Empty() bool { return f.Len() == 0 }

// Set stores a column, replacing any previous values under the same name.
func (f *Frame) Set(name string, values []float64) {
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = values
}

// Col returns a column by name.
func (f *Frame) Col(name string) ([]float64, bool) {
	v, ok := f.cols[name]
	return v, ok
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Value returns the cell at row i of a column.
func (f *Frame) Value(name string, i int) (float64, bool) {
	col, ok := f.cols[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	return col[i], true
}

// DropUndefined returns a copy without any row holding NaN or an infinity.
func (f *Frame) DropUndefined() *Frame {
	keep := make([]int, 0, f.Len())
	for i := range f.Dates {
		ok := true
		for _, name := range f.order {
			if isUndefined(f.cols[name][i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	dates := make([]time.Time, len(keep))
	for j, i := range keep {
		dates[j] = f.Dates[i]
	}
	out := NewFrame(dates)
	for _, name := range f.order {
		src := f.cols[name]
		dst := make([]float64, len(keep))
		for j, i := range keep {
			dst[j] = src[i]
		}
		out.Set(name, dst)
	}
	return out
}

// LastDate returns the date of the final row.
func (f *Frame) LastDate() (time.Time, bool) {
	if f.Empty() {
		return time.Time{}, false
	}
	return f.Dates[len(f.Dates)-1], true
}

// LastVector takes the final row and reindexes it onto columns. Columns the table
// does not carry are filled with 0.0.
func (f *Frame) LastVector(columns []string) domsvc.FeatureVector {
	v := domsvc.FeatureVector{
		Columns: append([]string(nil), columns...),
		Values:  make([]float64, len(columns)),
	}
	if f.Empty() {
		return v
	}
	last := f.Len() - 1
	for i, name := range columns {
		if col, ok := f.cols[name]; ok {
			v.Values[i] = col[last]
		}
	}
	return v
}
