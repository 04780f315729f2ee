package models

// ColumnKey names a provider column. Single-level headers carry one entry,
// multi-level headers (e.g. {"Close", "TCS.NS"}) carry one entry per level.
type ColumnKey []string

// RawFrame is a provider table before normalization: loosely named columns
// and cells that may be nil, numbers, numeric strings, times or date strings.
type RawFrame struct {
	Columns []ColumnKey
	Rows    [][]any
}

// Empty reports whether the frame carries no rows.
func (f *RawFrame) Empty() bool {
	return f == nil || len(f.Rows) == 0
}

// Cell returns the value at row i, column j, or nil when the row is short.
func (f *RawFrame) Cell(i, j int) any {
	row := f.Rows[i]
	if j < 0 || j >= len(row) {
		return nil
	}
	return row[j]
}

// FrameFromSeries renders a canonical series back into frame form.
func FrameFromSeries(s Series) *RawFrame {
	frame := &RawFrame{
		Columns: []ColumnKey{{"Date"}, {"Open"}, {"High"}, {"Low"}, {"Close"}, {"Volume"}},
		Rows:    make([][]any, len(s)),
	}
	for i, p := range s {
		frame.Rows[i] = []any{p.Date, p.Open, p.High, p.Low, p.Close, p.Volume}
	}
	return frame
}
