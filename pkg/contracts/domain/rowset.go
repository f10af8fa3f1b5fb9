package domain

import "strings"

// Row is a single record mapping column names to raw cell values.
// A column absent from the map is a missing value; an empty string is
// a present-but-empty value that the cleaner may normalize to absent.
type Row map[string]string

// RowSet is the in-memory table passed between pipeline stages.
// Columns keeps the column order stable across cleaning and export.
type RowSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewRowSet creates an empty row set with the given column order.
func NewRowSet(columns []string) *RowSet {
	return &RowSet{
		Columns: append([]string(nil), columns...),
		Rows:    []Row{},
	}
}

// Len returns the number of data rows.
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// HasColumn reports whether the row set declares the given column.
func (rs *RowSet) HasColumn(name string) bool {
	if rs == nil {
		return false
	}
	for _, c := range rs.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Stages hand ownership forward, so callers
// that need to keep the original must clone before transforming.
func (rs *RowSet) Clone() *RowSet {
	if rs == nil {
		return nil
	}
	out := NewRowSet(rs.Columns)
	out.Rows = make([]Row, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows = append(out.Rows, cp)
	}
	return out
}

// Get returns the value for a column and whether it is present.
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Key builds an identity key for the row over the given column order.
// Absent values and empty strings hash differently.
func (r Row) Key(columns []string) string {
	var b strings.Builder
	for _, col := range columns {
		if v, ok := r[col]; ok {
			b.WriteByte(0x01)
			b.WriteString(v)
		} else {
			b.WriteByte(0x00)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

// DuplicateCount returns how many rows repeat an earlier row exactly.
func (rs *RowSet) DuplicateCount() int {
	seen := make(map[string]struct{}, rs.Len())
	dups := 0
	for _, row := range rs.Rows {
		key := row.Key(rs.Columns)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// MissingByColumn counts absent values per declared column.
// Columns with no missing values are omitted from the result.
func (rs *RowSet) MissingByColumn() map[string]int {
	counts := make(map[string]int)
	for _, col := range rs.Columns {
		n := 0
		for _, row := range rs.Rows {
			if _, ok := row[col]; !ok {
				n++
			}
		}
		if n > 0 {
			counts[col] = n
		}
	}
	return counts
}
