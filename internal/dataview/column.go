package dataview

import "strings"

// SortDir is a sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSortDir accepts "desc" in any case and surrounding space; everything
// else is ascending.
func ParseSortDir(s string) SortDir {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Flip returns the opposite direction.
func (d SortDir) Flip() SortDir {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// Column describes how to extract, display and sort one field of a row.
type Column[R any] struct {
	ID        string      // Stable identifier, used in sort state and URLs
	Label     string      // Header text
	Accessor  Accessor[R] // Defaults to Direct(ID)
	Sortable  bool
	Aggregate bool // Include in numeric aggregations
	Display   Display[R]
}

// accessor returns the configured accessor, falling back to the column ID.
func (c Column[R]) accessor() Accessor[R] {
	return c.Accessor.Or(Direct[R](c.ID))
}

// Value extracts the column's raw value from row.
func (c Column[R]) Value(row R, get Getter[R]) any {
	return c.accessor().Value(row, get)
}

// findColumn returns the column with the given ID.
func findColumn[R any](cols []Column[R], id string) (Column[R], bool) {
	for _, c := range cols {
		if c.ID == id {
			return c, true
		}
	}
	return Column[R]{}, false
}
