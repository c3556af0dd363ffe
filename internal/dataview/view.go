package dataview

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Config is the per-screen description of a view: how to read rows, which
// columns and filters exist and which fields are searched.
type Config[R any] struct {
	Columns    []Column[R]
	Filters    []FilterDescriptor[R]
	Searchable []Accessor[R] // Defaults to every text-like column
	Get        Getter[R]
	Key        func(R) string // Row identity for selection
	Language   language.Tag   // Collation; language.Und when unset
	DateLayout string         // Default layout for date cells
}

// Result is one computed page of a view.
type Result[R any] struct {
	Rows         []R                      `json:"-"`
	Keys         []string                 `json:"keys"`
	Total        int                      `json:"total"`    // Rows before filtering
	Filtered     int                      `json:"filtered"` // Rows after filtering
	Page         int                      `json:"page"`
	PageSize     int                      `json:"page_size"`
	PageCount    int                      `json:"page_count"`
	Selection    SelectionSummary[string] `json:"selection"`
	Aggregations []Aggregation            `json:"aggregations,omitempty"`
}

// View runs the filter, sort and paginate pipeline over in-memory rows.
//
// The filtered and sorted rows are memoized and only recomputed when the
// data, search term, filters or sort change. Page changes re-slice the
// cached rows. A View is not safe for concurrent use.
type View[R any] struct {
	cfg       Config[R]
	data      []R
	gen       uint64
	state     ViewState
	selection []string

	memoKey    string
	memo       []R
	aggs       []Aggregation
	recomputes int
}

// NewView creates a view over data with default state.
func NewView[R any](cfg Config[R], data []R, pageSize int) *View[R] {
	if cfg.DateLayout != "" {
		cols := make([]Column[R], len(cfg.Columns))
		for i, c := range cfg.Columns {
			if c.Display.Kind == KindDate && c.Display.DateLayout == "" {
				c.Display.DateLayout = cfg.DateLayout
			}
			cols[i] = c
		}
		cfg.Columns = cols
	}
	return &View[R]{cfg: cfg, data: data, state: DefaultState(pageSize)}
}

// Config returns the view's configuration.
func (v *View[R]) Config() Config[R] { return v.cfg }

// State returns the current view state.
func (v *View[R]) State() ViewState { return v.state }

// Selection returns the controlled selection last set on the view.
func (v *View[R]) Selection() []string { return v.selection }

// Recomputes counts how often the filtered and sorted rows were rebuilt.
func (v *View[R]) Recomputes() int { return v.recomputes }

// SetData replaces the source rows.
func (v *View[R]) SetData(data []R) {
	v.data = data
	v.gen++
}

// SetState replaces the whole state, as when restoring it from a request.
func (v *View[R]) SetState(s ViewState) {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.SortColumn != "" {
		if c, ok := findColumn(v.cfg.Columns, s.SortColumn); !ok || !c.Sortable {
			s.SortColumn = ""
		}
	}
	if s.SortDir == "" {
		s.SortDir = SortAsc
	}
	v.state = s
}

// SetSearch updates the search term and returns to page 1 when it changed.
func (v *View[R]) SetSearch(term string) { v.state = v.state.WithSearch(term) }

// SetFilter updates one filter and returns to page 1 when it changed.
func (v *View[R]) SetFilter(field string, val FilterValue) {
	v.state = v.state.WithFilter(field, val)
}

// ToggleSort sorts by column, flipping direction on repeated calls.
// Unknown and non-sortable columns are ignored.
func (v *View[R]) ToggleSort(column string) {
	if c, ok := findColumn(v.cfg.Columns, column); ok && c.Sortable {
		v.state = v.state.WithSortToggled(column)
	}
}

func (v *View[R]) SetPage(page int)     { v.state = v.state.WithPage(page) }
func (v *View[R]) SetPageSize(size int) { v.state = v.state.WithPageSize(size) }

// SetSelection sets the externally owned selection.
func (v *View[R]) SetSelection(keys []string) { v.selection = keys }

// NextSelection returns the selection produced by action against the
// current page. The view's own selection is left unchanged; callers store
// the result and pass it back with SetSelection.
func (v *View[R]) NextSelection(op SelectionOp, key string) []string {
	res := v.Result()
	return NextSelection(v.selection, res.Keys, SelectionAction[string]{Op: op, Key: key})
}

// Result computes the current page.
func (v *View[R]) Result() Result[R] {
	rows := v.processed()
	page := Paginate(rows, v.state.Page, v.state.PageSize)
	keys := v.keys(page)

	return Result[R]{
		Rows:         page,
		Keys:         keys,
		Total:        len(v.data),
		Filtered:     len(rows),
		Page:         v.state.Page,
		PageSize:     v.state.PageSize,
		PageCount:    PageCount(len(rows), v.state.PageSize),
		Selection:    Summarize(v.selection, keys),
		Aggregations: v.aggs,
	}
}

// Cells formats one row for every column.
func (v *View[R]) Cells(row R) []Cell {
	cells := make([]Cell, len(v.cfg.Columns))
	for i, c := range v.cfg.Columns {
		cells[i] = c.Cell(row, v.cfg.Get)
	}
	return cells
}

// Options returns the options of the filter on field.
func (v *View[R]) Options(field string) ([]Option, bool) {
	f, ok := findFilter(v.cfg.Filters, field)
	if !ok {
		return nil, false
	}
	return f.OptionsFor(v.data, v.cfg.Get, v.cfg.Language), true
}

func (v *View[R]) keys(rows []R) []string {
	keys := make([]string, 0, len(rows))
	if v.cfg.Key == nil {
		return keys
	}
	for _, r := range rows {
		keys = append(keys, v.cfg.Key(r))
	}
	return keys
}

func (v *View[R]) processed() []R {
	key := v.fingerprint()
	if v.memo != nil && key == v.memoKey {
		return v.memo
	}

	rows := v.filter()
	if col, ok := findColumn(v.cfg.Columns, v.state.SortColumn); ok && col.Sortable {
		// rows is a fresh slice from filter, so sorting in place leaves
		// the source data untouched.
		sortInPlace(rows, col, v.state.SortDir, v.cfg.Get, v.cfg.Language)
	}

	v.memo = rows
	v.memoKey = key
	v.aggs = Aggregate(rows, v.cfg.Columns, v.cfg.Get)
	v.recomputes++
	return rows
}

func (v *View[R]) filter() []R {
	fo := newFolder()
	term := fo.fold(strings.TrimSpace(v.state.Search))
	fields := searchFields(v.cfg)

	out := make([]R, 0, len(v.data))
	for _, r := range v.data {
		if !matchesFolded(fo, r, term, fields, v.cfg.Get) {
			continue
		}
		if !matchesAll(fo, r, v.cfg.Filters, v.state.Filters, v.cfg.Get) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (v *View[R]) fingerprint() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v.gen, 10))
	b.WriteByte('\x00')
	b.WriteString(strings.TrimSpace(v.state.Search))
	b.WriteByte('\x00')
	b.WriteString(filterFingerprint(v.state.Filters))
	b.WriteByte('\x00')
	b.WriteString(v.state.SortColumn)
	b.WriteByte(' ')
	b.WriteString(string(v.state.SortDir))
	return b.String()
}
