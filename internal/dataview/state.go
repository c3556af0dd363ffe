package dataview

import "maps"

// DefaultPageSize is used when a view is built without a page size.
const DefaultPageSize = 10

// ViewState is the ephemeral search, filter, sort and pagination state of
// one view. Transitions return a new value; filter maps are copied so a
// previous state is never changed.
type ViewState struct {
	Search     string                 `json:"search"`
	Filters    map[string]FilterValue `json:"filters,omitempty"`
	SortColumn string                 `json:"sort,omitempty"`
	SortDir    SortDir                `json:"dir,omitempty"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"limit"`
}

// DefaultState returns page 1 with the given page size and no sort.
func DefaultState(pageSize int) ViewState {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return ViewState{Page: 1, PageSize: pageSize, SortDir: SortAsc}
}

// WithSearch sets the search term. A changed term resets to page 1.
func (s ViewState) WithSearch(term string) ViewState {
	if term != s.Search {
		s.Search = term
		s.Page = 1
	}
	return s
}

// WithFilter sets or clears (zero value) one filter. A changed value resets
// to page 1.
func (s ViewState) WithFilter(field string, v FilterValue) ViewState {
	old, had := s.Filters[field]
	if had && old.fingerprint() == v.fingerprint() || !had && !v.Active() {
		return s
	}

	filters := maps.Clone(s.Filters)
	if filters == nil {
		filters = make(map[string]FilterValue)
	}
	if v.Active() {
		filters[field] = v
	} else {
		delete(filters, field)
	}
	s.Filters = filters
	s.Page = 1
	return s
}

// WithoutFilters clears every filter.
func (s ViewState) WithoutFilters() ViewState {
	if len(s.Filters) == 0 {
		return s
	}
	s.Filters = nil
	s.Page = 1
	return s
}

// WithSortToggled sorts by column. Clicking the current sort column flips
// its direction; a new column starts ascending.
func (s ViewState) WithSortToggled(column string) ViewState {
	if s.SortColumn == column {
		s.SortDir = s.SortDir.Flip()
		return s
	}
	s.SortColumn = column
	s.SortDir = SortAsc
	return s
}

// WithSort sets column and direction explicitly.
func (s ViewState) WithSort(column string, dir SortDir) ViewState {
	s.SortColumn = column
	s.SortDir = dir
	return s
}

// WithPage moves to page, never below 1.
func (s ViewState) WithPage(page int) ViewState {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// WithPageSize changes the page size and returns to page 1.
func (s ViewState) WithPageSize(size int) ViewState {
	if size < 1 {
		size = DefaultPageSize
	}
	if size != s.PageSize {
		s.PageSize = size
		s.Page = 1
	}
	return s
}
