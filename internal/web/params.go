package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/derekstavis/go-qs"

	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// Query parameters carrying view state:
//
//	search=term
//	sort=column&dir=asc|desc
//	page=2&limit=25
//	filter[level]=beginner
//	filter[published_at][on]=2024-09-01
//	filter[due_at][from]=2024-09-01&filter[due_at][to]=2024-09-30
//	selected=12,15
//	view=grid
const (
	paramSearch   = "search"
	paramSort     = "sort"
	paramDir      = "dir"
	paramPage     = "page"
	paramLimit    = "limit"
	paramFilter   = "filter"
	paramSelected = "selected"
	paramView     = "view"
)

// maxPage bounds the page parameter; anything larger is past the end of
// every screen anyway.
const maxPage = 1 << 20

// parseState reads the view state of screen from the query string, starting
// from base. Unknown filters are ignored and limit is capped at maxPageSize.
func parseState(r *http.Request, screen content.Screen, base dataview.ViewState, maxPageSize int) (dataview.ViewState, error) {
	q, err := qs.Unmarshal(r.URL.Query().Encode())
	if err != nil {
		return base, fmt.Errorf("%w: %v", content.ErrInvalidQuery, err)
	}

	state := base
	state.Search = strings.TrimSpace(stringParam(q, paramSearch))

	if col := stringParam(q, paramSort); col != "" {
		state.SortColumn = col
		state.SortDir = dataview.ParseSortDir(stringParam(q, paramDir))
	}

	state.Page = min(intParam(q, paramPage, 1), maxPage)
	state.PageSize = intParam(q, paramLimit, base.PageSize)
	if maxPageSize > 0 && state.PageSize > maxPageSize {
		state.PageSize = maxPageSize
	}

	filters, err := parseFilters(q[paramFilter], screen)
	if err != nil {
		return base, err
	}
	state.Filters = filters
	return state, nil
}

// parseFilters converts the nested filter map. A filter value is either a
// string or a map with on, from and to dates.
func parseFilters(raw any, screen content.Screen) (map[string]dataview.FilterValue, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: filter must be keyed by field", content.ErrInvalidQuery)
	}

	out := make(map[string]dataview.FilterValue, len(m))
	for field, v := range m {
		if !hasFilter(screen, field) {
			continue
		}
		var val dataview.FilterValue
		switch x := v.(type) {
		case string:
			val.Text = strings.TrimSpace(x)
		case map[string]any:
			val.Text = strings.TrimSpace(asString(x["text"]))
			val.On = dateParam(x["on"])
			val.From = dateParam(x["from"])
			val.To = dateParam(x["to"])
		default:
			return nil, fmt.Errorf("%w: filter %q", content.ErrInvalidQuery, field)
		}
		if val.Active() {
			out[field] = val
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func hasFilter(screen content.Screen, field string) bool {
	for _, f := range screen.Filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

// parseSelected reads the comma-separated selected keys.
func parseSelected(r *http.Request) []string {
	var keys []string
	for _, v := range r.URL.Query()[paramSelected] {
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// encodeState renders state as a query string. Values equal to base are
// left out so links stay short.
func encodeState(state, base dataview.ViewState, selected []string, grid bool) string {
	v := url.Values{}
	if state.Search != "" {
		v.Set(paramSearch, state.Search)
	}
	if state.SortColumn != "" {
		v.Set(paramSort, state.SortColumn)
		v.Set(paramDir, string(state.SortDir))
	}
	if state.Page > 1 {
		v.Set(paramPage, strconv.Itoa(state.Page))
	}
	if state.PageSize != base.PageSize {
		v.Set(paramLimit, strconv.Itoa(state.PageSize))
	}

	fields := make([]string, 0, len(state.Filters))
	for f := range state.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		val := state.Filters[f]
		name := paramFilter + "[" + f + "]"
		if val.Text != "" {
			v.Set(name, val.Text)
		}
		setDate(v, name+"[on]", val.On)
		setDate(v, name+"[from]", val.From)
		setDate(v, name+"[to]", val.To)
	}

	if len(selected) > 0 {
		v.Set(paramSelected, strings.Join(selected, ","))
	}
	if grid {
		v.Set(paramView, "grid")
	}
	return "?" + v.Encode()
}

func setDate(v url.Values, name string, t *time.Time) {
	if t != nil {
		v.Set(name, t.Format("2006-01-02"))
	}
}

func stringParam(q map[string]any, name string) string {
	return asString(q[name])
}

// asString reads a scalar; a repeated parameter yields its last value.
func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		if len(x) > 0 {
			return asString(x[len(x)-1])
		}
	}
	return ""
}

// intParam reads a positive integer. Values too large for an int saturate
// so callers can cap them.
func intParam(q map[string]any, name string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(stringParam(q, name)))
	if errors.Is(err, strconv.ErrRange) && i > 0 {
		return i
	}
	if err != nil || i < 1 {
		return def
	}
	return i
}

func dateParam(v any) *time.Time {
	t, ok := dataview.ParseDate(asString(v))
	if !ok {
		return nil
	}
	return &t
}
