package render

import (
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// FilterControl is one filter as rendered in the toolbar.
type FilterControl struct {
	Info    content.FilterInfo
	Options []dataview.Option
	Value   dataview.FilterValue
}

// Page is everything a table or card grid needs.
type Page struct {
	Screen    content.Screen
	State     dataview.ViewState
	Result    dataview.Result[dataview.Record]
	Cells     [][]dataview.Cell // Per visible row, per column (actions included)
	Columns   []dataview.Column[dataview.Record]
	Filters   []FilterControl
	Selection []string
	Year      string
	Grid      bool
	Error     string

	// URLFor builds the link to the screen in another state, as a table or
	// as a card grid.
	URLFor func(s dataview.ViewState, grid bool) string
}

func (p Page) url(s dataview.ViewState) string {
	return p.urlAs(s, p.Grid)
}

func (p Page) urlAs(s dataview.ViewState, grid bool) string {
	if p.URLFor == nil {
		return "?"
	}
	return p.URLFor(s, grid)
}

// ScreenPage renders a screen inside the layout, as a table or a grid.
func ScreenPage(p Page, nav []content.Screen) templ.Component {
	body := component(func(h *htmlWriter) {
		h.rawf(`<section class="screen" data-screen="%s">`, esc(p.Screen.Key))
		h.rawf(`<header class="screen-header"><h1>%s</h1>`, esc(p.Screen.Label))
		h.child(viewSwitch(p))
		h.raw(`</header>`)
		if p.Error != "" {
			h.child(ErrorBanner(p.Error))
		}
		h.child(Toolbar(p))
		if p.Grid {
			h.child(Grid(p))
		} else {
			h.child(Table(p))
		}
		h.child(Pagination(p))
		h.raw(`</section>`)
	})
	return Layout(p.Screen.Label, p.Year, nav, body)
}

func viewSwitch(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<nav class="view-switch">`)
		h.rawf(`<a href="%s" class="%s">Table</a>`, esc(p.urlAs(p.State, false)), activeClass(!p.Grid))
		h.rawf(`<a href="%s" class="%s">Cards</a>`, esc(p.urlAs(p.State, true)), activeClass(p.Grid))
		h.raw(`</nav>`)
	})
}

func activeClass(on bool) string {
	if on {
		return "active"
	}
	return ""
}

// Toolbar renders the search box, filters and toolbar actions. The form
// submits with GET so the state stays in the URL.
func Toolbar(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<form class="toolbar" method="get">`)
		if p.Grid {
			h.raw(`<input type="hidden" name="view" value="grid">`)
		}
		if p.State.SortColumn != "" {
			h.rawf(`<input type="hidden" name="sort" value="%s">`, esc(p.State.SortColumn))
			h.rawf(`<input type="hidden" name="dir" value="%s">`, esc(string(p.State.SortDir)))
		}
		h.rawf(`<input type="hidden" name="limit" value="%d">`, p.State.PageSize)
		h.rawf(`<input type="search" name="search" placeholder="Search" value="%s">`, esc(p.State.Search))

		for _, f := range p.Filters {
			h.child(filterControl(f))
		}
		h.raw(`<button type="submit" class="btn">Apply</button>`)
		h.rawf(`<a class="btn btn-link" href="%s">Reset</a>`,
			esc(p.url(p.State.WithSearch("").WithoutFilters())))
		h.raw(`</form>`)

		if len(p.Screen.Global) > 0 {
			h.raw(`<div class="global-actions">`)
			h.child(ActionButtons(p.Screen.Global, p.Screen.Key, ""))
			h.rawf(`<button type="button" class="btn" data-screen="%s" data-action="refresh">Refresh</button>`, esc(p.Screen.Key))
			h.raw(`</div>`)
		}
	})
}

func filterControl(f FilterControl) templ.Component {
	return component(func(h *htmlWriter) {
		name := "filter[" + f.Info.Field + "]"
		h.rawf(`<label class="filter">%s `, esc(f.Info.Label))
		switch f.Info.Kind {
		case dataview.FilterSelect:
			h.rawf(`<select name="%s"><option value="">All</option>`, esc(name))
			for _, o := range f.Options {
				sel := ""
				if o.Value == f.Value.Text {
					sel = " selected"
				}
				h.rawf(`<option value="%s"%s>%s</option>`, esc(o.Value), sel, esc(o.Label))
			}
			h.raw(`</select>`)
		case dataview.FilterDate:
			h.rawf(`<input type="date" name="%s[on]" value="%s">`, esc(name), dateValue(f.Value.On))
		case dataview.FilterDateRange:
			h.rawf(`<input type="date" name="%s[from]" value="%s">`, esc(name), dateValue(f.Value.From))
			h.rawf(`<input type="date" name="%s[to]" value="%s">`, esc(name), dateValue(f.Value.To))
		default:
			h.rawf(`<input type="text" name="%s" value="%s">`, esc(name), esc(f.Value.Text))
		}
		h.raw(`</label>`)
	})
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Table renders the current page as a table with a selection column.
func Table(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		sel := p.Result.Selection
		h.raw(`<table class="data-table"><thead><tr>`)
		h.rawf(`<th class="select"><input type="checkbox" data-select="page" aria-label="Select page"%s%s></th>`,
			checkedAttr(sel.AllOnPage), indeterminateAttr(sel.SomeOnPage))

		for _, c := range p.Columns {
			h.child(header(p, c))
		}
		h.raw(`</tr></thead><tbody>`)

		if len(p.Result.Rows) == 0 {
			h.rawf(`<tr><td class="empty" colspan="%d">No items match the current search.</td></tr>`, len(p.Columns)+1)
		}
		for i, key := range p.Result.Keys {
			h.rawf(`<tr data-key="%s"%s>`, esc(key), selectedClass(sel.IsSelected(key)))
			h.rawf(`<td class="select"><input type="checkbox" data-select="row" value="%s" aria-label="Select row"%s></td>`,
				esc(key), checkedAttr(sel.IsSelected(key)))
			for _, c := range p.Cells[i] {
				h.rawf(`<td class="cell-%s">`, esc(string(c.Kind)))
				h.child(Cell(c, p.Screen.Key, key))
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody>`)
		h.child(aggregateFooter(p))
		h.raw(`</table>`)
	})
}

func header(p Page, c dataview.Column[dataview.Record]) templ.Component {
	return component(func(h *htmlWriter) {
		if !c.Sortable {
			h.rawf(`<th>%s</th>`, esc(c.Label))
			return
		}
		indicator := ""
		aria := "none"
		if p.State.SortColumn == c.ID {
			if p.State.SortDir == dataview.SortDesc {
				indicator, aria = " ▼", "descending"
			} else {
				indicator, aria = " ▲", "ascending"
			}
		}
		h.rawf(`<th aria-sort="%s"><a href="%s">%s%s</a></th>`,
			aria, esc(p.url(p.State.WithSortToggled(c.ID))), esc(c.Label), indicator)
	})
}

func aggregateFooter(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		if len(p.Result.Aggregations) == 0 || p.Result.Filtered == 0 {
			return
		}
		byCol := make(map[string]dataview.Aggregation, len(p.Result.Aggregations))
		for _, a := range p.Result.Aggregations {
			byCol[a.Column] = a
		}
		h.raw(`<tfoot><tr><td></td>`)
		for _, c := range p.Columns {
			a, ok := byCol[c.ID]
			if !ok || a.Avg == nil {
				h.raw(`<td></td>`)
				continue
			}
			h.rawf(`<td class="aggregate" title="min %s, max %s">avg %s</td>`,
				humanize.Ftoa(round2(*a.Min)), humanize.Ftoa(round2(*a.Max)), humanize.Ftoa(round2(*a.Avg)))
		}
		h.raw(`</tr></tfoot>`)
	})
}

func round2(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	return v
}

// Grid renders the current page as cards using the screen's card fields.
func Grid(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		sel := p.Result.Selection
		h.raw(`<div class="card-grid">`)
		if len(p.Result.Rows) == 0 {
			h.raw(`<p class="empty">No items match the current search.</p>`)
		}
		for i, row := range p.Result.Rows {
			key := p.Result.Keys[i]
			h.rawf(`<article class="card" data-key="%s"%s>`, esc(key), selectedClass(sel.IsSelected(key)))
			h.rawf(`<label class="card-select"><input type="checkbox" data-select="row" value="%s"%s></label>`,
				esc(key), checkedAttr(sel.IsSelected(key)))
			h.rawf(`<h2>%s</h2>`, esc(dataview.Stringify(row[p.Screen.CardTitle])))
			if sub := dataview.Stringify(row[p.Screen.CardSubtitle]); sub != "" {
				h.rawf(`<p class="card-subtitle">%s</p>`, esc(sub))
			}
			for j, c := range p.Columns {
				cell := p.Cells[i][j]
				if c.ID == p.Screen.CardBadge || cell.Kind == dataview.KindProgress {
					h.child(Cell(cell, p.Screen.Key, key))
				}
			}
			h.child(ActionButtons(p.Screen.Actions, p.Screen.Key, key))
			h.raw(`</article>`)
		}
		h.raw(`</div>`)
	})
}

// Pagination renders the page summary and page links.
func Pagination(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		r := p.Result
		h.raw(`<nav class="pagination">`)
		if r.Filtered == 0 {
			h.raw(`<span class="summary">0 items</span>`)
		} else {
			first := (r.Page-1)*r.PageSize + 1
			last := first + len(r.Rows) - 1
			if len(r.Rows) == 0 {
				h.rawf(`<span class="summary">Page %d is past the end of %s items</span>`, r.Page, humanize.Comma(int64(r.Filtered)))
			} else {
				h.rawf(`<span class="summary">%s–%s of %s</span>`,
					humanize.Comma(int64(first)), humanize.Comma(int64(last)), humanize.Comma(int64(r.Filtered)))
			}
		}
		if r.Filtered != r.Total {
			h.rawf(` <span class="muted">(filtered from %s)</span>`, humanize.Comma(int64(r.Total)))
		}
		if n := r.Selection.Count; n > 0 {
			h.rawf(` <span class="selected-count">%s selected</span>`, humanize.Comma(int64(n)))
		}

		if r.Page > 1 {
			h.rawf(` <a rel="prev" href="%s">Previous</a>`, esc(p.url(p.State.WithPage(r.Page-1))))
		}
		for _, n := range pageWindow(r.Page, r.PageCount) {
			if n == 0 {
				h.raw(` <span class="gap">…</span>`)
				continue
			}
			if n == r.Page {
				h.rawf(` <span class="current">%d</span>`, n)
				continue
			}
			h.rawf(` <a href="%s">%d</a>`, esc(p.url(p.State.WithPage(n))), n)
		}
		if r.Page < r.PageCount {
			h.rawf(` <a rel="next" href="%s">Next</a>`, esc(p.url(p.State.WithPage(r.Page+1))))
		}
		h.raw(`</nav>`)
	})
}

// pageWindow returns the page numbers to link, with 0 marking a gap.
func pageWindow(current, count int) []int {
	if count <= 7 {
		out := make([]int, count)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	out := []int{1}
	lo, hi := max(2, current-1), min(count-1, current+1)
	if lo > 2 {
		out = append(out, 0)
	}
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	if hi < count-1 {
		out = append(out, 0)
	}
	return append(out, count)
}

func checkedAttr(on bool) string {
	if on {
		return " checked"
	}
	return ""
}

func indeterminateAttr(on bool) string {
	if on {
		return ` data-indeterminate="true"`
	}
	return ""
}

func selectedClass(on bool) string {
	if on {
		return ` class="selected"`
	}
	return ""
}
