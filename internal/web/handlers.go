package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/dataview"
	"github.com/JonMunkholm/eduadmin/internal/logging"
	"github.com/JonMunkholm/eduadmin/internal/render"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// screenView is one screen loaded with the request's state.
type screenView struct {
	screen    content.Screen
	base      dataview.ViewState
	view      *dataview.View[dataview.Record]
	selection []string
}

// loadView resolves the screen in the URL and builds its view from the
// query string.
func (s *Server) loadView(r *http.Request) (screenView, error) {
	screen, err := content.Lookup(chi.URLParam(r, "screen"))
	if err != nil {
		return screenView{}, err
	}
	base := s.service.DefaultState(screen)
	state, err := parseState(r, screen, base, s.cfg.View.MaxPageSize)
	if err != nil {
		return screenView{}, err
	}
	selection := parseSelected(r)
	v, err := s.service.View(r.Context(), screen, state, selection)
	if err != nil {
		return screenView{}, err
	}
	return screenView{screen: screen, base: base, view: v, selection: selection}, nil
}

// handleHealth reports whether the process and database are up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"academic_year": s.year(),
	})
}

// handleDashboard renders the overview with a row count per screen.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	counts := s.service.Counts(r.Context())
	for _, c := range counts {
		if c.Err != nil {
			logging.WithScreen(r.Context(), c.Screen.Key).Warn("count failed", "error", c.Err)
		}
	}
	s.renderHTML(w, r, render.Dashboard(s.year(), counts))
}

// handleScreen renders a screen as a table, or as cards with view=grid.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	sv, err := s.loadView(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	v := sv.view
	res := v.Result()
	cells := make([][]dataview.Cell, len(res.Rows))
	for i, row := range res.Rows {
		cells[i] = v.Cells(row)
	}

	key := sv.screen.Key
	page := render.Page{
		Screen:    sv.screen,
		State:     v.State(),
		Result:    res,
		Cells:     cells,
		Columns:   v.Config().Columns,
		Filters:   filterControls(sv.screen, v),
		Selection: sv.selection,
		Year:      s.year(),
		Grid:      r.URL.Query().Get(paramView) == "grid",
		URLFor: func(st dataview.ViewState, grid bool) string {
			return "/screens/" + key + encodeState(st, sv.base, sv.selection, grid)
		},
	}
	if res.Filtered > 0 && len(res.Rows) == 0 {
		page.Error = fmt.Sprintf("Page %d is past the last page (%d).", res.Page, res.PageCount)
	}
	s.renderHTML(w, r, render.ScreenPage(page, content.All()))
}

func filterControls(screen content.Screen, v *dataview.View[dataview.Record]) []render.FilterControl {
	state := v.State()
	info := screen.Info()
	out := make([]render.FilterControl, 0, len(info.Filters))
	for _, f := range info.Filters {
		fc := render.FilterControl{Info: f, Value: state.Filters[f.Field]}
		if f.Kind == dataview.FilterSelect {
			fc.Options, _ = v.Options(f.Field)
		}
		out = append(out, fc)
	}
	return out
}

// handleListScreens returns every screen's metadata.
func (s *Server) handleListScreens(w http.ResponseWriter, r *http.Request) {
	screens := content.All()
	infos := make([]content.Info, len(screens))
	for i, sc := range screens {
		infos[i] = sc.Info()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"academic_year": s.year(),
		"groups":        content.Groups(),
		"actions":       s.service.Dispatcher().Tags(),
		"screens":       infos,
	})
}

// handleScreenInfo returns one screen's metadata.
func (s *Server) handleScreenInfo(w http.ResponseWriter, r *http.Request) {
	screen, err := content.Lookup(chi.URLParam(r, "screen"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, screen.Info())
}

// RowJSON is one visible row in the rows response.
type RowJSON struct {
	Key   string          `json:"key"`
	Data  dataview.Record `json:"data"`
	Cells []dataview.Cell `json:"cells"`
}

// RowsResponse is the JSON rendering of one computed page.
type RowsResponse struct {
	Screen string             `json:"screen"`
	State  dataview.ViewState `json:"state"`
	dataview.Result[dataview.Record]
	Rows []RowJSON `json:"rows"`
}

// handleRows returns the current page of a screen.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	sv, err := s.loadView(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	v := sv.view
	res := v.Result()
	rows := make([]RowJSON, len(res.Rows))
	for i, row := range res.Rows {
		cells := v.Cells(row)
		for j := range cells {
			if cells[j].Kind == dataview.KindCustom {
				cells[j].HTML = render.SanitizeCustom(cells[j].HTML)
			}
		}
		rows[i] = RowJSON{Key: res.Keys[i], Data: row, Cells: cells}
	}

	writeJSON(w, http.StatusOK, RowsResponse{
		Screen: sv.screen.Key,
		State:  v.State(),
		Result: res,
		Rows:   rows,
	})
}

// handleFilterOptions returns the options of one filter, derived from the
// screen's data when the filter has no static list.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	screen, err := content.Lookup(chi.URLParam(r, "screen"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	field := chi.URLParam(r, "field")
	opts, err := s.service.Options(r.Context(), screen, field)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if opts == nil {
		opts = []dataview.Option{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": field, "options": opts})
}

// SelectionResponse is the next selection and how it shows on the page.
type SelectionResponse struct {
	Selection  []string `json:"selection"`
	AllOnPage  bool     `json:"all_on_page"`
	SomeOnPage bool     `json:"some_on_page"`
	Count      int      `json:"count"`
}

// handleSelection applies one selection change. The selection is owned by
// the client: it sends the current list and the keys of the visible page,
// and receives the new list.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if _, err := content.Lookup(chi.URLParam(r, "screen")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var req content.SelectionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.Validator().Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	op, err := dataview.ParseSelectionOp(req.Action)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	next := dataview.NextSelection(req.Current, req.PageKeys, dataview.SelectionAction[string]{Op: op, Key: req.Key})
	if next == nil {
		next = []string{}
	}
	sum := dataview.Summarize(next, req.PageKeys)
	writeJSON(w, http.StatusOK, SelectionResponse{
		Selection:  next,
		AllOnPage:  sum.AllOnPage,
		SomeOnPage: sum.SomeOnPage,
		Count:      sum.Count,
	})
}

// handleAction dispatches a row or toolbar action.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	screen := chi.URLParam(r, "screen")

	var req content.ActionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.Validator().Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.dispatch(w, r, req.Command(screen))
}

// handleRefresh drops the cached rows of the screen.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, content.NewCommand(content.ActionRefresh, chi.URLParam(r, "screen")))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd content.Command) {
	out, err := s.service.Dispatch(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	status := http.StatusOK
	if cmd.Tag == content.ActionCreate {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}

// decode reads a JSON body into v, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body too large", content.ErrInvalidQuery)
		}
		return fmt.Errorf("%w: %v", content.ErrInvalidQuery, err)
	}
	return nil
}

// renderHTML writes a full page.
func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
