package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/eduadmin/internal/config"
	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// memRepo keeps rows per screen in memory.
type memRepo struct {
	mu          sync.Mutex
	rows        map[string][]dataview.Record
	nextID      int
	invalidated int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string][]dataview.Record), nextID: 100}
}

func (m *memRepo) Fetch(_ context.Context, s content.Screen, _ content.Scope) ([]dataview.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows[s.Key]), nil
}

func (m *memRepo) Get(_ context.Context, s content.Screen, _ content.Scope, key string) (dataview.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[s.Key] {
		if dataview.Stringify(r[s.KeyField]) == key {
			return r, nil
		}
	}
	return nil, content.ErrNotFound
}

func (m *memRepo) Insert(_ context.Context, s content.Screen, _ content.Scope, fields map[string]any) (dataview.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	row := dataview.Record{s.KeyField: m.nextID}
	for k, v := range fields {
		row[k] = v
	}
	m.rows[s.Key] = append(m.rows[s.Key], row)
	return row, nil
}

func (m *memRepo) Update(_ context.Context, s content.Screen, _ content.Scope, key string, fields map[string]any) (dataview.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[s.Key] {
		if dataview.Stringify(r[s.KeyField]) == key {
			for k, v := range fields {
				r[k] = v
			}
			return r, nil
		}
	}
	return nil, content.ErrNotFound
}

// UpdateMany changes every key or, when one is missing, none.
func (m *memRepo) UpdateMany(_ context.Context, s content.Screen, _ content.Scope, keys []string, fields map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hit []dataview.Record
	for _, k := range keys {
		i := slices.IndexFunc(m.rows[s.Key], func(r dataview.Record) bool { return dataview.Stringify(r[s.KeyField]) == k })
		if i < 0 {
			return 0, content.ErrNotFound
		}
		hit = append(hit, m.rows[s.Key][i])
	}
	for _, r := range hit {
		for k, v := range fields {
			r[k] = v
		}
	}
	return int64(len(hit)), nil
}

func (m *memRepo) Delete(_ context.Context, s content.Screen, _ content.Scope, keys []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.rows[s.Key])
	m.rows[s.Key] = slices.DeleteFunc(m.rows[s.Key], func(r dataview.Record) bool {
		return slices.Contains(keys, dataview.Stringify(r[s.KeyField]))
	})
	return int64(before - len(m.rows[s.Key])), nil
}

func (m *memRepo) Count(_ context.Context, s content.Screen, _ content.Scope) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[s.Key]), nil
}

func (m *memRepo) Invalidate(content.Screen, content.Scope) {
	m.mu.Lock()
	m.invalidated++
	m.mu.Unlock()
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		View:   config.ViewConfig{PageSize: 2, MaxPageSize: 50, DateLayout: "02/01/2006", Language: "fr"},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
		Academic: config.AcademicConfig{Year: "2024-2025"},
	}
}

func courseRows() []dataview.Record {
	return []dataview.Record{
		{"id": 1, "code": "MATH1", "title": "Mathématiques", "level": "beginner", "status": "published",
			"teacher_first_name": "Ada", "teacher_last_name": "Lovelace", "completion": 80.0,
			"start_date": time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), "lesson_count": 12},
		{"id": 2, "code": "BIO1", "title": "biologie", "level": "advanced", "status": "draft",
			"teacher_first_name": "Rosalind", "teacher_last_name": "Franklin", "completion": 20.0,
			"start_date": time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), "lesson_count": 4},
		{"id": 3, "code": "CHEM1", "title": "Chimie", "level": "beginner", "status": "published",
			"teacher_first_name": "Marie", "teacher_last_name": "Curie", "completion": nil,
			"start_date": nil, "lesson_count": 7},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, db Pinger) (*Server, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	repo.rows["courses"] = courseRows()
	svc := content.NewService(repo, content.Scope{AcademicYear: cfg.Academic.Year},
		content.ViewOptions{Language: cfg.View.LanguageTag(), DateLayout: cfg.View.DateLayout}, cfg.View.PageSize)
	return NewServer(svc, cfg, db), repo
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type rowsBody struct {
	Keys      []string `json:"keys"`
	Total     int      `json:"total"`
	Filtered  int      `json:"filtered"`
	Page      int      `json:"page"`
	PageCount int      `json:"page_count"`
	Selection struct {
		AllOnPage  bool `json:"all_on_page"`
		SomeOnPage bool `json:"some_on_page"`
		Count      int  `json:"count"`
	} `json:"selection"`
	Rows []struct {
		Key   string          `json:"key"`
		Cells []dataview.Cell `json:"cells"`
	} `json:"rows"`
}

func TestHandleRows(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name      string
		query     string
		wantKeys  []string
		wantTotal int
		wantFilt  int
		wantPages int
	}{
		{"default sort by title, page size 2", "", []string{"2", "3"}, 3, 3, 2},
		{"second page", "?page=2", []string{"1"}, 3, 3, 2},
		{"past the end is empty", "?page=9", []string{}, 3, 3, 2},
		{"huge page is empty", "?page=1000000000000000000&limit=10", []string{}, 3, 3, 1},
		{"direction is case-insensitive", "?sort=completion&dir=DESC&limit=10", []string{"1", "2", "3"}, 3, 3, 1},
		{"search folds accents and case", "?search=MATH%C3%89", []string{"1"}, 3, 1, 1},
		{"select filter", "?filter[status]=published&limit=10", []string{"3", "1"}, 3, 2, 1},
		{"composite filter", "?filter[teacher]=marie+curie", []string{"3"}, 3, 1, 1},
		{"date range is inclusive", "?filter[start_date][from]=2024-09-02&filter[start_date][to]=2024-09-02", []string{"1"}, 3, 1, 1},
		{"null dates never match", "?filter[start_date][from]=2000-01-01&limit=10", []string{"2", "1"}, 3, 2, 1},
		{"sort desc keeps nulls last", "?sort=completion&dir=desc&limit=10", []string{"1", "2", "3"}, 3, 3, 1},
		{"sort asc keeps nulls last", "?sort=completion&dir=asc&limit=10", []string{"2", "1", "3"}, 3, 3, 1},
		{"unknown filter ignored", "?filter[nope]=x&limit=10", []string{"2", "3", "1"}, 3, 3, 1},
		{"limit capped", "?limit=5000", []string{"2", "3", "1"}, 3, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/screens/courses/rows"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			got := decodeBody[rowsBody](t, rec)
			if !slices.Equal(got.Keys, tt.wantKeys) {
				t.Errorf("keys = %v, want %v", got.Keys, tt.wantKeys)
			}
			if got.Total != tt.wantTotal || got.Filtered != tt.wantFilt || got.PageCount != tt.wantPages {
				t.Errorf("total/filtered/pages = %d/%d/%d, want %d/%d/%d",
					got.Total, got.Filtered, got.PageCount, tt.wantTotal, tt.wantFilt, tt.wantPages)
			}
			if len(got.Rows) != len(tt.wantKeys) {
				t.Errorf("rows = %d, want %d", len(got.Rows), len(tt.wantKeys))
			}
		})
	}
}

func TestHandleRows_SelectionSurvivesPagination(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/screens/courses/rows?page=2&selected=2,3", nil)
	got := decodeBody[rowsBody](t, rec)
	if got.Selection.Count != 2 {
		t.Errorf("count = %d, want 2", got.Selection.Count)
	}
	if got.Selection.AllOnPage || got.Selection.SomeOnPage {
		t.Errorf("page 2 holds no selected rows: %+v", got.Selection)
	}

	rec = do(t, s, http.MethodGet, "/api/screens/courses/rows?page=1&selected=2,3", nil)
	got = decodeBody[rowsBody](t, rec)
	if !got.Selection.AllOnPage {
		t.Error("page 1 should be fully selected")
	}
}

func TestHandleRows_Errors(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/screens/nope/rows", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown screen status = %d, want 404", rec.Code)
	}
	body := decodeBody[ErrorResponse](t, rec)
	if body.Code != "VIEW001" {
		t.Errorf("code = %q, want VIEW001", body.Code)
	}
}

func TestHandleFilterOptions(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/screens/courses/filters/level/options", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[struct {
		Options []dataview.Option `json:"options"`
	}](t, rec)
	var values []string
	for _, o := range got.Options {
		values = append(values, o.Value)
	}
	if !slices.Equal(values, []string{"advanced", "beginner"}) {
		t.Errorf("options = %v", values)
	}

	rec = do(t, s, http.MethodGet, "/api/screens/courses/filters/nope/options", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown filter status = %d, want 404", rec.Code)
	}
}

func TestHandleSelection(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name     string
		body     map[string]any
		status   int
		want     []string
		allOn    bool
		someOn   bool
		wantCode string
	}{
		{
			name:   "select page keeps other pages",
			body:   map[string]any{"current": []string{"9"}, "page_keys": []string{"1", "2"}, "action": "select_page"},
			status: http.StatusOK, want: []string{"9", "1", "2"}, allOn: true,
		},
		{
			name:   "toggle off",
			body:   map[string]any{"current": []string{"1", "2"}, "page_keys": []string{"1", "2"}, "action": "toggle", "key": "1"},
			status: http.StatusOK, want: []string{"2"}, someOn: true,
		},
		{
			name:   "deselect page",
			body:   map[string]any{"current": []string{"1", "2", "9"}, "page_keys": []string{"1", "2"}, "action": "deselect_page"},
			status: http.StatusOK, want: []string{"9"},
		},
		{
			name:   "clear",
			body:   map[string]any{"current": []string{"1"}, "page_keys": []string{"1"}, "action": "clear"},
			status: http.StatusOK, want: []string{},
		},
		{
			name:   "toggle needs a key",
			body:   map[string]any{"page_keys": []string{"1"}, "action": "toggle"},
			status: http.StatusBadRequest, wantCode: "ACT004",
		},
		{
			name:   "unknown action",
			body:   map[string]any{"action": "invert"},
			status: http.StatusBadRequest, wantCode: "ACT004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/screens/courses/selection", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
				return
			}
			got := decodeBody[SelectionResponse](t, rec)
			if !slices.Equal(got.Selection, tt.want) {
				t.Errorf("selection = %v, want %v", got.Selection, tt.want)
			}
			if got.AllOnPage != tt.allOn || got.SomeOnPage != tt.someOn {
				t.Errorf("all/some = %v/%v, want %v/%v", got.AllOnPage, got.SomeOnPage, tt.allOn, tt.someOn)
			}
		})
	}
}

func TestHandleAction(t *testing.T) {
	s, repo := newTestServer(t, testConfig(), nil)

	t.Run("create", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{
			"action": "create",
			"fields": map[string]any{"code": "PHY1", "title": "Physique", "level": "beginner"},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		out := decodeBody[content.Outcome](t, rec)
		if !out.Refresh || out.Affected != 1 {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("create rejects invalid fields", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{
			"action": "create",
			"fields": map[string]any{"title": "No code", "level": "expert"},
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody[ErrorResponse](t, rec)
		if body.Fields["code"] == "" || body.Fields["level"] == "" {
			t.Errorf("fields = %v, want code and level errors", body.Fields)
		}
	})

	t.Run("publish", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{"action": "publish", "key": "2"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		row, _ := repo.Get(context.Background(), content.Screen{Key: "courses", KeyField: "id"}, content.Scope{}, "2")
		if row["status"] != "published" {
			t.Errorf("status = %v, want published", row["status"])
		}
	})

	t.Run("bulk archive with a missing key changes nothing", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{"action": "archive", "keys": []string{"1", "404"}})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		row, _ := repo.Get(context.Background(), content.Screen{Key: "courses", KeyField: "id"}, content.Scope{}, "1")
		if row["status"] != "published" {
			t.Errorf("status = %v, want published", row["status"])
		}
	})

	t.Run("bulk delete", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{"action": "delete", "keys": []string{"1", "3"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		out := decodeBody[content.Outcome](t, rec)
		if out.Affected != 2 || !slices.Equal(out.Removed, []string{"1", "3"}) {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("view missing row", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{"action": "view", "key": "404"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("unsupported action", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{"action": "launch"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := decodeBody[ErrorResponse](t, rec); got.Code != "ACT001" {
			t.Errorf("code = %q, want ACT001", got.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/screens/courses/actions", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleRefresh(t *testing.T) {
	s, repo := newTestServer(t, testConfig(), nil)
	rec := do(t, s, http.MethodPost, "/api/screens/courses/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if repo.invalidated != 1 {
		t.Errorf("invalidated = %d, want 1", repo.invalidated)
	}
}

func TestHandleScreen(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/screens/courses?selected=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{
		`<table class="data-table">`,
		`data-key="2" class="selected"`,
		`Academic year 2024-2025`,
		`name="filter[status]"`,
		`<option value="advanced">advanced</option>`,
		`rel="next" href="/screens/courses?dir=asc&amp;page=2&amp;selected=2&amp;sort=title"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %s", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header")
	}

	rec = do(t, s, http.MethodGet, "/screens/courses?view=grid", nil)
	if !strings.Contains(rec.Body.String(), `<div class="card-grid">`) {
		t.Error("grid view not rendered")
	}

	rec = do(t, s, http.MethodGet, "/screens/courses?page=1000000000000000000", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("huge page: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/screens/nope", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "VIEW001") {
		t.Errorf("unknown screen: status %d", rec.Code)
	}
}

func TestHandleDashboard(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(t, s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/screens/courses"`) {
		t.Error("dashboard does not link to courses")
	}
}

func TestHandleListScreens(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(t, s, http.MethodGet, "/api/screens", nil)
	got := decodeBody[struct {
		Screens []content.Info      `json:"screens"`
		Actions []content.ActionTag `json:"actions"`
	}](t, rec)
	if len(got.Screens) != content.Count() {
		t.Errorf("screens = %d, want %d", len(got.Screens), content.Count())
	}
	want := []content.ActionTag{"archive", "create", "delete", "edit", "publish", "refresh", "view"}
	if !slices.Equal(got.Actions, want) {
		t.Errorf("actions = %v, want %v", got.Actions, want)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		db   Pinger
		want int
	}{
		{"no database", nil, http.StatusOK},
		{"database up", fakePinger{}, http.StatusOK},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, testConfig(), tt.db)
			if rec := do(t, s, http.MethodGet, "/healthz", nil); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ActionsPerMinute: 2}
	s, _ := newTestServer(t, cfg, nil)

	var codes []int
	for i := 0; i < 3; i++ {
		rec := do(t, s, http.MethodPost, "/api/screens/courses/refresh", nil)
		codes = append(codes, rec.Code)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want third request throttled", codes)
	}
}

func TestAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s, _ := newTestServer(t, cfg, nil)

	for key, want := range map[string]int{"": 401, "wrong": 403, "secret": 200} {
		t.Run("key="+strconv.Quote(key), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)
			if key != "" {
				req.Header.Set("X-API-Key", key)
			}
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != want {
				t.Errorf("status = %d, want %d", rec.Code, want)
			}
		})
	}

	t.Run("configured keys are enforced without the flag", func(t *testing.T) {
		cfg := testConfig()
		cfg.Security.APIKeys = []string{"secret"}
		s, repo := newTestServer(t, cfg, nil)

		rec := do(t, s, http.MethodPost, "/api/screens/courses/actions", map[string]any{"action": "delete", "keys": []string{"1", "2"}})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if n, _ := repo.Count(context.Background(), content.Screen{Key: "courses"}, content.Scope{}); n != 3 {
			t.Errorf("rows = %d, want 3 untouched", n)
		}
	})

	t.Run("no keys leaves the API open", func(t *testing.T) {
		s, _ := newTestServer(t, testConfig(), nil)
		if rec := do(t, s, http.MethodGet, "/api/screens", nil); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	// Pages stay reachable without a key.
	if rec := do(t, s, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}
