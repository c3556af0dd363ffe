package dataview

import (
	"math"
	"slices"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestSortRows_NullsLast(t *testing.T) {
	values := []any{5, nil, 2, nil, 8}
	rows := make([]Record, len(values))
	for i, v := range values {
		rows[i] = Record{"n": v, "pos": i}
	}
	col := Column[Record]{ID: "n", Sortable: true}

	tests := []struct {
		dir  SortDir
		want []any
	}{
		{SortAsc, []any{2, 5, 8, nil, nil}},
		{SortDesc, []any{8, 5, 2, nil, nil}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			got := SortRows(rows, col, tt.dir, RecordGetter, language.Und)
			for i, r := range got {
				if r["n"] != tt.want[i] {
					t.Fatalf("position %d = %v, want %v", i, r["n"], tt.want[i])
				}
			}
			// Stable: the two nulls keep their input order.
			if got[3]["pos"] != 1 || got[4]["pos"] != 3 {
				t.Errorf("nulls reordered: %v, %v", got[3]["pos"], got[4]["pos"])
			}
		})
	}
}

func TestCompare(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"dates", d1, d2, -1},
		{"strings ignore case", "apple", "Banana", -1},
		{"equal strings ignoring case", "Alpha", "alpha", 0},
		{"ints", 10, 9, 1},
		{"int and float", 2, 2.5, -1},
		{"numeric string and number", "3", 2, 1},
		{"bools", false, true, -1},
		{"incomparable", "abc", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatchesSearch(t *testing.T) {
	fields := []Accessor[Record]{
		Direct[Record]("title"),
		Composite[Record](" ", "first", "last"),
		Derived(func(r Record) any { return r["code"] }),
	}
	row := Record{"title": "Mathématiques", "first": "Ada", "last": "Lovelace", "code": "M-101"}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"mathé", true},
		{"MATHÉ", true},
		{"ada love", true},
		{"m-10", true},
		{"physique", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := MatchesSearch(row, tt.term, fields, RecordGetter); got != tt.want {
				t.Errorf("MatchesSearch(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestMatchesFilters_DateRange(t *testing.T) {
	filters := []FilterDescriptor[Record]{{Field: "created_at", Kind: FilterDateRange}}
	active := map[string]FilterValue{
		"created_at": {From: day(2024, 3, 10), To: day(2024, 3, 20)},
	}

	tests := []struct {
		name string
		at   any
		want bool
	}{
		{"on start", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{"on end late in the day", time.Date(2024, 3, 20, 23, 59, 0, 0, time.UTC), true},
		{"inside as string", "2024-03-15", true},
		{"day before start", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), false},
		{"day after end", "2024-03-21", false},
		{"null", nil, false},
		{"garbage", "soon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Record{"created_at": tt.at}
			if got := MatchesFilters(row, filters, active, RecordGetter); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	open := map[string]FilterValue{"created_at": {From: day(2024, 3, 10)}}
	if !MatchesFilters(Record{"created_at": "2030-01-01"}, filters, open, RecordGetter) {
		t.Error("open upper bound excluded a later date")
	}
}

func TestMatchesFilters_DateAndText(t *testing.T) {
	filters := []FilterDescriptor[Record]{
		{Field: "due", Kind: FilterDate},
		{Field: "level", Kind: FilterSelect},
	}
	row := Record{"due": time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC), "level": "Beginner", "lang": "FR"}

	tests := []struct {
		name   string
		active map[string]FilterValue
		want   bool
	}{
		{"no filters", nil, true},
		{"inactive value", map[string]FilterValue{"level": {}}, true},
		{"same day", map[string]FilterValue{"due": {On: day(2024, 5, 2)}}, true},
		{"same day as text", map[string]FilterValue{"due": {Text: "2024-05-02"}}, true},
		{"other day", map[string]FilterValue{"due": {On: day(2024, 5, 3)}}, false},
		{"select ignores case", map[string]FilterValue{"level": {Text: "beginner"}}, true},
		{"select needs exact value", map[string]FilterValue{"level": {Text: "begin"}}, false},
		{"undeclared field", map[string]FilterValue{"lang": {Text: "fr"}}, true},
		{"all must match", map[string]FilterValue{"level": {Text: "beginner"}, "lang": {Text: "en"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesFilters(row, filters, tt.active, RecordGetter); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesFilters_ZonedValues(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata unavailable:", err)
	}
	// 00:30 in Paris is still the previous day in UTC.
	at := time.Date(2024, 9, 1, 0, 30, 0, 0, paris)
	row := Record{"published_at": at}

	tests := []struct {
		name string
		kind FilterKind
		val  FilterValue
		want bool
	}{
		{"same day", FilterDate, FilterValue{On: day(2024, 9, 1)}, true},
		{"same day as text", FilterDate, FilterValue{Text: "2024-09-01"}, true},
		{"utc day", FilterDate, FilterValue{On: day(2024, 8, 31)}, false},
		{"single day range", FilterDateRange, FilterValue{From: day(2024, 9, 1), To: day(2024, 9, 1)}, true},
		{"range ending the day before", FilterDateRange, FilterValue{To: day(2024, 8, 31)}, false},
		{"range starting the day after", FilterDateRange, FilterValue{From: day(2024, 9, 2)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters := []FilterDescriptor[Record]{{Field: "published_at", Kind: tt.kind}}
			active := map[string]FilterValue{"published_at": tt.val}
			if got := MatchesFilters(row, filters, active, RecordGetter); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	cfg := scoreConfig()
	v := NewView(cfg, scoreRows(), 10)
	v.SetSearch("a")
	v.SetFilter("name", FilterValue{Text: "alpha"})
	once := v.Result().Rows

	again := NewView(cfg, once, 10)
	again.SetState(v.State())
	twice := again.Result().Rows

	if !slices.Equal(names(once), names(twice)) {
		t.Errorf("second pass = %v, first = %v", names(twice), names(once))
	}
	if len(once) != 1 {
		t.Errorf("got %d rows, want 1", len(once))
	}
}

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5, 6, 7}
	tests := []struct {
		name       string
		page, size int
		want       []int
	}{
		{"first page", 1, 3, []int{1, 2, 3}},
		{"last partial page", 3, 3, []int{7}},
		{"past the end", 4, 3, []int{}},
		{"page below one", 0, 3, []int{1, 2, 3}},
		{"no size", 2, 0, rows},
		{"huge page", math.MaxInt / 2, 10, []int{}},
		{"max page", math.MaxInt, 3, []int{}},
		{"huge size", 1, math.MaxInt, rows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Paginate(rows, tt.page, tt.size); !slices.Equal(got, tt.want) {
				t.Errorf("Paginate(%d, %d) = %v, want %v", tt.page, tt.size, got, tt.want)
			}
		})
	}

	if n := PageCount(0, 10); n != 1 {
		t.Errorf("PageCount(0, 10) = %d, want 1", n)
	}
	if n := PageCount(5, math.MaxInt); n != 1 {
		t.Errorf("PageCount(5, MaxInt) = %d, want 1", n)
	}
	if n := PageCount(21, 10); n != 3 {
		t.Errorf("PageCount(21, 10) = %d, want 3", n)
	}
}
