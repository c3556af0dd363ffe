package dataview

import (
	"slices"
	"testing"
)

func TestNextSelection(t *testing.T) {
	tests := []struct {
		name     string
		current  []string
		pageKeys []string
		action   SelectionAction[string]
		want     []string
	}{
		{
			name:    "toggle adds",
			current: []string{"a"},
			action:  SelectionAction[string]{Op: SelectToggle, Key: "b"},
			want:    []string{"a", "b"},
		},
		{
			name:    "toggle removes",
			current: []string{"a", "b"},
			action:  SelectionAction[string]{Op: SelectToggle, Key: "a"},
			want:    []string{"b"},
		},
		{
			name:     "select page unions",
			current:  []string{"x", "b"},
			pageKeys: []string{"a", "b", "c"},
			action:   SelectionAction[string]{Op: SelectPage},
			want:     []string{"x", "b", "a", "c"},
		},
		{
			name:     "deselect page keeps other pages",
			current:  []string{"x", "a", "y", "c"},
			pageKeys: []string{"a", "b", "c"},
			action:   SelectionAction[string]{Op: DeselectPage},
			want:     []string{"x", "y"},
		},
		{
			name:    "clear",
			current: []string{"a"},
			action:  SelectionAction[string]{Op: SelectionClear},
			want:    []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := slices.Clone(tt.current)
			got := NextSelection(tt.current, tt.pageKeys, tt.action)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !slices.Equal(tt.current, before) {
				t.Errorf("current mutated to %v", tt.current)
			}
		})
	}
}

func TestNextSelection_AcrossPages(t *testing.T) {
	page1 := []int{1, 2, 3}
	page2 := []int{4, 5, 6}

	var sel []int
	sel = NextSelection(sel, page1, SelectionAction[int]{Op: SelectToggle, Key: 1})
	sel = NextSelection(sel, page2, SelectionAction[int]{Op: SelectToggle, Key: 5})
	if !slices.Equal(sel, []int{1, 5}) {
		t.Fatalf("selection = %v, want [1 5]", sel)
	}

	sel = NextSelection(sel, page2, SelectionAction[int]{Op: SelectPage})
	sel = NextSelection(sel, page2, SelectionAction[int]{Op: DeselectPage})
	if !slices.Equal(sel, []int{1}) {
		t.Errorf("selection = %v, want [1]", sel)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		current  []string
		pageKeys []string
		all      bool
		some     bool
	}{
		{"none", []string{"z"}, []string{"a", "b"}, false, false},
		{"some", []string{"a"}, []string{"a", "b"}, false, true},
		{"all", []string{"a", "b", "z"}, []string{"a", "b"}, true, false},
		{"empty page", []string{"a"}, nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.current, tt.pageKeys)
			if s.AllOnPage != tt.all || s.SomeOnPage != tt.some {
				t.Errorf("all=%v some=%v, want all=%v some=%v", s.AllOnPage, s.SomeOnPage, tt.all, tt.some)
			}
			if s.Count != len(tt.current) {
				t.Errorf("Count = %d, want %d", s.Count, len(tt.current))
			}
		})
	}
}

func TestParseSelectionOp(t *testing.T) {
	for _, s := range []string{"toggle", "select_page", "deselect_page", "clear"} {
		if _, err := ParseSelectionOp(s); err != nil {
			t.Errorf("ParseSelectionOp(%q) error: %v", s, err)
		}
	}
	if _, err := ParseSelectionOp("select_all"); err == nil {
		t.Error("ParseSelectionOp(select_all) expected error")
	}
}

func TestViewState_Transitions(t *testing.T) {
	s := DefaultState(20).WithPage(4)

	s2 := s.WithFilter("level", FilterValue{Text: "A1"})
	if s2.Page != 1 || s.Page != 4 {
		t.Errorf("WithFilter pages: new %d old %d", s2.Page, s.Page)
	}
	if len(s.Filters) != 0 {
		t.Error("WithFilter changed the previous state's filters")
	}

	s3 := s2.WithPage(2).WithFilter("level", FilterValue{Text: "A1"})
	if s3.Page != 2 {
		t.Errorf("same filter value reset page to %d", s3.Page)
	}

	s4 := s3.WithFilter("level", FilterValue{})
	if _, ok := s4.Filters["level"]; ok || s4.Page != 1 {
		t.Errorf("clearing filter: %v page %d", s4.Filters, s4.Page)
	}

	s5 := s4.WithSortToggled("title")
	if s5.SortColumn != "title" || s5.SortDir != SortAsc {
		t.Errorf("first toggle = %s %s", s5.SortColumn, s5.SortDir)
	}
	if s6 := s5.WithSortToggled("title"); s6.SortDir != SortDesc {
		t.Errorf("second toggle dir = %s", s6.SortDir)
	}
	if s7 := s5.WithSortToggled("title").WithSortToggled("score"); s7.SortDir != SortAsc {
		t.Errorf("new column dir = %s", s7.SortDir)
	}
}
