package content

import (
	"golang.org/x/text/language"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// Column and filter aliases keep screen definitions readable.
type (
	Column = dataview.Column[dataview.Record]
	Filter = dataview.FilterDescriptor[dataview.Record]
)

// FieldSpec is one writable field of a screen.
type FieldSpec struct {
	Name  string // Database column
	Label string
	Rules string // validator tags, e.g. "required,max=200"
}

// Screen describes one content screen.
type Screen struct {
	Key      string // URL key, e.g. "courses"
	Group    string // Navigation group
	Label    string
	Table    string // Table written by create, edit and delete
	KeyField string // Primary key column

	// Query selects the screen's rows. Year-scoped queries take the academic
	// year as $1.
	Query      string
	YearScoped bool
	YearColumn string // Set from the scope on create, if not empty

	Columns     []Column
	Filters     []Filter
	Searchable  []dataview.Accessor[dataview.Record]
	DefaultSort string
	DefaultDir  dataview.SortDir
	PageSize    int

	Actions []dataview.ActionButton // Row actions
	Global  []dataview.ActionButton // Toolbar actions
	Fields  []FieldSpec             // Writable fields

	// Card layout for the grid view.
	CardTitle    string
	CardSubtitle string
	CardBadge    string
}

// ViewOptions carries process-wide view settings.
type ViewOptions struct {
	Language   language.Tag
	DateLayout string
}

// Config builds the data-view configuration for the screen.
func (s Screen) Config(opts ViewOptions) dataview.Config[dataview.Record] {
	keyField := s.KeyField
	return dataview.Config[dataview.Record]{
		Columns:    s.columnsWithActions(),
		Filters:    s.Filters,
		Searchable: s.Searchable,
		Get:        dataview.RecordGetter,
		Key: func(r dataview.Record) string {
			return dataview.Stringify(r[keyField])
		},
		Language:   opts.Language,
		DateLayout: opts.DateLayout,
	}
}

func (s Screen) columnsWithActions() []Column {
	if len(s.Actions) == 0 {
		return s.Columns
	}
	cols := make([]Column, 0, len(s.Columns)+1)
	cols = append(cols, s.Columns...)
	return append(cols, Column{
		ID:      "_actions",
		Display: dataview.Display[dataview.Record]{Kind: dataview.KindActions, Actions: s.Actions},
	})
}

// DefaultState returns the initial view state for the screen.
func (s Screen) DefaultState(fallbackPageSize int) dataview.ViewState {
	size := s.PageSize
	if size < 1 {
		size = fallbackPageSize
	}
	st := dataview.DefaultState(size)
	if s.DefaultSort != "" {
		dir := s.DefaultDir
		if dir == "" {
			dir = dataview.SortAsc
		}
		st = st.WithSort(s.DefaultSort, dir)
	}
	return st
}

// Field returns the writable field named name.
func (s Screen) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// HasAction reports whether tag is offered as a row or toolbar action.
func (s Screen) HasAction(tag ActionTag) bool {
	for _, set := range [][]dataview.ActionButton{s.Actions, s.Global} {
		for _, a := range set {
			if ActionTag(a.Tag) == tag {
				return true
			}
		}
	}
	return tag == ActionRefresh
}

// Info is the JSON description of a screen.
type Info struct {
	Key     string                  `json:"key"`
	Group   string                  `json:"group"`
	Label   string                  `json:"label"`
	Columns []ColumnInfo            `json:"columns"`
	Filters []FilterInfo            `json:"filters"`
	Actions []dataview.ActionButton `json:"actions"`
	Global  []dataview.ActionButton `json:"global_actions"`
	Fields  []string                `json:"fields"`
}

// ColumnInfo describes one column for clients.
type ColumnInfo struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Kind     dataview.CellKind `json:"kind"`
	Sortable bool              `json:"sortable"`
}

// FilterInfo describes one filter for clients.
type FilterInfo struct {
	Field   string              `json:"field"`
	Label   string              `json:"label"`
	Kind    dataview.FilterKind `json:"kind"`
	Options []dataview.Option   `json:"options,omitempty"`
	Dynamic bool                `json:"dynamic,omitempty"`
}

// Info returns the screen's client-facing metadata.
func (s Screen) Info() Info {
	info := Info{Key: s.Key, Group: s.Group, Label: s.Label, Actions: s.Actions, Global: s.Global}
	for _, c := range s.Columns {
		kind := c.Display.Kind
		if kind == "" {
			kind = dataview.KindText
		}
		info.Columns = append(info.Columns, ColumnInfo{ID: c.ID, Label: c.Label, Kind: kind, Sortable: c.Sortable})
	}
	for _, f := range s.Filters {
		info.Filters = append(info.Filters, FilterInfo{
			Field: f.Field, Label: f.Label, Kind: f.Kind,
			Options: f.Options, Dynamic: len(f.Options) == 0 && f.DeriveOptions,
		})
	}
	for _, f := range s.Fields {
		info.Fields = append(info.Fields, f.Name)
	}
	return info
}
