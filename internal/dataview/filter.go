package dataview

import (
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"golang.org/x/text/language"
)

// FilterKind selects how a filter tests a row.
type FilterKind string

const (
	FilterText      FilterKind = "text"
	FilterSelect    FilterKind = "select"
	FilterDate      FilterKind = "date"
	FilterDateRange FilterKind = "date-range"
)

// Option is one choice of a select filter.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterDescriptor describes one filter control and how rows are tested
// against it.
type FilterDescriptor[R any] struct {
	Field         string
	Label         string
	Kind          FilterKind
	Accessor      Accessor[R] // Defaults to Direct(Field)
	Options       []Option    // Static options
	DeriveOptions bool        // Build options from the data when Options is empty
}

// FilterValue is the active value of one filter. The zero value is inactive.
//
// Text drives text and select filters. On drives single-date filters (Text
// is parsed as a date when On is nil). From and To bound date ranges; a nil
// bound is open.
type FilterValue struct {
	Text string     `json:"text,omitempty"`
	On   *time.Time `json:"on,omitempty"`
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Active reports whether the value filters anything.
func (v FilterValue) Active() bool {
	return strings.TrimSpace(v.Text) != "" || v.On != nil || v.From != nil || v.To != nil
}

// fingerprint renders the value for memoization keys.
func (v FilterValue) fingerprint() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(v.Text))
	for _, t := range []*time.Time{v.On, v.From, v.To} {
		b.WriteByte('|')
		if t != nil {
			b.WriteString(t.Format(time.RFC3339))
		}
	}
	return b.String()
}

func (f FilterDescriptor[R]) accessor() Accessor[R] {
	return f.Accessor.Or(Direct[R](f.Field))
}

// Matches reports whether row passes the filter. Inactive values match
// everything.
func (f FilterDescriptor[R]) Matches(row R, val FilterValue, get Getter[R]) bool {
	return matchFilter(newFolder(), f, row, val, get)
}

func matchFilter[R any](fo *folder, f FilterDescriptor[R], row R, val FilterValue, get Getter[R]) bool {
	if !val.Active() {
		return true
	}
	raw := f.accessor().Value(row, get)

	switch f.Kind {
	case FilterDate:
		on := val.On
		if on == nil {
			t, ok := ParseDate(val.Text)
			if !ok {
				return true
			}
			on = &t
		}
		t, ok := ToTime(raw)
		return ok && SameDay(t, *on)

	case FilterDateRange:
		if val.From == nil && val.To == nil {
			return true
		}
		t, ok := ToTime(raw)
		return ok && InRange(t, val.From, val.To)

	default:
		return fo.equal(Stringify(raw), val.Text)
	}
}

// SameDay reports whether t falls on the calendar day of day. The day is
// read as a date and evaluated in t's location, so a zoned value matches
// the day it displays as.
func SameDay(t, day time.Time) bool {
	d := dayIn(day, t.Location())
	return !t.Before(d.BeginningOfDay()) && !t.After(d.EndOfDay())
}

// InRange reports whether t lies within [from, to] at day granularity.
// Both bounds are inclusive; a nil bound is unbounded.
func InRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(dayIn(*from, t.Location()).BeginningOfDay()) {
		return false
	}
	if to != nil && t.After(dayIn(*to, t.Location()).EndOfDay()) {
		return false
	}
	return true
}

func dayIn(day time.Time, loc *time.Location) *now.Now {
	y, m, d := day.Date()
	return now.With(time.Date(y, m, d, 0, 0, 0, 0, loc))
}

// MatchesFilters reports whether row passes every active filter.
// Active fields without a descriptor are compared as text on the field
// of the same name.
func MatchesFilters[R any](row R, descriptors []FilterDescriptor[R], active map[string]FilterValue, get Getter[R]) bool {
	return matchesAll(newFolder(), row, descriptors, active, get)
}

func matchesAll[R any](fo *folder, row R, descriptors []FilterDescriptor[R], active map[string]FilterValue, get Getter[R]) bool {
	for field, val := range active {
		if !val.Active() {
			continue
		}
		desc, ok := findFilter(descriptors, field)
		if !ok {
			desc = FilterDescriptor[R]{Field: field, Kind: FilterText}
		}
		if !matchFilter(fo, desc, row, val, get) {
			return false
		}
	}
	return true
}

func findFilter[R any](descriptors []FilterDescriptor[R], field string) (FilterDescriptor[R], bool) {
	for _, d := range descriptors {
		if d.Field == field {
			return d, true
		}
	}
	return FilterDescriptor[R]{}, false
}

// OptionsFor returns the filter's options: the static list when present,
// otherwise (with DeriveOptions) the distinct non-empty values in rows,
// collated case-insensitively.
func (f FilterDescriptor[R]) OptionsFor(rows []R, get Getter[R], tag language.Tag) []Option {
	if len(f.Options) > 0 || !f.DeriveOptions {
		return f.Options
	}

	fo := newFolder()
	seen := make(map[string]bool)
	var values []string
	acc := f.accessor()
	for _, r := range rows {
		s := strings.TrimSpace(acc.Text(r, get))
		if s == "" {
			continue
		}
		k := fo.fold(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		values = append(values, s)
	}

	cmp := newComparer(tag)
	sort.SliceStable(values, func(i, j int) bool {
		return cmp.compare(values[i], values[j]) < 0
	})

	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Value: v, Label: v}
	}
	return opts
}

// filterFingerprint renders the active filters in a stable order.
func filterFingerprint(active map[string]FilterValue) string {
	keys := make([]string, 0, len(active))
	for k, v := range active {
		if v.Active() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(active[k].fingerprint())
		b.WriteByte(';')
	}
	return b.String()
}
