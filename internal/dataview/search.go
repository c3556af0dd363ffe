package dataview

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// folder lowers text for case-insensitive matching. A cases.Caser keeps
// state, so each filtering pass owns its folder.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(norm.NFC.String(s))
}

func (f *folder) equal(a, b string) bool {
	return f.fold(strings.TrimSpace(a)) == f.fold(strings.TrimSpace(b))
}

// MatchesSearch reports whether any searchable field of row contains term,
// ignoring case. An empty or blank term matches every row.
func MatchesSearch[R any](row R, term string, fields []Accessor[R], get Getter[R]) bool {
	f := newFolder()
	return matchesFolded(f, row, f.fold(strings.TrimSpace(term)), fields, get)
}

// matchesFolded expects term to be folded already.
func matchesFolded[R any](f *folder, row R, term string, fields []Accessor[R], get Getter[R]) bool {
	if term == "" {
		return true
	}
	for _, acc := range fields {
		if strings.Contains(f.fold(acc.Text(row, get)), term) {
			return true
		}
	}
	return false
}

// searchFields returns the explicit searchable accessors, or every text-like
// column when none are configured.
func searchFields[R any](cfg Config[R]) []Accessor[R] {
	if len(cfg.Searchable) > 0 {
		return cfg.Searchable
	}
	var out []Accessor[R]
	for _, c := range cfg.Columns {
		switch c.Display.Kind {
		case KindActions, KindCustom, KindProgress:
			continue
		}
		out = append(out, c.accessor())
	}
	return out
}
