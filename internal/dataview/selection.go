package dataview

import "fmt"

// SelectionOp is a selection event.
type SelectionOp string

const (
	SelectToggle   SelectionOp = "toggle"
	SelectPage     SelectionOp = "select_page"
	DeselectPage   SelectionOp = "deselect_page"
	SelectionClear SelectionOp = "clear"
)

// ParseSelectionOp validates an op name received from a client.
func ParseSelectionOp(s string) (SelectionOp, error) {
	switch op := SelectionOp(s); op {
	case SelectToggle, SelectPage, DeselectPage, SelectionClear:
		return op, nil
	default:
		return "", fmt.Errorf("unknown selection action %q", s)
	}
}

// SelectionAction is one selection event. Key is only read by SelectToggle.
type SelectionAction[K comparable] struct {
	Op  SelectionOp
	Key K
}

// NextSelection computes the selection that results from applying action to
// current. current is never modified; the result is always a new slice.
//
// Selecting a page unions its keys into the selection, keeping the existing
// order and appending new keys in page order. Deselecting a page removes only
// that page's keys, so selections made on other pages survive.
func NextSelection[K comparable](current, pageKeys []K, action SelectionAction[K]) []K {
	switch action.Op {
	case SelectToggle:
		out := make([]K, 0, len(current)+1)
		found := false
		for _, k := range current {
			if k == action.Key {
				found = true
				continue
			}
			out = append(out, k)
		}
		if !found {
			out = append(out, action.Key)
		}
		return out

	case SelectPage:
		out := make([]K, 0, len(current)+len(pageKeys))
		seen := make(map[K]bool, len(current)+len(pageKeys))
		for _, k := range current {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
		for _, k := range pageKeys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
		return out

	case DeselectPage:
		drop := setOf(pageKeys)
		out := make([]K, 0, len(current))
		for _, k := range current {
			if !drop[k] {
				out = append(out, k)
			}
		}
		return out

	case SelectionClear:
		return []K{}

	default:
		return append([]K{}, current...)
	}
}

// SelectionSummary holds the booleans derived from a selection for the
// visible page.
type SelectionSummary[K comparable] struct {
	Selected   map[K]bool `json:"-"`
	AllOnPage  bool       `json:"all_on_page"`
	SomeOnPage bool       `json:"some_on_page"` // Some, but not all
	Count      int        `json:"count"`
}

// IsSelected reports whether key is in the selection.
func (s SelectionSummary[K]) IsSelected(key K) bool {
	return s.Selected[key]
}

// Summarize derives per-row and per-page selection state. An empty page is
// never "all selected".
func Summarize[K comparable](current, pageKeys []K) SelectionSummary[K] {
	sel := setOf(current)
	hits := 0
	for _, k := range pageKeys {
		if sel[k] {
			hits++
		}
	}
	return SelectionSummary[K]{
		Selected:   sel,
		AllOnPage:  len(pageKeys) > 0 && hits == len(pageKeys),
		SomeOnPage: hits > 0 && hits < len(pageKeys),
		Count:      len(sel),
	}
}

func setOf[K comparable](keys []K) map[K]bool {
	m := make(map[K]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
