package dataview

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// comparer orders normalized values. It owns a collator, which is not safe
// for concurrent use, so each sort builds its own comparer.
type comparer struct {
	coll *collate.Collator
}

func newComparer(tag language.Tag) *comparer {
	return &comparer{coll: collate.New(tag, collate.IgnoreCase)}
}

// compare returns -1, 0 or +1. Callers handle nulls before calling.
//
//   - time.Time values compare chronologically
//   - strings compare case-insensitively with the collator
//   - numbers compare numerically
//   - bools order false before true
//
// Mismatched types compare numerically when both convert to numbers;
// anything else is treated as equal.
func (c *comparer) compare(a, b any) int {
	a, b = Normalize(a), Normalize(b)

	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return c.coll.CompareString(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return compareFloat(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	fa, okA := ToFloat(a)
	fb, okB := ToFloat(b)
	if okA && okB {
		return compareFloat(fa, fb)
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare orders two values with the root collation.
// Nulls are not special here; see SortRows for null placement.
func Compare(a, b any) int {
	return newComparer(language.Und).compare(a, b)
}

// SortRows returns a copy of rows ordered by the column's accessor.
// Nulls always sort last regardless of direction; the direction only flips
// the order of non-null values. The sort is stable, so rows whose values
// compare equal keep their input order.
func SortRows[R any](rows []R, col Column[R], dir SortDir, get Getter[R], tag language.Tag) []R {
	out := slices.Clone(rows)
	sortInPlace(out, col, dir, get, tag)
	return out
}

func sortInPlace[R any](rows []R, col Column[R], dir SortDir, get Getter[R], tag language.Tag) {
	acc := col.accessor()
	cmp := newComparer(tag)

	// Extract once; accessors may be derived functions.
	type keyed struct {
		row  R
		val  any
		null bool
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		v := acc.Value(r, get)
		items[i] = keyed{row: r, val: v, null: IsNull(v)}
	}

	sign := 1
	if dir == SortDesc {
		sign = -1
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.null && b.null:
			return 0
		case a.null:
			return 1
		case b.null:
			return -1
		}
		return sign * cmp.compare(a.val, b.val)
	})

	for i := range items {
		rows[i] = items[i].row
	}
}
