// Package dataview is the in-memory data-view engine behind every content
// screen: it takes already-loaded rows plus a declarative column and filter
// configuration and produces a filtered, sorted, paginated, selectable view.
//
// The package performs no I/O and never returns errors for well-formed input.
// It is used by both presentation layers (table and card grid) through the
// same [View] type.
//
// # Pipeline
//
// Each recomputation runs the stages in a fixed order:
//
//  1. Search and filter: [MatchesSearch] and [MatchesFilters] reduce the rows.
//  2. Sort: [SortRows] orders by the active column, nulls last.
//  3. Paginate: [Paginate] slices the page.
//  4. Selection: [Summarize] derives per-page booleans from the caller-owned
//     selection, and [NextSelection] computes the next full selection.
//
// The filtered and sorted slice is memoized inside a [View]; changing only the
// page or page size re-slices the cached result.
//
// # Accessors
//
// Column values are read through an [Accessor], a tagged variant:
//
//	dataview.Direct[Record]("title")
//	dataview.Composite[Record](" ", "first_name", "last_name")
//	dataview.Derived(func(r Record) any { return len(r["questions"].([]any)) })
//
// Direct and composite accessors resolve fields through the view's [Getter].
// [RecordGetter] serves rows of type [Record].
//
// # Selection
//
// The engine is controlled: the selection list belongs to the caller. The
// engine only reports what is selected on the current page and returns a new
// list for each selection event, which keeps selections made on other pages.
package dataview
