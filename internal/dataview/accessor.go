package dataview

import "strings"

// Record is a row with a dynamic shape: field name to value.
// Content rows fetched from the database use this type.
type Record map[string]any

// Getter resolves a named field on a row.
type Getter[R any] func(row R, key string) any

// RecordGetter resolves fields of a Record. Missing fields are nil.
func RecordGetter(row Record, key string) any {
	return row[key]
}

// AccessorKind discriminates the variants of Accessor.
type AccessorKind int

const (
	AccessDirect AccessorKind = iota
	AccessComposite
	AccessDerived
)

// DefaultSeparator joins composite accessor parts when none is given.
const DefaultSeparator = " "

// Accessor extracts a value from a row. Build one with Direct, Composite or
// Derived; the zero value is a direct accessor with no key.
type Accessor[R any] struct {
	Kind      AccessorKind
	Key       string      // AccessDirect
	Keys      []string    // AccessComposite
	Separator string      // AccessComposite
	Fn        func(R) any // AccessDerived
}

// Direct reads a single field.
func Direct[R any](key string) Accessor[R] {
	return Accessor[R]{Kind: AccessDirect, Key: key}
}

// Composite joins the string projections of several fields with sep.
// Empty parts are skipped so a missing middle name does not leave a gap.
func Composite[R any](sep string, keys ...string) Accessor[R] {
	if sep == "" {
		sep = DefaultSeparator
	}
	return Accessor[R]{Kind: AccessComposite, Keys: keys, Separator: sep}
}

// Derived computes the value with a caller-supplied function.
func Derived[R any](fn func(R) any) Accessor[R] {
	return Accessor[R]{Kind: AccessDerived, Fn: fn}
}

// IsZero reports whether the accessor was never configured.
func (a Accessor[R]) IsZero() bool {
	return a.Kind == AccessDirect && a.Key == ""
}

// Or returns a when configured, otherwise fallback.
func (a Accessor[R]) Or(fallback Accessor[R]) Accessor[R] {
	if a.IsZero() {
		return fallback
	}
	return a
}

// Value extracts the raw value of the accessor from row.
// Composite accessors return nil when every part is empty.
func (a Accessor[R]) Value(row R, get Getter[R]) any {
	switch a.Kind {
	case AccessComposite:
		if get == nil {
			return nil
		}
		parts := make([]string, 0, len(a.Keys))
		for _, k := range a.Keys {
			if s := Stringify(get(row, k)); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return strings.Join(parts, a.Separator)

	case AccessDerived:
		if a.Fn == nil {
			return nil
		}
		return a.Fn(row)

	default:
		if get == nil || a.Key == "" {
			return nil
		}
		return get(row, a.Key)
	}
}

// Text returns the string projection of the accessor's value.
func (a Accessor[R]) Text(row R, get Getter[R]) string {
	return Stringify(a.Value(row, get))
}
