package dataview

import (
	"strconv"
	"strings"
	"unicode"
)

// CellKind selects how a column's value is displayed.
type CellKind string

const (
	KindText     CellKind = "text"
	KindAvatar   CellKind = "avatar"
	KindBadge    CellKind = "badge"
	KindProgress CellKind = "progress"
	KindDate     CellKind = "date"
	KindCustom   CellKind = "custom"
	KindActions  CellKind = "actions"
)

// DefaultDateLayout formats date cells when neither the column nor the view
// configures a layout.
const DefaultDateLayout = "02/01/2006"

// DefaultPlaceholder is shown for null dates.
const DefaultPlaceholder = "-"

// ActionButton is one button of an action cluster.
type ActionButton struct {
	Tag     string `json:"tag"`
	Label   string `json:"label"`
	Confirm string `json:"confirm,omitempty"` // Confirmation prompt, if any
}

// Display holds the kind tag and the options each kind reads.
type Display[R any] struct {
	Kind CellKind

	Subtext Accessor[R] // avatar: second line

	Colors       map[string]string // badge: lowercased value -> color
	DefaultColor string            // badge: fallback color

	DateLayout  string // date
	Placeholder string // date: shown for null

	Render func(R) string // custom: HTML fragment

	Actions []ActionButton // actions
}

// Cell is the formatted, kind-specific content of one table cell.
type Cell struct {
	Kind     CellKind       `json:"kind"`
	Text     string         `json:"text"`
	Subtext  string         `json:"subtext,omitempty"`
	Initials string         `json:"initials,omitempty"`
	Color    string         `json:"color,omitempty"`
	Percent  float64        `json:"percent,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Actions  []ActionButton `json:"actions,omitempty"`
	Null     bool           `json:"null,omitempty"`
}

// Cell formats row's value for this column according to its display kind.
func (c Column[R]) Cell(row R, get Getter[R]) Cell {
	kind := c.Display.Kind
	if kind == "" {
		kind = KindText
	}

	switch kind {
	case KindActions:
		return Cell{Kind: kind, Actions: c.Display.Actions}
	case KindCustom:
		if c.Display.Render != nil {
			return Cell{Kind: kind, HTML: c.Display.Render(row)}
		}
		kind = KindText
	}

	v := c.Value(row, get)
	null := IsNull(v)

	switch kind {
	case KindAvatar:
		title := Stringify(v)
		return Cell{
			Kind:     kind,
			Text:     title,
			Subtext:  c.Display.Subtext.Text(row, get),
			Initials: Initials(title),
			Null:     null,
		}

	case KindBadge:
		text := Stringify(v)
		return Cell{Kind: kind, Text: text, Color: c.badgeColor(text), Null: null}

	case KindProgress:
		pct := 0.0
		if f, ok := ToFloat(v); ok {
			pct = ClampPercent(f)
		}
		return Cell{Kind: kind, Percent: pct, Text: formatPercent(pct), Null: null}

	case KindDate:
		return Cell{Kind: kind, Text: FormatDate(v, c.Display.DateLayout, c.Display.Placeholder), Null: null}

	default:
		return Cell{Kind: KindText, Text: Stringify(v), Null: null}
	}
}

func (c Column[R]) badgeColor(value string) string {
	if color, ok := c.Display.Colors[strings.ToLower(value)]; ok {
		return color
	}
	if c.Display.DefaultColor != "" {
		return c.Display.DefaultColor
	}
	return "gray"
}

// ClampPercent limits a progress value to [0,100].
func ClampPercent(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return f
	}
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// FormatDate formats v with layout, or returns placeholder when v is null or
// not a date.
func FormatDate(v any, layout, placeholder string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	t, ok := ToTime(v)
	if !ok {
		return placeholder
	}
	return t.Format(layout)
}

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				n++
				break
			}
		}
		if n == 2 {
			break
		}
	}
	return b.String()
}
