package render

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// customPolicy limits what custom cell renderers may emit.
var customPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "span", "small", "br", "code", "mark")
	p.AllowAttrs("class", "title").OnElements("span", "mark", "code")
	return p
}()

// SanitizeCustom strips anything but simple inline markup from custom cell
// HTML.
func SanitizeCustom(html string) string {
	return customPolicy.Sanitize(html)
}

// BadgeClass returns the CSS class for a badge color and value.
func BadgeClass(color, value string) string {
	cls := "badge badge-" + slug.Make(color)
	if v := slug.Make(value); v != "" {
		cls += " badge-value-" + v
	}
	return cls
}

// Cell renders one formatted cell. rowKey and screen identify the row for
// action buttons.
func Cell(c dataview.Cell, screen, rowKey string) templ.Component {
	return component(func(h *htmlWriter) {
		switch c.Kind {
		case dataview.KindAvatar:
			h.raw(`<div class="avatar">`)
			h.rawf(`<span class="avatar-initials" aria-hidden="true">%s</span>`, esc(c.Initials))
			h.rawf(`<span class="avatar-title">%s</span>`, esc(c.Text))
			if c.Subtext != "" {
				h.rawf(`<span class="avatar-subtext">%s</span>`, esc(c.Subtext))
			}
			h.raw(`</div>`)

		case dataview.KindBadge:
			if c.Null || c.Text == "" {
				h.raw(`<span class="muted">-</span>`)
				return
			}
			h.rawf(`<span class="%s">%s</span>`, esc(BadgeClass(c.Color, c.Text)), esc(c.Text))

		case dataview.KindProgress:
			pct := strconv.FormatFloat(c.Percent, 'f', -1, 64)
			h.rawf(`<div class="progress" role="progressbar" aria-valuemin="0" aria-valuemax="100" aria-valuenow="%s">`, pct)
			h.rawf(`<div class="progress-bar" style="width: %s%%"></div>`, pct)
			h.rawf(`<span class="progress-label">%s</span></div>`, esc(c.Text))

		case dataview.KindDate:
			cls := "date"
			if c.Null {
				cls += " muted"
			}
			h.rawf(`<span class="%s">%s</span>`, cls, esc(c.Text))

		case dataview.KindCustom:
			h.raw(SanitizeCustom(c.HTML))

		case dataview.KindActions:
			h.child(ActionButtons(c.Actions, screen, rowKey))

		default:
			h.text(c.Text)
		}
	})
}

// ActionButtons renders an action cluster. Buttons are type="button" and
// carry their command in data attributes, so a click never submits an
// enclosing form; the page script posts the command explicitly.
func ActionButtons(actions []dataview.ActionButton, screen, rowKey string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="actions">`)
		for _, a := range actions {
			h.rawf(`<button type="button" class="btn btn-%s" data-screen="%s" data-action="%s"`,
				esc(slug.Make(a.Tag)), esc(screen), esc(a.Tag))
			if rowKey != "" {
				h.rawf(` data-key="%s"`, esc(rowKey))
			} else {
				h.raw(` data-scope="selection"`)
			}
			if a.Confirm != "" {
				h.rawf(` data-confirm="%s"`, esc(a.Confirm))
			}
			h.rawf(`>%s</button>`, esc(a.Label))
		}
		h.raw(`</div>`)
	})
}
