package render

import (
	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/eduadmin/internal/content"
)

// Layout wraps body in the page shell with the screen navigation. year is
// the academic year the service was started with.
func Layout(title, year string, nav []content.Screen, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.rawf(`<title>%s · Content admin</title>`, esc(title))
		h.raw(`<link rel="stylesheet" href="/static/admin.css">`)
		h.raw(`</head><body>`)

		h.raw(`<aside class="sidebar"><a class="brand" href="/">Content admin</a>`)
		if year != "" {
			h.rawf(`<p class="academic-year">Academic year %s</p>`, esc(year))
		}
		group := ""
		for _, s := range nav {
			if s.Group != group {
				if group != "" {
					h.raw(`</ul>`)
				}
				group = s.Group
				h.rawf(`<h3>%s</h3><ul>`, esc(group))
			}
			h.rawf(`<li><a href="/screens/%s">%s</a></li>`, esc(s.Key), esc(s.Label))
		}
		if group != "" {
			h.raw(`</ul>`)
		}
		h.raw(`</aside><main>`)
		h.child(body)
		h.raw(`</main>`)
		h.raw(`<script src="/static/admin.js" defer></script>`)
		h.raw(`</body></html>`)
	})
}

// Dashboard lists every screen with its row count.
func Dashboard(year string, counts []content.ScreenCount) templ.Component {
	nav := make([]content.Screen, len(counts))
	for i, c := range counts {
		nav[i] = c.Screen
	}
	body := component(func(h *htmlWriter) {
		h.raw(`<section class="dashboard"><h1>Overview</h1><div class="card-grid">`)
		for _, c := range counts {
			h.rawf(`<a class="card stat" href="/screens/%s">`, esc(c.Screen.Key))
			h.rawf(`<span class="stat-group">%s</span>`, esc(c.Screen.Group))
			h.rawf(`<h2>%s</h2>`, esc(c.Screen.Label))
			if c.Err != nil {
				h.rawf(`<span class="stat-error">%s</span>`, esc(content.FormatUserError(c.Err)))
			} else {
				h.rawf(`<span class="stat-value">%s</span>`, humanize.Comma(int64(c.Rows)))
			}
			h.raw(`</a>`)
		}
		h.raw(`</div></section>`)
	})
	return Layout("Overview", year, nav, body)
}

// ErrorBanner shows an error message above the view.
func ErrorBanner(message string) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<div class="alert alert-error" role="alert">%s</div>`, esc(message))
	})
}

// ErrorPage renders a full page holding only an error banner.
func ErrorPage(title, year string, nav []content.Screen, msg content.UserMessage) templ.Component {
	return Layout(title, year, nav, component(func(h *htmlWriter) {
		h.rawf(`<h1>%s</h1>`, esc(title))
		h.child(ErrorBanner(msg.String()))
	}))
}
