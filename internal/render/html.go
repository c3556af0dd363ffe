// Package render turns data-view results into HTML through templ components.
//
// The table and the card grid share the same [Page] input, which is built
// from one dataview.View; only the presentation differs.
package render

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter collects the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s escaped.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// rawf formats into raw markup. Callers escape untrusted arguments with esc.
func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// child renders a nested component.
func (h *htmlWriter) child(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// component adapts a writer function to templ.Component.
func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}
