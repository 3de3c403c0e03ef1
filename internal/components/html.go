package components

import (
	"archsite/internal/media"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// page accumulates markup and remembers the first write error so view code
// can stay linear.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

func render(fn func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		fn(p)
		return p.err
	})
}

func (p *page) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *page) rawf(format string, args ...any) {
	p.raw(fmt.Sprintf(format, args...))
}

// text writes s escaped.
func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// attr writes name="value" with value escaped, preceded by a space.
func (p *page) attr(name, value string) {
	p.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (p *page) component(c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(p.ctx, p.w)
}

// el writes <tag>text</tag>.
func (p *page) el(tag, s string) {
	p.raw("<" + tag + ">")
	p.text(s)
	p.raw("</" + tag + ">")
}

func (p *page) link(href, label string) {
	p.raw("<a")
	p.attr("href", href)
	p.raw(">")
	p.text(label)
	p.raw("</a>")
}

func (p *page) csrf(token string) {
	p.raw(`<input type="hidden" name="csrf_token"`)
	p.attr("value", token)
	p.raw(">")
}

// image writes a responsive img for a media path using the webp variants.
func (p *page) image(src, alt string, width int) {
	if src == "" {
		return
	}
	p.raw("<img")
	p.attr("src", variantURL(src, width))
	p.attr("srcset", srcset(src))
	p.attr("alt", alt)
	p.raw(` loading="lazy" decoding="async">`)
}

// variantURL points at the webp rendition of src, or src itself when the
// media handler does not render that width.
func variantURL(src string, width int) string {
	if !slices.Contains(media.VariantWidths, width) || !strings.HasPrefix(src, "/") {
		return src
	}
	return fmt.Sprintf("%s?w=%d", src, width)
}

func srcset(src string) string {
	if !strings.HasPrefix(src, "/") {
		return ""
	}
	parts := make([]string, 0, len(media.VariantWidths))
	for _, w := range media.VariantWidths {
		parts = append(parts, fmt.Sprintf("%s %dw", variantURL(src, w), w))
	}
	return strings.Join(parts, ", ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

// formatMonth turns a stored YYYY-MM completion date into "March 2024".
func formatMonth(s string) string {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return s
	}
	return t.Format("January 2006")
}
