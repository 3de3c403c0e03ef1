package content

import (
	"bytes"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// preferred src width for images inside bodies
const bodyImageWidth = 1200

// MarkDownRenderer turns entity bodies and page content into HTML. Raw HTML
// in the source is dropped.
type MarkDownRenderer struct {
	engine goldmark.Markdown
}

// NewMarkDownRenderer builds the renderer. Images under mediaPrefix are
// pointed at their resized variants; widths lists the variants the media
// handler can produce.
func NewMarkDownRenderer(mediaPrefix string, widths ...int) *MarkDownRenderer {
	images := &mediaImages{
		prefix: "/" + strings.Trim(mediaPrefix, "/") + "/",
		widths: slices.Sorted(slices.Values(widths)),
	}

	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			emoji.Emoji,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithGuessLanguage(true),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(images, 100)),
		),
	)
	return &MarkDownRenderer{engine: engine}
}

func (m *MarkDownRenderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(source) * 3 / 2)

	if err := m.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMDConversion, err)
	}
	return buf.Bytes(), nil
}

// RenderString is a convenience for templates holding markdown in strings.
func (m *MarkDownRenderer) RenderString(source string) (string, error) {
	out, err := m.Render([]byte(source))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type mediaImages struct {
	prefix string
	widths []int
}

func (t *mediaImages) srcWidth() int {
	if len(t.widths) == 0 || slices.Contains(t.widths, bodyImageWidth) {
		return bodyImageWidth
	}
	return t.widths[len(t.widths)-1]
}

func (t *mediaImages) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.Image:
			n.SetAttributeString("loading", []byte("lazy"))
			n.SetAttributeString("decoding", []byte("async"))
			t.rewrite(n)
		case *ast.Link:
			if isExternalLink(string(n.Destination)) {
				n.SetAttributeString("target", []byte("_blank"))
				n.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		}
		return ast.WalkContinue, nil
	})
}

// rewrite points an uploaded image at its webp variants.
func (t *mediaImages) rewrite(img *ast.Image) {
	dest := string(img.Destination)
	if !strings.HasPrefix(dest, t.prefix) || strings.ContainsAny(dest, "?#") {
		return
	}

	img.Destination = fmt.Appendf(nil, "%s?w=%d", dest, t.srcWidth())
	if len(t.widths) == 0 {
		return
	}

	candidates := make([]string, len(t.widths))
	for i, w := range t.widths {
		candidates[i] = dest + "?w=" + strconv.Itoa(w) + " " + strconv.Itoa(w) + "w"
	}
	img.SetAttributeString("srcset", []byte(strings.Join(candidates, ", ")))
	img.SetAttributeString("sizes", []byte("(max-width: 1200px) 100vw, 1200px"))
}

// isExternalLink reports links leaving the site, scheme relative ones included.
func isExternalLink(dest string) bool {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "ftp", "ftps", "sftp":
		return true
	}
	return false
}
