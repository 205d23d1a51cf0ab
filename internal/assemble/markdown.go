package assemble

import (
	"bytes"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md converts markdown slide sources. Built once; goldmark instances
// are safe for concurrent use.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// IsMarkdown reports whether a slide resource is a markdown source,
// judged by its file extension or the origin's content type.
func IsMarkdown(file, contentType string) bool {
	switch strings.ToLower(path.Ext(file)) {
	case ".md", ".markdown":
		return true
	}
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/markdown"
}

// MarkdownToPage converts markdown to a synthetic slide page so it goes
// through the same title/body extraction as an authored HTML slide.
func MarkdownToPage(src []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	var page bytes.Buffer
	page.WriteString(`<!doctype html><html><body><main class="slide-body">`)
	page.Write(body.Bytes())
	page.WriteString(`</main><footer class="slide-nav" data-auto-nav></footer></body></html>`)
	return page.Bytes(), nil
}
