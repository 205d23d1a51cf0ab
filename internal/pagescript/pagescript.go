// Package pagescript manages the auto-scripts block of a served slide:
// the math engine loader plus any behavior modules declared for that
// page in the manifest. The block is injected exactly once per
// rendered document, after all structural content is in place.
package pagescript

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"github.com/TheRonzor/data101-s26-slides/internal/manifest"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	blockBegin = " AUTO-SCRIPTS:BEGIN "
	blockEnd   = " AUTO-SCRIPTS:END "
)

// Strip removes script tags the injector owns: the legacy runtime
// loader (deck.js), any math setup loaders, any previously injected
// auto-scripts block, and tags matching the slide's declared scripts.
// Re-insertion is then deterministic.
func Strip(doc *html.Node, slide, root *url.URL, scripts []manifest.ScriptSpec) {
	owned := make(map[string]bool)
	for _, sp := range scripts {
		owned[strings.TrimSpace(sp.Src)] = true
		owned[deckpath.ResolveScriptSrc(slide, root, sp.Src)] = true
	}

	removeAutoBlock(doc)

	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isOwnedScript(n, owned) {
			doomed = append(doomed, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
}

func isOwnedScript(n *html.Node, declared map[string]bool) bool {
	if n.Type != html.ElementNode || n.Data != "script" {
		return false
	}
	src := attr(n, "src")
	if src == "" {
		return false
	}
	if declared[src] {
		return true
	}
	// Legacy runtime loader and math setup tags, regardless of the
	// relative prefix or a cache-busting query.
	base := src
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	switch {
	case strings.HasSuffix(base, "assets/deck.js"),
		strings.HasSuffix(base, "math-katex-setup.js"),
		strings.HasSuffix(base, "math-mathjax-setup.js"):
		return true
	}
	return false
}

func removeAutoBlock(doc *html.Node) {
	begin := findComment(doc, blockBegin)
	if begin == nil {
		return
	}
	parent := begin.Parent
	for n := begin; n != nil; {
		next := n.NextSibling
		stop := n.Type == html.CommentNode && strings.TrimSpace(n.Data) == strings.TrimSpace(blockEnd)
		parent.RemoveChild(n)
		if stop {
			break
		}
		n = next
	}
}

func findComment(n *html.Node, data string) *html.Node {
	if n.Type == html.CommentNode && strings.TrimSpace(n.Data) == strings.TrimSpace(data) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findComment(c, data); found != nil {
			return found
		}
	}
	return nil
}

// Inject appends the auto-scripts block before the end of <body>:
// first the math loader (when mathHref is non-empty), then each
// declared script with its attributes, deduplicated by resolved src.
// Pages not listed in the manifest get no block at all: callers pass
// empty inputs and Inject is a no-op for them.
func Inject(doc *html.Node, mathHref string, slide, root *url.URL, scripts []manifest.ScriptSpec) error {
	if mathHref == "" && len(scripts) == 0 {
		return nil
	}
	body := findBody(doc)
	if body == nil {
		return fmt.Errorf("page has no <body> to inject into")
	}

	body.AppendChild(&html.Node{Type: html.CommentNode, Data: blockBegin})

	if mathHref != "" {
		body.AppendChild(scriptNode(mathHref, "", true, false))
	}

	seen := make(map[string]bool)
	for _, sp := range scripts {
		src := deckpath.ResolveScriptSrc(slide, root, sp.Src)
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		body.AppendChild(scriptNode(src, sp.Type, sp.Defer, sp.Async))
	}

	body.AppendChild(&html.Node{Type: html.CommentNode, Data: blockEnd})
	return nil
}

func scriptNode(src, typ string, deferred, async bool) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr:     []html.Attribute{{Key: "src", Val: src}},
	}
	if typ != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "type", Val: typ})
	}
	if deferred {
		n.Attr = append(n.Attr, html.Attribute{Key: "defer"})
	}
	if async {
		n.Attr = append(n.Attr, html.Attribute{Key: "async"})
	}
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
