package assemble

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"golang.org/x/net/html"
)

// ParsePage parses a fetched slide document.
func ParsePage(data []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// FindSlideBody returns the page's designated body-content region: the
// first <main> carrying the slide-body class, or failing that the first
// <main> at all. Nil means the page breaks the structural contract.
func FindSlideBody(doc *html.Node) *html.Node {
	if n := findElement(doc, func(n *html.Node) bool {
		return n.Data == "main" && hasClass(n, "slide-body")
	}); n != nil {
		return n
	}
	return findElement(doc, func(n *html.Node) bool { return n.Data == "main" })
}

// FindDisplayTitle returns the page's display title text: the first
// element with the slide-title class, else the first <h1>, else the
// document <title>. Empty when none are present.
func FindDisplayTitle(doc *html.Node) string {
	if n := findElement(doc, func(n *html.Node) bool { return hasClass(n, "slide-title") }); n != nil {
		return textContent(n)
	}
	if n := findElement(doc, func(n *html.Node) bool { return n.Data == "h1" }); n != nil {
		return textContent(n)
	}
	if n := findElement(doc, func(n *html.Node) bool { return n.Data == "title" }); n != nil {
		return textContent(n)
	}
	return ""
}

// FindBody returns the document <body> element.
func FindBody(doc *html.Node) *html.Node {
	return findElement(doc, func(n *html.Node) bool { return n.Data == "body" })
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// CloneNode deep-copies a subtree, detached from its document, so the
// aggregate cannot be affected by later mutation of the fetched page.
func CloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(CloneNode(child))
	}
	return c
}

// RebaseRefs rewrites relative image sources inside a fragment so they
// still resolve from the aggregate document at the deck root.
func RebaseRefs(n *html.Node, slide, root *url.URL) {
	if n.Type == html.ElementNode && n.Data == "img" {
		for i, a := range n.Attr {
			if a.Key == "src" {
				n.Attr[i].Val = deckpath.RebaseSrc(slide, root, a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		RebaseRefs(c, slide, root)
	}
}

// InnerHTML serializes the children of a node.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return buf.String(), nil
}
