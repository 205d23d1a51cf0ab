// Package render produces the deck's three document views: the table
// of contents, the rewritten single-slide page, and the aggregate print
// document.
package render

import (
	"html/template"
	"io"
	"strings"

	"github.com/TheRonzor/data101-s26-slides/internal/assemble"
	"github.com/TheRonzor/data101-s26-slides/internal/nav"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var templates = template.Must(template.New("").Parse(`
{{define "index"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>{{.Title}}</title>
<link rel="stylesheet" href="assets/base.css"/>
<link rel="stylesheet" href="{{.Theme}}"/>
</head>
<body>
<div class="slide">
<header class="slide-header">
<h1 class="slide-title">{{.Title}}</h1>
<hr/>
</header>
<main class="slide-body">
<div><a href="print.html">Single page for printing (interactivity disabled, figure sizing not preserved).</a></div>
<h2>Table of Contents</h2>
<ul class="bullets" style="list-style-type: none;">
{{range .Entries}}<li><a href="{{.Href}}">{{.Number}}. {{.Title}}</a></li>
{{end}}</ul>
</main>
</div>
</body>
</html>
{{end}}

{{define "print"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>Print: {{.Title}}</title>
<link rel="stylesheet" href="assets/base.css"/>
<link rel="stylesheet" href="{{.Theme}}"/>
<link rel="stylesheet" href="assets/print.css"/>
</head>
<body>
<main class="print-deck">
<header class="print-cover">
<h1 class="slide-title">{{.Title}}</h1>
<p class="muted">Use your browser&#39;s Print dialog.</p>
</header>
{{range .Sections}}<section class="print-slide">
<header class="print-header">
<h2 class="print-title">{{.Index}}. {{.Title}}</h2>
</header>
{{if .Err}}<div class="print-error">Slide unavailable: {{.Err}}</div>
{{else}}<div class="print-body">
{{.Body}}
</div>
{{end}}</section>
{{end}}</main>
{{if .MathHref}}<script defer src="{{.MathHref}}"></script>
{{end}}</body>
</html>
{{end}}`))

// IndexEntry is one table-of-contents line, in manifest order.
type IndexEntry struct {
	Number int
	Title  string
	Href   string
}

// IndexData feeds the table-of-contents view.
type IndexData struct {
	Title   string
	Theme   string
	Entries []IndexEntry
}

// Index writes the table of contents.
func Index(w io.Writer, data IndexData) error {
	return templates.ExecuteTemplate(w, "index", data)
}

// PrintSection is one aggregate entry prepared for the template.
type PrintSection struct {
	Index int
	Title string
	Body  template.HTML
	Err   string
}

// PrintData feeds the aggregate print view.
type PrintData struct {
	Title    string
	Theme    string
	Sections []PrintSection
	MathHref string
}

// Print writes the aggregate print document.
func Print(w io.Writer, data PrintData) error {
	return templates.ExecuteTemplate(w, "print", data)
}

// PrintFromAggregate adapts an assembled aggregate for the template.
// Extracted fragments are trusted deck content and pass through
// unescaped; placeholder text is escaped like any other data.
func PrintFromAggregate(agg *assemble.Aggregate, mathHref string) PrintData {
	data := PrintData{
		Title:    agg.Title,
		Theme:    agg.Theme,
		MathHref: mathHref,
	}
	for _, s := range agg.Sections {
		data.Sections = append(data.Sections, PrintSection{
			Index: s.Index,
			Title: s.Title,
			Body:  template.HTML(s.BodyHTML),
			Err:   s.Err,
		})
	}
	return data
}

// ApplyNav replaces the contents of the page's auto-nav footer with the
// derived links. Returns false when the page has no such footer; the
// page is then served without navigation.
func ApplyNav(doc *html.Node, n nav.Nav) bool {
	footer := findAutoNavFooter(doc)
	if footer == nil || !n.Found {
		return false
	}

	for footer.FirstChild != nil {
		footer.RemoveChild(footer.FirstChild)
	}

	footer.AppendChild(navLink("nav-prev", n.Prev, "‹ Prev"))
	footer.AppendChild(navLink("nav-index", nav.Link{Href: n.IndexHref}, "Index"))
	footer.AppendChild(navLink("nav-next", n.Next, "Next ›"))

	counter := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span,
		Attr: []html.Attribute{{Key: "class", Val: "nav-counter"}}}
	counter.AppendChild(&html.Node{Type: html.TextNode, Data: n.Counter})
	footer.AppendChild(counter)
	return true
}

func navLink(class string, l nav.Link, label string) *html.Node {
	a := &html.Node{Type: html.ElementNode, Data: "a", DataAtom: atom.A,
		Attr: []html.Attribute{
			{Key: "class", Val: class},
			{Key: "href", Val: l.Href},
		}}
	if l.Disabled {
		a.Attr = append(a.Attr, html.Attribute{Key: "aria-disabled", Val: "true"})
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: label})
	return a
}

func findAutoNavFooter(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "footer" && hasAttr(n, "data-auto-nav") && hasClassAttr(n, "slide-nav") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findAutoNavFooter(c); f != nil {
			return f
		}
	}
	return nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClassAttr(n *html.Node, class string) bool {
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
