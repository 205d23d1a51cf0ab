// Package assemble builds the aggregate print document: every slide
// fetched in manifest order, its body fragment extracted and
// concatenated, partial failures kept as placeholder entries.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"github.com/TheRonzor/data101-s26-slides/internal/manifest"
	"github.com/TheRonzor/data101-s26-slides/internal/mathengine"
)

// Fetcher retrieves a slide page from the origin.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, string, error)
}

// Section is one entry of the aggregate, in manifest order. Either
// BodyHTML or Err is set; a placeholder entry still carries the slide's
// declared title so the printed deck shows what is missing.
type Section struct {
	Index    int    // 1-based position in the deck
	Title    string
	BodyHTML string
	Err      string
}

// Failed reports whether this entry is a placeholder.
func (s Section) Failed() bool { return s.Err != "" }

// Aggregate is the assembled print document. It exists for one print
// view and is never shared or mutated after Assemble returns.
type Aggregate struct {
	Title     string
	Theme     string
	Engine    mathengine.Engine
	MathAsset *url.URL // loader asset for Engine; nil when unavailable or none
	Sections  []Section
}

// Assembler runs the print-path pass.
type Assembler struct {
	fetch   Fetcher
	gateway *mathengine.Gateway
	log     *slog.Logger
}

func New(fetch Fetcher, gateway *mathengine.Gateway, log *slog.Logger) *Assembler {
	return &Assembler{fetch: fetch, gateway: gateway, log: log}
}

// Assemble fetches every slide strictly in manifest order and merges
// the extracted fragments. Fetches are deliberately sequential: the
// aggregate is built left to right regardless of response latencies,
// and a broken page never aborts its siblings. The shared math engine
// is resolved only after all structural content is in place.
func (a *Assembler) Assemble(ctx context.Context, deck *manifest.Deck, base *url.URL) *Aggregate {
	agg := &Aggregate{
		Title:    deck.Title,
		Theme:    deck.Theme,
		Sections: make([]Section, 0, len(deck.Slides)),
	}

	for i, slide := range deck.Slides {
		agg.Sections = append(agg.Sections, a.section(ctx, slide, i+1, base))
	}

	overrides := make([]mathengine.Engine, 0, len(deck.Slides))
	for _, s := range deck.Slides {
		overrides = append(overrides, s.Override())
	}
	agg.Engine = mathengine.ForPrint(deck.DefaultEngine(), overrides)

	if agg.Engine != mathengine.EngineNone {
		asset, err := a.gateway.Ensure(ctx, agg.Engine, base)
		if err != nil {
			// Recoverable: math markup stays as raw text.
			a.log.Warn("math engine unavailable for print view",
				"engine", agg.Engine, "error", err)
		} else {
			agg.MathAsset = asset
		}
	}

	return agg
}

func (a *Assembler) section(ctx context.Context, slide manifest.Slide, index int, base *url.URL) Section {
	sec := Section{Index: index, Title: slide.Title}

	loc, err := deckpath.Resolve(base, slide.File)
	if err != nil {
		sec.Err = fmt.Sprintf("unresolvable reference %q: %v", slide.File, err)
		return sec
	}

	data, ctype, err := a.fetch.Fetch(ctx, loc)
	if err != nil {
		a.log.Warn("slide fetch failed", "file", slide.File, "error", err)
		sec.Err = fmt.Sprintf("could not fetch %s: %v", slide.File, err)
		return sec
	}

	if IsMarkdown(slide.File, ctype) {
		data, err = MarkdownToPage(data)
		if err != nil {
			sec.Err = fmt.Sprintf("broken markdown in %s: %v", slide.File, err)
			return sec
		}
	}

	doc, err := ParsePage(data)
	if err != nil {
		sec.Err = fmt.Sprintf("unparseable page %s: %v", slide.File, err)
		return sec
	}

	body := FindSlideBody(doc)
	if body == nil {
		// Structural defect, not a silent empty page.
		a.log.Warn("slide missing body region", "file", slide.File)
		sec.Err = fmt.Sprintf("%s has no slide-body region", slide.File)
		return sec
	}

	if t := FindDisplayTitle(doc); t != "" {
		sec.Title = t
	}

	clone := CloneNode(body)
	RebaseRefs(clone, loc, base)
	inner, err := InnerHTML(clone)
	if err != nil {
		sec.Err = fmt.Sprintf("could not serialize %s: %v", slide.File, err)
		return sec
	}
	sec.BodyHTML = inner
	return sec
}
