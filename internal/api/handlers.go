package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/TheRonzor/data101-s26-slides/internal/assemble"
	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"github.com/TheRonzor/data101-s26-slides/internal/manifest"
	"github.com/TheRonzor/data101-s26-slides/internal/mathengine"
	"github.com/TheRonzor/data101-s26-slides/internal/nav"
	"github.com/TheRonzor/data101-s26-slides/internal/origin"
	"github.com/TheRonzor/data101-s26-slides/internal/pagescript"
	"github.com/TheRonzor/data101-s26-slides/internal/render"
	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"
)

// loadDeck fetches the manifest fresh for this document view. Its
// failure is the only view-fatal condition.
func (s *Server) loadDeck(r *http.Request) (*manifest.Deck, *url.URL, error) {
	return manifest.Load(r.Context(), s.client, s.candidates)
}

func (s *Server) manifestUnavailable(w http.ResponseWriter, err error) {
	s.log.Error("document view aborted", "error", err)
	http.Error(w, "deck manifest unavailable", http.StatusBadGateway)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	deck, base, err := s.loadDeck(r)
	if err != nil {
		s.manifestUnavailable(w, err)
		return
	}

	indexLoc, err := deckpath.Resolve(base, "index.html")
	if err != nil {
		s.manifestUnavailable(w, err)
		return
	}

	data := render.IndexData{Title: deck.Title, Theme: deck.Theme}
	for i, slide := range deck.Slides {
		target, err := deckpath.Resolve(base, slide.File)
		href := slide.File
		if err == nil {
			href = deckpath.RelHref(indexLoc, target)
		}
		data.Entries = append(data.Entries, render.IndexEntry{
			Number: i + 1,
			Title:  slide.Title,
			Href:   href,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Index(w, data); err != nil {
		s.log.Error("index render failed", "error", err)
	}
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	deck, base, err := s.loadDeck(r)
	if err != nil {
		s.manifestUnavailable(w, err)
		return
	}

	agg := s.assembler.Assemble(r.Context(), deck, base)

	mathHref := ""
	if agg.MathAsset != nil {
		printLoc, err := deckpath.Resolve(base, "print.html")
		if err == nil {
			mathHref = deckpath.RelHref(printLoc, agg.MathAsset)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Print(w, render.PrintFromAggregate(agg, mathHref)); err != nil {
		s.log.Error("print render failed", "error", err)
	}
}

// handlePage serves everything else under the deck root: listed slides
// get navigation and their auto-scripts block injected; unlisted pages
// and assets pass through untouched.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}

	deck, base, err := s.loadDeck(r)
	if err != nil {
		s.manifestUnavailable(w, err)
		return
	}

	target, err := deckpath.Resolve(base, rel)
	if err != nil || target.Host != base.Host {
		http.NotFound(w, r)
		return
	}

	data, ctype, err := s.client.Fetch(r.Context(), target)
	if err != nil {
		var se *origin.StatusError
		if errors.As(err, &se) {
			http.Error(w, http.StatusText(se.Code), se.Code)
			return
		}
		s.log.Error("page fetch failed", "path", rel, "error", err)
		http.Error(w, "origin unreachable", http.StatusBadGateway)
		return
	}

	idx := nav.Locate(deck, base, target)
	if idx == nav.NotFound {
		// Not a deck page: no navigation, no per-page scripts.
		passThrough(w, data, ctype)
		return
	}

	slide := deck.Slides[idx]
	if assemble.IsMarkdown(slide.File, ctype) {
		data, err = assemble.MarkdownToPage(data)
		if err != nil {
			s.log.Error("markdown conversion failed", "path", rel, "error", err)
			passThrough(w, data, "text/plain; charset=utf-8")
			return
		}
	}

	doc, err := assemble.ParsePage(data)
	if err != nil {
		s.log.Warn("slide page unparseable, serving raw", "path", rel, "error", err)
		passThrough(w, data, ctype)
		return
	}

	if !render.ApplyNav(doc, nav.Links(deck, base, target, idx)) {
		s.log.Warn("slide has no auto-nav footer", "path", rel)
	}

	engine := mathengine.ForSlide(deck.DefaultEngine(), slide.Override())
	mathHref := ""
	if asset, err := s.gateway.Ensure(r.Context(), engine, base); err != nil {
		// Recoverable: math stays as raw markup.
		s.log.Warn("math engine unavailable", "engine", engine, "error", err)
	} else if asset != nil {
		mathHref = deckpath.RelHref(target, asset)
	}

	pagescript.Strip(doc, target, base, slide.Scripts)
	if err := pagescript.Inject(doc, mathHref, target, base, slide.Scripts); err != nil {
		// Structural content is already in place; the page just loses
		// its behavior module.
		s.log.Warn("script injection failed", "path", rel, "error", err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		s.log.Error("slide render failed", "path", rel, "error", err)
		passThrough(w, data, ctype)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func passThrough(w http.ResponseWriter, data []byte, ctype string) {
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Write(data)
}
