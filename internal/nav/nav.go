// Package nav locates the current page within the deck's ordered
// sequence and derives the prev/index/next navigation for it.
package nav

import (
	"fmt"
	"net/url"

	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"github.com/TheRonzor/data101-s26-slides/internal/manifest"
)

// NotFound is returned by Locate when the current page is not a
// deck-listed slide. This is the expected state for the index and print
// views.
const NotFound = -1

// Link is one navigation target. A disabled link renders with href "#"
// and an aria-disabled marker, matching the deck's static markup.
type Link struct {
	Href     string
	Disabled bool
}

// Nav is the one-shot navigation state for a slide view. There are no
// transitions after computation; the rendered links are the whole state.
type Nav struct {
	Found     bool
	Index     int // 0-based position in the deck
	Total     int
	Prev      Link
	Next      Link
	IndexHref string
	Counter   string // "3/12"
}

// Locate scans the slides in manifest order and returns the index of
// the first entry whose resolved location matches current, or NotFound.
// First match wins; a manifest with duplicate file entries therefore
// navigates as if only the first occurrence existed.
func Locate(deck *manifest.Deck, base, current *url.URL) int {
	for i, s := range deck.Slides {
		target, err := deckpath.Resolve(base, s.File)
		if err != nil {
			continue
		}
		if deckpath.SamePage(target, current) {
			return i
		}
	}
	return NotFound
}

// Links derives navigation for the slide at idx, viewed from current.
// For idx == NotFound it returns a zero Nav with Found=false; the
// caller decides how to render that (the slide handler renders no
// navigation at all).
func Links(deck *manifest.Deck, base, current *url.URL, idx int) Nav {
	if idx == NotFound || idx < 0 || idx >= len(deck.Slides) {
		return Nav{}
	}

	n := Nav{
		Found:   true,
		Index:   idx,
		Total:   len(deck.Slides),
		Counter: fmt.Sprintf("%d/%d", idx+1, len(deck.Slides)),
	}

	n.Prev = link(deck, base, current, idx-1)
	n.Next = link(deck, base, current, idx+1)

	if index, err := deckpath.Resolve(base, "index.html"); err == nil {
		n.IndexHref = deckpath.RelHref(current, index)
	}
	return n
}

func link(deck *manifest.Deck, base, current *url.URL, idx int) Link {
	if idx < 0 || idx >= len(deck.Slides) {
		return Link{Href: "#", Disabled: true}
	}
	target, err := deckpath.Resolve(base, deck.Slides[idx].File)
	if err != nil {
		return Link{Href: "#", Disabled: true}
	}
	return Link{Href: deckpath.RelHref(current, target)}
}
