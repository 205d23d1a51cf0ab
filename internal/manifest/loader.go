package manifest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/TheRonzor/data101-s26-slides/internal/fallback"
)

// Fetcher retrieves a candidate manifest location. Satisfied by
// origin.Client.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, string, error)
}

// UnavailableError means no candidate manifest location succeeded.
// Fatal for the whole document view: nothing can render without the
// manifest.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("deck manifest unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

type loaded struct {
	deck *Deck
	base *url.URL
}

// Load tries each candidate location strictly in order, most-specific
// first, and keeps the first one that both fetches and parses. The URL
// it was fetched from becomes the base for all later relative
// resolution. No caching: the manifest is fetched fresh per document
// view.
func Load(ctx context.Context, f Fetcher, candidates []*url.URL) (*Deck, *url.URL, error) {
	sources := make([]fallback.Source[loaded], 0, len(candidates))
	for _, c := range candidates {
		c := c
		sources = append(sources, fallback.Source[loaded]{
			Name: c.String(),
			Attempt: func(ctx context.Context) (loaded, error) {
				data, _, err := f.Fetch(ctx, c)
				if err != nil {
					return loaded{}, err
				}
				deck, err := Parse(data)
				if err != nil {
					return loaded{}, err
				}
				return loaded{deck: deck, base: c}, nil
			},
		})
	}

	got, _, err := fallback.First(ctx, sources)
	if err != nil {
		return nil, nil, &UnavailableError{Err: err}
	}
	return got.deck, got.base, nil
}
