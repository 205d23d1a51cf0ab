package mathengine

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"github.com/TheRonzor/data101-s26-slides/internal/fallback"
)

// Assets names where an engine's loader can be found: a deck-local
// setup script first, then a remote fallback.
type Assets struct {
	Local string // deck-root-relative path to the setup script
	CDN   string // absolute fallback URL
}

// DefaultAssets mirrors the asset layout of the published deck.
func DefaultAssets() map[Engine]Assets {
	return map[Engine]Assets{
		EngineKaTeX: {
			Local: "assets/math-katex-setup.js",
			CDN:   "https://cdn.jsdelivr.net/npm/katex@0.16/dist/katex.min.js",
		},
		EngineMathJax: {
			Local: "assets/math-mathjax-setup.js",
			CDN:   "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-chtml.js",
		},
	}
}

// Prober checks that a loader asset is reachable.
type Prober interface {
	Probe(ctx context.Context, u *url.URL) error
}

// Gateway resolves engine loader assets with a local-then-remote chain
// and remembers, process-wide, which assets are already known good.
// First successful resolution wins; later calls short-circuit on the
// readiness flag and never re-probe.
type Gateway struct {
	prober Prober
	assets map[Engine]Assets

	mu    sync.Mutex
	ready map[string]bool // asset URL -> verified reachable
}

func NewGateway(prober Prober, assets map[Engine]Assets) *Gateway {
	if assets == nil {
		assets = DefaultAssets()
	}
	return &Gateway{
		prober: prober,
		assets: assets,
		ready:  make(map[string]bool),
	}
}

// Ensure makes the engine's loader available and returns the asset URL
// to load it from, resolved against the manifest base. A nil URL with a
// nil error means no loader is needed (none/unset).
func (g *Gateway) Ensure(ctx context.Context, e Engine, base *url.URL) (*url.URL, error) {
	if e == EngineUnset || e == EngineNone {
		return nil, nil
	}
	a, ok := g.assets[e]
	if !ok {
		return nil, fmt.Errorf("no assets configured for engine %q", e)
	}

	candidates, err := g.candidates(a, base)
	if err != nil {
		return nil, err
	}

	// Already-verified asset: skip the probe entirely.
	g.mu.Lock()
	for _, c := range candidates {
		if g.ready[c.String()] {
			g.mu.Unlock()
			return c, nil
		}
	}
	g.mu.Unlock()

	sources := make([]fallback.Source[*url.URL], 0, len(candidates))
	for _, c := range candidates {
		c := c
		sources = append(sources, fallback.Source[*url.URL]{
			Name: c.String(),
			Attempt: func(ctx context.Context) (*url.URL, error) {
				if err := g.prober.Probe(ctx, c); err != nil {
					return nil, err
				}
				return c, nil
			},
		})
	}

	chosen, _, err := fallback.First(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("engine %s unavailable: %w", e, err)
	}

	g.mu.Lock()
	g.ready[chosen.String()] = true
	g.mu.Unlock()
	return chosen, nil
}

func (g *Gateway) candidates(a Assets, base *url.URL) ([]*url.URL, error) {
	var out []*url.URL
	if a.Local != "" && base != nil {
		u, err := deckpath.Resolve(base, a.Local)
		if err != nil {
			return nil, fmt.Errorf("resolve local asset: %w", err)
		}
		out = append(out, u)
	}
	if a.CDN != "" {
		u, err := url.Parse(a.CDN)
		if err != nil {
			return nil, fmt.Errorf("parse cdn asset: %w", err)
		}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("engine has no asset candidates")
	}
	return out, nil
}
