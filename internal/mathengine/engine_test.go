package mathengine

import (
	"context"
	"net/url"
	"sync"
	"testing"
)

func TestParse_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want Engine
	}{
		{"", EngineUnset},
		{"none", EngineNone},
		{"off", EngineNone},
		{"false", EngineNone},
		{"0", EngineNone},
		{"katex", EngineKaTeX},
		{"tex", EngineKaTeX},
		{"KaTeX", EngineKaTeX},
		{"mathjax", EngineMathJax},
		{"mj", EngineMathJax},
		{"  mathjax  ", EngineMathJax},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("asciimath"); err == nil {
		t.Error("expected error for unknown engine identifier")
	}
}

func TestForSlide(t *testing.T) {
	tests := []struct {
		deck, override, want Engine
	}{
		{EngineKaTeX, EngineUnset, EngineKaTeX},
		{EngineKaTeX, EngineMathJax, EngineMathJax},
		{EngineMathJax, EngineNone, EngineNone}, // explicit slide-level off wins
		{EngineUnset, EngineUnset, EngineNone},
		{EngineNone, EngineKaTeX, EngineKaTeX},
	}
	for _, tc := range tests {
		if got := ForSlide(tc.deck, tc.override); got != tc.want {
			t.Errorf("ForSlide(%q, %q) = %q, want %q", tc.deck, tc.override, got, tc.want)
		}
	}
}

func TestForPrint_OverridePriority(t *testing.T) {
	tests := []struct {
		name      string
		deck      Engine
		overrides []Engine
		want      Engine
	}{
		{"mathjax override beats katex default", EngineKaTeX, []Engine{EngineUnset, EngineMathJax}, EngineMathJax},
		{"katex override promotes from none default", EngineNone, []Engine{EngineKaTeX}, EngineKaTeX},
		{"explicit mathjax default survives katex override", EngineMathJax, []Engine{EngineKaTeX}, EngineMathJax},
		{"no overrides falls back to deck default", EngineKaTeX, []Engine{EngineUnset, EngineUnset}, EngineKaTeX},
		{"nothing declared anywhere", EngineUnset, []Engine{EngineUnset}, EngineNone},
		{"katex override with unset default", EngineUnset, []Engine{EngineKaTeX}, EngineKaTeX},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ForPrint(tc.deck, tc.overrides); got != tc.want {
				t.Errorf("ForPrint(%q, %v) = %q, want %q", tc.deck, tc.overrides, got, tc.want)
			}
		})
	}
}

// countingProber fails for URLs in the fail set and counts every probe.
type countingProber struct {
	mu     sync.Mutex
	fail   map[string]bool
	probes []string
}

func (p *countingProber) Probe(ctx context.Context, u *url.URL) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes = append(p.probes, u.String())
	if p.fail[u.String()] {
		return &probeErr{u.String()}
	}
	return nil
}

type probeErr struct{ u string }

func (e *probeErr) Error() string { return "unreachable: " + e.u }

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return u
}

func TestGateway_LocalThenCDN(t *testing.T) {
	base := mustURL(t, "http://o/deck.json")
	p := &countingProber{fail: map[string]bool{
		"http://o/assets/math-katex-setup.js": true,
	}}
	g := NewGateway(p, nil)

	u, err := g.Ensure(context.Background(), EngineKaTeX, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Host != "cdn.jsdelivr.net" {
		t.Errorf("expected CDN fallback, got %s", u)
	}
	if len(p.probes) != 2 {
		t.Errorf("expected 2 probes (local then cdn), got %v", p.probes)
	}
}

func TestGateway_EnsureIdempotent(t *testing.T) {
	base := mustURL(t, "http://o/deck.json")
	p := &countingProber{}
	g := NewGateway(p, nil)

	first, err := g.Ensure(context.Background(), EngineMathJax, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.Ensure(context.Background(), EngineMathJax, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("expected stable asset, got %s then %s", first, second)
	}
	if len(p.probes) != 1 {
		t.Errorf("second ensure must not re-probe, got probes %v", p.probes)
	}
}

func TestGateway_NoneNeedsNothing(t *testing.T) {
	p := &countingProber{}
	g := NewGateway(p, nil)
	u, err := g.Ensure(context.Background(), EngineNone, mustURL(t, "http://o/deck.json"))
	if err != nil || u != nil {
		t.Errorf("none engine should be a no-op, got %v, %v", u, err)
	}
	if len(p.probes) != 0 {
		t.Errorf("none engine must not probe, got %v", p.probes)
	}
}

func TestGateway_AllCandidatesFail(t *testing.T) {
	base := mustURL(t, "http://o/deck.json")
	p := &countingProber{fail: map[string]bool{
		"http://o/assets/math-katex-setup.js":                   true,
		"https://cdn.jsdelivr.net/npm/katex@0.16/dist/katex.min.js": true,
	}}
	g := NewGateway(p, nil)
	if _, err := g.Ensure(context.Background(), EngineKaTeX, base); err == nil {
		t.Error("expected error when every candidate fails")
	}
}
