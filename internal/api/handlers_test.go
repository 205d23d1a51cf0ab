package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TheRonzor/data101-s26-slides/internal/config"
	"github.com/TheRonzor/data101-s26-slides/internal/mathengine"
	"github.com/TheRonzor/data101-s26-slides/internal/origin"
)

const demoManifest = `{
  "title": "Demo Deck",
  "slides": [
    {"file": "slides/01.html", "title": "One"},
    {"file": "slides/02.html", "title": "Two"}
  ]
}`

func slidePage(title, body string) string {
	return `<!doctype html><html><head><title>` + title + `</title></head><body>` +
		`<main class="slide-body">` + body + `</main>` +
		`<footer class="slide-nav" data-auto-nav></footer>` +
		`</body></html>`
}

// newDeckServer stands up an origin with the given routes and a Server
// proxying it under /course/.
func newDeckServer(t *testing.T, routes map[string]http.HandlerFunc) (*Server, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.OriginURL = ts.URL + "/course/"

	client := origin.NewClient(5 * time.Second)
	t.Cleanup(client.Close)
	gateway := mathengine.NewGateway(client, nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := NewServer(client, gateway, log, cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, ts
}

func serveText(body, ctype string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ctype)
		io.WriteString(w, body)
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndexListsSlidesInOrder(t *testing.T) {
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json": serveText(demoManifest, "application/json"),
	})

	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()

	first := strings.Index(body, "One")
	second := strings.Index(body, "Two")
	if first < 0 || second < 0 || first > second {
		t.Errorf("entries missing or out of order: %q", body)
	}
	if !strings.Contains(body, `href="slides/01.html"`) {
		t.Errorf("expected index-relative slide href, got %q", body)
	}
	if !strings.Contains(body, "Demo Deck") {
		t.Errorf("expected deck title in index")
	}
	if !strings.Contains(body, `href="print.html"`) {
		t.Errorf("expected print view link")
	}
}

func TestSlideGetsNavigation(t *testing.T) {
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json":      serveText(demoManifest, "application/json"),
		"/course/slides/01.html": serveText(slidePage("One", "<p>first</p>"), "text/html"),
	})

	rec := get(t, s, "/slides/01.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()

	if !strings.Contains(body, "1/2") {
		t.Errorf("expected counter 1/2 in %q", body)
	}
	// First slide: prev disabled, next points at its sibling.
	if !strings.Contains(body, `aria-disabled="true"`) {
		t.Errorf("expected disabled prev link")
	}
	if !strings.Contains(body, `href="02.html"`) {
		t.Errorf("expected next link to sibling slide, got %q", body)
	}
	if !strings.Contains(body, `href="../index.html"`) {
		t.Errorf("expected index link relative to slide, got %q", body)
	}
	if !strings.Contains(body, "<p>first</p>") {
		t.Errorf("slide content lost")
	}
}

func TestUnlistedPagePassesThrough(t *testing.T) {
	const css = "body { margin: 0 }"
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json":      serveText(demoManifest, "application/json"),
		"/course/assets/app.css": serveText(css, "text/css"),
	})

	rec := get(t, s, "/assets/app.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != css {
		t.Errorf("asset body altered: %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/css" {
		t.Errorf("expected upstream content type, got %q", ct)
	}
}

func TestManifestUnavailableIsBadGateway(t *testing.T) {
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{})

	for _, path := range []string{"/", "/print.html", "/slides/01.html"} {
		rec := get(t, s, path)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("%s: expected 502, got %d", path, rec.Code)
		}
	}
}

func TestManifestFallbackCandidate(t *testing.T) {
	// Only the parent-directory candidate exists.
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/deck.json": serveText(demoManifest, "application/json"),
	})

	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected fallback candidate to serve, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Demo Deck") {
		t.Errorf("expected deck title from fallback manifest")
	}
}

func TestUpstreamStatusForwarded(t *testing.T) {
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json": serveText(demoManifest, "application/json"),
	})

	rec := get(t, s, "/slides/99.html")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected upstream 404 forwarded, got %d", rec.Code)
	}
}

func TestPrintToleratesFailedSlide(t *testing.T) {
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json":      serveText(demoManifest, "application/json"),
		"/course/slides/01.html": serveText(slidePage("One", "<p>first</p>"), "text/html"),
		"/course/slides/02.html": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})

	rec := get(t, s, "/print.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite failed slide, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<p>first</p>") {
		t.Errorf("healthy slide missing from print view")
	}
	if !strings.Contains(body, "print-error") {
		t.Errorf("expected placeholder for failed slide in %q", body)
	}
	if !strings.Contains(body, "Two") {
		t.Errorf("placeholder should carry the declared slide title")
	}
}

func TestMarkdownSlideServedAsHTML(t *testing.T) {
	manifest := `{"slides":[{"file":"notes.md","title":"Notes"}]}`
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json": serveText(manifest, "application/json"),
		"/course/notes.md":  serveText("# Heading\n\nSome *notes*.\n", "text/markdown"),
	})

	rec := get(t, s, "/notes.md")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "<em>notes</em>") {
		t.Errorf("markdown not converted: %q", body)
	}
	if !strings.Contains(body, "1/1") {
		t.Errorf("markdown slide should get navigation too")
	}
}

func TestMathLoaderInjected(t *testing.T) {
	manifest := `{
	  "math": {"engine": "katex"},
	  "slides": [{"file": "slides/01.html", "title": "One"}]
	}`
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json":                  serveText(manifest, "application/json"),
		"/course/slides/01.html":             serveText(slidePage("One", "<p>$x$</p>"), "text/html"),
		"/course/assets/math-katex-setup.js": serveText("// katex setup", "text/javascript"),
	})

	rec := get(t, s, "/slides/01.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `src="../assets/math-katex-setup.js"`) {
		t.Errorf("expected local katex loader injected, got %q", rec.Body.String())
	}
}

func TestMathUnavailableDegrades(t *testing.T) {
	manifest := `{
	  "math": {"engine": "katex"},
	  "slides": [{"file": "slides/01.html", "title": "One"}]
	}`
	// Point the CDN fallback at the same dead origin so the probe chain
	// fails outright instead of reaching the real network.
	s, ts := newDeckServer(t, map[string]http.HandlerFunc{
		"/course/deck.json":      serveText(manifest, "application/json"),
		"/course/slides/01.html": serveText(slidePage("One", "<p>$x$</p>"), "text/html"),
	})
	assets := map[mathengine.Engine]mathengine.Assets{
		mathengine.EngineKaTeX: {
			Local: "assets/math-katex-setup.js",
			CDN:   ts.URL + "/missing/katex.js",
		},
	}
	client := origin.NewClient(5 * time.Second)
	t.Cleanup(client.Close)
	s.gateway = mathengine.NewGateway(client, assets)

	rec := get(t, s, "/slides/01.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("slide should still render, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "math-katex-setup.js") || strings.Contains(body, "katex.js") {
		t.Errorf("no loader should be injected when probing fails: %q", body)
	}
	if !strings.Contains(body, "<p>$x$</p>") {
		t.Errorf("slide content lost on math degrade")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newDeckServer(t, map[string]http.HandlerFunc{})
	rec := get(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health body %q", rec.Body.String())
	}
}
