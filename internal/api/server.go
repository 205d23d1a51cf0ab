// Package api serves the deck's document views over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/TheRonzor/data101-s26-slides/internal/assemble"
	"github.com/TheRonzor/data101-s26-slides/internal/config"
	"github.com/TheRonzor/data101-s26-slides/internal/deckpath"
	"github.com/TheRonzor/data101-s26-slides/internal/mathengine"
	"github.com/TheRonzor/data101-s26-slides/internal/origin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the deckd HTTP server.
type Server struct {
	router     chi.Router
	client     *origin.Client
	gateway    *mathengine.Gateway
	assembler  *assemble.Assembler
	log        *slog.Logger
	candidates []*url.URL
}

// NewServer wires the deck views. Candidate manifest locations are
// resolved once against the configured origin; everything else is
// resolved fresh per request.
func NewServer(client *origin.Client, gateway *mathengine.Gateway, log *slog.Logger, cfg *config.Config) (*Server, error) {
	base, err := cfg.Origin()
	if err != nil {
		return nil, err
	}

	candidates := make([]*url.URL, 0, len(cfg.ManifestCandidates))
	for _, c := range cfg.ManifestCandidates {
		u, err := deckpath.Resolve(base, c)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, u)
	}

	s := &Server{
		client:     client,
		gateway:    gateway,
		assembler:  assemble.New(client, gateway, log),
		log:        log,
		candidates: candidates,
	}
	s.setupRoutes(cfg)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes(cfg *config.Config) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if cfg.CORSAllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/print.html", s.handlePrint)
	r.Get("/*", s.handlePage)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
