package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheRonzor/data101-s26-slides/internal/api"
	"github.com/TheRonzor/data101-s26-slides/internal/config"
	"github.com/TheRonzor/data101-s26-slides/internal/mathengine"
	"github.com/TheRonzor/data101-s26-slides/internal/origin"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "deckd.yml", "path to the YAML configuration file")
	addr := pflag.String("addr", "", "listen address, overrides the configured one")
	initConfig := pflag.Bool("init-config", false, "write a default configuration file and exit")
	pflag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *initConfig {
		if err := config.DefaultConfig().Save(*configPath); err != nil {
			log.Error("writing default configuration", "path", *configPath, "error", err)
			os.Exit(1)
		}
		log.Info("wrote default configuration", "path", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client := origin.NewClient(cfg.FetchTimeout)
	gateway := mathengine.NewGateway(client, engineAssets(cfg))

	srv, err := api.NewServer(client, gateway, log, cfg)
	if err != nil {
		log.Error("wiring server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting deckd", "addr", cfg.Addr, "origin", cfg.OriginURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// engineAssets maps the configured loader locations onto the gateway's
// per-engine asset chains.
func engineAssets(cfg *config.Config) map[mathengine.Engine]mathengine.Assets {
	assets := mathengine.DefaultAssets()
	katex := assets[mathengine.EngineKaTeX]
	if cfg.Math.KatexLocal != "" {
		katex.Local = cfg.Math.KatexLocal
	}
	if cfg.Math.KatexCDN != "" {
		katex.CDN = cfg.Math.KatexCDN
	}
	assets[mathengine.EngineKaTeX] = katex

	mathjax := assets[mathengine.EngineMathJax]
	if cfg.Math.MathJaxLocal != "" {
		mathjax.Local = cfg.Math.MathJaxLocal
	}
	if cfg.Math.MathJaxCDN != "" {
		mathjax.CDN = cfg.Math.MathJaxCDN
	}
	assets[mathengine.EngineMathJax] = mathjax
	return assets
}
