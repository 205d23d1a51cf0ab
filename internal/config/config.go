// Package config loads deckd configuration from a YAML file with
// DECKD_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config is the top-level deckd configuration, corresponding to
// deckd.yml.
type Config struct {
	Addr string `yaml:"addr" koanf:"addr"`

	// OriginURL is the base of the published deck: the host the slide
	// pages and deck.json live on.
	OriginURL string `yaml:"origin_url" koanf:"origin_url"`

	// ManifestCandidates are tried in order, most-specific first,
	// resolved against OriginURL.
	ManifestCandidates []string `yaml:"manifest_candidates" koanf:"manifest_candidates"`

	// FetchTimeout bounds each origin request. Zero disables the bound.
	FetchTimeout time.Duration `yaml:"fetch_timeout" koanf:"fetch_timeout"`

	Math MathAssets `yaml:"math" koanf:"math"`

	// CORSAllowAll opens the deck views to any origin (dev mode).
	CORSAllowAll bool `yaml:"cors_allow_all" koanf:"cors_allow_all"`
}

// MathAssets overrides where engine loader scripts are found. Local
// paths are deck-root-relative; CDN values are absolute URLs.
type MathAssets struct {
	KatexLocal   string `yaml:"katex_local" koanf:"katex_local"`
	KatexCDN     string `yaml:"katex_cdn" koanf:"katex_cdn"`
	MathJaxLocal string `yaml:"mathjax_local" koanf:"mathjax_local"`
	MathJaxCDN   string `yaml:"mathjax_cdn" koanf:"mathjax_cdn"`
}

// DefaultConfig returns the baseline configuration before file and
// environment overlays.
func DefaultConfig() *Config {
	return &Config{
		Addr:               ":8099",
		ManifestCandidates: []string{"deck.json", "../deck.json"},
		FetchTimeout:       30 * time.Second,
		Math: MathAssets{
			KatexLocal:   "assets/math-katex-setup.js",
			KatexCDN:     "https://cdn.jsdelivr.net/npm/katex@0.16/dist/katex.min.js",
			MathJaxLocal: "assets/math-mathjax-setup.js",
			MathJaxCDN:   "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-chtml.js",
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DECKD_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// DECKD_ORIGIN_URL -> origin_url, etc.
	if err := k.Load(env.Provider("DECKD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DECKD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.OriginURL == "" {
		return fmt.Errorf("origin_url is required")
	}
	u, err := url.Parse(c.OriginURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("origin_url must be an absolute URL, got %q", c.OriginURL)
	}
	if len(c.ManifestCandidates) == 0 {
		return fmt.Errorf("at least one manifest candidate is required")
	}
	for i, cand := range c.ManifestCandidates {
		if strings.TrimSpace(cand) == "" {
			return fmt.Errorf("manifest candidate %d is empty", i)
		}
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must be non-negative")
	}
	return nil
}

// Origin returns the parsed origin base URL. Call Validate first.
func (c *Config) Origin() (*url.URL, error) {
	return url.Parse(c.OriginURL)
}
