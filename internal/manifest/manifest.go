// Package manifest loads and validates the deck manifest (deck.json),
// the single source of truth for slide order, titles, and per-page
// behavior.
package manifest

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/TheRonzor/data101-s26-slides/internal/mathengine"
)

// Defaults applied when the manifest omits a field.
const (
	DefaultTitle = "Deck"
	DefaultTheme = "assets/theme.css"
)

// Deck is the parsed manifest. Slide order is load-bearing and is
// preserved exactly as declared; no component may reorder it.
type Deck struct {
	Title  string     `json:"title"`
	Theme  string     `json:"theme"`
	Math   MathConfig `json:"math"`
	Slides []Slide    `json:"slides"`
}

// MathConfig is the deck-wide math rendering default.
type MathConfig struct {
	Engine string `json:"engine"`
}

// Slide is one ordered entry in the deck.
type Slide struct {
	File    string       `json:"file"`
	Title   string       `json:"title"`
	Math    string       `json:"math"`
	Scripts []ScriptSpec `json:"scripts"`
}

// ScriptSpec declares one behavior module for a slide. In the manifest
// an entry may be a bare string or an object with attributes.
type ScriptSpec struct {
	Src   string `json:"src"`
	Type  string `json:"type,omitempty"`
	Defer bool   `json:"defer,omitempty"`
	Async bool   `json:"async,omitempty"`
}

func (s *ScriptSpec) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var src string
		if err := json.Unmarshal(b, &src); err != nil {
			return err
		}
		s.Src = src
		return nil
	}
	type plain ScriptSpec
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = ScriptSpec(p)
	return nil
}

// UnmarshalJSON normalizes the two historical script declarations:
// "scripts" (string, object, or list of either) and the legacy single
// "script". A present "scripts" key wins over "script".
func (s *Slide) UnmarshalJSON(b []byte) error {
	var raw struct {
		File    string          `json:"file"`
		Title   string          `json:"title"`
		Math    string          `json:"math"`
		Script  json.RawMessage `json:"script"`
		Scripts json.RawMessage `json:"scripts"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.File = raw.File
	s.Title = raw.Title
	s.Math = raw.Math

	src := raw.Scripts
	if isJSONNull(src) {
		src = raw.Script
	}
	if isJSONNull(src) {
		s.Scripts = nil
		return nil
	}

	specs, err := decodeScripts(src)
	if err != nil {
		return fmt.Errorf("slide %q: %w", raw.File, err)
	}
	s.Scripts = specs
	return nil
}

func isJSONNull(b json.RawMessage) bool {
	return len(b) == 0 || string(b) == "null"
}

func decodeScripts(b json.RawMessage) ([]ScriptSpec, error) {
	if b[0] == '[' {
		var specs []ScriptSpec
		if err := json.Unmarshal(b, &specs); err != nil {
			return nil, fmt.Errorf("invalid script entry: %w", err)
		}
		return specs, nil
	}
	var one ScriptSpec
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, fmt.Errorf("invalid script entry: %w", err)
	}
	return []ScriptSpec{one}, nil
}

// Parse decodes a manifest, applies defaults, and validates it once at
// load time. Downstream components may assume a valid Deck.
func Parse(data []byte) (*Deck, error) {
	var d Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.Theme == "" {
		d.Theme = DefaultTheme
	}
	for i := range d.Slides {
		if d.Slides[i].Title == "" {
			d.Slides[i].Title = fileStem(d.Slides[i].File)
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate rejects structurally broken manifests instead of letting
// undefined fields propagate through every downstream component.
func (d *Deck) Validate() error {
	if len(d.Slides) == 0 {
		return fmt.Errorf("manifest has no slides")
	}
	if _, err := mathengine.Parse(d.Math.Engine); err != nil {
		return fmt.Errorf("deck math: %w", err)
	}
	for i, s := range d.Slides {
		if strings.TrimSpace(s.File) == "" {
			return fmt.Errorf("slide %d: missing file", i)
		}
		if _, err := mathengine.Parse(s.Math); err != nil {
			return fmt.Errorf("slide %d (%s): %w", i, s.File, err)
		}
		for j, sp := range s.Scripts {
			if strings.TrimSpace(sp.Src) == "" {
				return fmt.Errorf("slide %d (%s): script %d has no src", i, s.File, j)
			}
		}
	}
	return nil
}

// DefaultEngine returns the canonical deck-wide engine.
func (d *Deck) DefaultEngine() mathengine.Engine {
	e, _ := mathengine.Parse(d.Math.Engine)
	return e
}

// Override returns the slide's canonical engine override.
func (s *Slide) Override() mathengine.Engine {
	e, _ := mathengine.Parse(s.Math)
	return e
}

func fileStem(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}
