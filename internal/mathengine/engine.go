// Package mathengine decides which math rendering backend a view uses
// and makes that backend's loader available to rendered documents.
//
// The service never typesets math itself; "rendering" an engine over a
// document means injecting the engine's loader script into it so the
// browser typesets the subtree. The gateway's job is the engine
// bookkeeping: identifier aliases, override precedence, and the
// process-wide "already available, skip reload" guard.
package mathengine

import (
	"fmt"
	"strings"
)

// Engine identifies a math rendering backend.
type Engine string

const (
	// EngineUnset means no engine was declared at this level; the
	// deck-wide default applies.
	EngineUnset   Engine = ""
	EngineNone    Engine = "none"
	EngineKaTeX   Engine = "katex"
	EngineMathJax Engine = "mathjax"
)

// Parse canonicalizes an engine identifier, accepting the historical
// aliases ("tex", "mj", "off", "false", "0"). The empty string stays
// EngineUnset.
func Parse(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return EngineUnset, nil
	case "none", "off", "false", "0":
		return EngineNone, nil
	case "katex", "tex":
		return EngineKaTeX, nil
	case "mathjax", "mj":
		return EngineMathJax, nil
	default:
		return EngineUnset, fmt.Errorf("unknown math engine %q", s)
	}
}

// ForSlide picks the engine for a single slide view: a per-slide
// override wins outright, including an explicit "none"; otherwise the
// deck default applies.
func ForSlide(deckDefault, override Engine) Engine {
	if override != EngineUnset {
		return override
	}
	if deckDefault == EngineUnset {
		return EngineNone
	}
	return deckDefault
}

// ForPrint picks the single engine shared by the whole aggregate:
//
//   - any MathJax override forces MathJax (its superset TeX support is
//     preferred once one page demands it);
//   - otherwise an explicit non-none deck default wins;
//   - otherwise any KaTeX override promotes KaTeX;
//   - otherwise no engine.
func ForPrint(deckDefault Engine, overrides []Engine) Engine {
	anyMathJax := false
	anyKaTeX := false
	for _, o := range overrides {
		switch o {
		case EngineMathJax:
			anyMathJax = true
		case EngineKaTeX:
			anyKaTeX = true
		}
	}

	if anyMathJax || deckDefault == EngineMathJax {
		return EngineMathJax
	}
	if deckDefault != EngineUnset && deckDefault != EngineNone {
		return deckDefault
	}
	if anyKaTeX {
		return EngineKaTeX
	}
	return EngineNone
}
