// Package deckpath resolves manifest-relative page references into
// absolute locators and decides when two locators name the same page.
// All resolution is rooted at the manifest's own load location, not the
// viewing document's location, because the manifest may have been found
// via a parent-relative candidate.
package deckpath

import (
	"net/url"
	"path"
	"strings"
)

// Prefixes that mark a reference as already absolute. Such references
// are never rewritten.
var absPrefixes = []string{"http://", "https://", "data:", "/", "#", "mailto:", "tel:"}

// IsAbsRef reports whether ref should be kept verbatim.
func IsAbsRef(ref string) bool {
	for _, p := range absPrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}

// Resolve combines the manifest base location with a relative reference,
// handling ./ and ../ segments.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(r), nil
}

// SamePage reports whether two locators name the same page. Path
// components are compared after stripping any number of trailing
// slashes; query strings and fragments are irrelevant.
func SamePage(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.TrimRight(a.Path, "/") == strings.TrimRight(b.Path, "/")
}

// RelHref returns a relative reference from the page at `from` to the
// resource at `to`, the form used for navigation links inside a served
// page. Falls back to to's absolute path when the two locations do not
// share a walkable root.
func RelHref(from, to *url.URL) string {
	if from == nil || to == nil {
		return ""
	}
	if from.Host != to.Host || from.Scheme != to.Scheme {
		return to.String()
	}

	fromDir := splitPath(path.Dir(from.Path))
	toParts := splitPath(to.Path)

	common := 0
	for common < len(fromDir) && common < len(toParts)-1 && fromDir[common] == toParts[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(fromDir); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(toParts[common:], "/"))
	if b.Len() == 0 {
		return "."
	}
	return b.String()
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

// ResolveScriptSrc rewrites a declared script reference for insertion
// into a slide page:
//
//   - absolute-ish references and explicit ./ or ../ forms are kept
//     verbatim (the author controls them);
//   - a reference containing a slash is deck-root-relative and is
//     rewritten to a slide-relative href;
//   - a bare filename is slide-local and becomes "./name".
func ResolveScriptSrc(slide, root *url.URL, src string) string {
	s := strings.TrimSpace(src)
	if s == "" {
		return s
	}
	if IsAbsRef(s) || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		return s
	}
	if strings.Contains(s, "/") {
		target, err := Resolve(root, s)
		if err != nil {
			return s
		}
		return RelHref(slide, target)
	}
	return "./" + s
}

// RebaseSrc rewrites a reference found inside a slide's body so that it
// still resolves from the aggregate print document at the deck root.
// Absolute references are kept as-is.
func RebaseSrc(slide, root *url.URL, src string) string {
	s := strings.TrimSpace(src)
	if s == "" || IsAbsRef(s) {
		return src
	}
	target, err := Resolve(slide, s)
	if err != nil {
		return src
	}
	return RelHref(root, target)
}
