// Package slug turns titles and path segments into URL-safe identifiers.
package slug

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a name slugifies to nothing.
const Fallback = "index"

// fold decomposes s and removes combining marks. A new chain is built per
// call because transformers carry state.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify lowercases s, strips diacritics, drops every character outside
// [a-zA-Z0-9 ], collapses whitespace and joins words with "-". It may return
// the empty string.
func Slugify(s string) string {
	folded := fold(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}

// Path slugifies every "/" separated segment of p and drops empty results.
func Path(p string) string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if s := Slugify(part); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// Key folds s for case- and accent-insensitive lookups: slashes unified,
// diacritics removed, lowercased and trimmed. Unlike Slugify it keeps
// punctuation and spaces.
func Key(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\\", "/")
	return strings.ToLower(fold(s))
}

// StripExt removes the extension of the last path element.
func StripExt(p string) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext)
}
