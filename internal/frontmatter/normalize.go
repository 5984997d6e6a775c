package frontmatter

import (
	"sort"
	"strings"
	"unicode"
)

// PathSeparator splits a normalized key into nested segments.
const PathSeparator = "."

// Frontmatter is the canonical form of a note's metadata.
type Frontmatter struct {
	Flat   map[string]Value `json:"flat"`
	Nested map[string]Value `json:"nested"`
	Tags   []string         `json:"tags"`
}

// Empty returns frontmatter with no keys and no tags.
func Empty() Frontmatter {
	return Frontmatter{
		Flat:   map[string]Value{},
		Nested: map[string]Value{},
		Tags:   []string{},
	}
}

// Raw returns the flat map as plain keys and values, suitable as input to
// Normalize again.
func (f Frontmatter) Raw() map[string]any {
	out := make(map[string]any, len(f.Flat))
	for k, v := range f.Flat {
		out[k] = v
	}
	return out
}

// Lookup resolves a dotted property path against the nested map. Every
// segment is normalized before lookup.
func (f Frontmatter) Lookup(path string) (Value, bool) {
	return Lookup(f.Nested, SplitPath(path))
}

// SplitPath normalizes a dotted property path into lookup segments.
func SplitPath(path string) []string {
	key := NormalizeKey(path)
	if key == "" {
		return nil
	}
	return strings.Split(key, PathSeparator)
}

// Normalize canonicalizes raw frontmatter. It never fails: a nil or empty
// map yields Empty().
func Normalize(raw map[string]any) Frontmatter {
	fm := Empty()
	if len(raw) == 0 {
		return fm
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dotted []string
	for _, k := range keys {
		nk := NormalizeKey(k)
		if nk == "" {
			continue
		}
		if _, dup := fm.Flat[nk]; dup {
			continue
		}
		v := normalizeValue(FromAny(raw[k]))
		fm.Flat[nk] = v

		if strings.Contains(nk, PathSeparator) {
			dotted = append(dotted, nk)
		} else {
			fm.Nested[nk] = v
		}
	}

	// Dotted keys expand after every plain key is placed, in sorted order.
	sort.Strings(dotted)
	for _, nk := range dotted {
		expand(fm.Nested, strings.Split(nk, PathSeparator), fm.Flat[nk])
	}

	fm.Tags = extractTags(fm.Flat["tags"])
	return fm
}

// NormalizeKey folds a key into its canonical form: lowercase, path
// separators unified to ".", whitespace, "-" and "_" runs collapsed to a
// single "_", any other punctuation dropped.
func NormalizeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(k)) {
		switch {
		case r == '.' || r == '/' || r == '\\':
			b.WriteByte('.')
			pendingSep = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 && !strings.HasSuffix(b.String(), ".") {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		}
	}

	segments := strings.Split(b.String(), ".")
	out := segments[:0]
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, PathSeparator)
}

// normalizeValue folds map keys at every depth so nested lookups can use
// normalized segments.
func normalizeValue(v Value) Value {
	switch v.Kind() {
	case KindArray:
		items := make([]Value, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = normalizeValue(item)
		}
		return Array(items...)
	case KindMap:
		fields := v.Fields()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(map[string]Value, len(fields))
		for _, k := range keys {
			// Dots inside nested keys are kept literal.
			nk := strings.ReplaceAll(NormalizeKey(k), PathSeparator, "_")
			if nk == "" {
				continue
			}
			if _, dup := m[nk]; dup {
				continue
			}
			m[nk] = normalizeValue(fields[k])
		}
		return Map(m)
	}
	return v
}

// expand writes v at segments inside m. An existing non-empty value that is
// not a map blocks the expansion: the first writer wins.
func expand(m map[string]Value, segments []string, v Value) {
	head := segments[0]
	existing, ok := m[head]

	if len(segments) == 1 {
		if ok && !existing.IsEmpty() {
			return
		}
		m[head] = v
		return
	}

	var child map[string]Value
	switch {
	case !ok || existing.IsEmpty():
		child = map[string]Value{}
	case existing.Kind() == KindMap:
		child = make(map[string]Value, len(existing.Fields())+1)
		for k, item := range existing.Fields() {
			child[k] = item
		}
	default:
		return
	}
	expand(child, segments[1:], v)
	m[head] = Map(child)
}

func extractTags(v Value) []string {
	tags := []string{}
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	case KindArray:
		for _, item := range v.Items() {
			s, ok := item.AsString()
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}
