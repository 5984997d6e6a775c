// Package sanitize strips configured frontmatter keys and tags from notes
// and applies regular-expression content rules to their bodies.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/notepress/internal/frontmatter"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/parser"
)

// Rule rewrites every match of Pattern in a note body with Replacement.
// Replacement may reference groups with $1 or ${name}.
type Rule struct {
	Name        string `yaml:"name" json:"name"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
}

// Config lists what to strip from notes.
type Config struct {
	RemoveKeys []string `yaml:"remove_keys" json:"removeKeys"`
	RemoveTags []string `yaml:"remove_tags" json:"removeTags"`
	Rules      []Rule   `yaml:"rules" json:"rules"`
}

type compiledRule struct {
	name        string
	re          *regexp.Regexp
	replacement string
}

// Sanitizer applies a compiled Config. It is safe for concurrent use.
type Sanitizer struct {
	removeKeys [][]string
	removeTags map[string]struct{}
	rules      []compiledRule
}

// New compiles cfg. Disabled rules are dropped; an invalid pattern in an
// enabled rule is an error.
func New(cfg Config) (*Sanitizer, error) {
	s := &Sanitizer{removeTags: make(map[string]struct{}, len(cfg.RemoveTags))}

	for _, k := range cfg.RemoveKeys {
		if segs := frontmatter.SplitPath(k); len(segs) > 0 {
			s.removeKeys = append(s.removeKeys, segs)
		}
	}
	for _, tag := range cfg.RemoveTags {
		s.removeTags[strings.TrimSpace(tag)] = struct{}{}
	}
	for _, r := range cfg.Rules {
		if !r.Enabled {
			continue
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("sanitize: rule %q: %w", r.Name, err)
		}
		s.rules = append(s.rules, compiledRule{name: r.Name, re: re, replacement: r.Replacement})
	}
	return s, nil
}

// Apply returns a sanitized copy of n: frontmatter first, then the body.
func (s *Sanitizer) Apply(n models.PublishableNote) models.PublishableNote {
	n.Frontmatter = s.Frontmatter(n.Frontmatter)
	n.Content = s.Body(n.Content)
	return n
}

// Frontmatter removes configured keys from the flat and nested maps and
// configured values from the tag list. The input is not modified.
func (s *Sanitizer) Frontmatter(fm frontmatter.Frontmatter) frontmatter.Frontmatter {
	out := frontmatter.Frontmatter{
		Flat:   make(map[string]frontmatter.Value, len(fm.Flat)),
		Nested: fm.Nested,
		Tags:   make([]string, 0, len(fm.Tags)),
	}

	for k, v := range fm.Flat {
		if !s.keyRemoved(k) {
			out.Flat[k] = v
		}
	}
	for _, segs := range s.removeKeys {
		out.Nested = deletePath(out.Nested, segs)
	}
	for _, tag := range fm.Tags {
		if _, drop := s.removeTags[tag]; !drop {
			out.Tags = append(out.Tags, tag)
		}
	}
	return out
}

// Body drops a leading frontmatter block still present in the body, then
// runs the enabled rules in order.
func (s *Sanitizer) Body(body string) string {
	if rest, ok := stripLeadingBlock(body); ok {
		body = rest
	}
	for _, r := range s.rules {
		body = r.re.ReplaceAllString(body, r.replacement)
	}
	return body
}

// keyRemoved reports whether a flat key equals a removed key or lies below it.
func (s *Sanitizer) keyRemoved(flatKey string) bool {
	for _, segs := range s.removeKeys {
		k := strings.Join(segs, frontmatter.PathSeparator)
		if flatKey == k || strings.HasPrefix(flatKey, k+frontmatter.PathSeparator) {
			return true
		}
	}
	return false
}

// deletePath returns m without the value at segs, copying every map on the
// way down so the original tree is left intact.
func deletePath(m map[string]frontmatter.Value, segs []string) map[string]frontmatter.Value {
	child, ok := m[segs[0]]
	if !ok {
		return m
	}
	out := make(map[string]frontmatter.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	if len(segs) == 1 {
		delete(out, segs[0])
		return out
	}
	if child.Kind() != frontmatter.KindMap {
		return m
	}
	out[segs[0]] = frontmatter.Map(deletePath(child.Fields(), segs[1:]))
	return out
}

// stripLeadingBlock removes a leading `---` block that parses as a YAML
// mapping and trims what remains. Any other opening block is body content.
func stripLeadingBlock(body string) (string, bool) {
	fm, rest := parser.Split([]byte(body))
	if fm == nil {
		return body, false
	}
	return strings.TrimSpace(rest), true
}
