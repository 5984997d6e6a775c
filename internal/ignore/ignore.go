// Package ignore decides which notes may be published using ordered
// frontmatter rules.
package ignore

import (
	"fmt"

	"github.com/starford/notepress/internal/frontmatter"
	"github.com/starford/notepress/internal/models"
)

// Rule excludes a note when its frontmatter property matches.
//
// IgnoreIf matches a boolean property equal to it. IgnoreValues matches a
// property (or any element of an array property) equal to one of the listed
// primitives. When both are set either may match.
type Rule struct {
	Property     string `yaml:"property" json:"property"`
	IgnoreIf     *bool  `yaml:"ignore_if" json:"ignoreIf,omitempty"`
	IgnoreValues []any  `yaml:"ignore_values" json:"ignoreValues,omitempty"`
}

// Evaluate returns the verdict for fm. Rules are tried in order and the first
// match wins.
func Evaluate(fm frontmatter.Frontmatter, rules []Rule) models.Eligibility {
	for i, rule := range rules {
		v, ok := fm.Lookup(rule.Property)
		if !ok {
			continue
		}
		if by := match(rule, v); by != nil {
			by.RuleIndex = i
			return models.Eligibility{IsPublishable: false, IgnoredByRule: by}
		}
	}
	return models.Eligibility{IsPublishable: true}
}

// Filter sets the eligibility of every note and returns the publishable ones
// along with the excluded ones, both in input order. Notes are never
// modified beyond their Eligibility field.
func Filter(notes []models.PublishableNote, rules []Rule) (kept, ignored []models.PublishableNote) {
	kept = make([]models.PublishableNote, 0, len(notes))
	for _, n := range notes {
		n.Eligibility = Evaluate(n.Frontmatter, rules)
		if n.Eligibility.IsPublishable {
			kept = append(kept, n)
		} else {
			ignored = append(ignored, n)
		}
	}
	return kept, ignored
}

func match(rule Rule, v frontmatter.Value) *models.IgnoredByRule {
	if rule.IgnoreIf != nil {
		if b, ok := v.AsBool(); ok && b == *rule.IgnoreIf {
			return &models.IgnoredByRule{
				Property:     rule.Property,
				Reason:       fmt.Sprintf("property %q is %t", rule.Property, b),
				MatchedValue: b,
			}
		}
	}

	if len(rule.IgnoreValues) == 0 {
		return nil
	}

	candidates := []frontmatter.Value{v}
	if v.Kind() == frontmatter.KindArray {
		candidates = v.Items()
	}
	for _, c := range candidates {
		for _, want := range rule.IgnoreValues {
			if primitiveEqual(c, want) {
				return &models.IgnoredByRule{
					Property:     rule.Property,
					Reason:       fmt.Sprintf("property %q has ignored value %v", rule.Property, want),
					MatchedValue: c.Any(),
				}
			}
		}
	}
	return nil
}

// primitiveEqual compares v with a configured primitive without cross-type
// coercion: "false" never equals false.
func primitiveEqual(v frontmatter.Value, want any) bool {
	w := frontmatter.FromAny(want)
	switch w.Kind() {
	case frontmatter.KindString, frontmatter.KindNumber, frontmatter.KindBool, frontmatter.KindNull:
		return v.Equal(w)
	}
	return false
}
