// Package wikilink detects `[[...]]` links and resolves them against the
// notes of a batch.
package wikilink

import (
	"regexp"
	"strings"

	"github.com/starford/notepress/internal/assets"
	"github.com/starford/notepress/internal/frontmatter"
	"github.com/starford/notepress/internal/models"
)

var linkRe = regexp.MustCompile(`\[\[([^\[\]]+?)\]\]`)

// Detect returns the links found in body followed by those in string leaves
// of the nested frontmatter. Embeds (`![[...]]`) are skipped.
func Detect(body string, nested map[string]frontmatter.Value) []models.WikilinkRef {
	out := scan(body, models.OriginContent, "")
	frontmatter.WalkStrings(frontmatter.Map(nested), func(p, s string) {
		out = append(out, scan(s, models.OriginFrontmatter, p)...)
	})
	return out
}

// Parse splits the inner text of a link into its parts.
func Parse(raw, inner string) models.WikilinkRef {
	target, alias, _ := strings.Cut(inner, "|")
	target = strings.TrimSpace(target)

	p, sub, _ := strings.Cut(target, "#")
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")

	ref := models.WikilinkRef{
		Raw:     raw,
		Target:  target,
		Path:    p,
		Subpath: strings.TrimSpace(sub),
		Alias:   strings.TrimSpace(alias),
		Kind:    models.LinkNote,
	}
	if assets.IsFile(p) {
		ref.Kind = models.LinkFile
	}
	return ref
}

func scan(text string, origin models.Origin, fmPath string) []models.WikilinkRef {
	if !strings.Contains(text, "[[") {
		return nil
	}
	var out []models.WikilinkRef
	for _, loc := range linkRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '!' {
			continue
		}
		ref := Parse(text[loc[0]:loc[1]], text[loc[2]:loc[3]])
		if ref.Path == "" && ref.Subpath == "" {
			continue
		}
		ref.Origin = origin
		if origin == models.OriginFrontmatter {
			ref.FrontmatterPath = fmPath
		}
		out = append(out, ref)
	}
	return out
}
