// Package pipeline runs the note-processing stages over a batch and hands
// the result to storage and the manifest.
package pipeline

import (
	"github.com/starford/notepress/internal/assets"
	"github.com/starford/notepress/internal/frontmatter"
	"github.com/starford/notepress/internal/ignore"
	"github.com/starford/notepress/internal/inline"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/routing"
	"github.com/starford/notepress/internal/sanitize"
	"github.com/starford/notepress/internal/wikilink"
)

// Config holds the rule sets applied to every batch.
type Config struct {
	IgnoreRules []ignore.Rule
	// Sanitizer may be nil, in which case notes are not sanitized.
	Sanitizer *sanitize.Sanitizer
}

// Batch is the per-batch context. Its lookups are built once and only read
// afterwards, so batches never share state.
type Batch struct {
	// Notes are the publishable notes in input order.
	Notes []models.PublishableNote
	// Ignored are the notes excluded by an ignore rule, with their verdict.
	Ignored []models.PublishableNote

	Resolver  *wikilink.Resolver
	FullPaths map[string]string
}

// Process runs stages 1 to 7 over collected. Every stage is total: bad
// per-note data degrades to empty values and never aborts the batch.
func Process(collected []models.CollectedNote, cfg Config) *Batch {
	b := &Batch{}

	notes := Normalize(collected)
	notes, b.Ignored = ignore.Filter(notes, cfg.IgnoreRules)
	notes = RenderInline(notes)
	notes = Sanitize(notes, cfg.Sanitizer)
	notes = DetectAssets(notes)

	b.Resolver = wikilink.NewResolver(notes)
	notes = ResolveLinks(notes, b.Resolver)

	notes = routing.Route(notes)
	b.FullPaths = routing.FullPaths(notes)
	b.Notes = routing.PatchLinks(notes, b.FullPaths)
	return b
}

// Normalize wraps every collected note and canonicalizes its frontmatter.
func Normalize(collected []models.CollectedNote) []models.PublishableNote {
	out := make([]models.PublishableNote, len(collected))
	for i, c := range collected {
		out[i] = models.PublishableNote{
			CollectedNote: c,
			Frontmatter:   frontmatter.Normalize(c.RawFrontmatter),
		}
	}
	return out
}

// RenderInline evaluates `=this.` expressions in bodies and frontmatter.
func RenderInline(notes []models.PublishableNote) []models.PublishableNote {
	out := make([]models.PublishableNote, len(notes))
	for i, n := range notes {
		n.Content = inline.Render(n.Content, n.Frontmatter.Nested)
		n.Frontmatter = inline.RenderFrontmatter(n.Frontmatter)
		out[i] = n
	}
	return out
}

// Sanitize applies s to every note. A nil s returns notes unchanged.
func Sanitize(notes []models.PublishableNote, s *sanitize.Sanitizer) []models.PublishableNote {
	if s == nil {
		return notes
	}
	out := make([]models.PublishableNote, len(notes))
	for i, n := range notes {
		out[i] = s.Apply(n)
	}
	return out
}

// DetectAssets records the embeds of every note.
func DetectAssets(notes []models.PublishableNote) []models.PublishableNote {
	out := make([]models.PublishableNote, len(notes))
	for i, n := range notes {
		n.Assets = assets.Detect(n.Content, n.Frontmatter.Nested)
		out[i] = n
	}
	return out
}

// ResolveLinks detects the wikilinks of every note and resolves them with r.
func ResolveLinks(notes []models.PublishableNote, r *wikilink.Resolver) []models.PublishableNote {
	out := make([]models.PublishableNote, len(notes))
	for i, n := range notes {
		n.Links = r.ResolveAll(wikilink.Detect(n.Content, n.Frontmatter.Nested), n.NoteID)
		out[i] = n
	}
	return out
}
