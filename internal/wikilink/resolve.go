package wikilink

import (
	"path"
	"strings"

	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/slug"
)

const markdownExt = ".md"

type keyForm int

// Probe order: exact path forms before name forms before slug forms.
const (
	formFullPath keyForm = iota
	formPathNoExt
	formBase
	formBaseNoExt
	formSlugPath
	formSlugBase
	formSlugTitle
	numForms
)

// Resolver is an immutable synonym index over the notes of one batch. Each
// form keeps its own table so a weaker form never shadows a stronger one.
type Resolver struct {
	tables [numForms]map[string]string
}

// NewResolver indexes notes by every synonym of their relative path, vault
// path and title. The first note registering a key keeps it.
func NewResolver(notes []models.PublishableNote) *Resolver {
	r := &Resolver{}
	for i := range r.tables {
		r.tables[i] = make(map[string]string, len(notes))
	}
	for _, n := range notes {
		for _, p := range []string{n.RelativePath, n.VaultPath} {
			if p == "" {
				continue
			}
			r.register(n.NoteID, noteKeys(p))
		}
		r.add(formSlugTitle, slug.Slugify(n.Title), n.NoteID)
	}
	return r
}

// Len reports how many distinct keys are indexed.
func (r *Resolver) Len() int {
	n := 0
	for _, t := range r.tables {
		n += len(t)
	}
	return n
}

// Lookup probes the index with the synonyms of target and returns the id of
// the first hit.
func (r *Resolver) Lookup(target string) (string, bool) {
	probes := linkKeys(target)
	for form := keyForm(0); form < numForms; form++ {
		for _, k := range probes[form] {
			if k == "" {
				continue
			}
			if id, ok := r.tables[form][k]; ok {
				return id, true
			}
		}
	}
	return "", false
}

// Resolve looks up link on behalf of the note selfID. A link with only a
// subpath points at its own note. Href is left empty for routing to fill.
func (r *Resolver) Resolve(link models.WikilinkRef, selfID string) models.ResolvedWikilink {
	out := models.ResolvedWikilink{WikilinkRef: link}
	if link.Path == "" {
		if link.Subpath != "" && selfID != "" {
			out.IsResolved = true
			out.TargetNoteID = selfID
		}
		return out
	}
	if id, ok := r.Lookup(link.Path); ok {
		out.IsResolved = true
		out.TargetNoteID = id
	}
	return out
}

// ResolveAll resolves every link of a note.
func (r *Resolver) ResolveAll(links []models.WikilinkRef, selfID string) []models.ResolvedWikilink {
	out := make([]models.ResolvedWikilink, len(links))
	for i, l := range links {
		out[i] = r.Resolve(l, selfID)
	}
	return out
}

func (r *Resolver) register(id string, keys [numForms][]string) {
	for form, ks := range keys {
		for _, k := range ks {
			r.add(keyForm(form), k, id)
		}
	}
}

func (r *Resolver) add(form keyForm, key, id string) {
	if key == "" {
		return
	}
	if _, taken := r.tables[form][key]; !taken {
		r.tables[form][key] = id
	}
}

func noteKeys(relPath string) [numForms][]string {
	p := slug.Key(relPath)
	base := path.Base(p)
	var keys [numForms][]string
	keys[formFullPath] = []string{p}
	keys[formPathNoExt] = []string{slug.StripExt(p)}
	keys[formBase] = []string{base}
	keys[formBaseNoExt] = []string{slug.StripExt(base)}
	keys[formSlugPath] = []string{slug.Path(slug.StripExt(p))}
	keys[formSlugBase] = []string{slug.Slugify(slug.StripExt(base))}
	return keys
}

func linkKeys(target string) [numForms][]string {
	p := strings.Trim(slug.Key(target), "/")
	base := path.Base(p)

	withExt := func(s string) []string {
		if strings.HasSuffix(s, markdownExt) {
			return []string{s}
		}
		return []string{s, s + markdownExt}
	}

	var keys [numForms][]string
	keys[formFullPath] = withExt(p)
	keys[formPathNoExt] = []string{p, slug.StripExt(p)}
	keys[formBase] = withExt(base)
	keys[formBaseNoExt] = []string{base, slug.StripExt(base)}
	// Targets already written in slug form are probed verbatim as well,
	// since slugifying them again would drop their hyphens.
	keys[formSlugPath] = []string{slug.Path(slug.StripExt(p)), p}
	keys[formSlugBase] = []string{slug.Slugify(slug.StripExt(base)), base}
	keys[formSlugTitle] = []string{slug.Slugify(p), slug.Slugify(slug.StripExt(base)), base}
	return keys
}
