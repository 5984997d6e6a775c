// Package routing computes the public URL of every note and back-patches
// resolved wikilinks with the URL of their target.
package routing

import (
	"path"
	"strings"

	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/slug"
)

// NormalizeRouteBase returns base with exactly one leading slash and no
// trailing slash. The empty base is "/".
func NormalizeRouteBase(base string) string {
	b := strings.Trim(strings.ReplaceAll(strings.TrimSpace(base), "\\", "/"), "/")
	if b == "" {
		return "/"
	}
	return collapseSlashes(b)
}

// Compute derives the routing of one note from its folder route base and
// its path relative to that folder.
func Compute(routeBase, relativePath string) models.Routing {
	base := NormalizeRouteBase(routeBase)
	rel := strings.Trim(strings.ReplaceAll(strings.TrimSpace(relativePath), "\\", "/"), "/")

	var segments []string
	for _, s := range strings.Split(rel, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	r := models.Routing{RouteBase: base}
	if len(segments) == 0 {
		r.Slug = slug.Fallback
		r.FullPath = collapseSlashes(base + "/" + r.Slug)
		return r
	}

	last := segments[len(segments)-1]
	r.Slug = slug.Slugify(slug.StripExt(last))
	if r.Slug == "" {
		r.Slug = slug.Fallback
	}
	r.Path = slug.Path(strings.Join(segments[:len(segments)-1], "/"))
	r.FullPath = collapseSlashes(base + "/" + r.Path + "/" + r.Slug)
	return r
}

// Route assigns routing to every note. Two notes may receive the same
// FullPath; no collision handling happens here.
func Route(notes []models.PublishableNote) []models.PublishableNote {
	out := make([]models.PublishableNote, len(notes))
	for i, n := range notes {
		n.Routing = Compute(n.Folder.RouteBase, n.RelativePath)
		out[i] = n
	}
	return out
}

// FullPaths maps note ids to their computed full path. When ids repeat the
// latest note wins.
func FullPaths(notes []models.PublishableNote) map[string]string {
	m := make(map[string]string, len(notes))
	for _, n := range notes {
		m[n.NoteID] = n.Routing.FullPath
	}
	return m
}

// PatchLinks sets Href on every resolved link whose target is in fullPaths.
// It is a separate pass because routing runs after resolution.
func PatchLinks(notes []models.PublishableNote, fullPaths map[string]string) []models.PublishableNote {
	out := make([]models.PublishableNote, len(notes))
	for i, n := range notes {
		links := make([]models.ResolvedWikilink, len(n.Links))
		for j, l := range n.Links {
			if l.TargetNoteID != "" {
				if target, ok := fullPaths[l.TargetNoteID]; ok {
					l.Href = Href(target, l.Subpath)
				}
			}
			links[j] = l
		}
		n.Links = links
		out[i] = n
	}
	return out
}

// Href joins a target path and an optional heading or block subpath.
func Href(fullPath, subpath string) string {
	if subpath == "" {
		return fullPath
	}
	return fullPath + "#" + subpath
}

// collapseSlashes returns p rooted at "/" with duplicate and trailing
// slashes removed.
func collapseSlashes(p string) string {
	return path.Clean("/" + p)
}
