package manifest

import (
	"path"
	"sort"
	"strings"

	"github.com/starford/notepress/internal/models"
)

// RootPath is the folder path of the site root.
const RootPath = "/"

// Node is one folder of the derived index tree.
type Node struct {
	Path       string
	Pages      []models.ManifestPage
	Subfolders map[string]struct{}
}

// Tree maps folder paths to their nodes. It is always rebuilt from scratch.
type Tree map[string]*Node

// BuildTree derives the folder tree from pages by splitting every route on
// "/". Intermediate segments register as subfolders of their parent; each
// page is attached to its immediate parent folder.
func BuildTree(pages []models.ManifestPage) Tree {
	t := Tree{}
	t.node(RootPath)

	for _, p := range pages {
		segments := splitRoute(p.Route)
		parent := RootPath
		for i := 0; i < len(segments)-1; i++ {
			child := path.Join(parent, segments[i])
			t.node(parent).Subfolders[segments[i]] = struct{}{}
			t.node(child)
			parent = child
		}
		n := t.node(parent)
		n.Pages = append(n.Pages, p)
	}
	return t
}

// FolderOf returns the folder a route is listed under.
func FolderOf(route string) string {
	segments := splitRoute(route)
	if len(segments) <= 1 {
		return RootPath
	}
	return "/" + strings.Join(segments[:len(segments)-1], "/")
}

// Document renders the index document for one folder.
func (t Tree) Document(folder string) (models.FolderIndex, bool) {
	n, ok := t[folder]
	if !ok {
		return models.FolderIndex{}, false
	}

	doc := models.FolderIndex{
		Path:       n.Path,
		Subfolders: make([]models.FolderEntry, 0, len(n.Subfolders)),
		Pages:      make([]models.PageEntry, 0, len(n.Pages)),
	}

	names := make([]string, 0, len(n.Subfolders))
	for name := range n.Subfolders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		link := path.Join(n.Path, name)
		count := 0
		if child, ok := t[link]; ok {
			count = len(child.Pages) + len(child.Subfolders)
		}
		doc.Subfolders = append(doc.Subfolders, models.FolderEntry{Name: name, Link: link, Count: count})
	}

	pages := append([]models.ManifestPage(nil), n.Pages...)
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Title != pages[j].Title {
			return pages[i].Title < pages[j].Title
		}
		return pages[i].Route < pages[j].Route
	})
	for _, p := range pages {
		doc.Pages = append(doc.Pages, models.PageEntry{Title: p.Title, Route: p.Route, Slug: p.Slug})
	}
	return doc, true
}

// Documents renders every folder, root first, then by path.
func (t Tree) Documents() []models.FolderIndex {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]models.FolderIndex, 0, len(paths))
	for _, p := range paths {
		doc, _ := t.Document(p)
		out = append(out, doc)
	}
	return out
}

// Documents is a shorthand for BuildTree(m.Pages).Documents().
func Documents(m *models.Manifest) []models.FolderIndex {
	if m == nil {
		return BuildTree(nil).Documents()
	}
	return BuildTree(m.Pages).Documents()
}

func (t Tree) node(p string) *Node {
	n, ok := t[p]
	if !ok {
		n = &Node{Path: p, Subfolders: map[string]struct{}{}}
		t[p] = n
	}
	return n
}

func splitRoute(route string) []string {
	var out []string
	for _, s := range strings.Split(route, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
