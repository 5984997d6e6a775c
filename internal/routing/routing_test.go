package routing

import (
	"testing"

	"github.com/starford/notepress/internal/models"
)

func TestNormalizeRouteBase(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"blog":    "/blog",
		"/blog/":  "/blog",
		"//a//b/": "/a/b",
		`docs\v1`: "/docs/v1",
	}
	for in, want := range cases {
		if got := NormalizeRouteBase(in); got != want {
			t.Errorf("NormalizeRouteBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompute(t *testing.T) {
	cases := []struct {
		base, rel string
		want      models.Routing
	}{
		{"/blog", "Sub Folder/My Note.md", models.Routing{
			Slug: "my-note", Path: "sub-folder", RouteBase: "/blog", FullPath: "/blog/sub-folder/my-note",
		}},
		{"", "Top.md", models.Routing{
			Slug: "top", Path: "", RouteBase: "/", FullPath: "/top",
		}},
		{"/docs/", "", models.Routing{
			Slug: "index", RouteBase: "/docs", FullPath: "/docs/index",
		}},
		{"/x", `A\B C\Été.md`, models.Routing{
			Slug: "ete", Path: "a/b-c", RouteBase: "/x", FullPath: "/x/a/b-c/ete",
		}},
		{"/x", "日本/語.md", models.Routing{
			Slug: "index", Path: "", RouteBase: "/x", FullPath: "/x/index",
		}},
	}
	for _, tc := range cases {
		if got := Compute(tc.base, tc.rel); got != tc.want {
			t.Errorf("Compute(%q, %q) = %+v, want %+v", tc.base, tc.rel, got, tc.want)
		}
	}
}

func TestRouteAndPatchLinks(t *testing.T) {
	notes := []models.PublishableNote{
		{
			CollectedNote: models.CollectedNote{
				NoteID: "a", RelativePath: "A.md", Folder: models.FolderConfig{RouteBase: "/blog"},
			},
			Links: []models.ResolvedWikilink{
				{WikilinkRef: models.WikilinkRef{Path: "Folder/Note B.md", Alias: "Display"}, IsResolved: true, TargetNoteID: "b"},
				{WikilinkRef: models.WikilinkRef{Path: "Note B", Subpath: "Intro"}, IsResolved: true, TargetNoteID: "b"},
				{WikilinkRef: models.WikilinkRef{Path: "Nope"}},
			},
		},
		{
			CollectedNote: models.CollectedNote{
				NoteID: "b", RelativePath: "Folder/Note B.md", Folder: models.FolderConfig{RouteBase: "/blog"},
			},
		},
	}

	routed := Route(notes)
	patched := PatchLinks(routed, FullPaths(routed))

	b := patched[1].Routing.FullPath
	if b != "/blog/folder/note-b" {
		t.Fatalf("note b fullPath = %q", b)
	}
	links := patched[0].Links
	if links[0].Href != b {
		t.Errorf("href = %q, want %q", links[0].Href, b)
	}
	if links[1].Href != b+"#Intro" {
		t.Errorf("subpath href = %q", links[1].Href)
	}
	if links[2].Href != "" {
		t.Errorf("unresolved link got href %q", links[2].Href)
	}
	if notes[0].Links[0].Href != "" {
		t.Error("input notes were modified")
	}
}
