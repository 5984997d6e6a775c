package collector

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/storage"
)

func vault(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(afero.NewMemMapFs(), "/vault")
	if err != nil {
		t.Fatal(err)
	}
	for p, body := range files {
		if err := fs.Write(p, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestCollect(t *testing.T) {
	src := vault(t, map[string]string{
		"Blog/First Post.md": "---\ntitle: Hello\npublish: true\n---\nBody",
		"Blog/Sub/Second.md": "# Heading Title\ntext",
		"Blog/image.png":     "binary",
		"Docs/Guide.md":      "guide",
		"Private/diary.md":   "secret",
	})
	c := New(src, []models.FolderConfig{
		{VaultFolder: "Blog", RouteBase: "/blog"},
		{VaultFolder: "Docs/", RouteBase: "/docs"},
	}, nil)

	notes, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 3 {
		t.Fatalf("notes = %+v", notes)
	}

	first := notes[0]
	if first.VaultPath != "Blog/First Post.md" || first.RelativePath != "First Post.md" {
		t.Errorf("paths = %q, %q", first.VaultPath, first.RelativePath)
	}
	if first.Title != "Hello" || first.Content != "Body" || first.RawFrontmatter["publish"] != true {
		t.Errorf("first = %+v", first)
	}
	if first.Folder.RouteBase != "/blog" {
		t.Errorf("folder = %+v", first.Folder)
	}

	if notes[1].RelativePath != "Sub/Second.md" || notes[1].Title != "Heading Title" {
		t.Errorf("second = %+v", notes[1])
	}
	if notes[2].RelativePath != "Guide.md" || notes[2].Title != "Guide" {
		t.Errorf("third = %+v", notes[2])
	}
}

func TestCollect_OverlappingFoldersFirstWins(t *testing.T) {
	src := vault(t, map[string]string{"Blog/Sub/a.md": "a"})
	c := New(src, []models.FolderConfig{
		{VaultFolder: "Blog/Sub", RouteBase: "/sub"},
		{VaultFolder: "Blog", RouteBase: "/blog"},
	}, nil)
	notes, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Folder.RouteBase != "/sub" || notes[0].RelativePath != "a.md" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestNoteID_Stable(t *testing.T) {
	a, b := NoteID("Blog/a.md"), NoteID("Blog/a.md")
	if a != b || a == NoteID("Blog/b.md") {
		t.Errorf("ids: %s %s", a, b)
	}
}
