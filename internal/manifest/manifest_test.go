package manifest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/models"
)

// memPort is an in-memory Port that records the last rebuilt index.
type memPort struct {
	m       *models.Manifest
	docs    []models.FolderIndex
	saveErr error
}

func (p *memPort) Load(context.Context) (*models.Manifest, error) { return p.m, nil }

func (p *memPort) Save(_ context.Context, m *models.Manifest) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.m = m
	return nil
}

func (p *memPort) RebuildIndex(_ context.Context, m *models.Manifest) error {
	p.docs = Documents(m)
	return nil
}

func page(id, route, title string, at time.Time) models.ManifestPage {
	return models.ManifestPage{ID: id, Route: route, Title: title, PublishedAt: at, Tags: []string{}}
}

func TestUpdate_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	port := &memPort{}
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if _, err := Update(ctx, port, "s1", []models.ManifestPage{page("n1", "/blog/a", "Old", t0)}, t0); err != nil {
		t.Fatal(err)
	}
	m, err := Update(ctx, port, "s1", []models.ManifestPage{page("n1", "/blog/a", "New", t0.Add(time.Minute))}, t0.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Pages) != 1 || m.Pages[0].Title != "New" {
		t.Fatalf("pages = %+v", m.Pages)
	}
	if !m.CreatedAt.Equal(t0) || !m.LastUpdatedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("timestamps = %v / %v", m.CreatedAt, m.LastUpdatedAt)
	}

	for _, doc := range port.docs {
		seen := map[string]bool{}
		for _, f := range doc.Subfolders {
			if seen[f.Name] {
				t.Errorf("duplicate folder %q in %s", f.Name, doc.Path)
			}
			seen[f.Name] = true
		}
		if doc.Path == "/blog" && len(doc.Pages) != 1 {
			t.Errorf("/blog pages = %+v", doc.Pages)
		}
	}
}

func TestUpdate_NewSessionResets(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	port := &memPort{m: &models.Manifest{
		SessionID: "old",
		CreatedAt: t0.Add(-time.Hour),
		Pages:     []models.ManifestPage{page("x", "/x", "X", t0)},
	}}

	m, err := Update(ctx, port, "new", []models.ManifestPage{page("y", "/y", "Y", t0)}, t0)
	if err != nil {
		t.Fatal(err)
	}
	if m.SessionID != "new" || len(m.Pages) != 1 || m.Pages[0].ID != "y" {
		t.Errorf("manifest = %+v", m)
	}
	if !m.CreatedAt.Equal(t0) {
		t.Errorf("createdAt = %v, want %v", m.CreatedAt, t0)
	}
}

func TestUpdate_SaveFailure(t *testing.T) {
	port := &memPort{saveErr: errors.New("disk full")}
	_, err := Update(context.Background(), port, "s", nil, time.Now())

	var me *apperr.ManifestError
	if !errors.As(err, &me) || me.Op != "save" {
		t.Fatalf("err = %v, want ManifestError(save)", err)
	}
	if port.docs != nil {
		t.Error("index must not be rebuilt after a failed save")
	}
}

func TestSortPages_TieBreak(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pages := []models.ManifestPage{
		page("b", "/b", "B", t0),
		page("c", "/c", "C", t0.Add(time.Hour)),
		page("a", "/a", "A", t0),
	}
	SortPages(pages)
	got := []string{pages[0].ID, pages[1].ID, pages[2].ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBuildTree_RootListsFoldersOnly(t *testing.T) {
	t0 := time.Now()
	tree := BuildTree([]models.ManifestPage{
		page("1", "/blog/a", "a", t0),
		page("2", "/blog/b", "b", t0),
		page("3", "/docs/c", "c", t0),
	})

	root, ok := tree.Document(RootPath)
	if !ok {
		t.Fatal("missing root")
	}
	if len(root.Pages) != 0 {
		t.Errorf("root pages = %+v", root.Pages)
	}
	if len(root.Subfolders) != 2 || root.Subfolders[0].Name != "blog" || root.Subfolders[1].Name != "docs" {
		t.Fatalf("root subfolders = %+v", root.Subfolders)
	}
	if root.Subfolders[0].Link != "/blog" || root.Subfolders[0].Count != 2 {
		t.Errorf("blog entry = %+v", root.Subfolders[0])
	}

	blog, _ := tree.Document("/blog")
	if len(blog.Subfolders) != 0 {
		t.Errorf("/blog subfolders = %+v", blog.Subfolders)
	}
	if len(blog.Pages) != 2 || blog.Pages[0].Title != "a" || blog.Pages[1].Title != "b" {
		t.Errorf("/blog pages = %+v", blog.Pages)
	}
}

func TestBuildTree_DeepAndPrunes(t *testing.T) {
	t0 := time.Now()
	tree := BuildTree([]models.ManifestPage{
		page("1", "/a/b/c/leaf", "Leaf", t0),
		page("2", "/top", "Top", t0),
	})
	docs := tree.Documents()
	wantPaths := []string{"/", "/a", "/a/b", "/a/b/c"}
	if len(docs) != len(wantPaths) {
		t.Fatalf("docs = %+v", docs)
	}
	for i, p := range wantPaths {
		if docs[i].Path != p {
			t.Errorf("docs[%d].Path = %q, want %q", i, docs[i].Path, p)
		}
	}
	if docs[0].Subfolders[0].Count != 1 || len(docs[0].Pages) != 1 {
		t.Errorf("root = %+v", docs[0])
	}

	// Removing the deep page drops its folders on the next rebuild.
	tree = BuildTree([]models.ManifestPage{page("2", "/top", "Top", t0)})
	if len(tree.Documents()) != 1 {
		t.Errorf("stale folders survived: %+v", tree.Documents())
	}
}

func TestFolderOf(t *testing.T) {
	cases := map[string]string{
		"/blog/a":   "/blog",
		"/a":        "/",
		"/x/y/z":    "/x/y",
		"":          "/",
	}
	for in, want := range cases {
		if got := FolderOf(in); got != want {
			t.Errorf("FolderOf(%q) = %q, want %q", in, got, want)
		}
	}
}
