//go:build sqlite_fts5

package index

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/notepress/internal/manifest"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages_fts`).Scan(&count); err != nil {
		t.Fatalf("pages_fts table missing: %v", err)
	}
}

func TestFTS5_SnippetAndDiacritics(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	pages := samplePages()
	pages[0].Title = "Café Concurrency"
	if _, err := manifest.Update(ctx, db, "s1", pages, t0); err != nil {
		t.Fatal(err)
	}

	results, err := db.Search(ctx, "cafe", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFTS5_SaveReplacesContent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := manifest.Update(ctx, db, "s1", samplePages(), t0); err != nil {
		t.Fatal(err)
	}
	if _, err := manifest.Update(ctx, db, "s2", samplePages()[:1], t0); err != nil {
		t.Fatal(err)
	}

	results, _ := db.Search(ctx, "sourdough", 10)
	if len(results) != 0 {
		t.Errorf("old FTS content should be gone: %+v", results)
	}
	results, _ = db.Search(ctx, "blog", 10)
	if len(results) != 1 {
		t.Errorf("route terms not indexed: %+v", results)
	}
}

func TestMatchQuery(t *testing.T) {
	cases := map[string]string{
		"garden":      `"garden"*`,
		"blog/garden": `"blog"* "garden"*`,
		`say "hi"`:    `"say"* """hi"""*`,
		" / ":         "",
	}
	for in, want := range cases {
		if got := matchQuery(in); got != want {
			t.Errorf("matchQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
