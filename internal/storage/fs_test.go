package storage

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/starford/notepress/internal/apperr"
)

func memFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(afero.NewMemMapFs(), "/site")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := memFS(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := memFS(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := memFS(t)
	_ = s.Write("x.html", []byte("1"))
	_ = s.Write("x.html", []byte("2"))

	entries, err := afero.ReadDir(s.Afero(), "/site")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "x.html" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("entries = %v", names)
	}
}

func TestReadMissing(t *testing.T) {
	s := memFS(t)
	if _, err := s.Read("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	s := memFS(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Remove("del.md"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := s.Exists("del.md"); ok {
		t.Error("file still exists")
	}
	if err := s.Remove("del.md"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestList(t *testing.T) {
	s := memFS(t)
	for _, p := range []string{"b.md", "a/c.md", "a/d.txt", ".obsidian/x.md", "a/E.MD"} {
		if err := s.Write(p, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.List("", ".md")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a/E.MD", "a/c.md", "b.md"}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	sub, err := s.List("a", ".md")
	if err != nil || len(sub) != 2 {
		t.Errorf("List(a) = %v, %v", sub, err)
	}
	if none, err := s.List("missing", ".md"); err != nil || len(none) != 0 {
		t.Errorf("List(missing) = %v, %v", none, err)
	}
}

func TestPathTraversal(t *testing.T) {
	s := memFS(t)
	cases := []string{
		"../etc/passwd",
		"../../secret",
		"a/../../escape",
		"/etc/passwd",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Write(p, []byte("x")); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Write(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
}
