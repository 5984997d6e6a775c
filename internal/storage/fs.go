package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/starford/notepress/internal/apperr"
)

// FS implements Provider on top of an afero file system. Every path is
// relative to root and may not escape it.
type FS struct {
	fs   afero.Fs
	root string
}

// NewOsFS returns an FS rooted at dir on the local disk. The directory is
// created when missing.
func NewOsFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return NewFS(afero.NewOsFs(), abs)
}

// NewFS returns an FS rooted at root inside fsys.
func NewFS(fsys afero.Fs, root string) (*FS, error) {
	root = filepath.Clean(root)
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", root)
	}
	return &FS{fs: fsys, root: root}, nil
}

// Root returns the root directory.
func (f *FS) Root() string { return f.root }

// Afero exposes the underlying file system, e.g. for serving it over HTTP.
func (f *FS) Afero() afero.Fs { return f.fs }

// safePath resolves rel against root and rejects any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" || rel == "." || rel == "/" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", rel, apperr.ErrInvalidPath)
	}
	joined := filepath.Join(f.root, cleaned)
	if joined != f.root && !strings.HasPrefix(joined, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes root: %s: %w", rel, apperr.ErrInvalidPath)
	}
	return joined, nil
}

// List walks dir and returns the slash-separated paths, relative to root,
// of every file with extension ext, or of every file when ext is "*". The
// result is sorted.
func (f *FS) List(dir, ext string) ([]string, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	if ok, _ := afero.DirExists(f.fs, base); !ok {
		return nil, nil
	}
	var out []string
	err = afero.Walk(f.fs, base, func(p string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if p != base && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ext != AnyExt && !strings.EqualFold(filepath.Ext(info.Name()), ext) {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// Read returns the contents of a file. A missing file reports
// apperr.ErrNotFound.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically replaces path with content: temp file, sync, rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := afero.TempFile(f.fs, dir, ".notepress-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = f.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := f.fs.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes a file. Removing a missing file is not an error.
func (f *FS) Remove(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := f.fs.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names an existing file.
func (f *FS) Exists(path string) (bool, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return false, err
	}
	return afero.Exists(f.fs, abs)
}
