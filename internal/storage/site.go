package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/checksum"
	"github.com/starford/notepress/internal/manifest"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/pipeline"
)

// Site file names.
const (
	ManifestFile  = "_manifest.json"
	FolderJSON    = "_index.json"
	FolderHTML    = "_index.html"
	PageExtension = ".html"
)

// PagePath maps a route to its file inside the site root.
func PagePath(route string) string {
	return strings.TrimPrefix(path.Clean("/"+route), "/") + PageExtension
}

// FolderPath maps a folder path to the directory holding its documents.
func FolderPath(folder string) string {
	return strings.TrimPrefix(path.Clean("/"+folder), "/")
}

// ContentStore writes rendered pages into the site.
type ContentStore struct {
	fs Provider
}

// NewContentStore returns a ContentStore writing through fs.
func NewContentStore(fs Provider) *ContentStore {
	return &ContentStore{fs: fs}
}

// Save writes page to <route>.html. An identical existing file is kept.
func (s *ContentStore) Save(ctx context.Context, page pipeline.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if page.Route == "" {
		return fmt.Errorf("storage: page %s has no route: %w", page.NoteID, apperr.ErrInvalidPath)
	}
	p := PagePath(page.Route)
	if old, err := s.fs.Read(p); err == nil && checksum.Same(old, page.HTML) {
		return nil
	}
	return s.fs.Write(p, page.HTML)
}

// Page returns the stored HTML for route.
func (s *ContentStore) Page(route string) ([]byte, error) {
	return s.fs.Read(PagePath(route))
}

// FolderRenderer turns a folder document into an HTML page.
type FolderRenderer func(doc models.FolderIndex) ([]byte, error)

// ManifestStore keeps the manifest and the folder documents as files next
// to the pages. It implements manifest.Store.
type ManifestStore struct {
	fs     Provider
	render FolderRenderer
}

var _ manifest.Store = (*ManifestStore)(nil)

// NewManifestStore returns a store writing through fs. A nil render skips
// the HTML folder pages.
func NewManifestStore(fs Provider, render FolderRenderer) *ManifestStore {
	return &ManifestStore{fs: fs, render: render}
}

// Load reads the manifest. A site without one yields nil.
func (s *ManifestStore) Load(_ context.Context) (*models.Manifest, error) {
	data, err := s.fs.Read(ManifestFile)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("storage: decode manifest: %w", err)
	}
	return &m, nil
}

// Save replaces the manifest file.
func (s *ManifestStore) Save(_ context.Context, m *models.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode manifest: %w", err)
	}
	return s.fs.Write(ManifestFile, data)
}

// RebuildIndex writes every folder document derived from m and removes the
// documents of folders that no longer exist.
func (s *ManifestStore) RebuildIndex(ctx context.Context, m *models.Manifest) error {
	docs := manifest.Documents(m)
	keep := make(map[string]struct{}, len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := FolderPath(doc.Path)
		keep[path.Join(dir, FolderJSON)] = struct{}{}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("storage: encode folder %s: %w", doc.Path, err)
		}
		if err := s.fs.Write(path.Join(dir, FolderJSON), data); err != nil {
			return err
		}
		if s.render == nil {
			continue
		}
		html, err := s.render(doc)
		if err != nil {
			return fmt.Errorf("storage: render folder %s: %w", doc.Path, err)
		}
		if err := s.fs.Write(path.Join(dir, FolderHTML), html); err != nil {
			return err
		}
	}

	existing, err := s.fs.List("", path.Ext(FolderJSON))
	if err != nil {
		return err
	}
	for _, p := range existing {
		if path.Base(p) != FolderJSON {
			continue
		}
		if _, ok := keep[p]; ok {
			continue
		}
		if err := s.fs.Remove(p); err != nil {
			return err
		}
		if err := s.fs.Remove(path.Join(path.Dir(p), FolderHTML)); err != nil {
			return err
		}
	}
	return nil
}

// Folder reads the stored document of one folder.
func (s *ManifestStore) Folder(_ context.Context, folder string) (models.FolderIndex, error) {
	data, err := s.fs.Read(path.Join(FolderPath(folder), FolderJSON))
	if err != nil {
		return models.FolderIndex{}, err
	}
	var doc models.FolderIndex
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.FolderIndex{}, fmt.Errorf("storage: decode folder %s: %w", folder, err)
	}
	return doc, nil
}
