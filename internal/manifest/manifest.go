// Package manifest merges published pages into the site manifest and
// rebuilds the folder index from it.
package manifest

import (
	"context"
	"sort"
	"time"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/models"
)

// Port persists the manifest and the derived folder index. Implementations
// live in storage (files), index (SQLite) and redisstore (Redis).
type Port interface {
	// Load returns the current manifest, or nil when none exists.
	Load(ctx context.Context) (*models.Manifest, error)
	// Save replaces the stored manifest.
	Save(ctx context.Context, m *models.Manifest) error
	// RebuildIndex replaces every stored folder document with those derived
	// from m.
	RebuildIndex(ctx context.Context, m *models.Manifest) error
}

// Store is a Port that can also serve the folder documents it last
// rebuilt. Folder returns apperr.ErrNotFound for unknown paths.
type Store interface {
	Port
	Folder(ctx context.Context, path string) (models.FolderIndex, error)
}

// New returns an empty manifest for sessionID.
func New(sessionID string, now time.Time) *models.Manifest {
	return &models.Manifest{
		SessionID:     sessionID,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Pages:         []models.ManifestPage{},
	}
}

// Merge returns base with pages upserted by id (later entries win) and
// sorted newest first. base is not modified.
func Merge(base *models.Manifest, pages []models.ManifestPage, now time.Time) *models.Manifest {
	byID := make(map[string]int, len(base.Pages)+len(pages))
	merged := make([]models.ManifestPage, 0, len(base.Pages)+len(pages))

	for _, list := range [][]models.ManifestPage{base.Pages, pages} {
		for _, p := range list {
			if i, ok := byID[p.ID]; ok {
				merged[i] = p
				continue
			}
			byID[p.ID] = len(merged)
			merged = append(merged, p)
		}
	}
	SortPages(merged)

	return &models.Manifest{
		SessionID:     base.SessionID,
		CreatedAt:     base.CreatedAt,
		LastUpdatedAt: now,
		Pages:         merged,
	}
}

// SortPages orders pages by PublishedAt descending. Equal timestamps fall
// back to route, then id, ascending.
func SortPages(pages []models.ManifestPage) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		return a.ID < b.ID
	})
}

// Update loads the manifest from port, starts a fresh one when it belongs to
// another session, merges pages, saves it and rebuilds the folder index.
// Every port failure is returned as *apperr.ManifestError.
func Update(ctx context.Context, port Port, sessionID string, pages []models.ManifestPage, now time.Time) (*models.Manifest, error) {
	current, err := port.Load(ctx)
	if err != nil {
		return nil, &apperr.ManifestError{Op: "load", Err: err}
	}
	if current == nil || current.SessionID != sessionID {
		current = New(sessionID, now)
	}

	next := Merge(current, pages, now)

	if err := port.Save(ctx, next); err != nil {
		return nil, &apperr.ManifestError{Op: "save", Err: err}
	}
	if err := port.RebuildIndex(ctx, next); err != nil {
		return nil, &apperr.ManifestError{Op: "rebuild index", Err: err}
	}
	return next, nil
}
