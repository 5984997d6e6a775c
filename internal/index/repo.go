package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/manifest"
	"github.com/starford/notepress/internal/models"
)

// SearchResult is one page matching a search.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Route   string `json:"route"`
	Snippet string `json:"snippet"`
}

const defaultSearchLimit = 20

// Load returns the stored manifest, or nil when none has been saved.
func (db *DB) Load(ctx context.Context) (*models.Manifest, error) {
	var m models.Manifest
	err := db.conn.QueryRowContext(ctx,
		`SELECT session_id, created_at, last_updated_at FROM manifest WHERE id = 1`,
	).Scan(&m.SessionID, &m.CreatedAt, &m.LastUpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: load manifest: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, route, slug, published_at, vault_path, relative_path, tags
		FROM pages ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("index: load pages: %w", err)
	}
	defer rows.Close()

	m.Pages = []models.ManifestPage{}
	for rows.Next() {
		var (
			p    models.ManifestPage
			tags string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Route, &p.Slug, &p.PublishedAt, &p.VaultPath, &p.RelativePath, &tags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil || p.Tags == nil {
			p.Tags = []string{}
		}
		m.Pages = append(m.Pages, p)
	}
	return &m, rows.Err()
}

// Save replaces the stored manifest and its pages in one transaction.
func (db *DB) Save(ctx context.Context, m *models.Manifest) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO manifest (id, session_id, created_at, last_updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id      = excluded.session_id,
			created_at      = excluded.created_at,
			last_updated_at = excluded.last_updated_at
	`, m.SessionID, m.CreatedAt.UTC(), m.LastUpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: save manifest: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("index: clear pages: %w", err)
	}
	if err := ftsClear(ctx, tx); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (id, position, title, route, slug, published_at, vault_path, relative_path, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range m.Pages {
		tagsJSON, _ := json.Marshal(p.Tags)
		if _, err := stmt.ExecContext(ctx, p.ID, i, p.Title, p.Route, p.Slug, p.PublishedAt.UTC(), p.VaultPath, p.RelativePath, string(tagsJSON)); err != nil {
			return fmt.Errorf("index: insert page %s: %w", p.ID, err)
		}
		if err := ftsInsert(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RebuildIndex replaces every folder document with those derived from m.
func (db *DB) RebuildIndex(ctx context.Context, m *models.Manifest) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM folders`); err != nil {
		return fmt.Errorf("index: clear folders: %w", err)
	}
	for _, doc := range manifest.Documents(m) {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("index: encode folder %s: %w", doc.Path, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO folders (path, doc) VALUES (?, ?)`, doc.Path, string(data)); err != nil {
			return fmt.Errorf("index: insert folder %s: %w", doc.Path, err)
		}
	}
	return tx.Commit()
}

// Folder returns the stored document of one folder.
func (db *DB) Folder(ctx context.Context, path string) (models.FolderIndex, error) {
	var data string
	err := db.conn.QueryRowContext(ctx, `SELECT doc FROM folders WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FolderIndex{}, fmt.Errorf("index: folder %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return models.FolderIndex{}, fmt.Errorf("index: folder %s: %w", path, err)
	}
	var doc models.FolderIndex
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return models.FolderIndex{}, fmt.Errorf("index: decode folder %s: %w", path, err)
	}
	return doc, nil
}

// Folders lists the paths of every stored folder document.
func (db *DB) Folders(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path FROM folders ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: folders: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
