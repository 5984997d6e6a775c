//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/notepress/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
			id UNINDEXED,
			title,
			route,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(ctx context.Context, tx *sql.Tx, p models.ManifestPage) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO pages_fts (id, title, route, tags) VALUES (?, ?, ?, ?)`,
		p.ID, p.Title, strings.ReplaceAll(p.Route, "/", " "), strings.Join(p.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 query over published pages and returns matches
// with a highlighted title snippet.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	match := matchQuery(query)
	if match == "" {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.id,
		       p.title,
		       p.route,
		       snippet(pages_fts, 1, '<b>', '</b>', '...', 16)
		FROM pages_fts f
		JOIN pages p ON p.id = f.id
		WHERE pages_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Route, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// matchQuery turns free text into an FTS5 expression: every word becomes a
// quoted prefix term so punctuation such as "/" or "-" cannot break the
// query syntax.
func matchQuery(q string) string {
	words := strings.FieldsFunc(q, func(r rune) bool {
		return r == ' ' || r == '/' || r == '\t'
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}
