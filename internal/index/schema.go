// Package index stores the site manifest and folder documents in SQLite and
// offers search over published pages, with FTS5 when compiled in.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS manifest (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	session_id      TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	last_updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	id            TEXT PRIMARY KEY,
	position      INTEGER NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	route         TEXT NOT NULL,
	slug          TEXT NOT NULL DEFAULT '',
	published_at  DATETIME NOT NULL,
	vault_path    TEXT NOT NULL DEFAULT '',
	relative_path TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_pages_route ON pages(route);

CREATE TABLE IF NOT EXISTS folders (
	path TEXT PRIMARY KEY,
	doc  TEXT NOT NULL
);
`

// DB wraps a sql.DB holding one site manifest.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
