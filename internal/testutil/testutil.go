// Package testutil provides shared test helpers for setting up vaults, sites and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/spf13/afero"

	"github.com/starford/notepress/internal/index"
	"github.com/starford/notepress/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notepress-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MemDirs returns an in-memory vault seeded with files and an empty site
// directory on the same file system.
func MemDirs(t *testing.T, files map[string]string) (vault, site *storage.FS) {
	t.Helper()
	mem := afero.NewMemMapFs()
	vault, err := storage.NewFS(mem, "/vault")
	if err != nil {
		t.Fatal(err)
	}
	site, err = storage.NewFS(mem, "/site")
	if err != nil {
		t.Fatal(err)
	}
	for p, body := range files {
		if err := vault.Write(p, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	return vault, site
}

// TestVault creates a temporary on-disk vault directory.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewOsFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}
