package index

import (
	"context"

	"github.com/starford/notepress/internal/manifest"
)

// Searcher finds published pages by text.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Verify *DB satisfies the store and search interfaces at compile time.
var (
	_ manifest.Store = (*DB)(nil)
	_ Searcher       = (*DB)(nil)
)
