// Package redisstore keeps the site manifest and folder documents in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/manifest"
	"github.com/starford/notepress/internal/models"
)

const (
	KeyManifest = "manifest" // STRING. JSON encoded manifest.
	KeyFolders  = "folders"  // HASH. folder path: JSON encoded folder document.

	KeySeparator  = ":"
	DefaultPrefix = "notepress"
)

// Store implements manifest.Store on a Redis client.
type Store struct {
	cl     redis.UniversalClient
	prefix string
	log    *slog.Logger
}

var _ manifest.Store = (*Store)(nil)

// New returns a Store whose keys start with prefix.
func New(cl redis.UniversalClient, prefix string, log *slog.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{cl: cl, prefix: prefix, log: log.With(slog.String("item", "RedisStore"))}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	cl := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return cl, nil
}

// Load returns the stored manifest, or nil when the key does not exist.
func (s *Store) Load(ctx context.Context) (*models.Manifest, error) {
	data, err := s.cl.Get(ctx, s.key(KeyManifest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get manifest: %w", err)
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("redisstore: decode manifest: %w", err)
	}
	return &m, nil
}

// Save replaces the stored manifest.
func (s *Store) Save(ctx context.Context, m *models.Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("redisstore: encode manifest: %w", err)
	}
	if err := s.cl.Set(ctx, s.key(KeyManifest), data, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: set manifest: %w", err)
	}
	return nil
}

// RebuildIndex replaces the folder hash in a single MULTI/EXEC so readers
// never see a partial index.
func (s *Store) RebuildIndex(ctx context.Context, m *models.Manifest) error {
	docs := manifest.Documents(m)
	fields := make(map[string]any, len(docs))
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("redisstore: encode folder %s: %w", doc.Path, err)
		}
		fields[doc.Path] = data
	}

	key := s.key(KeyFolders)
	_, err := s.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Cannot rebuild folder index", slog.Int("folders", len(fields)), slog.Any("error", err))
		return fmt.Errorf("redisstore: rebuild folders: %w", err)
	}
	return nil
}

// Folder returns the stored document of one folder.
func (s *Store) Folder(ctx context.Context, path string) (models.FolderIndex, error) {
	data, err := s.cl.HGet(ctx, s.key(KeyFolders), path).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.FolderIndex{}, fmt.Errorf("redisstore: folder %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return models.FolderIndex{}, fmt.Errorf("redisstore: folder %s: %w", path, err)
	}
	var doc models.FolderIndex
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.FolderIndex{}, fmt.Errorf("redisstore: decode folder %s: %w", path, err)
	}
	return doc, nil
}

func (s *Store) key(parts ...string) string {
	return strings.Join(append([]string{s.prefix}, parts...), KeySeparator)
}
