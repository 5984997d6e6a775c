// Package publishservice coordinates collection, the publishing pipeline,
// storage and live events behind one API used by HTTP, MCP and the CLI.
package publishservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/index"
	"github.com/starford/notepress/internal/manifest"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/pipeline"
	"github.com/starford/notepress/internal/sse"
)

// Collector enumerates the vault.
type Collector interface {
	Collect(ctx context.Context) ([]models.CollectedNote, error)
}

// Publisher runs one batch.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, notes []models.CollectedNote) (*pipeline.Outcome, error)
}

// BodyRenderer renders the HTML fragment of a processed note.
type BodyRenderer interface {
	Body(n models.PublishableNote) (string, error)
}

// Assets mirrors embedded vault files into the site.
type Assets interface {
	Copy(ctx context.Context, targets []string) (copied int, missing []string, err error)
}

// Events receives publish progress. *sse.Broker implements it.
type Events interface {
	Publish(event sse.Event)
	PagePublished(noteID, route string)
	PageFailed(noteID, route string)
}

// Deps are the collaborators of a Service. Assets, Search and Events may be
// nil.
type Deps struct {
	Collector Collector
	Publisher Publisher
	Store     manifest.Store
	Renderer  BodyRenderer
	Assets    Assets
	Pipeline  pipeline.Config
	Search    index.Searcher
	Events    Events
	Logger    *slog.Logger
}

// Service is safe for concurrent use. At most one publish runs at a time.
type Service struct {
	d       Deps
	running atomic.Bool
	log     *slog.Logger
}

// New returns a Service over d.
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{d: d, log: log}
}

// Publish collects the vault and publishes it as one batch. An empty
// sessionID gets a fresh one. A publish already in flight yields
// apperr.ErrPublishInProgress.
func (s *Service) Publish(ctx context.Context, sessionID string) (models.PublishResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.PublishResult{}, apperr.ErrPublishInProgress
	}
	defer s.running.Store(false)

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := s.log.With(slog.String("session_id", sessionID))
	s.emit(sse.Event{Type: sse.EventPublishStarted, Data: map[string]string{"sessionId": sessionID}})

	notes, err := s.d.Collector.Collect(ctx)
	if err != nil {
		return s.fail(log, models.PublishResult{SessionID: sessionID}, fmt.Errorf("publish: collect: %w", err))
	}
	log.Info("publish: collected notes", slog.Int("notes", len(notes)))

	out, err := s.d.Publisher.Publish(ctx, sessionID, notes)
	var result models.PublishResult
	if out != nil {
		result = out.Result
		s.announcePages(out, err == nil)
	}
	if err != nil {
		return s.fail(log, result, fmt.Errorf("publish: %w", err))
	}
	s.copyAssets(ctx, log, out.Batch)

	log.Info("publish: completed",
		slog.Int("published", result.Published),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", len(result.Errors)))
	s.emit(sse.Event{Type: sse.EventPublishCompleted, Data: result})
	return result, nil
}

// Running reports whether a publish is in flight.
func (s *Service) Running() bool { return s.running.Load() }

// Manifest returns the stored manifest or apperr.ErrNotFound.
func (s *Service) Manifest(ctx context.Context) (*models.Manifest, error) {
	m, err := s.d.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.ErrNotFound
	}
	return m, nil
}

// Folder returns the index document of folder. The path is normalized to a
// leading slash without a trailing one.
func (s *Service) Folder(ctx context.Context, folder string) (models.FolderIndex, error) {
	return s.d.Store.Folder(ctx, CleanFolder(folder))
}

// Search finds published pages. Without a search index it falls back to a
// case-insensitive title and route match over the manifest.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []index.SearchResult{}, nil
	}
	if s.d.Search != nil {
		results, err := s.d.Search.Search(ctx, query, limit)
		if results == nil && err == nil {
			results = []index.SearchResult{}
		}
		return results, err
	}

	m, err := s.d.Store.Load(ctx)
	if err != nil || m == nil {
		return []index.SearchResult{}, err
	}
	q := strings.ToLower(query)
	out := []index.SearchResult{}
	for _, p := range m.Pages {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Route), q) {
			out = append(out, index.SearchResult{ID: p.ID, Title: p.Title, Route: p.Route, Snippet: p.Title})
		}
	}
	return out, nil
}

// Preview is a note run through the stages without being saved.
type Preview struct {
	Note models.PublishableNote `json:"note"`
	HTML string                 `json:"html,omitempty"`
}

// Preview processes the whole vault so links resolve, then returns the note
// at vaultPath. An ignored note is returned with its verdict and no HTML.
func (s *Service) Preview(ctx context.Context, vaultPath string) (*Preview, error) {
	vaultPath = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(vaultPath, "\\", "/")), "/")

	notes, err := s.d.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("preview: collect: %w", err)
	}
	batch := pipeline.Process(notes, s.d.Pipeline)

	for _, n := range batch.Ignored {
		if n.VaultPath == vaultPath {
			return &Preview{Note: n}, nil
		}
	}
	for _, n := range batch.Notes {
		if n.VaultPath != vaultPath {
			continue
		}
		html, err := s.d.Renderer.Body(n)
		if err != nil {
			return nil, err
		}
		return &Preview{Note: n, HTML: html}, nil
	}
	return nil, fmt.Errorf("preview %s: %w", vaultPath, apperr.ErrNotFound)
}

// CleanFolder normalizes a folder path.
func CleanFolder(folder string) string {
	return path.Clean("/" + strings.Trim(folder, "/"))
}

// announcePages emits one page event per processed note. When the manifest
// was not written every page is reported as failed.
func (s *Service) announcePages(out *pipeline.Outcome, indexed bool) {
	if s.d.Events == nil || out.Batch == nil {
		return
	}
	failed := make(map[string]struct{}, len(out.Result.Errors))
	for _, e := range out.Result.Errors {
		failed[e.NoteID] = struct{}{}
	}
	for _, n := range out.Batch.Notes {
		if _, bad := failed[n.NoteID]; bad || !indexed {
			s.d.Events.PageFailed(n.NoteID, n.Routing.FullPath)
			continue
		}
		s.d.Events.PagePublished(n.NoteID, n.Routing.FullPath)
	}
}

// copyAssets is best effort. A missing or unwritable asset leaves its pages
// published.
func (s *Service) copyAssets(ctx context.Context, log *slog.Logger, batch *pipeline.Batch) {
	if s.d.Assets == nil || batch == nil {
		return
	}
	copied, missing, err := s.d.Assets.Copy(ctx, AssetTargets(batch.Notes))
	if err != nil {
		log.Warn("publish: copying assets failed", slog.String("error", err.Error()))
		return
	}
	log.Info("publish: assets copied", slog.Int("copied", copied), slog.Int("missing", len(missing)))
}

// AssetTargets lists the embedded assets and file links of notes in order
// of first appearance.
func AssetTargets(notes []models.PublishableNote) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok || t == "" {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, n := range notes {
		for _, a := range n.Assets {
			add(a.Target)
		}
		for _, l := range n.Links {
			if l.Kind == models.LinkFile {
				add(l.Path)
			}
		}
	}
	return out
}

func (s *Service) fail(log *slog.Logger, result models.PublishResult, err error) (models.PublishResult, error) {
	log.Error("publish: failed", slog.String("error", err.Error()))
	var me *apperr.ManifestError
	data := map[string]string{"sessionId": result.SessionID, "error": err.Error()}
	if errors.As(err, &me) {
		data["stage"] = "manifest " + me.Op
	}
	s.emit(sse.Event{Type: sse.EventPublishFailed, Data: data})
	return result, err
}

func (s *Service) emit(e sse.Event) {
	if s.d.Events != nil {
		s.d.Events.Publish(e)
	}
}
