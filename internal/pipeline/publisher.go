package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notepress/internal/manifest"
	"github.com/starford/notepress/internal/models"
)

// Page is one rendered note ready to be written to the site.
type Page struct {
	NoteID string
	Route  string
	Slug   string
	HTML   []byte
}

// Renderer turns a processed note into a complete HTML document.
type Renderer interface {
	Render(note models.PublishableNote) ([]byte, error)
}

// ContentStore persists rendered pages.
type ContentStore interface {
	Save(ctx context.Context, page Page) error
}

// Publisher runs a batch through the stages, persists each page and then
// updates the manifest.
type Publisher struct {
	cfg      Config
	renderer Renderer
	content  ContentStore
	port     manifest.Port
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock overrides the time source used for publishedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithLogger sets the logger used to report per-note failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher returns a Publisher writing pages to content and the manifest
// to port.
func NewPublisher(cfg Config, r Renderer, content ContentStore, port manifest.Port, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		renderer: r,
		content:  content,
		port:     port,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Outcome is everything one Publish call produced.
type Outcome struct {
	Result   models.PublishResult
	Batch    *Batch
	Manifest *models.Manifest
}

// Publish processes collected, saves every publishable note and merges the
// saved ones into the manifest. A failure to render or save a note is
// recorded in the result and does not stop the batch. A manifest failure
// is returned as an error together with the partial outcome.
func (p *Publisher) Publish(ctx context.Context, sessionID string, collected []models.CollectedNote) (*Outcome, error) {
	batch := Process(collected, p.cfg)
	out := &Outcome{
		Batch: batch,
		Result: models.PublishResult{
			SessionID: sessionID,
			Skipped:   len(batch.Ignored),
			Errors:    []models.NoteError{},
		},
	}

	now := p.now().UTC()
	pages := make([]models.ManifestPage, 0, len(batch.Notes))
	for _, n := range batch.Notes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := p.persist(ctx, n); err != nil {
			p.logger.Warn("publish: note failed",
				slog.String("note_id", n.NoteID),
				slog.String("vault_path", n.VaultPath),
				slog.String("error", err.Error()))
			out.Result.Errors = append(out.Result.Errors, models.NoteError{NoteID: n.NoteID, Message: err.Error()})
			continue
		}
		pages = append(pages, PageRecord(n, now))
	}
	out.Result.Published = len(pages)

	m, err := manifest.Update(ctx, p.port, sessionID, pages, now)
	if err != nil {
		return out, err
	}
	out.Manifest = m
	return out, nil
}

func (p *Publisher) persist(ctx context.Context, n models.PublishableNote) error {
	html, err := p.renderer.Render(n)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	page := Page{
		NoteID: n.NoteID,
		Route:  n.Routing.FullPath,
		Slug:   n.Routing.Slug,
		HTML:   html,
	}
	if err := p.content.Save(ctx, page); err != nil {
		return fmt.Errorf("save %s: %w", page.Route, err)
	}
	return nil
}

// PageRecord builds the manifest entry for a saved note.
func PageRecord(n models.PublishableNote, publishedAt time.Time) models.ManifestPage {
	tags := n.Frontmatter.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.ManifestPage{
		ID:           n.NoteID,
		Title:        n.Title,
		Route:        n.Routing.FullPath,
		Slug:         n.Routing.Slug,
		PublishedAt:  publishedAt,
		VaultPath:    n.VaultPath,
		RelativePath: n.RelativePath,
		Tags:         tags,
	}
}
