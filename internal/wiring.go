package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/notepress/internal/collector"
	"github.com/starford/notepress/internal/index"
	"github.com/starford/notepress/internal/manifest"
	"github.com/starford/notepress/internal/pipeline"
	"github.com/starford/notepress/internal/publishservice"
	"github.com/starford/notepress/internal/redisstore"
	"github.com/starford/notepress/internal/render"
	"github.com/starford/notepress/internal/sanitize"
	"github.com/starford/notepress/internal/storage"
)

// components are the long-lived pieces shared by every run mode.
type components struct {
	vault   *storage.FS
	site    *storage.FS
	store   manifest.Store
	service *publishservice.Service
	closers []func() error
}

func (a *application) init() (*Config, *slog.Logger, error) {
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if a.logOut == nil {
		a.logOut = os.Stdout
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.version == "" {
		a.version = "dev"
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return a.config, logger, nil
}

// build wires storage, rendering, the manifest backend and the publish
// service. events may be nil.
func build(ctx context.Context, cfg *Config, logger *slog.Logger, events publishservice.Events) (*components, error) {
	c := &components{}

	vault, err := storage.NewOsFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	site, err := storage.NewOsFS(cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}
	c.vault, c.site = vault, site

	renderer, err := render.New(render.Options{
		SiteTitle:   cfg.Output.SiteTitle,
		AssetsRoute: cfg.Output.AssetsRoute,
	})
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	sanitizer, err := sanitize.New(cfg.Pipeline.Sanitize)
	if err != nil {
		return nil, fmt.Errorf("init sanitizer: %w", err)
	}
	pcfg := pipeline.Config{IgnoreRules: cfg.Pipeline.IgnoreRules, Sanitizer: sanitizer}

	var search index.Searcher
	switch cfg.Manifest.Driver {
	case ManifestDriverSQLite:
		db, err := index.Open(cfg.Manifest.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		c.store, search = db, db
	case ManifestDriverRedis:
		r := cfg.Manifest.Redis
		cl, err := redisstore.Dial(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		c.closers = append(c.closers, cl.Close)
		c.store = redisstore.New(cl, r.Prefix, logger)
	default:
		c.store = storage.NewManifestStore(site, renderer.Folder)
	}

	logger.Info("Manifest backend ready",
		slog.String("driver", cfg.Manifest.Driver),
		slog.Bool("search_index", search != nil))

	c.service = publishservice.New(publishservice.Deps{
		Collector: collector.New(vault, cfg.Vault.Folders, logger),
		Publisher: pipeline.NewPublisher(pcfg, renderer, storage.NewContentStore(site), c.store,
			pipeline.WithLogger(logger)),
		Store:    c.store,
		Renderer: renderer,
		Assets:   storage.NewAssetCopier(vault, site, cfg.Output.AssetsRoute, logger),
		Pipeline: pcfg,
		Search:   search,
		Events:   events,
		Logger:   logger,
	})
	return c, nil
}

// Close releases backend connections.
func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
