// Package watch triggers a republish when Markdown files in the vault
// change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a
// republish fires.
const DefaultDebounce = 500 * time.Millisecond

// Trigger is called once per quiet period with the vault-relative paths
// that changed during it.
type Trigger func(ctx context.Context, changed []string)

// Watcher observes a vault directory tree.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
	trigger  Trigger
}

// New returns a Watcher over root. A non-positive debounce uses
// DefaultDebounce.
func New(root string, debounce time.Duration, logger *slog.Logger, trigger Trigger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, debounce: debounce, logger: logger, trigger: trigger}
}

// Run watches until ctx is cancelled. Directories created at runtime are
// added to the watch list. Triggers run on the watcher goroutine, so a slow
// republish delays the next one instead of overlapping it.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending = make(map[string]struct{})
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]struct{})
			w.logger.Debug("watcher: republishing", slog.Int("changed", len(changed)))
			w.trigger(ctx, changed)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files moved in with the directory raise no events of their own.
					pending[w.rel(ev.Name)] = struct{}{}
					schedule()
					continue
				}
			}

			if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[w.rel(ev.Name)] = struct{}{}
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) rel(p string) string {
	r, err := filepath.Rel(w.root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(r)
}

// addDirsRecursive adds root and all its non-hidden subdirectories.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
