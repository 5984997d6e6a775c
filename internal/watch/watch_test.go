package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder collects trigger calls.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) trigger(_ context.Context, changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, changed)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func (r *recorder) saw(p string) bool {
	for _, call := range r.snapshot() {
		for _, c := range call {
			if c == p {
				return true
			}
		}
	}
	return false
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func start(t *testing.T, dir string, debounce time.Duration) *recorder {
	t.Helper()
	rec := &recorder{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go New(dir, debounce, logger, rec.trigger).Run(ctx)
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	rec := start(t, dir, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(dir, "burst.md"), []byte{byte('a' + i)}, 0o644)
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.saw("burst.md")
	}, "write burst did not trigger")
	time.Sleep(400 * time.Millisecond)
	if n := len(rec.snapshot()); n != 1 {
		t.Errorf("triggers = %d, want 1", n)
	}
}

func TestWatcher_IgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	rec := start(t, dir, 50*time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("triggers = %d for a non-markdown file", n)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir := t.TempDir()
	rec := start(t, dir, 50*time.Millisecond)

	sub := filepath.Join(dir, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.saw("subdir/deep.md")
	}, "file in new subdir did not trigger")
}

func TestWatcher_DeleteTriggers(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "del.md"), []byte("# Delete Me"), 0o644)
	rec := start(t, dir, 50*time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.md"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.saw("del.md")
	}, "delete did not trigger")
}
