package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/store"
)

// Watcher re-runs IndexDirectory whenever fsnotify reports a change under
// the project root, debounced by Config.Index.WatchDebounceMs. It relies
// on IndexDirectory's own content-hash skip to keep re-indexing cheap, so
// unlike the teacher's watcher it does not track per-path event types —
// any write, create, remove, or rename just schedules another full run.
//
// Grounded on the teacher's internal/indexing/watcher.go (FileWatcher:
// recursive filepath.Walk to add per-directory watches, symlink-cycle
// guard, debounced event coalescing) with the per-event diffing collapsed
// into whole-directory re-scans.
type Watcher struct {
	fsw    *fsnotify.Watcher
	cfg    *config.Config
	store  *store.Store
	onRun  func(Report, error)
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher constructs a Watcher over cfg.Project.Root. onRun, if
// non-nil, is called with the result of every re-index (including the
// initial pass Start triggers).
func NewWatcher(cfg *config.Config, st *store.Store, onRun func(Report, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, cfg: cfg, store: st, onRun: onRun}, nil
}

// Start adds watches for every directory under the project root not
// excluded by cfg and runs an initial IndexDirectory pass, then returns;
// events are processed (debounced) by a background goroutine until ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.Index.WatchMode {
		return nil
	}

	if err := w.addWatches(w.cfg.Project.Root); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	report, err := IndexDirectory(runCtx, w.store, w.cfg)
	if w.onRun != nil {
		w.onRun(report, err)
	}

	w.wg.Add(1)
	go w.loop(runCtx)
	return nil
}

// Stop halts the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) addWatches(root string) error {
	s := newScanner(w.cfg)
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if path != root {
			rel := relSlash(root, path)
			if s.matchesExclude(rel) || s.matchesExclude(rel+"/") {
				return filepath.SkipDir
			}
		}
		_ = w.fsw.Add(path)
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	debounce := time.Duration(w.cfg.Index.WatchDebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			report, err := IndexDirectory(ctx, w.store, w.cfg)
			if w.onRun != nil {
				w.onRun(report, err)
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}
