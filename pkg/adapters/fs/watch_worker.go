package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/treespotter/pkg/core"
)

// watchBackoff bounds how aggressively a failed watcher is restarted.
var watchBackoff = supervisor.Backoff{
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	Multiplier:      2,
	ResetDuration:   30 * time.Second,
	MaxRestarts:     10,
	MaxDuration:     time.Minute,
}

// Watch serves a standing query. The first snapshot is the initial load;
// every settled burst of file changes yields a fresh full snapshot.
//
// The fsnotify worker runs under a supervisor: if the OS watcher dies it is
// recreated, and the new worker re-reads the directory, so subscribers see a
// complete snapshot after every reconnect.
func (r *Repository) Watch(ctx context.Context, q core.Query) (<-chan core.Snapshot, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, core.ErrClosed
	}
	if _, err := os.Stat(r.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}

	out := make(chan core.Snapshot, 1)
	spec := supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWatchWorker(r, q, out), nil
		},
		Backoff:       watchBackoff,
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("fs-collection", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sup.Stop(stopCtx)
	}, lifecycle.WithErrorHandler(func(err error) {
		r.reportError(fmt.Errorf("watch shutdown: %w", err))
	}))

	return out, nil
}

// matches reports whether a file name belongs to the collection.
func (r *Repository) matches(name string) bool {
	ok, err := doublestar.Match(r.config.Pattern, filepath.Base(name))
	return err == nil && ok
}

// shouldIgnore filters out events that cannot change query results.
func (r *Repository) shouldIgnore(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if base == r.config.SystemDir || isTempFile(base) {
		return true
	}
	if event.Op == fsnotify.Chmod {
		return true
	}
	return !r.matches(base)
}

func (r *Repository) reportError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}
	r.config.Logger.Error("watcher failure", "error", err)
}

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	query     core.Query
	out       chan<- core.Snapshot
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc

	// emitMu keeps snapshots in read order.
	emitMu sync.Mutex
}

func newWatchWorker(repo *Repository, q core.Query, out chan<- core.Snapshot) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		query:      q,
		out:        out,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.repo.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.repo.config.Debounce)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// emit re-runs the query and delivers the full result set.
func (w *watchWorker) emit(ctx context.Context) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	docs, err := w.repo.Query(ctx, w.query)
	if err != nil && ctx.Err() != nil {
		return
	}
	snap := core.Snapshot{Docs: docs, Err: err, ReadAt: time.Now()}
	if err == nil {
		w.repo.recordSnapshot(snap.ReadAt)
	}
	w.send(ctx, snap)
}

// send delivers snap unless ctx ends first. Shutdown closes out only after
// the supervisor stopped, but a stop that times out can leave a pending
// debounced emit behind; that late send is reported, not swallowed.
func (w *watchWorker) send(ctx context.Context, snap core.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			w.repo.reportError(fmt.Errorf("snapshot dropped after shutdown: %v", r))
		}
	}()
	select {
	case w.out <- snap:
	case <-ctx.Done():
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.repo.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.repo.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	w.emit(ctx)
	err = w.loop(ctx)

	// Wait for an in-flight refresh before the supervisor may close the output.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if w.repo.shouldIgnore(event) {
				continue
			}
			w.repo.config.Logger.Debug("collection changed", "file", filepath.Base(event.Name), "op", event.Op.String())
			w.debouncer.trigger(func() { w.emit(ctx) })

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.repo.reportError(wErr)
			w.send(ctx, core.Snapshot{
				Err:    fmt.Errorf("%w: %v", core.ErrUnavailable, wErr),
				ReadAt: time.Now(),
			})
		}
	}
}
