package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/store"
)

// Model is the shared view state: the live list of recent trees plus the
// mutations the views may request.
type Model struct {
	ctx    context.Context
	store  *store.Trees
	logger *slog.Logger
	limit  int

	trees *Observable[[]*core.Tree]
	sub   *store.Subscription
	ops   sync.WaitGroup

	mu           sync.RWMutex
	closed       bool
	snapshots    int
	lastErr      error
	lastSnapshot *time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLimit sets how many recent trees the live query keeps.
func WithLimit(n int) Option {
	return func(m *Model) {
		m.limit = n
	}
}

// New subscribes to the recent-trees query for as long as ctx lives or
// until Close is called.
func New(ctx context.Context, s *store.Trees, opts ...Option) (*Model, error) {
	m := &Model{
		ctx:    ctx,
		store:  s,
		logger: slog.Default(),
		limit:  core.DefaultLimit,
		trees:  NewObservable[[]*core.Tree](),
	}
	for _, opt := range opts {
		opt(m)
	}

	sub, err := s.Subscribe(ctx, m.limit, m.apply)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to recent trees: %w", err)
	}
	m.sub = sub
	return m, nil
}

// Trees is the live list, most recent first.
func (m *Model) Trees() Source[[]*core.Tree] {
	return m.trees
}

// apply runs on the subscription goroutine.
func (m *Model) apply(trees []*core.Tree, err error) {
	if m.ctx.Err() != nil || m.isClosed() {
		return
	}
	if err != nil {
		// Keep showing the last good list.
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return
	}

	now := time.Now()
	m.mu.Lock()
	m.snapshots++
	m.lastSnapshot = &now
	m.mu.Unlock()

	m.trees.Set(trees)
}

// AddTree persists t. The list updates when the live query reports it.
func (m *Model) AddTree(ctx context.Context, t *core.Tree) *Op {
	if err := m.checkOpen(); err != nil {
		return Completed(err)
	}
	return m.run(ctx, "add tree", func(ctx context.Context) error {
		return m.store.Create(ctx, t)
	})
}

// SetFavorite flips the flag on t right away, then writes it through.
// A failed write is not rolled back; the next snapshot is authoritative.
func (m *Model) SetFavorite(ctx context.Context, t *core.Tree, favorite bool) *Op {
	if err := m.checkOpen(); err != nil {
		return Completed(err)
	}
	t.Favorite = favorite
	ref := t.Ref
	return m.run(ctx, "set favorite", func(ctx context.Context) error {
		return m.store.UpdateField(ctx, ref, core.FieldFavorite, favorite)
	})
}

// DeleteTree removes t. The list updates when the live query reports it.
func (m *Model) DeleteTree(ctx context.Context, t *core.Tree) *Op {
	if err := m.checkOpen(); err != nil {
		return Completed(err)
	}
	ref := t.Ref
	return m.run(ctx, "delete tree", func(ctx context.Context) error {
		return m.store.Delete(ctx, ref)
	})
}

// Close stops the live query and waits for in-flight mutations.
// Later snapshots are dropped and mutations fail with core.ErrClosed.
// Close blocks on the delivery goroutine, so it must not be called from an
// observer; cancel the model's context there instead.
func (m *Model) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.sub.Close()
	m.ops.Wait()
}

// run tracks fn so Close can wait for it. The store logs write failures.
// ctx is checked once here; past this point fn is started and Done is
// always called.
func (m *Model) run(ctx context.Context, name string, fn func(context.Context) error) *Op {
	if err := ctx.Err(); err != nil {
		return Completed(err)
	}
	m.ops.Add(1)
	return run(ctx, m.logger, name, func(ctx context.Context) error {
		defer m.ops.Done()
		return fn(ctx)
	})
}

func (m *Model) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Model) checkOpen() error {
	if m.ctx.Err() != nil || m.isClosed() {
		return core.ErrClosed
	}
	return nil
}

// ModelState exposes internal state for observability.
type ModelState struct {
	Closed       bool       `json:"closed"`
	Limit        int        `json:"limit"`
	Snapshots    int        `json:"snapshots"`
	Trees        int        `json:"trees"`
	Observers    int        `json:"observers"`
	LastError    string     `json:"last_error,omitempty"`
	LastSnapshot *time.Time `json:"last_snapshot,omitempty"`
}

// State implements introspection.Introspectable.
func (m *Model) State() any {
	trees, _ := m.trees.Value()

	m.mu.RLock()
	defer m.mu.RUnlock()

	s := ModelState{
		Closed:       m.closed || m.ctx.Err() != nil,
		Limit:        m.limit,
		Snapshots:    m.snapshots,
		Trees:        len(trees),
		Observers:    m.trees.Observers(),
		LastSnapshot: m.lastSnapshot,
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// ComponentType implements introspection.Component.
func (m *Model) ComponentType() string {
	return "viewstate"
}

var _ introspection.Introspectable = (*Model)(nil)
var _ introspection.Component = (*Model)(nil)
