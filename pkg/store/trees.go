// Package store adapts a document collection to tree sightings.
//
// It is a thin translation layer: no caching, no retries and no optimistic
// echo. Live queries deliver the full ordered result set on every change.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/treespotter/pkg/core"
)

// Trees reads and writes tree sightings on a collection.
type Trees struct {
	coll   core.Collection
	logger *slog.Logger
}

// New wraps a collection. A nil logger uses slog.Default().
func New(coll core.Collection, logger *slog.Logger) *Trees {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trees{coll: coll, logger: logger}
}

// Collection returns the underlying collection.
func (s *Trees) Collection() core.Collection {
	return s.coll
}

// Subscription is a running live query. Close stops it.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close tears down the live query and waits for the delivery goroutine to
// exit. No callback runs after Close returns.
//
// Close must not be called from the subscription callback: it would wait on
// itself. Use Stop there.
func (sub *Subscription) Close() {
	sub.Stop()
	<-sub.done
}

// Stop cancels the live query without waiting. The current callback, if
// any, finishes and no further callbacks are made.
func (sub *Subscription) Stop() {
	sub.once.Do(sub.cancel)
}

// Done is closed once the subscription has fully stopped.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Subscribe starts a standing query for the most recent trees.
//
// fn is called from a single goroutine, in emission order, with either the
// complete ordered list or an error. Each list replaces the previous one.
// Errors are logged and the subscription keeps running.
func (s *Trees) Subscribe(ctx context.Context, limit int, fn func([]*core.Tree, error)) (*Subscription, error) {
	w, ok := s.coll.(core.Watchable)
	if !ok {
		return nil, core.ErrNotWatchable
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch, err := w.Watch(subCtx, core.RecentQuery(limit))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start live query: %w", err)
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	lifecycle.Go(subCtx, func(ctx context.Context) error {
		defer close(sub.done)
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap, ok := <-ch:
				if !ok {
					return nil
				}
				// A close may race with a ready snapshot.
				if ctx.Err() != nil {
					return nil
				}
				if snap.Err != nil {
					s.logger.Warn("live query failed", "error", snap.Err)
					fn(nil, snap.Err)
					continue
				}
				fn(s.decodeAll(snap.Docs), nil)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("subscription delivery panic", "error", err)
	}))

	return sub, nil
}

// Recent performs a one-shot read of the most recent trees.
func (s *Trees) Recent(ctx context.Context, limit int) ([]*core.Tree, error) {
	docs, err := s.coll.Query(ctx, core.RecentQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read trees: %w", err)
	}
	return s.decodeAll(docs), nil
}

// Create persists a new tree and attaches its handle to t.
// On failure the handle stays zero.
func (s *Trees) Create(ctx context.Context, t *core.Tree) error {
	if t == nil {
		return fmt.Errorf("%w: nil tree", core.ErrInvalidDocument)
	}
	if t.Location != nil {
		if err := t.Location.Validate(); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidDocument, err)
		}
	}

	ref, err := s.coll.Add(ctx, EncodeTree(t))
	if err != nil {
		s.logger.Error("failed to create tree", "name", t.Name, "error", err)
		return fmt.Errorf("failed to create tree: %w", err)
	}
	t.Ref = ref
	s.logger.Debug("tree created", "ref", ref, "name", t.Name)
	return nil
}

// UpdateField sets one stored field. A zero handle is a no-op.
func (s *Trees) UpdateField(ctx context.Context, ref core.Ref, field string, value any) error {
	if ref.IsZero() {
		return nil
	}
	value, err := checkField(field, value)
	if err != nil {
		return err
	}
	if err := s.coll.Update(ctx, ref, field, value); err != nil {
		s.logger.Error("failed to update tree", "ref", ref, "field", field, "error", err)
		return fmt.Errorf("failed to update %s: %w", ref, err)
	}
	return nil
}

// Delete removes a tree. A zero handle is a no-op.
func (s *Trees) Delete(ctx context.Context, ref core.Ref) error {
	if ref.IsZero() {
		return nil
	}
	if err := s.coll.Delete(ctx, ref); err != nil {
		s.logger.Error("failed to delete tree", "ref", ref, "error", err)
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

// ErrAmbiguous is returned by Find when a prefix matches several trees.
var ErrAmbiguous = errors.New("ambiguous tree handle")

// Find resolves a tree among the recent ones by handle prefix.
func (s *Trees) Find(ctx context.Context, prefix string, limit int) (*core.Tree, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty handle", core.ErrNotFound)
	}
	trees, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	var match *core.Tree
	for _, t := range trees {
		if string(t.Ref) == prefix {
			return t, nil
		}
		if strings.HasPrefix(string(t.Ref), prefix) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
			}
			match = t
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, prefix)
	}
	return match, nil
}

func (s *Trees) decodeAll(docs []core.Document) []*core.Tree {
	trees := make([]*core.Tree, 0, len(docs))
	for _, doc := range docs {
		t, err := DecodeTree(doc)
		if err != nil {
			s.logger.Warn("skipping malformed tree", "ref", doc.Ref, "error", err)
			continue
		}
		trees = append(trees, t)
	}
	return trees
}
