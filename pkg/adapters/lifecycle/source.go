package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/treespotter/pkg/core"
)

type snapshotSource struct {
	watchable core.Watchable
	query     core.Query
	out       chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits one event per snapshot of
// a standing query. core.Snapshot implements lifecycle.Event.
func NewSource(w core.Watchable, q core.Query) lifecycle.Source {
	return &snapshotSource{
		watchable: w,
		query:     q,
		out:       make(chan lifecycle.Event),
	}
}

func (s *snapshotSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start opens the standing query and forwards its snapshots until ctx ends.
func (s *snapshotSource) Start(ctx context.Context) error {
	snapshots, err := s.watchable.Watch(ctx, s.query)
	if err != nil {
		close(s.out)
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap, ok := <-snapshots:
				if !ok {
					return nil
				}
				select {
				case s.out <- snap:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
