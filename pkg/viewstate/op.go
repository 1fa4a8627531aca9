package viewstate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lifecycle"
)

// Op is the pending result of an asynchronous mutation.
type Op struct {
	done chan struct{}
	err  error
}

func newOp() *Op {
	return &Op{done: make(chan struct{})}
}

// Completed returns an Op that has already finished with err.
func Completed(err error) *Op {
	op := newOp()
	op.finish(err)
	return op
}

func (op *Op) finish(err error) {
	op.err = err
	close(op.done)
}

// Done is closed when the mutation completes.
func (op *Op) Done() <-chan struct{} {
	return op.done
}

// Err returns the mutation error. It is nil until Done is closed.
func (op *Op) Err() error {
	select {
	case <-op.done:
		return op.err
	default:
		return nil
	}
}

// Wait blocks until the mutation completes or ctx is done.
func (op *Op) Wait(ctx context.Context) error {
	select {
	case <-op.done:
		return op.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes fn in the background and reports through the returned Op.
// fn always runs, even when ctx is already done; callers check ctx first.
// A panic in fn becomes the Op's error.
func run(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) *Op {
	op := newOp()
	lifecycle.Go(ctx, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panic: %v", name, r)
			}
			op.finish(err)
		}()
		return fn(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Debug("mutation finished with error", "op", name, "error", err)
	}))
	return op
}
