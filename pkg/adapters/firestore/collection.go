// Package firestore implements the tree collection on Google Cloud Firestore.
//
// Ordering and limits are pushed down to the server. Live queries use
// Query.Snapshots; when the listener fails the error is delivered to the
// subscriber and the listener is re-established after a backoff.
//
// Set FIRESTORE_EMULATOR_HOST to run against the local emulator.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/aretw0/lifecycle"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aretw0/treespotter/pkg/core"
)

// Config holds the configuration for the Firestore collection.
type Config struct {
	ProjectID string
	// Collection is the top-level collection path. Defaults to "trees".
	Collection string
	// CredentialsFile points at a service account key. Empty uses ambient
	// credentials (or none, against the emulator).
	CredentialsFile string
	Logger          *slog.Logger
	// RetryInitial and RetryMax bound the listener reconnect backoff.
	RetryInitial time.Duration
	RetryMax     time.Duration
	// ClientOptions are appended to the options derived from the fields above.
	ClientOptions []option.ClientOption
}

const (
	defaultCollection   = "trees"
	defaultRetryInitial = 500 * time.Millisecond
	defaultRetryMax     = 30 * time.Second
)

// Collection implements core.Collection and core.Watchable on Firestore.
type Collection struct {
	config Config
	client *firestore.Client

	mu         sync.RWMutex
	closed     bool
	listeners  int
	reconnects int
	lastErr    error
}

// New creates an unconnected collection. Call Initialize to open the client.
func New(config Config) *Collection {
	if config.Collection == "" {
		config.Collection = defaultCollection
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.RetryInitial <= 0 {
		config.RetryInitial = defaultRetryInitial
	}
	if config.RetryMax <= 0 {
		config.RetryMax = defaultRetryMax
	}
	return &Collection{config: config}
}

// NewWithClient wraps an existing client. Close will close it.
func NewWithClient(client *firestore.Client, config Config) *Collection {
	c := New(config)
	c.client = client
	return c
}

// Initialize opens the Firestore client.
func (c *Collection) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}
	if c.config.ProjectID == "" {
		return fmt.Errorf("firestore: project id is required")
	}

	var opts []option.ClientOption
	if c.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.config.CredentialsFile))
	}
	opts = append(opts, c.config.ClientOptions...)

	client, err := firestore.NewClient(ctx, c.config.ProjectID, opts...)
	if err != nil {
		return fmt.Errorf("failed to create firestore client: %w", err)
	}
	c.client = client
	return nil
}

func (c *Collection) ref() (*firestore.CollectionRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClosed
	}
	if c.client == nil {
		return nil, fmt.Errorf("%w: client not initialized", core.ErrUnavailable)
	}
	return c.client.Collection(c.config.Collection), nil
}

// Add creates a document with a server-assigned ID.
func (c *Collection) Add(ctx context.Context, fields core.Fields) (core.Ref, error) {
	col, err := c.ref()
	if err != nil {
		return "", err
	}
	doc, _, err := col.Add(ctx, encodeFields(fields))
	if err != nil {
		return "", mapError(err)
	}
	return core.Ref(doc.ID), nil
}

// Update sets one field. A missing document yields core.ErrNotFound.
func (c *Collection) Update(ctx context.Context, ref core.Ref, field string, value any) error {
	col, err := c.ref()
	if err != nil {
		return err
	}
	_, err = col.Doc(string(ref)).Update(ctx, []firestore.Update{
		{Path: field, Value: encodeValue(value)},
	})
	return mapError(err)
}

// Delete removes a document. A missing document yields core.ErrNotFound.
func (c *Collection) Delete(ctx context.Context, ref core.Ref) error {
	col, err := c.ref()
	if err != nil {
		return err
	}
	_, err = col.Doc(string(ref)).Delete(ctx, firestore.Exists)
	return mapError(err)
}

// Query performs a one-shot ordered read.
func (c *Collection) Query(ctx context.Context, q core.Query) ([]core.Document, error) {
	col, err := c.ref()
	if err != nil {
		return nil, err
	}
	snaps, err := buildQuery(col, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapError(err)
	}
	return decodeDocuments(snaps), nil
}

// Watch runs a standing query. Listener failures are delivered as
// Snapshot.Err and the listener is re-opened with exponential backoff; the
// first snapshot after a reconnect is a full result set.
func (c *Collection) Watch(ctx context.Context, q core.Query) (<-chan core.Snapshot, error) {
	col, err := c.ref()
	if err != nil {
		return nil, err
	}
	fq := buildQuery(col, q)
	out := make(chan core.Snapshot, 1)

	c.trackListener(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer c.trackListener(-1)

		wait := c.config.RetryInitial
		for ctx.Err() == nil {
			delivered, err := c.listen(ctx, fq, out)
			if ctx.Err() != nil {
				return nil
			}
			if delivered {
				wait = c.config.RetryInitial
			}

			err = mapError(err)
			c.recordFailure(err)
			c.config.Logger.Warn("firestore listener failed, reconnecting", "collection", c.config.Collection, "error", err, "retry_in", wait)
			send(ctx, out, core.Snapshot{Err: err, ReadAt: time.Now()})

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			wait = min(wait*2, c.config.RetryMax)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		c.config.Logger.Error("firestore listener panic", "error", err)
	}))

	return out, nil
}

// listen forwards snapshots until the iterator fails.
func (c *Collection) listen(ctx context.Context, q firestore.Query, out chan<- core.Snapshot) (delivered bool, err error) {
	it := q.Snapshots(ctx)
	defer it.Stop()

	for {
		qs, err := it.Next()
		if err != nil {
			return delivered, err
		}
		snaps, err := qs.Documents.GetAll()
		if err != nil {
			return delivered, err
		}
		send(ctx, out, core.Snapshot{Docs: decodeDocuments(snaps), ReadAt: qs.ReadTime})
		delivered = true
	}
}

// Close releases the client. Running listeners end with their contexts.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func send(ctx context.Context, out chan<- core.Snapshot, snap core.Snapshot) {
	select {
	case out <- snap:
	case <-ctx.Done():
	}
}

func buildQuery(col *firestore.CollectionRef, q core.Query) firestore.Query {
	fq := col.Query
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func decodeDocuments(snaps []*firestore.DocumentSnapshot) []core.Document {
	docs := make([]core.Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, core.Document{
			Ref:    core.Ref(s.Ref.ID),
			Fields: decodeFields(s.Data()),
		})
	}
	return docs
}

// mapError translates gRPC status codes into core sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", core.ErrNotFound, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("firestore: %w", err)
}
