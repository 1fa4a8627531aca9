// Package memory implements an in-process document collection on go-memdb.
//
// Live queries are driven by memdb watch sets, so every committed write
// wakes all standing queries, which re-read and emit a full snapshot.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/aretw0/treespotter/pkg/core"
)

const (
	tableDocuments = "documents"
	indexID        = "id"
)

type record struct {
	ID     string
	Fields core.Fields
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableDocuments: {
				Name: tableDocuments,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

// Config holds the configuration for the in-memory collection.
type Config struct {
	Logger *slog.Logger
	// NewID generates document handles. Defaults to random UUIDs.
	NewID func() string
}

// Collection implements core.Collection and core.Watchable in memory.
type Collection struct {
	db     *memdb.MemDB
	config Config

	mu       sync.RWMutex
	offline  bool
	closed   bool
	watchers int
	writes   int
}

// New creates an empty in-memory collection.
func New(config Config) (*Collection, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	return &Collection{db: db, config: config}, nil
}

// Initialize is a no-op; the collection is ready after New.
func (c *Collection) Initialize(ctx context.Context) error {
	return nil
}

// SetOffline simulates loss of connectivity. While offline every write fails
// with core.ErrUnavailable; reads and live queries keep working.
func (c *Collection) SetOffline(offline bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = offline
	c.config.Logger.Debug("memory collection connectivity changed", "offline", offline)
}

func (c *Collection) checkWritable() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	if c.offline {
		return core.ErrUnavailable
	}
	return nil
}

// Add stores a new document.
func (c *Collection) Add(ctx context.Context, fields core.Fields) (core.Ref, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.checkWritable(); err != nil {
		return "", err
	}

	rec := &record{ID: c.config.NewID(), Fields: fields.Clone()}

	txn := c.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableDocuments, rec); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	txn.Commit()

	c.countWrite()
	return core.Ref(rec.ID), nil
}

// Update sets one field. Stored records are immutable; a modified copy replaces them.
func (c *Collection) Update(ctx context.Context, ref core.Ref, field string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.checkWritable(); err != nil {
		return err
	}

	txn := c.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableDocuments, indexID, string(ref))
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", ref, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s", core.ErrNotFound, ref)
	}

	existing := raw.(*record)
	updated := &record{ID: existing.ID, Fields: existing.Fields.Clone()}
	updated.Fields[field] = value

	if err := txn.Insert(tableDocuments, updated); err != nil {
		return fmt.Errorf("failed to update %s: %w", ref, err)
	}
	txn.Commit()

	c.countWrite()
	return nil
}

// Delete removes a document.
func (c *Collection) Delete(ctx context.Context, ref core.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.checkWritable(); err != nil {
		return err
	}

	txn := c.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableDocuments, indexID, string(ref))
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", ref, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s", core.ErrNotFound, ref)
	}
	if err := txn.Delete(tableDocuments, raw); err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	txn.Commit()

	c.countWrite()
	return nil
}

// Query performs a one-shot ordered read.
func (c *Collection) Query(ctx context.Context, q core.Query) ([]core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, _, err := c.read(q)
	return docs, err
}

// read returns the query results along with a channel that fires on the next change.
func (c *Collection) read(q core.Query) ([]core.Document, <-chan struct{}, error) {
	txn := c.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableDocuments, indexID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan documents: %w", err)
	}

	var docs []core.Document
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rec := obj.(*record)
		docs = append(docs, core.Document{
			Ref:    core.Ref(rec.ID),
			Fields: rec.Fields.Clone(),
		})
	}
	return q.Apply(docs), it.WatchCh(), nil
}

// Watch starts a standing query.
func (c *Collection) Watch(ctx context.Context, q core.Query) (<-chan core.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, core.ErrClosed
	}
	c.watchers++
	c.mu.Unlock()

	out := make(chan core.Snapshot, 1)
	go func() {
		defer close(out)
		defer func() {
			c.mu.Lock()
			c.watchers--
			c.mu.Unlock()
		}()

		for {
			docs, watchCh, err := c.read(q)
			snap := core.Snapshot{Docs: docs, Err: err, ReadAt: time.Now()}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			if err != nil {
				// A failed scan leaves nothing to watch; poll again shortly.
				select {
				case <-time.After(100 * time.Millisecond):
					continue
				case <-ctx.Done():
					return
				}
			}

			ws := memdb.NewWatchSet()
			ws.Add(watchCh)
			if err := ws.WatchCtx(ctx); err != nil {
				return
			}
		}
	}()

	return out, nil
}

// Close marks the collection closed. Subsequent writes fail with core.ErrClosed.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Collection) countWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
}
