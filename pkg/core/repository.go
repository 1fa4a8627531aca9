package core

import "context"

// Collection defines the contract for a document collection.
// Adhering to this interface keeps the store independent of the backend
// (Firestore, in-memory, filesystem).
type Collection interface {
	// Initialize ensures the backend is ready (e.g. create directories, open clients).
	Initialize(ctx context.Context) error

	// Add stores a new document and returns the handle assigned to it.
	Add(ctx context.Context, fields Fields) (Ref, error)

	// Update sets a single field on an existing document.
	// It returns ErrNotFound if the handle does not exist.
	Update(ctx context.Context, ref Ref, field string, value any) error

	// Delete removes a document.
	Delete(ctx context.Context, ref Ref) error

	// Query performs a one-shot ordered read.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Close releases backend resources.
	Close() error
}

// Watchable defines a collection that supports standing queries.
//
// The first snapshot on the channel is the initial load. Every later change
// to the collection produces a complete snapshot of the query results, never
// a delta. Errors are delivered as Snapshot.Err and do not end the stream.
// The channel is closed once ctx is done.
type Watchable interface {
	Watch(ctx context.Context, q Query) (<-chan Snapshot, error)
}
