package treespotter

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/treespotter/internal/platform"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/store"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// Tree is a public alias for a tree sighting.
type Tree = core.Tree

// GeoPoint is a public alias for a latitude/longitude pair.
type GeoPoint = core.GeoPoint

// Trees is a public alias for the tree store.
type Trees = store.Trees

// Model is a public alias for the shared view model.
type Model = viewstate.Model

// NewTree returns an unsaved sighting dated now.
func NewTree(name string, location *GeoPoint) *Tree {
	return core.NewTree(name, location)
}

// --- Configuration ---

// Option defines a functional option for opening a store.
type Option = platform.Option

// WithAdapter selects the storage adapter: "fs", "memory" or "firestore".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithLogger sets the logger for the adapter and the store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithCollection injects a custom collection.
func WithCollection(c core.Collection) Option {
	return platform.WithCollection(c)
}

// WithMustExist requires the sightings directory to already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly opens a directory without writing to it.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithFormat sets the file format of new sightings (".yaml" or ".json").
func WithFormat(ext string) Option {
	return platform.WithFormat(ext)
}

// WithDebounce sets how long the directory must be quiet before a refresh.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatchPattern limits which file names count as sightings.
func WithWatchPattern(pattern string) Option {
	return platform.WithWatchPattern(pattern)
}

// WithCredentialsFile sets the Firestore service account key.
func WithCredentialsFile(path string) Option {
	return platform.WithCredentialsFile(path)
}

// WithCollectionName sets the Firestore collection path.
func WithCollectionName(name string) Option {
	return platform.WithCollectionName(name)
}

// --- Factory ---

// Open opens the tree store at uri.
func Open(ctx context.Context, uri string, opts ...Option) (*store.Trees, error) {
	return platform.New(ctx, uri, opts...)
}

// NewModel subscribes a view model to the store. Close it when done.
func NewModel(ctx context.Context, trees *store.Trees, opts ...viewstate.Option) (*viewstate.Model, error) {
	return viewstate.New(ctx, trees, opts...)
}

// Root is a sightings directory located on disk.
type Root = platform.Root

// Locate looks upwards from dir for a sightings directory, marked by a
// treespotter.yaml file or a .treespotter directory.
func Locate(dir string) (Root, error) {
	return platform.Locate(dir)
}
