package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/treespotter/pkg/core"
)

// options holds the internal configuration for opening a collection.
type options struct {
	collection  core.Collection
	logger      *slog.Logger
	adapter     string
	config      map[string]interface{}
	serializers map[string]any
}

// Option defines a functional option for configuring the store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		collection:  nil,
		logger:      nil,
		adapter:     "fs",
		config:      make(map[string]interface{}),
		serializers: make(map[string]any),
	}
}

// WithSerializer registers a custom serializer for a specific extension.
// The serializer 's' must implement fs.Serializer; this is checked during Init.
func WithSerializer(ext string, s any) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}

// WithMustExist requires the collection directory to already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger for the adapter and the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCollection injects a ready-made collection (e.g. a test double).
// If provided, the adapter selection is skipped.
func WithCollection(c core.Collection) Option {
	return func(o *options) {
		o.collection = c
	}
}

// WithAdapter selects the storage adapter by name: "fs", "memory" or "firestore".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory used by the fs adapter.
// Defaults to ".treespotter".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithFormat sets the extension used for new documents by the fs adapter.
func WithFormat(ext string) Option {
	return func(o *options) {
		o.config["format"] = ext
	}
}

// WithWatchPattern restricts which file names the fs adapter treats as documents.
func WithWatchPattern(pattern string) Option {
	return func(o *options) {
		o.config["pattern"] = pattern
	}
}

// WithDebounce sets the quiet period the fs adapter waits after a change.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures
// (e.g. permission denied) which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly makes the fs adapter reject writes and skip directory creation.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithCredentialsFile points the firestore adapter at a service account key.
func WithCredentialsFile(path string) Option {
	return func(o *options) {
		o.config["credentials_file"] = path
	}
}

// WithCollectionName sets the firestore collection path. Defaults to "trees".
func WithCollectionName(name string) Option {
	return func(o *options) {
		o.config["collection"] = name
	}
}
