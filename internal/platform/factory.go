package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/treespotter/pkg/adapters/firestore"
	"github.com/aretw0/treespotter/pkg/adapters/fs"
	"github.com/aretw0/treespotter/pkg/adapters/memory"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/store"
)

// New opens the collection and wraps it in the tree store.
//
//	trees, err := platform.New(ctx, "./sightings", platform.WithAdapter("fs"))
//
// The URI argument is adapter-specific: a directory for "fs", a project id
// for "firestore", ignored for "memory".
func New(ctx context.Context, uri string, opts ...Option) (*store.Trees, error) {
	coll, err := Init(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}

	// Parse options again for the logger used by the store.
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return store.New(coll, o.logger), nil
}

// Init builds and initializes the configured collection.
func Init(ctx context.Context, uri string, opts ...Option) (core.Collection, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	// 1. Check for injected collection
	if o.collection != nil {
		return o.collection, nil
	}

	// 2. Build based on adapter
	var coll core.Collection
	var err error

	switch o.adapter {
	case "fs":
		coll, err = initFS(uri, o)
	case "memory":
		coll, err = memory.New(memory.Config{Logger: o.logger})
	case "firestore":
		coll = initFirestore(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err != nil {
		return nil, err
	}

	// 3. Run initialization
	if err := coll.Initialize(ctx); err != nil {
		_ = coll.Close()
		return nil, err
	}

	if o.logger != nil {
		o.logger.Debug("collection opened", "adapter", o.adapter, "uri", uri)
	}

	return coll, nil
}

// initFS builds the filesystem adapter from the option map.
func initFS(path string, o *options) (core.Collection, error) {
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	format, _ := o.config["format"].(string)
	pattern, _ := o.config["pattern"].(string)
	debounce, _ := o.config["debounce"].(time.Duration)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	repo := fs.NewRepository(fs.Config{
		Path:         path,
		MustExist:    mustExist,
		ReadOnly:     readOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		Format:       format,
		Pattern:      pattern,
		Debounce:     debounce,
		ErrorHandler: errorHandler,
	})

	// Register custom serializers
	for ext, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			if o.logger != nil {
				o.logger.Warn("invalid serializer type ignored", "ext", ext, "expected", "fs.Serializer")
			}
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", ext)
		}
		repo.RegisterSerializer(ext, serializer)
	}

	return repo, nil
}

// initFirestore builds the Firestore adapter; projectID comes from the URI.
func initFirestore(projectID string, o *options) core.Collection {
	credentials, _ := o.config["credentials_file"].(string)
	name, _ := o.config["collection"].(string)

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return firestore.New(firestore.Config{
		ProjectID:       projectID,
		Collection:      name,
		CredentialsFile: credentials,
		Logger:          logger,
	})
}
