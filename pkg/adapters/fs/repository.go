// Package fs implements a document collection on a local directory.
//
// Each document is one file named after its handle (e.g. "3f2c...e1.yaml").
// Writes are atomic (temp file + rename) so readers and the watcher never see
// a partial document. Standing queries are served by an fsnotify worker that
// re-reads the directory after each burst of changes.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/treespotter/pkg/core"
)

// Repository implements core.Collection and core.Watchable on the filesystem.
type Repository struct {
	Path        string
	config      Config
	cache       *cache
	serializers map[string]Serializer

	mu            sync.RWMutex
	watcherActive bool
	lastSnapshot  *time.Time
	closed        bool
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger
	SystemDir string // e.g. ".treespotter"; holds the parse cache.
	Format    string // Extension used for new documents: ".yaml" (default) or ".json".
	// Pattern filters which files belong to the collection (doublestar syntax,
	// matched against the file name). Defaults to "*.{yaml,yml,json}".
	Pattern string
	// Debounce is the quiet period after a filesystem event before re-querying.
	Debounce time.Duration
	// ErrorHandler receives runtime watcher failures, which are otherwise only logged.
	ErrorHandler func(error)
	// NewID generates document handles. Defaults to random UUIDs.
	NewID func() string
}

const (
	defaultSystemDir = ".treespotter"
	defaultFormat    = ".yaml"
	defaultPattern   = "*.{yaml,yml,json}"
	defaultDebounce  = 50 * time.Millisecond
)

// NewRepository creates a new filesystem-backed collection.
func NewRepository(config Config) *Repository {
	if config.Path == "" {
		config.Path = "."
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.SystemDir == "" {
		config.SystemDir = defaultSystemDir
	}
	if config.Format == "" {
		config.Format = defaultFormat
	}
	if !strings.HasPrefix(config.Format, ".") {
		config.Format = "." + config.Format
	}
	if config.Pattern == "" {
		config.Pattern = defaultPattern
	}
	if config.Debounce <= 0 {
		config.Debounce = defaultDebounce
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}

	return &Repository{
		Path:        config.Path,
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: DefaultSerializers(),
	}
}

// RegisterSerializer adds or replaces the serializer for an extension.
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[ext] = s
}

func (r *Repository) serializer(ext string) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[ext]
	return s, ok
}

// Initialize performs the necessary setup for the collection directory.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("collection path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat collection path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("collection path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create collection directory: %w", err)
		}
	}

	if _, ok := r.serializer(r.config.Format); !ok {
		return fmt.Errorf("no serializer registered for %s", r.config.Format)
	}

	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("ignoring unreadable cache", "path", r.cache.Path, "error", err)
	}
	return nil
}

func (r *Repository) checkWritable() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return core.ErrClosed
	}
	if r.config.ReadOnly {
		return fmt.Errorf("%w: collection is read-only", core.ErrUnavailable)
	}
	return nil
}

// Add writes a new document file.
func (r *Repository) Add(ctx context.Context, fields core.Fields) (core.Ref, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := r.checkWritable(); err != nil {
		return "", err
	}

	ref := core.Ref(r.config.NewID())
	if err := r.write(ref, r.config.Format, fields); err != nil {
		return "", err
	}
	return ref, nil
}

// Update sets one field by rewriting the document in its existing format.
func (r *Repository) Update(ctx context.Context, ref core.Ref, field string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.checkWritable(); err != nil {
		return err
	}

	fullPath, ext, err := r.resolve(ref)
	if err != nil {
		return err
	}
	fields, err := r.parseFile(fullPath, ext)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ref, err)
	}
	fields[field] = value

	return r.write(ref, ext, fields)
}

// Delete removes a document file.
func (r *Repository) Delete(ctx context.Context, ref core.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.checkWritable(); err != nil {
		return err
	}

	fullPath, _, err := r.resolve(ref)
	if err != nil {
		return err
	}
	r.cache.Invalidate(filepath.Base(fullPath))
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, ref)
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Query reads every document in the directory and applies q.
//
// Strategy:
//  1. List the directory (documents are flat; subdirectories are ignored).
//  2. For each file matching the collection pattern, reuse the cached parse
//     when its mtime is unchanged, otherwise parse and refresh the cache.
//  3. Prune cache entries for files that disappeared and persist the cache.
func (r *Repository) Query(ctx context.Context, q core.Query) ([]core.Document, error) {
	entries, err := os.ReadDir(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}

	var docs []core.Document
	seen := make(map[string]bool)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !r.matches(entry.Name()) {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if _, ok := r.serializer(ext); !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		mtime := info.ModTime()
		name := entry.Name()
		ref := core.Ref(strings.TrimSuffix(name, ext))
		seen[name] = true

		if cached, hit := r.cache.Get(name, mtime); hit {
			docs = append(docs, core.Document{Ref: ref, Fields: cached.Fields.Clone()})
			continue
		}

		fields, err := r.parseFile(filepath.Join(r.Path, name), ext)
		if err != nil {
			r.config.Logger.Warn("skipping unparseable document", "file", name, "error", err)
			continue
		}

		r.cache.Set(name, &indexEntry{
			ID:           string(ref),
			Fields:       fields.Clone(),
			LastModified: mtime,
		})
		docs = append(docs, core.Document{Ref: ref, Fields: fields})
	}

	r.cache.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil {
			r.config.Logger.Debug("failed to persist cache", "error", err)
		}
	}

	return q.Apply(docs), nil
}

// Close marks the collection closed. Running watches stop with their contexts.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// resolve finds the file backing ref in any supported format.
func (r *Repository) resolve(ref core.Ref) (string, string, error) {
	id := string(ref)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", "", fmt.Errorf("%w: invalid handle %q", core.ErrNotFound, id)
	}

	exts := []string{r.config.Format}
	r.mu.RLock()
	for ext := range r.serializers {
		if ext != r.config.Format {
			exts = append(exts, ext)
		}
	}
	r.mu.RUnlock()

	for _, ext := range exts {
		fullPath := filepath.Join(r.Path, id+ext)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

func (r *Repository) parseFile(fullPath, ext string) (core.Fields, error) {
	s, ok := r.serializer(ext)
	if !ok {
		return nil, fmt.Errorf("unsupported document format %s", ext)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	return s.Parse(f)
}

func (r *Repository) write(ref core.Ref, ext string, fields core.Fields) error {
	s, ok := r.serializer(ext)
	if !ok {
		return fmt.Errorf("unsupported document format %s", ext)
	}

	data, err := s.Serialize(fields)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	name := string(ref) + ext
	if err := writeFileAtomic(filepath.Join(r.Path, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	// Same-tick rewrites can keep the old mtime.
	r.cache.Invalidate(name)
	return nil
}
