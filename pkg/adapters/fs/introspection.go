package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	Format        string     `json:"format"`
	ReadOnly      bool       `json:"read_only"`
	Closed        bool       `json:"closed"`
	CacheSize     int        `json:"cache_size"`
	Serializers   []string   `json:"serializers"`
	WatcherActive bool       `json:"watcher_active"`
	LastSnapshot  *time.Time `json:"last_snapshot,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serializers := make([]string, 0, len(r.serializers))
	for ext := range r.serializers {
		serializers = append(serializers, ext)
	}
	sort.Strings(serializers)

	return RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		Format:        r.config.Format,
		ReadOnly:      r.config.ReadOnly,
		Closed:        r.closed,
		CacheSize:     r.cache.Len(),
		Serializers:   serializers,
		WatcherActive: r.watcherActive,
		LastSnapshot:  r.lastSnapshot,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordSnapshot(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSnapshot = &at
}
