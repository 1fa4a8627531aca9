package firestore

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/treespotter/pkg/core"
)

// CollectionState exposes internal state for observability.
type CollectionState struct {
	ProjectID  string `json:"project_id"`
	Collection string `json:"collection"`
	Connected  bool   `json:"connected"`
	Closed     bool   `json:"closed"`
	Listeners  int    `json:"listeners"`
	Reconnects int    `json:"reconnects"`
	LastError  string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Collection) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := CollectionState{
		ProjectID:  c.config.ProjectID,
		Collection: c.config.Collection,
		Connected:  c.client != nil && !c.closed,
		Closed:     c.closed,
		Listeners:  c.listeners,
		Reconnects: c.reconnects,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// ComponentType implements introspection.Component.
func (c *Collection) ComponentType() string {
	return "collection"
}

var _ introspection.Introspectable = (*Collection)(nil)
var _ introspection.Component = (*Collection)(nil)
var _ core.Collection = (*Collection)(nil)
var _ core.Watchable = (*Collection)(nil)

func (c *Collection) trackListener(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners += delta
}

func (c *Collection) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	c.lastErr = err
}
