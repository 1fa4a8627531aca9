package memory

import (
	"github.com/aretw0/introspection"
)

// CollectionState exposes internal state for observability.
type CollectionState struct {
	Offline  bool `json:"offline"`
	Closed   bool `json:"closed"`
	Watchers int  `json:"watchers"`
	Writes   int  `json:"writes"`
}

// State implements introspection.Introspectable.
func (c *Collection) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CollectionState{
		Offline:  c.offline,
		Closed:   c.closed,
		Watchers: c.watchers,
		Writes:   c.writes,
	}
}

// ComponentType implements introspection.Component.
func (c *Collection) ComponentType() string {
	return "collection"
}

var _ introspection.Introspectable = (*Collection)(nil)
var _ introspection.Component = (*Collection)(nil)
