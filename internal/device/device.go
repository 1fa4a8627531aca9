// Package device stands in for the platform location services on a terminal.
//
// A terminal has no GPS: the current location is whatever the user
// configured (or passed with --lat/--lon), and the permission prompt is a
// configuration switch.
package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/treespotter/pkg/core"
)

// Location is a fixed-position location provider.
type Location struct {
	mu  sync.RWMutex
	fix *core.GeoPoint
}

// NewLocation returns a provider. A nil fix means "no fix available".
func NewLocation(fix *core.GeoPoint) *Location {
	return &Location{fix: fix}
}

// Set replaces the current fix.
func (l *Location) Set(fix *core.GeoPoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fix = fix
}

// CurrentLocation returns the configured fix.
func (l *Location) CurrentLocation(ctx context.Context) (core.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return core.GeoPoint{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fix == nil {
		return core.GeoPoint{}, fmt.Errorf("%w: no location configured", core.ErrNoLocation)
	}
	if err := l.fix.Validate(); err != nil {
		return core.GeoPoint{}, fmt.Errorf("%w: %v", core.ErrNoLocation, err)
	}
	return *l.fix, nil
}

// Gate answers location permission requests from configuration.
type Gate struct {
	granted bool
}

// NewGate returns a gate that always gives the same answer.
func NewGate(granted bool) Gate {
	return Gate{granted: granted}
}

// RequestLocation reports whether location access is allowed.
func (g Gate) RequestLocation(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return g.granted, nil
}
