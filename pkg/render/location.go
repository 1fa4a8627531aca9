package render

import (
	"context"
	"fmt"

	"github.com/aretw0/treespotter/pkg/core"
)

// LocationState tracks the map's access to the device location.
type LocationState int

const (
	NoPermission LocationState = iota
	PermissionGranted
	LocationAcquired
)

func (s LocationState) String() string {
	switch s {
	case PermissionGranted:
		return "permission-granted"
	case LocationAcquired:
		return "location-acquired"
	default:
		return "no-permission"
	}
}

// State returns the current location state.
func (m *Map) State() LocationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// RequestPermission resolves the location permission. On grant it also tries
// a first fix so the camera can center on the user. A denial is reported to
// the user and leaves location features disabled.
func (m *Map) RequestPermission(ctx context.Context) (LocationState, error) {
	if m.perms == nil || m.locator == nil {
		m.notifier.Notify("Location is not available on this device")
		return NoPermission, core.ErrPermissionDenied
	}

	granted, err := m.perms.RequestLocation(ctx)
	if err != nil {
		m.notifier.Notify("Could not request location permission")
		return m.State(), fmt.Errorf("permission request failed: %w", err)
	}
	if !granted {
		m.mu.Lock()
		m.state = NoPermission
		m.mu.Unlock()
		m.notifier.Notify("Location permission denied")
		return NoPermission, core.ErrPermissionDenied
	}

	m.mu.Lock()
	if m.state == NoPermission {
		m.state = PermissionGranted
	}
	m.mu.Unlock()

	if _, err := m.Locate(ctx); err != nil {
		m.logger.Debug("no location fix after grant", "error", err)
	}
	return m.State(), nil
}

// Locate asks for a fix. The first successful fix of this renderer centers
// the camera; later fixes do not.
func (m *Map) Locate(ctx context.Context) (core.GeoPoint, error) {
	if m.State() == NoPermission || m.locator == nil {
		return core.GeoPoint{}, core.ErrPermissionDenied
	}

	loc, err := m.locator.CurrentLocation(ctx)
	if err != nil {
		return core.GeoPoint{}, fmt.Errorf("%w: %v", core.ErrNoLocation, err)
	}
	// The provider call may outlive the screen.
	if err := ctx.Err(); err != nil {
		return core.GeoPoint{}, err
	}

	m.mu.Lock()
	m.state = LocationAcquired
	m.lastFix = &loc
	center := !m.centered
	m.centered = true
	m.mu.Unlock()

	if center {
		m.surface.MoveCamera(loc, m.zoom)
	}
	return loc, nil
}

// LastFix returns the most recent location fix.
func (m *Map) LastFix() (core.GeoPoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastFix == nil {
		return core.GeoPoint{}, false
	}
	return *m.lastFix, true
}
