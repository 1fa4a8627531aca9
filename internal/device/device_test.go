package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/pkg/core"
)

func TestLocation(t *testing.T) {
	ctx := context.Background()
	loc := NewLocation(nil)

	_, err := loc.CurrentLocation(ctx)
	assert.ErrorIs(t, err, core.ErrNoLocation)

	loc.Set(&core.GeoPoint{Latitude: 45.5, Longitude: -122.6})
	p, err := loc.CurrentLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45.5, p.Latitude)

	loc.Set(&core.GeoPoint{Latitude: 120})
	_, err = loc.CurrentLocation(ctx)
	assert.ErrorIs(t, err, core.ErrNoLocation)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = loc.CurrentLocation(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGate(t *testing.T) {
	ok, err := NewGate(true).RequestLocation(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewGate(false).RequestLocation(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
