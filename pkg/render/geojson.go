package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aretw0/treespotter/pkg/core"
)

// GeoJSON is a Surface that keeps markers as GeoJSON point features.
type GeoJSON struct {
	mu       sync.RWMutex
	next     int
	features map[MarkerID]*geojson.Feature
	camera   *orb.Point
	zoom     float64
}

// NewGeoJSON returns an empty GeoJSON surface.
func NewGeoJSON() *GeoJSON {
	return &GeoJSON{features: make(map[MarkerID]*geojson.Feature)}
}

func (g *GeoJSON) AddMarker(m Marker) MarkerID {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	id := MarkerID("m" + strconv.Itoa(g.next))

	f := geojson.NewFeature(m.Position.Point())
	f.ID = string(id)
	f.Properties["title"] = m.Title
	f.Properties["snippet"] = m.Snippet
	f.Properties["icon"] = m.Icon.String()
	f.Properties["favorite"] = m.Icon == IconFavorite
	g.features[id] = f
	return id
}

func (g *GeoJSON) RemoveMarker(id MarkerID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.features, id)
}

func (g *GeoJSON) MoveCamera(center core.GeoPoint, zoom float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pt := center.Point()
	g.camera = &pt
	g.zoom = zoom
}

// Camera returns the last camera position.
func (g *GeoJSON) Camera() (core.GeoPoint, float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.camera == nil {
		return core.GeoPoint{}, 0, false
	}
	return core.GeoPointFromOrb(*g.camera), g.zoom, true
}

// Len returns the number of markers.
func (g *GeoJSON) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.features)
}

// FeatureCollection returns the markers in insertion order.
func (g *GeoJSON) FeatureCollection() *geojson.FeatureCollection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]MarkerID, 0, len(g.features))
	for id := range g.features {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return markerSeq(ids[i]) < markerSeq(ids[j]) })

	fc := geojson.NewFeatureCollection()
	for _, id := range ids {
		fc.Append(g.features[id])
	}
	return fc
}

// MarshalJSON encodes the markers as a FeatureCollection.
func (g *GeoJSON) MarshalJSON() ([]byte, error) {
	return g.FeatureCollection().MarshalJSON()
}

// WriteTo writes the FeatureCollection to w.
func (g *GeoJSON) WriteTo(w io.Writer) (int64, error) {
	data, err := g.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to encode markers: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

func markerSeq(id MarkerID) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(string(id), "m"))
	return n
}

var _ Surface = (*GeoJSON)(nil)
