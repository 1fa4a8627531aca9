// Package core holds the domain types and storage contracts of treespotter.
package core

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Stored field names. They must match the collection schema exactly.
const (
	FieldName        = "name"
	FieldDateSpotted = "dateSpotted"
	FieldLocation    = "location"
	FieldFavorite    = "favorite"
)

// Ref is an opaque handle to a persisted document.
// The zero value means "not persisted".
type Ref string

// IsZero reports whether the handle is unset.
func (r Ref) IsZero() bool {
	return r == ""
}

// Short returns an abbreviated form of the handle for display.
func (r Ref) Short() string {
	if len(r) > 8 {
		return string(r[:8])
	}
	return string(r)
}

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate checks that the coordinates are within range.
func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", p.Longitude)
	}
	return nil
}

// Point converts to an orb.Point, which is ordered (lon, lat).
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// GeoPointFromOrb converts an orb.Point back to a GeoPoint.
func GeoPointFromOrb(pt orb.Point) GeoPoint {
	return GeoPoint{Latitude: pt.Lat(), Longitude: pt.Lon()}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.5f, %.5f)", p.Latitude, p.Longitude)
}

// Tree is one recorded tree sighting.
type Tree struct {
	Name        string
	DateSpotted time.Time
	Location    *GeoPoint
	Favorite    bool

	// Ref is populated by the store after a write or a read. It is never
	// written back to the collection.
	Ref Ref
}

// NewTree returns an unpersisted tree spotted now.
func NewTree(name string, location *GeoPoint) *Tree {
	return &Tree{
		Name:        name,
		DateSpotted: time.Now(),
		Location:    location,
	}
}

// Persisted reports whether the tree has a storage handle.
func (t *Tree) Persisted() bool {
	return t != nil && !t.Ref.IsZero()
}

// Label is the display name of the tree.
func (t *Tree) Label() string {
	if t.Name == "" {
		return "Unnamed tree"
	}
	return t.Name
}

// Spotted formats the sighting time the way both views show it.
func (t *Tree) Spotted() string {
	return "Spotted on " + t.DateSpotted.Local().Format("Mon Jan 2 15:04:05 2006")
}

func (t *Tree) String() string {
	fav := ""
	if t.Favorite {
		fav = " ♥"
	}
	return fmt.Sprintf("%s%s [%s]", t.Label(), fav, t.Ref.Short())
}
