package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/store"
)

func TestEncodeTreeOmitsRef(t *testing.T) {
	spotted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tree := &core.Tree{
		Name:        "Oak",
		DateSpotted: spotted,
		Location:    &core.GeoPoint{Latitude: 45.5, Longitude: -122.6},
		Favorite:    true,
		Ref:         "abc",
	}

	f := store.EncodeTree(tree)
	assert.Len(t, f, 4)
	assert.Equal(t, "Oak", f[core.FieldName])
	assert.Equal(t, spotted, f[core.FieldDateSpotted])
	assert.Equal(t, core.GeoPoint{Latitude: 45.5, Longitude: -122.6}, f[core.FieldLocation])
	assert.Equal(t, true, f[core.FieldFavorite])
}

func TestEncodeTreeWithoutOptionalFields(t *testing.T) {
	f := store.EncodeTree(&core.Tree{DateSpotted: time.Now()})
	assert.NotContains(t, f, core.FieldName)
	assert.NotContains(t, f, core.FieldLocation)
	assert.Contains(t, f, core.FieldFavorite)
}

func TestDecodeTree(t *testing.T) {
	doc := core.Document{
		Ref: "r1",
		Fields: core.Fields{
			core.FieldName:        "Pine",
			core.FieldDateSpotted: "2024-05-01T10:00:00Z",
			core.FieldLocation:    map[string]any{"latitude": 10.0, "longitude": 20},
			core.FieldFavorite:    false,
		},
	}

	tree, err := store.DecodeTree(doc)
	require.NoError(t, err)
	assert.Equal(t, core.Ref("r1"), tree.Ref)
	assert.Equal(t, "Pine", tree.Name)
	assert.True(t, tree.DateSpotted.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, tree.Location)
	assert.Equal(t, core.GeoPoint{Latitude: 10, Longitude: 20}, *tree.Location)
	assert.False(t, tree.Favorite)
}

func TestDecodeTreeMissingFields(t *testing.T) {
	tree, err := store.DecodeTree(core.Document{Ref: "r2", Fields: core.Fields{}})
	require.NoError(t, err)
	assert.Empty(t, tree.Name)
	assert.Nil(t, tree.Location)
	assert.True(t, tree.DateSpotted.IsZero())
}

func TestDecodeTreeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		fields core.Fields
	}{
		{"name", core.Fields{core.FieldName: 42}},
		{"date", core.Fields{core.FieldDateSpotted: "yesterday"}},
		{"location", core.Fields{core.FieldLocation: "here"}},
		{"favorite", core.Fields{core.FieldFavorite: "yes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.DecodeTree(core.Document{Ref: "bad", Fields: tt.fields})
			assert.ErrorIs(t, err, core.ErrInvalidDocument)
		})
	}
}
