package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/pkg/core"
)

func newCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, c.Initialize(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func nextSnapshot(t *testing.T, ch <-chan core.Snapshot) core.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for snapshot")
		return core.Snapshot{}
	}
}

func TestCollection_CRUD(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()

	ref, err := c.Add(ctx, core.Fields{core.FieldName: "Pine", core.FieldFavorite: false})
	require.NoError(t, err)
	require.False(t, ref.IsZero())

	require.NoError(t, c.Update(ctx, ref, core.FieldFavorite, true))

	docs, err := c.Query(ctx, core.Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, ref, docs[0].Ref)
	assert.Equal(t, true, docs[0].Fields[core.FieldFavorite])

	require.NoError(t, c.Delete(ctx, ref))
	docs, err = c.Query(ctx, core.Query{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCollection_UnknownRef(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Update(ctx, "missing", core.FieldFavorite, true), core.ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, "missing"), core.ErrNotFound)
}

func TestCollection_StoredFieldsAreIsolated(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()

	fields := core.Fields{core.FieldName: "Oak"}
	_, err := c.Add(ctx, fields)
	require.NoError(t, err)
	fields[core.FieldName] = "mutated"

	docs, err := c.Query(ctx, core.Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Oak", docs[0].Fields[core.FieldName])

	docs[0].Fields[core.FieldName] = "mutated again"
	docs, err = c.Query(ctx, core.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Oak", docs[0].Fields[core.FieldName])
}

func TestCollection_Offline(t *testing.T) {
	c := newCollection(t)
	ctx := context.Background()

	c.SetOffline(true)
	ref, err := c.Add(ctx, core.Fields{core.FieldName: "Cedar"})
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.True(t, ref.IsZero())

	c.SetOffline(false)
	_, err = c.Add(ctx, core.Fields{core.FieldName: "Cedar"})
	assert.NoError(t, err)

	state := c.State().(CollectionState)
	assert.Equal(t, 1, state.Writes)
}

func TestCollection_WatchDeliversFullSnapshots(t *testing.T) {
	c := newCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err := c.Add(ctx, core.Fields{core.FieldName: "Oak", core.FieldDateSpotted: base})
	require.NoError(t, err)

	ch, err := c.Watch(ctx, core.RecentQuery(10))
	require.NoError(t, err)

	initial := nextSnapshot(t, ch)
	require.NoError(t, initial.Err)
	require.Len(t, initial.Docs, 1)

	_, err = c.Add(ctx, core.Fields{core.FieldName: "Pine", core.FieldDateSpotted: base.Add(time.Hour)})
	require.NoError(t, err)

	next := nextSnapshot(t, ch)
	require.Len(t, next.Docs, 2)
	assert.Equal(t, "Pine", next.Docs[0].Fields[core.FieldName])
	assert.Equal(t, "Oak", next.Docs[1].Fields[core.FieldName])

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed after cancel")
		}
	}
}

func TestCollection_WatchRespectsLimit(t *testing.T) {
	c := newCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := time.Now()
	for i := 0; i < 12; i++ {
		_, err := c.Add(ctx, core.Fields{core.FieldDateSpotted: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	ch, err := c.Watch(ctx, core.RecentQuery(10))
	require.NoError(t, err)
	assert.Len(t, nextSnapshot(t, ch).Docs, 10)
}
