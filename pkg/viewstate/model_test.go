package viewstate_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/treespotter/pkg/adapters/memory"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/store"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

func newModel(t *testing.T) (*viewstate.Model, *store.Trees, *memory.Collection) {
	t.Helper()
	mem, err := memory.New(memory.Config{})
	require.NoError(t, err)
	s := store.New(mem, nil)

	m, err := viewstate.New(context.Background(), s)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, s, mem
}

// waitFor blocks until the model publishes a list satisfying ok.
func waitFor(t *testing.T, src viewstate.Source[[]*core.Tree], ok func([]*core.Tree) bool) []*core.Tree {
	t.Helper()
	var last []*core.Tree
	require.Eventually(t, func() bool {
		v, set := src.Value()
		last = v
		return set && ok(v)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func seed(t *testing.T, s *store.Trees, name string, favorite bool, at time.Time) *core.Tree {
	t.Helper()
	tree := core.NewTree(name, &core.GeoPoint{Latitude: 45, Longitude: -122})
	tree.DateSpotted = at
	tree.Favorite = favorite
	require.NoError(t, s.Create(context.Background(), tree))
	return tree
}

func TestModelMirrorsSnapshots(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, s, _ := newModel(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed(t, s, "Oak", true, base)
	seed(t, s, "Pine", false, base.Add(time.Hour))

	got := waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 2 })
	assert.Equal(t, "Pine", got[0].Name)
	assert.False(t, got[0].Favorite)
	assert.Equal(t, "Oak", got[1].Name)
	assert.True(t, got[1].Favorite)

	m.Close()
}

func TestModelAddTree(t *testing.T) {
	m, _, _ := newModel(t)
	ctx := context.Background()

	tree := core.NewTree("Redwood", nil)
	op := m.AddTree(ctx, tree)
	require.NoError(t, op.Wait(ctx))
	assert.False(t, tree.Ref.IsZero())

	got := waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 1 })
	assert.Equal(t, tree.Ref, got[0].Ref)
}

func TestModelAddTreeOffline(t *testing.T) {
	m, _, mem := newModel(t)
	ctx := context.Background()
	waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 0 })

	updates := 0
	unsubscribe := m.Trees().Observe(func([]*core.Tree) { updates++ })
	defer unsubscribe()

	mem.SetOffline(true)
	tree := core.NewTree("Cedar", nil)
	err := m.AddTree(ctx, tree).Wait(ctx)
	require.ErrorIs(t, err, core.ErrUnavailable)
	assert.True(t, tree.Ref.IsZero())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, updates, "only the replayed value, no update for a failed add")
}

func TestModelSetFavoriteIsImmediate(t *testing.T) {
	m, s, mem := newModel(t)
	ctx := context.Background()
	seed(t, s, "Spruce", false, time.Now())

	got := waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 1 })
	tree := got[0]

	mem.SetOffline(true)
	op := m.SetFavorite(ctx, tree, true)
	assert.True(t, tree.Favorite, "flag flips before the write completes")

	err := op.Wait(ctx)
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.True(t, tree.Favorite, "no rollback on failure")

	mem.SetOffline(false)
	require.NoError(t, m.SetFavorite(ctx, tree, true).Wait(ctx))
	waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 1 && v[0] != tree && v[0].Favorite })
}

func TestModelZeroRefMutationsAreNoops(t *testing.T) {
	m, _, mem := newModel(t)
	ctx := context.Background()

	unsaved := core.NewTree("Fir", nil)
	require.NoError(t, m.SetFavorite(ctx, unsaved, true).Wait(ctx))
	require.NoError(t, m.DeleteTree(ctx, unsaved).Wait(ctx))
	assert.True(t, unsaved.Favorite)

	state := mem.State().(memory.CollectionState)
	assert.Zero(t, state.Writes)
}

func TestModelDeleteTree(t *testing.T) {
	m, s, _ := newModel(t)
	ctx := context.Background()
	seed(t, s, "Juniper", false, time.Now())

	got := waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 1 })
	require.NoError(t, m.DeleteTree(ctx, got[0]).Wait(ctx))
	waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 0 })
}

func TestModelClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	mem, err := memory.New(memory.Config{})
	require.NoError(t, err)
	s := store.New(mem, nil)
	m, err := viewstate.New(context.Background(), s)
	require.NoError(t, err)

	waitFor(t, m.Trees(), func(v []*core.Tree) bool { return v != nil })
	m.Close()
	m.Close()

	seed(t, s, "Bristlecone", false, time.Now())
	time.Sleep(50 * time.Millisecond)
	v, _ := m.Trees().Value()
	assert.Empty(t, v, "snapshots after Close are dropped")

	err = m.AddTree(context.Background(), core.NewTree("Fir", nil)).Wait(context.Background())
	assert.ErrorIs(t, err, core.ErrClosed)

	state := m.State().(viewstate.ModelState)
	assert.True(t, state.Closed)
}

func TestModelScopeCancellation(t *testing.T) {
	mem, err := memory.New(memory.Config{})
	require.NoError(t, err)
	s := store.New(mem, nil)

	ctx, cancel := context.WithCancel(context.Background())
	m, err := viewstate.New(ctx, s)
	require.NoError(t, err)
	defer m.Close()

	cancel()
	err = m.SetFavorite(context.Background(), core.NewTree("Fir", nil), true).Wait(context.Background())
	assert.ErrorIs(t, err, core.ErrClosed)
}

func TestModelState(t *testing.T) {
	m, s, _ := newModel(t)
	seed(t, s, "Pine", false, time.Now())
	waitFor(t, m.Trees(), func(v []*core.Tree) bool { return len(v) == 1 })

	state := m.State().(viewstate.ModelState)
	assert.Equal(t, core.DefaultLimit, state.Limit)
	assert.Equal(t, 1, state.Trees)
	assert.GreaterOrEqual(t, state.Snapshots, 1)
	assert.Equal(t, "viewstate", m.ComponentType())
}

// lateCancelContext reports no error on the first check and Canceled after.
type lateCancelContext struct {
	context.Context
	checks atomic.Int32
}

func (c *lateCancelContext) Err() error {
	if c.checks.Add(1) == 1 {
		return nil
	}
	return context.Canceled
}

func TestModelCloseAfterCancelDuringMutation(t *testing.T) {
	m, s, _ := newModel(t)
	tree := seed(t, s, "Cedar", false, time.Now())

	ctx := &lateCancelContext{Context: context.Background()}
	op := m.DeleteTree(ctx, tree)

	select {
	case <-op.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("mutation never finished")
	}

	closed := make(chan struct{})
	go func() {
		m.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked after the mutation context was cancelled")
	}
}
