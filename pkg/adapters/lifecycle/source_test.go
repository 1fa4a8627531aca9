package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/pkg/adapters/lifecycle"
	"github.com/aretw0/treespotter/pkg/adapters/memory"
	"github.com/aretw0/treespotter/pkg/core"
)

func TestSourceForwardsSnapshots(t *testing.T) {
	coll, err := memory.New(memory.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := lifecycle.NewSource(coll, core.RecentQuery(10))
	require.NoError(t, src.Start(ctx))

	next := func() string {
		select {
		case e, ok := <-src.Events():
			require.True(t, ok)
			return e.String()
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	assert.Equal(t, "snapshot of 0 documents", next())

	_, err = coll.Add(ctx, core.Fields{core.FieldName: "Oak", core.FieldDateSpotted: time.Now(), core.FieldFavorite: false})
	require.NoError(t, err)
	assert.Equal(t, "snapshot of 1 documents", next())

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-src.Events()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

type unwatchable struct{}

func (unwatchable) Watch(context.Context, core.Query) (<-chan core.Snapshot, error) {
	return nil, core.ErrClosed
}

func TestSourceStartError(t *testing.T) {
	src := lifecycle.NewSource(unwatchable{}, core.RecentQuery(10))
	assert.ErrorIs(t, src.Start(context.Background()), core.ErrClosed)
	_, ok := <-src.Events()
	assert.False(t, ok)
}
