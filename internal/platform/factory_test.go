package platform_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/internal/platform"
	"github.com/aretw0/treespotter/pkg/adapters/fs"
	"github.com/aretw0/treespotter/pkg/adapters/memory"
	"github.com/aretw0/treespotter/pkg/core"
)

func TestInitAdapters(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		coll, err := platform.Init(ctx, "", platform.WithAdapter("memory"))
		require.NoError(t, err)
		defer coll.Close()
		assert.IsType(t, &memory.Collection{}, coll)
	})

	t.Run("fs", func(t *testing.T) {
		dir := t.TempDir()
		coll, err := platform.Init(ctx, dir,
			platform.WithFormat(".json"),
			platform.WithDebounce(10*time.Millisecond),
		)
		require.NoError(t, err)
		defer coll.Close()
		require.IsType(t, &fs.Repository{}, coll)

		ref, err := coll.Add(ctx, core.Fields{core.FieldName: "Pine", core.FieldFavorite: false, core.FieldDateSpotted: time.Now()})
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, string(ref)+".json"))
		assert.NoError(t, err)
	})

	t.Run("fs must exist", func(t *testing.T) {
		_, err := platform.Init(ctx, filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := platform.Init(ctx, "", platform.WithAdapter("sqlite"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("firestore without project", func(t *testing.T) {
		_, err := platform.Init(ctx, "", platform.WithAdapter("firestore"))
		assert.Error(t, err)
	})
}

func TestInitInjectedCollection(t *testing.T) {
	injected, err := memory.New(memory.Config{})
	require.NoError(t, err)

	coll, err := platform.Init(context.Background(), "ignored", platform.WithCollection(injected), platform.WithAdapter("sqlite"))
	require.NoError(t, err)
	assert.Same(t, injected, coll)
}

type badSerializer struct{}

func TestInitRejectsInvalidSerializer(t *testing.T) {
	_, err := platform.Init(context.Background(), t.TempDir(), platform.WithSerializer(".txt", badSerializer{}))
	assert.ErrorContains(t, err, "fs.Serializer")
}

type upperSerializer struct{ fs.Serializer }

func (upperSerializer) Parse(r io.Reader) (core.Fields, error) {
	return core.Fields{core.FieldName: "CUSTOM"}, nil
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	trees, err := platform.New(ctx, "", platform.WithAdapter("memory"))
	require.NoError(t, err)
	defer trees.Collection().Close()

	tree := core.NewTree("Oak", nil)
	require.NoError(t, trees.Create(ctx, tree))
	assert.False(t, tree.Ref.IsZero())

	recent, err := trees.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Oak", recent[0].Name)
}

func TestCustomSerializerIsRegistered(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	custom := upperSerializer{fs.DefaultSerializers()[".json"]}

	coll, err := platform.Init(ctx, dir, platform.WithSerializer(".json", custom), platform.WithFormat(".json"))
	require.NoError(t, err)
	defer coll.Close()

	_, err = coll.Add(ctx, core.Fields{core.FieldName: "Pine"})
	require.NoError(t, err)

	docs, err := coll.Query(ctx, core.Query{OrderBy: core.FieldName, Limit: 10})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "CUSTOM", docs[0].Fields[core.FieldName])
}
