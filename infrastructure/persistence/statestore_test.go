package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/entities"
	"kgraph/domain/core/valueobjects"
	"kgraph/infrastructure/persistence/kv"
	"kgraph/pkg/errors"
)

func buildSnapshot(t *testing.T) StateSnapshot {
	t.Helper()
	g, err := aggregates.NewGraph("persisted")
	require.NoError(t, err)
	n, err := entities.NewNode(valueobjects.NewNodeID(), "node one")
	require.NoError(t, err)
	require.NoError(t, g.AddNode(n))
	require.NoError(t, n.MoveTo(valueobjects.Position{X: 12, Y: 34}))
	require.True(t, g.SetLastSelected(n.ID()))

	return StateSnapshot{
		Viewport:       valueobjects.Viewport{Zoom: 1.25, Pan: valueobjects.Position{X: 5, Y: 6}},
		Graphs:         []*aggregates.Graph{g},
		CurrentGraphID: g.ID(),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(kv.NewMemoryStore(), nil)
	snap := buildSnapshot(t)

	require.NoError(t, store.Save(ctx, snap))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, snap.Viewport, loaded.Viewport)
	assert.Equal(t, snap.CurrentGraphID, loaded.CurrentGraphID)
	require.Len(t, loaded.Graphs, 1)

	got := loaded.Graphs[0]
	want := snap.Graphs[0]
	assert.Equal(t, want.ID(), got.ID())
	assert.Equal(t, want.Title(), got.Title())
	assert.Equal(t, want.NodeCount(), got.NodeCount())
	assert.Equal(t, want.LastSelectedNodeID(), got.LastSelectedNodeID())

	node := got.Nodes()[0]
	assert.Equal(t, "node one", node.Label())
	require.True(t, node.HasPosition())
	assert.Equal(t, valueobjects.Position{X: 12, Y: 34}, *node.Position())
}

func TestLoadEmptyStoreYieldsDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(kv.NewMemoryStore(), nil)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Empty(t, loaded.Graphs)
	assert.Empty(t, loaded.CurrentGraphID)
	assert.Equal(t, valueobjects.DefaultViewport(), loaded.Viewport)
}

func TestLoadDiscardsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	raw := kv.NewMemoryStore()
	store := NewStateStore(raw, nil)

	require.NoError(t, raw.Set(ctx, StateKey, []byte(`{not json`)))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Graphs)

	// The corrupt entry is gone
	_, err = raw.Get(ctx, StateKey)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadRejectsNonArrayGraphs(t *testing.T) {
	ctx := context.Background()
	raw := kv.NewMemoryStore()
	store := NewStateStore(raw, nil)

	require.NoError(t, raw.Set(ctx, StateKey, []byte(`{"viewport":{},"graphs":{"g1":{}}}`)))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Graphs)

	_, err = raw.Get(ctx, StateKey)
	assert.True(t, errors.IsNotFound(err))
}

func TestViewportPerGraph(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(kv.NewMemoryStore(), nil)
	id := aggregates.NewGraphID()

	// Absent viewport falls back to fit-to-contents
	vp, err := store.LoadViewport(ctx, id)
	require.NoError(t, err)
	assert.True(t, vp.IsZero())

	want := valueobjects.Viewport{Zoom: 2, Pan: valueobjects.Position{X: -10, Y: 40}}
	require.NoError(t, store.SaveViewport(ctx, id, want))

	vp, err = store.LoadViewport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want, vp)
}

func TestLoadViewportDiscardsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	raw := kv.NewMemoryStore()
	store := NewStateStore(raw, nil)
	id := aggregates.NewGraphID()

	require.NoError(t, raw.Set(ctx, ViewportKey(id), []byte(`oops`)))

	vp, err := store.LoadViewport(ctx, id)
	require.NoError(t, err)
	assert.True(t, vp.IsZero())

	_, err = raw.Get(ctx, ViewportKey(id))
	assert.True(t, errors.IsNotFound(err))
}

func TestClearAllPurgesEverything(t *testing.T) {
	ctx := context.Background()
	raw := kv.NewMemoryStore()
	store := NewStateStore(raw, nil)
	snap := buildSnapshot(t)

	require.NoError(t, store.Save(ctx, snap))
	require.NoError(t, store.SaveViewport(ctx, snap.CurrentGraphID, snap.Viewport))
	other := aggregates.NewGraphID()
	require.NoError(t, store.SaveViewport(ctx, other, valueobjects.Viewport{Zoom: 3}))

	require.NoError(t, store.ClearAll(ctx))

	keys, err := raw.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Graphs)
}
