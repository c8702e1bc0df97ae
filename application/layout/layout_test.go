package layout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/domain/config"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/entities"
	"kgraph/domain/core/valueobjects"
)

func buildGraph(t *testing.T, labels ...string) (*aggregates.Graph, []valueobjects.NodeID) {
	t.Helper()
	g, err := aggregates.NewGraph("layout test")
	require.NoError(t, err)

	ids := make([]valueobjects.NodeID, 0, len(labels))
	for _, label := range labels {
		n, err := entities.NewNode(valueobjects.NewNodeID(), label)
		require.NoError(t, err)
		require.NoError(t, g.AddNode(n))
		ids = append(ids, n.ID())
	}
	return g, ids
}

func TestSimulatePlacesUnplacedNodes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	sim := NewForceSimulator(cfg, rand.NewSource(7))
	g, ids := buildGraph(t, "a", "b", "c")
	_, err := g.ConnectNodes("", ids[0], ids[1], nil)
	require.NoError(t, err)

	placed, err := ApplyLayout(g, sim, cfg.CanvasWidth, cfg.CanvasHeight)
	require.NoError(t, err)
	assert.Len(t, placed, 3)

	maxX := cfg.CanvasWidth - cfg.NodeWidth
	maxY := cfg.CanvasHeight - cfg.NodeHeight
	for _, n := range g.Nodes() {
		require.True(t, n.HasPosition())
		pos := n.Position()
		assert.True(t, pos.IsValid())
		assert.GreaterOrEqual(t, pos.X, 0.0)
		assert.LessOrEqual(t, pos.X, maxX)
		assert.GreaterOrEqual(t, pos.Y, 0.0)
		assert.LessOrEqual(t, pos.Y, maxY)
	}
}

func TestSimulateSeparatesNodes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	sim := NewForceSimulator(cfg, rand.NewSource(7))
	g, _ := buildGraph(t, "a", "b", "c", "d", "e")

	_, err := ApplyLayout(g, sim, cfg.CanvasWidth, cfg.CanvasHeight)
	require.NoError(t, err)

	nodes := g.Nodes()
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i].Position(), nodes[j].Position()
			dist := math.Hypot(a.X-b.X, a.Y-b.Y)
			assert.Greater(t, dist, 1.0, "nodes %d and %d ended up stacked", i, j)
		}
	}
}

func TestSimulateIdempotentForPlacedNodes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	sim := NewForceSimulator(cfg, rand.NewSource(7))
	g, ids := buildGraph(t, "a", "b", "c")

	_, err := ApplyLayout(g, sim, cfg.CanvasWidth, cfg.CanvasHeight)
	require.NoError(t, err)

	before := make(map[valueobjects.NodeID]valueobjects.Position)
	for _, id := range ids {
		n, err := g.GetNode(id)
		require.NoError(t, err)
		before[id] = *n.Position()
	}

	// Second run over a fully placed graph moves nothing
	placed, err := ApplyLayout(g, sim, cfg.CanvasWidth, cfg.CanvasHeight)
	require.NoError(t, err)
	assert.Empty(t, placed)

	for _, id := range ids {
		n, err := g.GetNode(id)
		require.NoError(t, err)
		assert.Equal(t, before[id], *n.Position())
	}
}

func TestSimulateOnlyComputesMissingPositions(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	sim := NewForceSimulator(cfg, rand.NewSource(7))
	g, ids := buildGraph(t, "anchored", "floating")

	anchored, err := g.GetNode(ids[0])
	require.NoError(t, err)
	require.NoError(t, anchored.MoveTo(valueobjects.Position{X: 10, Y: 20}))

	placed, err := ApplyLayout(g, sim, cfg.CanvasWidth, cfg.CanvasHeight)
	require.NoError(t, err)

	assert.Equal(t, []valueobjects.NodeID{ids[1]}, placed)
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, *anchored.Position())
}

func TestPlaceChildIsOnTheConfiguredRadius(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	placer := NewPolarPlacer(cfg, rand.NewSource(3))
	parent := valueobjects.Position{X: 600, Y: 400}

	for index := 0; index < 6; index++ {
		child := placer.PlaceChild(parent, index)
		dist := math.Hypot(child.X-parent.X, child.Y-parent.Y)
		assert.InDelta(t, cfg.ChildRadius, dist, 0.001)
	}
}

func TestPlaceChildSpacingFollowsSiblingIndex(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.ChildJitter = 0 // isolate the deterministic part
	placer := NewPolarPlacer(cfg, rand.NewSource(3))
	parent := valueobjects.Position{X: 0, Y: 0}

	first := placer.PlaceChild(parent, 0)
	second := placer.PlaceChild(parent, 1)

	angleFirst := math.Atan2(first.Y, first.X) * 180 / math.Pi
	angleSecond := math.Atan2(second.Y, second.X) * 180 / math.Pi
	assert.InDelta(t, cfg.ChildAngleStep, angleSecond-angleFirst, 0.001)
}

func TestPlaceDescendantsSkipsPlacedNodes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	placer := NewPolarPlacer(cfg, rand.NewSource(3))
	g, ids := buildGraph(t, "root", "child", "grandchild")
	_, err := g.ConnectNodes("", ids[0], ids[1], nil)
	require.NoError(t, err)
	_, err = g.ConnectNodes("", ids[1], ids[2], nil)
	require.NoError(t, err)

	child, err := g.GetNode(ids[1])
	require.NoError(t, err)
	require.NoError(t, child.MoveTo(valueobjects.Position{X: 77, Y: 88}))

	require.NoError(t, placer.PlaceDescendants(g, ids[0]))

	for _, id := range ids {
		n, err := g.GetNode(id)
		require.NoError(t, err)
		assert.True(t, n.HasPosition())
	}
	assert.Equal(t, valueobjects.Position{X: 77, Y: 88}, *child.Position())
}

func TestPlaceDescendantsSurvivesCycles(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	placer := NewPolarPlacer(cfg, rand.NewSource(3))
	g, ids := buildGraph(t, "a", "b")
	_, err := g.ConnectNodes("", ids[0], ids[1], nil)
	require.NoError(t, err)
	_, err = g.ConnectNodes("", ids[1], ids[0], nil)
	require.NoError(t, err)

	require.NoError(t, placer.PlaceDescendants(g, ids[0]))

	for _, id := range ids {
		n, err := g.GetNode(id)
		require.NoError(t, err)
		assert.True(t, n.HasPosition())
	}
}
