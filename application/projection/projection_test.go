package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

func pos(x, y float64) *valueobjects.Position {
	return &valueobjects.Position{X: x, Y: y}
}

func TestProjectDropsDanglingEdges(t *testing.T) {
	doc := aggregates.GraphDocument{
		ID: "g1",
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(1, 1), Data: map[string]interface{}{"label": "A"}},
		},
		Edges: []aggregates.EdgeDocument{
			{ID: "e1", Source: "a", Target: "b"},
		},
	}

	out := NewProjector(nil).Project(doc)

	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "a", out.Nodes[0].ID)
	assert.Empty(t, out.Edges)
}

func TestProjectValidatesAgainstFullNodeSet(t *testing.T) {
	// The edge references a node that appears later in the list; the
	// projection must still keep it.
	doc := aggregates.GraphDocument{
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(0, 0), Data: map[string]interface{}{"label": "A"}},
			{ID: "b", Position: pos(10, 0), Data: map[string]interface{}{"label": "B"}},
		},
		Edges: []aggregates.EdgeDocument{
			{ID: "e1", Source: "b", Target: "a"},
		},
	}

	out := NewProjector(nil).Project(doc)

	require.Len(t, out.Edges, 1)
	assert.Equal(t, "b", out.Edges[0].Source)
}

func TestProjectDropsInvalidNodes(t *testing.T) {
	doc := aggregates.GraphDocument{
		Nodes: []aggregates.NodeDocument{
			{ID: "", Position: pos(0, 0), Data: map[string]interface{}{"label": "no id"}},
			{ID: "unplaced", Position: nil, Data: map[string]interface{}{"label": "no position"}},
			{ID: "unlabeled", Position: pos(0, 0), Data: map[string]interface{}{}},
			{ID: "good", Position: pos(5, 5), Data: map[string]interface{}{"label": "ok"}},
		},
	}

	out := NewProjector(nil).Project(doc)

	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "good", out.Nodes[0].ID)
}

func TestProjectDeduplicatesKeepingFirst(t *testing.T) {
	doc := aggregates.GraphDocument{
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(0, 0), Data: map[string]interface{}{"label": "first"}},
			{ID: "a", Position: pos(9, 9), Data: map[string]interface{}{"label": "second"}},
			{ID: "b", Position: pos(1, 1), Data: map[string]interface{}{"label": "B"}},
		},
		Edges: []aggregates.EdgeDocument{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e1", Source: "b", Target: "a"},
		},
	}

	out := NewProjector(nil).Project(doc)

	require.Len(t, out.Nodes, 2)
	assert.Equal(t, "first", out.Nodes[0].Data["label"])
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "a", out.Edges[0].Source)
}

func TestProjectEdgeIDDefaulting(t *testing.T) {
	doc := aggregates.GraphDocument{
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(0, 0), Data: map[string]interface{}{"label": "A"}},
			{ID: "b", Position: pos(1, 1), Data: map[string]interface{}{"label": "B"}},
		},
		Edges: []aggregates.EdgeDocument{
			{Source: "a", Target: "b"},
		},
	}

	out := NewProjector(nil).Project(doc)

	require.Len(t, out.Edges, 1)
	assert.Equal(t, "a-b", out.Edges[0].ID)
}

func TestProjectAttachesClasses(t *testing.T) {
	doc := aggregates.GraphDocument{
		LastSelectedNodeID: "a",
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(0, 0), Data: map[string]interface{}{"label": "A"}},
			{ID: "b", Position: pos(1, 1), Data: map[string]interface{}{"label": "B", "isLoading": true}},
			{ID: "c", Position: pos(2, 2), Data: map[string]interface{}{"label": "C"}},
		},
		NodeData: map[string]*aggregates.NodeExtra{
			"c": {IsLoading: true},
		},
	}

	out := NewProjector(nil).Project(doc)
	require.Len(t, out.Nodes, 3)

	assert.True(t, out.Nodes[0].Selected)
	assert.Contains(t, out.Nodes[0].Classes, ClassSelected)
	assert.True(t, out.Nodes[1].Loading)
	assert.Contains(t, out.Nodes[1].Classes, ClassLoading)
	assert.True(t, out.Nodes[2].Loading)
}

func TestProjectNeverMutatesInput(t *testing.T) {
	data := map[string]interface{}{"label": "A"}
	doc := aggregates.GraphDocument{
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(0, 0), Data: data},
		},
	}

	out := NewProjector(nil).Project(doc)
	out.Nodes[0].Data["label"] = "mutated"

	assert.Equal(t, "A", data["label"])
}

func TestProjectAllOutputEdgesResolve(t *testing.T) {
	doc := aggregates.GraphDocument{
		Nodes: []aggregates.NodeDocument{
			{ID: "a", Position: pos(0, 0), Data: map[string]interface{}{"label": "A"}},
			{ID: "b", Position: pos(1, 0), Data: map[string]interface{}{"label": "B"}},
			{ID: "broken", Data: map[string]interface{}{"label": "dropped"}},
		},
		Edges: []aggregates.EdgeDocument{
			{ID: "ok", Source: "a", Target: "b"},
			{ID: "half", Source: "a", Target: "broken"},
			{ID: "gone", Source: "x", Target: "y"},
		},
	}

	out := NewProjector(nil).Project(doc)

	surviving := make(map[string]bool)
	for _, n := range out.Nodes {
		surviving[n.ID] = true
	}
	for _, e := range out.Edges {
		assert.True(t, surviving[e.Source])
		assert.True(t, surviving[e.Target])
	}
	require.Len(t, out.Edges, 1)
}
