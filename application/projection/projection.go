// Package projection derives the renderer-facing element list from a
// graph document. The projection is a view, never the source of truth:
// it copies everything it emits and silently repairs structural damage
// by dropping the offending element, logged for diagnosis.
package projection

import (
	"go.uber.org/zap"

	"kgraph/domain/core/aggregates"
)

// Visual classes attached to render nodes
const (
	ClassSelected = "selected"
	ClassLoading  = "loading"
)

// RenderNode is one node ready for the canvas
type RenderNode struct {
	ID       string                 `json:"id"`
	X        float64                `json:"x"`
	Y        float64                `json:"y"`
	Data     map[string]interface{} `json:"data"`
	Classes  []string               `json:"classes,omitempty"`
	Selected bool                   `json:"selected,omitempty"`
	Loading  bool                   `json:"loading,omitempty"`
}

// RenderEdge is one edge ready for the canvas
type RenderEdge struct {
	ID     string                 `json:"id"`
	Source string                 `json:"source"`
	Target string                 `json:"target"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Elements is the full projection output
type Elements struct {
	Nodes []RenderNode `json:"nodes"`
	Edges []RenderEdge `json:"edges"`
}

// Projector validates and projects graph documents
type Projector struct {
	logger *zap.Logger
}

// NewProjector creates a projector. A nil logger falls back to a no-op one.
func NewProjector(logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logger: logger}
}

// ProjectGraph projects a live aggregate via its document snapshot
func (p *Projector) ProjectGraph(g *aggregates.Graph) Elements {
	return p.Project(g.Document())
}

// Project derives render elements from a document. Nodes need an id, a
// finite position and a non-empty label; edges need both endpoints in
// the surviving node set. Everything else is dropped, never fatal.
func (p *Projector) Project(doc aggregates.GraphDocument) Elements {
	out := Elements{
		Nodes: make([]RenderNode, 0, len(doc.Nodes)),
		Edges: make([]RenderEdge, 0, len(doc.Edges)),
	}

	seen := make(map[string]bool, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		if nd.ID == "" {
			p.logger.Warn("projection dropped node without id", zap.String("graph_id", doc.ID))
			continue
		}
		if seen[nd.ID] {
			p.logger.Warn("projection dropped duplicate node",
				zap.String("graph_id", doc.ID), zap.String("node_id", nd.ID))
			continue
		}
		if nd.Position == nil || !nd.Position.IsValid() {
			p.logger.Warn("projection dropped node without valid position",
				zap.String("graph_id", doc.ID), zap.String("node_id", nd.ID))
			continue
		}
		label, _ := nd.Data["label"].(string)
		if label == "" {
			p.logger.Warn("projection dropped node without label",
				zap.String("graph_id", doc.ID), zap.String("node_id", nd.ID))
			continue
		}

		data := make(map[string]interface{}, len(nd.Data))
		for k, v := range nd.Data {
			data[k] = v
		}

		node := RenderNode{
			ID:   nd.ID,
			X:    nd.Position.X,
			Y:    nd.Position.Y,
			Data: data,
		}
		if doc.LastSelectedNodeID != "" && nd.ID == doc.LastSelectedNodeID {
			node.Selected = true
			node.Classes = append(node.Classes, ClassSelected)
		}
		if loading, _ := nd.Data["isLoading"].(bool); loading {
			node.Loading = true
		} else if extra, ok := doc.NodeData[nd.ID]; ok && extra != nil && extra.IsLoading {
			node.Loading = true
		}
		if node.Loading {
			node.Classes = append(node.Classes, ClassLoading)
		}

		seen[nd.ID] = true
		out.Nodes = append(out.Nodes, node)
	}

	// Edge endpoints are validated against the full surviving node set,
	// not incrementally, so edge order never matters
	seenEdges := make(map[string]bool, len(doc.Edges))
	for _, ed := range doc.Edges {
		if ed.Source == "" || ed.Target == "" {
			p.logger.Warn("projection dropped edge without endpoints",
				zap.String("graph_id", doc.ID), zap.String("edge_id", ed.ID))
			continue
		}
		if !seen[ed.Source] || !seen[ed.Target] {
			p.logger.Warn("projection dropped dangling edge",
				zap.String("graph_id", doc.ID),
				zap.String("edge_id", ed.ID),
				zap.String("source", ed.Source),
				zap.String("target", ed.Target))
			continue
		}

		id := ed.ID
		if id == "" {
			id = ed.Source + "-" + ed.Target
		}
		if seenEdges[id] {
			p.logger.Warn("projection dropped duplicate edge",
				zap.String("graph_id", doc.ID), zap.String("edge_id", id))
			continue
		}
		seenEdges[id] = true

		var data map[string]interface{}
		if len(ed.Data) > 0 {
			data = make(map[string]interface{}, len(ed.Data))
			for k, v := range ed.Data {
				data[k] = v
			}
		}
		out.Edges = append(out.Edges, RenderEdge{ID: id, Source: ed.Source, Target: ed.Target, Data: data})
	}

	return out
}
