package aggregates

import (
	"time"

	"kgraph/domain/core/entities"
	"kgraph/domain/core/valueobjects"
	"kgraph/domain/events"
)

// GraphDocument is the serialized form of a Graph aggregate. This is the
// shape that crosses the persistence and import/export boundaries.
type GraphDocument struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Nodes              []NodeDocument        `json:"nodes"`
	Edges              []EdgeDocument        `json:"edges"`
	NodeData           map[string]*NodeExtra `json:"nodeData,omitempty"`
	LastSelectedNodeID string                `json:"lastSelectedNodeId,omitempty"`
	CreatedAt          time.Time             `json:"createdAt,omitempty"`
	UpdatedAt          time.Time             `json:"updatedAt,omitempty"`
}

// NodeDocument is the serialized form of a node
type NodeDocument struct {
	ID       string                 `json:"id"`
	Position *valueobjects.Position `json:"position"`
	Data     map[string]interface{} `json:"data"`
}

// EdgeDocument is the serialized form of an edge
type EdgeDocument struct {
	ID     string                 `json:"id,omitempty"`
	Source string                 `json:"source"`
	Target string                 `json:"target"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Document produces the serialized snapshot of the graph
func (g *Graph) Document() GraphDocument {
	doc := GraphDocument{
		ID:                 g.id.String(),
		Title:              g.title,
		Nodes:              make([]NodeDocument, 0, len(g.nodes)),
		Edges:              make([]EdgeDocument, 0, len(g.edges)),
		NodeData:           make(map[string]*NodeExtra, len(g.nodeData)),
		LastSelectedNodeID: g.lastSelectedID.String(),
		CreatedAt:          g.createdAt,
		UpdatedAt:          g.updatedAt,
	}

	for _, n := range g.nodes {
		data := n.Data()
		data["label"] = n.Label()
		if n.IsLoading() {
			data["isLoading"] = true
		}
		doc.Nodes = append(doc.Nodes, NodeDocument{
			ID:       n.ID().String(),
			Position: n.Position(),
			Data:     data,
		})
	}

	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, EdgeDocument{
			ID:     e.ID,
			Source: e.Source.String(),
			Target: e.Target.String(),
			Data:   e.Data,
		})
	}

	for id, extra := range g.nodeData {
		doc.NodeData[id.String()] = extra
	}

	return doc
}

// FromDocument reconstructs a graph aggregate from its serialized form.
// Reconstruction is tolerant: structurally broken nodes or edges are kept
// out of the aggregate rather than failing the whole load, matching the
// repair-by-dropping policy of the projection layer.
func FromDocument(doc GraphDocument) (*Graph, error) {
	now := time.Now()
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	id := GraphID(doc.ID)
	if doc.ID == "" {
		id = NewGraphID()
	}

	graph := &Graph{
		id:        id,
		title:     doc.Title,
		nodes:     []*entities.Node{},
		nodeIndex: make(map[valueobjects.NodeID]*entities.Node),
		edges:     []*Edge{},
		edgeIndex: make(map[string]*Edge),
		nodeData:  make(map[valueobjects.NodeID]*NodeExtra),
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}

	for _, nd := range doc.Nodes {
		nodeID, err := valueobjects.NewNodeIDFromString(nd.ID)
		if err != nil {
			continue
		}
		if _, dup := graph.nodeIndex[nodeID]; dup {
			continue
		}

		label, _ := nd.Data["label"].(string)
		isLoading, _ := nd.Data["isLoading"].(bool)
		data := make(map[string]interface{}, len(nd.Data))
		for k, v := range nd.Data {
			if k == "label" || k == "isLoading" {
				continue
			}
			data[k] = v
		}

		position := nd.Position
		if position != nil && !position.IsValid() {
			position = nil
		}

		node, err := entities.ReconstructNode(nodeID, label, position, isLoading, data, createdAt, updatedAt)
		if err != nil {
			continue
		}
		graph.nodes = append(graph.nodes, node)
		graph.nodeIndex[nodeID] = node
	}

	for _, ed := range doc.Edges {
		sourceID, serr := valueobjects.NewNodeIDFromString(ed.Source)
		targetID, terr := valueobjects.NewNodeIDFromString(ed.Target)
		if serr != nil || terr != nil {
			continue
		}
		if !graph.HasNode(sourceID) || !graph.HasNode(targetID) {
			continue
		}

		edgeID := ed.ID
		if edgeID == "" {
			edgeID = DefaultEdgeID(sourceID, targetID)
		}
		if _, dup := graph.edgeIndex[edgeID]; dup {
			continue
		}

		edge := &Edge{ID: edgeID, Source: sourceID, Target: targetID, Data: ed.Data}
		graph.edges = append(graph.edges, edge)
		graph.edgeIndex[edgeID] = edge
	}

	for rawID, extra := range doc.NodeData {
		nodeID, err := valueobjects.NewNodeIDFromString(rawID)
		if err != nil || !graph.HasNode(nodeID) {
			continue
		}
		graph.nodeData[nodeID] = extra
	}

	if doc.LastSelectedNodeID != "" {
		if nodeID, err := valueobjects.NewNodeIDFromString(doc.LastSelectedNodeID); err == nil && graph.HasNode(nodeID) {
			graph.lastSelectedID = nodeID
		}
	}

	return graph, nil
}
