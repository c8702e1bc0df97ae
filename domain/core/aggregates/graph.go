package aggregates

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kgraph/domain/config"
	"kgraph/domain/core/entities"
	"kgraph/domain/core/valueobjects"
	"kgraph/domain/events"
)

// GraphID represents a unique graph identifier.
// Ids are timestamp-derived and never reused: the creation instant in unix
// milliseconds plus a random suffix guarding against same-millisecond creates.
type GraphID string

// NewGraphID creates a new timestamp-derived GraphID
func NewGraphID() GraphID {
	return GraphID(fmt.Sprintf("g%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8]))
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// Graph is the aggregate root for one diagram document.
// It is the single source of truth for nodes, edges and per-node extras;
// the UI layer never mutates it directly, only through dispatched intents.
type Graph struct {
	id             GraphID
	title          string
	nodes          []*entities.Node
	nodeIndex      map[valueobjects.NodeID]*entities.Node
	edges          []*Edge
	edgeIndex      map[string]*Edge
	nodeData       map[valueobjects.NodeID]*NodeExtra
	lastSelectedID valueobjects.NodeID
	createdAt      time.Time
	updatedAt      time.Time
	events         []events.DomainEvent
}

// Edge represents a connection between nodes
type Edge struct {
	ID     string                 `json:"id"`
	Source valueobjects.NodeID    `json:"source"`
	Target valueobjects.NodeID    `json:"target"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// NodeExtra holds auxiliary per-node state not needed for rendering identity.
// Its lifecycle is tied to the owning node.
type NodeExtra struct {
	Chat      []valueobjects.ChatMessage `json:"chat,omitempty"`
	IsLoading bool                       `json:"isLoading,omitempty"`
}

// HasChat reports whether the node carries a non-empty chat transcript
func (e *NodeExtra) HasChat() bool {
	return e != nil && len(e.Chat) > 0
}

// DefaultEdgeID derives the edge id used when the caller supplies none
func DefaultEdgeID(source, target valueobjects.NodeID) string {
	return source.String() + "-" + target.String()
}

// NewGraph creates a new graph aggregate
func NewGraph(title string) (*Graph, error) {
	return NewGraphWithConfig(title, config.DefaultDomainConfig())
}

// NewGraphWithConfig creates a new graph aggregate with configuration
func NewGraphWithConfig(title string, cfg *config.DomainConfig) (*Graph, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if title == "" {
		title = cfg.DefaultGraphTitle
	}

	now := time.Now()
	graph := &Graph{
		id:        NewGraphID(),
		title:     title,
		nodes:     []*entities.Node{},
		nodeIndex: make(map[valueobjects.NodeID]*entities.Node),
		edges:     []*Edge{},
		edgeIndex: make(map[string]*Edge),
		nodeData:  make(map[valueobjects.NodeID]*NodeExtra),
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}

	graph.addEvent(events.NewGraphCreated(graph.id.String(), title, now))

	return graph, nil
}

// ID returns the graph's unique identifier
func (g *Graph) ID() GraphID {
	return g.id
}

// Title returns the graph's title
func (g *Graph) Title() string {
	return g.title
}

// Rename updates the graph's title
func (g *Graph) Rename(title string) error {
	if title == "" {
		return errors.New("graph title required")
	}
	g.title = title
	g.updatedAt = time.Now()
	return nil
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []*entities.Node {
	// Return a copy to maintain encapsulation
	nodes := make([]*entities.Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// GetNode retrieves a node by ID
func (g *Graph) GetNode(nodeID valueobjects.NodeID) (*entities.Node, error) {
	node, exists := g.nodeIndex[nodeID]
	if !exists {
		return nil, errors.New("node not found")
	}
	return node, nil
}

// HasNode checks if a node exists in the graph without error
func (g *Graph) HasNode(nodeID valueobjects.NodeID) bool {
	_, exists := g.nodeIndex[nodeID]
	return exists
}

// FirstNode returns the first node by insertion order, nil when empty
func (g *Graph) FirstNode() *entities.Node {
	if len(g.nodes) == 0 {
		return nil
	}
	return g.nodes[0]
}

// LastSelectedNodeID returns the remembered selection, zero when none
func (g *Graph) LastSelectedNodeID() valueobjects.NodeID {
	return g.lastSelectedID
}

// SetLastSelected remembers a node as the graph's current selection.
// Returns true when the stored selection actually changed.
func (g *Graph) SetLastSelected(nodeID valueobjects.NodeID) bool {
	if g.lastSelectedID.Equals(nodeID) {
		return false
	}
	if !nodeID.IsZero() && !g.HasNode(nodeID) {
		return false
	}
	g.lastSelectedID = nodeID
	g.updatedAt = time.Now()

	if !nodeID.IsZero() {
		g.addEvent(events.NewNodeSelected(g.id.String(), nodeID, g.updatedAt))
	}
	return true
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *entities.Node) error {
	return g.AddNodeWithConfig(node, config.DefaultDomainConfig())
}

// AddNodeWithConfig adds a node to the graph with configuration
func (g *Graph) AddNodeWithConfig(node *entities.Node, cfg *config.DomainConfig) error {
	if node == nil {
		return errors.New("node cannot be nil")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	nodeID := node.ID()
	if _, exists := g.nodeIndex[nodeID]; exists {
		return errors.New("node already exists in graph")
	}

	if len(g.nodes) >= cfg.MaxNodesPerGraph {
		return fmt.Errorf("maximum nodes reached: %d", cfg.MaxNodesPerGraph)
	}

	g.nodes = append(g.nodes, node)
	g.nodeIndex[nodeID] = node
	g.updatedAt = time.Now()

	g.addEvent(events.NewNodeAdded(g.id.String(), nodeID, node.Label(), g.updatedAt))

	return nil
}

// RemoveNode removes a node, its incident edges and its extras
func (g *Graph) RemoveNode(nodeID valueobjects.NodeID) error {
	if _, exists := g.nodeIndex[nodeID]; !exists {
		return errors.New("node not found")
	}

	kept := g.nodes[:0]
	for _, n := range g.nodes {
		if !n.ID().Equals(nodeID) {
			kept = append(kept, n)
		}
	}
	g.nodes = kept
	delete(g.nodeIndex, nodeID)

	// Incident edges go with the node
	keptEdges := g.edges[:0]
	for _, e := range g.edges {
		if e.Source.Equals(nodeID) || e.Target.Equals(nodeID) {
			delete(g.edgeIndex, e.ID)
			continue
		}
		keptEdges = append(keptEdges, e)
	}
	g.edges = keptEdges

	// Extras share the node's lifecycle
	delete(g.nodeData, nodeID)

	if g.lastSelectedID.Equals(nodeID) {
		g.lastSelectedID = valueobjects.NodeID{}
	}

	g.updatedAt = time.Now()
	g.addEvent(events.NewNodeRemoved(g.id.String(), nodeID, g.updatedAt))

	return nil
}

// ConnectNodes creates an edge between two existing nodes.
// An empty edgeID defaults to "<source>-<target>"; a duplicate id is
// silently collapsed onto the existing edge.
func (g *Graph) ConnectNodes(edgeID string, sourceID, targetID valueobjects.NodeID, data map[string]interface{}) (*Edge, error) {
	return g.ConnectNodesWithConfig(edgeID, sourceID, targetID, data, config.DefaultDomainConfig())
}

// ConnectNodesWithConfig creates an edge between two existing nodes with configuration
func (g *Graph) ConnectNodesWithConfig(edgeID string, sourceID, targetID valueobjects.NodeID, data map[string]interface{}, cfg *config.DomainConfig) (*Edge, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	_, sourceExists := g.nodeIndex[sourceID]
	_, targetExists := g.nodeIndex[targetID]
	if !sourceExists || !targetExists {
		return nil, errors.New("both nodes must exist in graph")
	}

	if !cfg.AllowSelfConnections && sourceID.Equals(targetID) {
		return nil, errors.New("cannot connect node to itself")
	}

	if edgeID == "" {
		edgeID = DefaultEdgeID(sourceID, targetID)
	}

	if existing, exists := g.edgeIndex[edgeID]; exists {
		// Duplicate edge ids collapse to the first occurrence
		return existing, nil
	}

	if !cfg.AllowDuplicateEdges {
		// A second edge over the same directed pair collapses too, even
		// under a distinct id
		for _, existing := range g.edges {
			if existing.Source.Equals(sourceID) && existing.Target.Equals(targetID) {
				return existing, nil
			}
		}
	}

	if len(g.edges) >= cfg.MaxEdgesPerGraph {
		return nil, fmt.Errorf("maximum edges reached: %d", cfg.MaxEdgesPerGraph)
	}

	edge := &Edge{
		ID:     edgeID,
		Source: sourceID,
		Target: targetID,
		Data:   data,
	}

	g.edges = append(g.edges, edge)
	g.edgeIndex[edgeID] = edge
	g.updatedAt = time.Now()

	g.addEvent(events.NewNodesConnected(edgeID, sourceID, targetID, g.updatedAt))

	return edge, nil
}

// Extra returns the auxiliary state for a node, nil when absent
func (g *Graph) Extra(nodeID valueobjects.NodeID) *NodeExtra {
	return g.nodeData[nodeID]
}

// FirstNodeWithChat returns the first node carrying a chat transcript
func (g *Graph) FirstNodeWithChat() *entities.Node {
	for _, n := range g.nodes {
		if g.nodeData[n.ID()].HasChat() {
			return n
		}
	}
	return nil
}

// AppendChat commits a chat message to a node's transcript
func (g *Graph) AppendChat(nodeID valueobjects.NodeID, msg valueobjects.ChatMessage) error {
	if !g.HasNode(nodeID) {
		return errors.New("node not found")
	}

	extra := g.nodeData[nodeID]
	if extra == nil {
		extra = &NodeExtra{}
		g.nodeData[nodeID] = extra
	}
	extra.Chat = append(extra.Chat, msg)
	g.updatedAt = time.Now()

	g.addEvent(events.NewChatMessageAppended(nodeID, msg.Role, g.updatedAt))

	return nil
}

// SetNodeLoading flags a node's extras as awaiting an async operation
func (g *Graph) SetNodeLoading(nodeID valueobjects.NodeID, loading bool) error {
	node, exists := g.nodeIndex[nodeID]
	if !exists {
		return errors.New("node not found")
	}

	node.SetLoading(loading)

	extra := g.nodeData[nodeID]
	if extra == nil {
		extra = &NodeExtra{}
		g.nodeData[nodeID] = extra
	}
	extra.IsLoading = loading
	return nil
}

// CreatedAt returns when the graph was created
func (g *Graph) CreatedAt() time.Time {
	return g.createdAt
}

// UpdatedAt returns when the graph was last updated
func (g *Graph) UpdatedAt() time.Time {
	return g.updatedAt
}

// Validate ensures graph invariants
func (g *Graph) Validate() error {
	for _, edge := range g.edges {
		if _, exists := g.nodeIndex[edge.Source]; !exists {
			return errors.New("edge references non-existent source node")
		}
		if _, exists := g.nodeIndex[edge.Target]; !exists {
			return errors.New("edge references non-existent target node")
		}
	}
	if len(g.nodes) != len(g.nodeIndex) {
		return errors.New("node index out of sync")
	}
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	allEvents := make([]events.DomainEvent, len(g.events))
	copy(allEvents, g.events)

	for _, node := range g.nodes {
		allEvents = append(allEvents, node.GetUncommittedEvents()...)
	}

	return allEvents
}

// MarkEventsAsCommitted clears all uncommitted events
func (g *Graph) MarkEventsAsCommitted() {
	g.events = []events.DomainEvent{}

	for _, node := range g.nodes {
		node.MarkEventsAsCommitted()
	}
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}
