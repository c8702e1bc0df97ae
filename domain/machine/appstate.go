package machine

import (
	"kgraph/domain/config"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

// SelectedNode is the denormalized selection the UI layer reads
type SelectedNode struct {
	ID    valueobjects.NodeID
	Label string
}

// ChatSession holds the transcript of the open chat panel. Messages stay
// here until EvAppendTranscript commits them to the node's data.
type ChatSession struct {
	NodeID   valueobjects.NodeID
	Messages []valueobjects.ChatMessage

	// committed marks how many leading messages already live in the
	// node's data, so AppendTranscript only commits the new tail.
	committed int
}

// AppState is the machine's extended state: everything beyond the phase
// itself. It is owned by the editor runtime and only mutated inside
// Transition, which keeps every change deterministic and replayable.
type AppState struct {
	State        State
	Graphs       []*aggregates.Graph
	CurrentGraph *aggregates.Graph
	SelectedNode *SelectedNode
	Viewport     valueobjects.Viewport
	ChatSession  *ChatSession
	Error        string

	// pendingNode is the node awaiting a position while in creating_node
	pendingNode valueobjects.NodeID
	// connectSource is the edge origin while in node_connecting
	connectSource valueobjects.NodeID
	// deleteTarget is the node awaiting confirmation in node_deleting
	deleteTarget valueobjects.NodeID
	// pendingImport is the payload awaiting confirmation in importing
	pendingImport []byte
	// pendingDelete is the graph awaiting confirmation in graph_deleting
	pendingDelete aggregates.GraphID

	cfg *config.DomainConfig
}

// NewAppState creates the initial extended state
func NewAppState(cfg *config.DomainConfig) *AppState {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &AppState{
		State:    Initial(),
		Graphs:   []*aggregates.Graph{},
		Viewport: valueobjects.DefaultViewport(),
		cfg:      cfg,
	}
}

// Config returns the domain configuration the machine validates against
func (a *AppState) Config() *config.DomainConfig {
	return a.cfg
}

// GraphByID finds a graph in the open set
func (a *AppState) GraphByID(id aggregates.GraphID) *aggregates.Graph {
	for _, g := range a.Graphs {
		if g.ID() == id {
			return g
		}
	}
	return nil
}

// selectNode sets the denormalized selection and mirrors it into the
// graph's lastSelected marker. Returns true when the selection changed.
func (a *AppState) selectNode(nodeID valueobjects.NodeID) bool {
	if a.CurrentGraph == nil {
		return false
	}
	node, err := a.CurrentGraph.GetNode(nodeID)
	if err != nil {
		return false
	}
	changed := a.CurrentGraph.SetLastSelected(nodeID)
	if a.SelectedNode == nil || !a.SelectedNode.ID.Equals(nodeID) {
		changed = true
	}
	a.SelectedNode = &SelectedNode{ID: nodeID, Label: node.Label()}
	return changed
}

// clearSelection drops the denormalized selection without touching the
// graph's lastSelected marker, which survives for restore on re-open.
func (a *AppState) clearSelection() {
	a.SelectedNode = nil
}
