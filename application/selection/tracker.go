// Package selection maintains the "current node" across graph switches
// and user clicks. The tracker never owns the selection; it computes what
// the selection should become and the state machine adopts the result.
package selection

import (
	"go.uber.org/zap"

	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

// Tracker carries the cross-graph selection memory
type Tracker struct {
	logger          *zap.Logger
	previousGraphID aggregates.GraphID

	// lastManual remembers the most recent explicit click per graph.
	// It outranks the automatic fallback rules when the node list
	// changes in place.
	lastManual map[aggregates.GraphID]valueobjects.NodeID
}

// NewTracker creates a tracker. A nil logger falls back to a no-op one.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		logger:     logger,
		lastManual: make(map[aggregates.GraphID]valueobjects.NodeID),
	}
}

// PreviousGraphID returns the graph the tracker last switched away from
func (t *Tracker) PreviousGraphID() aggregates.GraphID {
	return t.previousGraphID
}

// OnGraphSwitch handles the current graph changing. The outgoing
// selection is persisted onto the outgoing graph's lastSelected marker
// (best-effort, only when one existed), then a selection for the
// incoming graph is chosen:
//  1. the incoming graph's stored lastSelected node, when it still exists
//  2. the first node carrying a non-empty chat transcript
//  3. the first node in document order
//  4. zero when the graph is empty
//
// Returns the chosen selection and whether the outgoing graph's marker
// changed and should be persisted.
func (t *Tracker) OnGraphSwitch(outgoing, incoming *aggregates.Graph, outgoingSelection valueobjects.NodeID) (valueobjects.NodeID, bool) {
	outgoingChanged := false
	if outgoing != nil && !outgoingSelection.IsZero() {
		outgoingChanged = outgoing.SetLastSelected(outgoingSelection)
	}
	if outgoing != nil {
		t.previousGraphID = outgoing.ID()
	}

	if incoming == nil {
		return valueobjects.NodeID{}, outgoingChanged
	}
	return t.choose(incoming), outgoingChanged
}

// NoteManualSelection records an explicit click the state machine
// validated and applied, keeping the tracker's tie-break memory current.
func (t *Tracker) NoteManualSelection(graphID aggregates.GraphID, nodeID valueobjects.NodeID) {
	if nodeID.IsZero() {
		return
	}
	t.lastManual[graphID] = nodeID
}

// Reselect recomputes the selection after the node list changed in place
// (not a graph switch). The last manual click wins when it still resolves;
// otherwise the switch-time fallback order applies.
func (t *Tracker) Reselect(g *aggregates.Graph, current valueobjects.NodeID) valueobjects.NodeID {
	if !current.IsZero() && g.HasNode(current) {
		return current
	}
	if manual, ok := t.lastManual[g.ID()]; ok && g.HasNode(manual) {
		return manual
	}
	return t.choose(g)
}

// Forget drops the tracker's memory of a deleted graph
func (t *Tracker) Forget(graphID aggregates.GraphID) {
	delete(t.lastManual, graphID)
	if t.previousGraphID == graphID {
		t.previousGraphID = ""
	}
}

// choose applies the automatic fallback order for a graph
func (t *Tracker) choose(g *aggregates.Graph) valueobjects.NodeID {
	if last := g.LastSelectedNodeID(); !last.IsZero() && g.HasNode(last) {
		return last
	}
	if withChat := g.FirstNodeWithChat(); withChat != nil {
		return withChat.ID()
	}
	if first := g.FirstNode(); first != nil {
		return first.ID()
	}
	return valueobjects.NodeID{}
}
