package machine

import (
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

// Event is an input to the editor state machine. Events carry intent only;
// all mutation happens inside Transition.
type Event interface {
	EventType() string
}

// EvCreateGraph creates a new graph and opens it
type EvCreateGraph struct {
	Title string
}

func (EvCreateGraph) EventType() string { return "CREATE_GRAPH" }

// EvStartGraphCreate opens the graph creation dialog
type EvStartGraphCreate struct{}

func (EvStartGraphCreate) EventType() string { return "START_GRAPH_CREATE" }

// EvSelectGraph switches the current graph
type EvSelectGraph struct {
	GraphID aggregates.GraphID
}

func (EvSelectGraph) EventType() string { return "SELECT_GRAPH" }

// EvStateLoaded delivers the result of a storage load
type EvStateLoaded struct {
	Graphs         []*aggregates.Graph
	CurrentGraphID aggregates.GraphID
	Viewport       valueobjects.Viewport
}

func (EvStateLoaded) EventType() string { return "STATE_LOADED" }

// EvSelectionResolved delivers the selection computed after a graph switch
type EvSelectionResolved struct {
	NodeID valueobjects.NodeID
}

func (EvSelectionResolved) EventType() string { return "SELECTION_RESOLVED" }

// EvAddNode creates a node in the current graph. ID may be zero, in
// which case a fresh one is minted.
type EvAddNode struct {
	ID     valueobjects.NodeID
	Label  string
	Parent valueobjects.NodeID
}

func (EvAddNode) EventType() string { return "ADD_NODE" }

// EvStartNodeCreate enters the node creation sub-state
type EvStartNodeCreate struct{}

func (EvStartNodeCreate) EventType() string { return "START_NODE_CREATE" }

// EvSelectNode marks a node as selected
type EvSelectNode struct {
	NodeID valueobjects.NodeID
}

func (EvSelectNode) EventType() string { return "SELECT_NODE" }

// EvStartNodeMove enters the drag sub-state for one node
type EvStartNodeMove struct {
	NodeID valueobjects.NodeID
}

func (EvStartNodeMove) EventType() string { return "START_NODE_MOVE" }

// EvPositionSet commits a position for the node being created or moved
type EvPositionSet struct {
	NodeID valueobjects.NodeID
	X, Y   float64
}

func (EvPositionSet) EventType() string { return "POSITION_SET" }

// EvStartNodeEdit enters the label editing sub-state
type EvStartNodeEdit struct {
	NodeID valueobjects.NodeID
}

func (EvStartNodeEdit) EventType() string { return "START_NODE_EDIT" }

// EvRenameNode commits a new label for the node being edited
type EvRenameNode struct {
	NodeID valueobjects.NodeID
	Label  string
}

func (EvRenameNode) EventType() string { return "RENAME_NODE" }

// EvStartConnect enters the edge drawing sub-state from a source node
type EvStartConnect struct {
	SourceID valueobjects.NodeID
}

func (EvStartConnect) EventType() string { return "START_CONNECT" }

// EvConnectNodes commits an edge between two existing nodes
type EvConnectNodes struct {
	EdgeID   string
	SourceID valueobjects.NodeID
	TargetID valueobjects.NodeID
}

func (EvConnectNodes) EventType() string { return "CONNECT_NODES" }

// EvStartNodeDelete enters the delete confirmation sub-state
type EvStartNodeDelete struct {
	NodeID valueobjects.NodeID
}

func (EvStartNodeDelete) EventType() string { return "START_NODE_DELETE" }

// EvConfirm confirms the pending destructive action
type EvConfirm struct{}

func (EvConfirm) EventType() string { return "CONFIRM" }

// EvCancel abandons the current sub-state without committing
type EvCancel struct{}

func (EvCancel) EventType() string { return "CANCEL" }

// EvChat opens the chat panel for the selected node
type EvChat struct{}

func (EvChat) EventType() string { return "CHAT" }

// EvSendMessage sends a user message to the chat collaborator
type EvSendMessage struct {
	Content string
}

func (EvSendMessage) EventType() string { return "SEND_MESSAGE" }

// EvMessageReceived delivers the collaborator's reply
type EvMessageReceived struct {
	Content string
}

func (EvMessageReceived) EventType() string { return "MESSAGE_RECEIVED" }

// EvChatFailed reports that the collaborator call did not produce a reply
type EvChatFailed struct {
	Reason string
}

func (EvChatFailed) EventType() string { return "CHAT_FAILED" }

// EvAppendTranscript commits the open chat session to the node's data
type EvAppendTranscript struct{}

func (EvAppendTranscript) EventType() string { return "APPEND_TRANSCRIPT" }

// EvClose leaves the current panel or sub-state
type EvClose struct{}

func (EvClose) EventType() string { return "CLOSE" }

// EvImport loads a graph from an external payload
type EvImport struct {
	Payload []byte
}

func (EvImport) EventType() string { return "IMPORT" }

// EvExport requests a serialized snapshot of the current graph
type EvExport struct{}

func (EvExport) EventType() string { return "EXPORT" }

// EvExportDone reports that the export effect completed
type EvExportDone struct{}

func (EvExportDone) EventType() string { return "EXPORT_DONE" }

// EvDeleteGraph removes a graph and its stored viewport
type EvDeleteGraph struct {
	GraphID aggregates.GraphID
}

func (EvDeleteGraph) EventType() string { return "DELETE_GRAPH" }

// EvClearData wipes all persisted editor state
type EvClearData struct{}

func (EvClearData) EventType() string { return "CLEAR_DATA" }

// EvCleared reports that the storage wipe completed
type EvCleared struct{}

func (EvCleared) EventType() string { return "CLEARED" }

// EvOpenSettings opens the settings panel
type EvOpenSettings struct{}

func (EvOpenSettings) EventType() string { return "OPEN_SETTINGS" }

// EvSetViewport records the canvas viewport
type EvSetViewport struct {
	Viewport valueobjects.Viewport
}

func (EvSetViewport) EventType() string { return "SET_VIEWPORT" }

// EvError pushes the machine into the error state
type EvError struct {
	Message string
}

func (EvError) EventType() string { return "ERROR" }

// EvRetry leaves the error state and reloads persisted state
type EvRetry struct{}

func (EvRetry) EventType() string { return "RETRY" }

// EvClear dismisses the error and returns to idle, which reloads
// persisted state the same way EvRetry does
type EvClear struct{}

func (EvClear) EventType() string { return "CLEAR" }
