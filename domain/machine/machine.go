// Package machine implements the editor's hierarchical state machine.
// Transition is a pure function over the extended state: it mutates the
// given AppState deterministically, performs no IO, and returns the side
// effects the runtime must execute. Feeding the same event sequence into
// a fresh AppState always reproduces the same state.
package machine

import (
	"strings"

	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/entities"
	"kgraph/domain/core/valueobjects"
)

// Transition applies one event to the state machine. Unknown or
// out-of-phase events are ignored with a debug log effect, never an
// error: stray UI events must not wedge the editor.
func Transition(app *AppState, ev Event) []Effect {
	// Events accepted in any phase
	switch e := ev.(type) {
	case EvError:
		return toError(app, e.Message)
	case EvSetViewport:
		app.Viewport = e.Viewport
		return []Effect{EffectPersistState{}}
	}

	switch app.State.Phase {
	case PhaseIdle:
		return transitionIdle(app, ev)
	case PhaseGraphCreating:
		return transitionGraphCreating(app, ev)
	case PhaseGraphOpen:
		return transitionGraphOpen(app, ev)
	case PhaseImporting:
		return transitionImporting(app, ev)
	case PhaseExporting:
		return transitionExporting(app, ev)
	case PhaseGraphDeleting:
		return transitionGraphDeleting(app, ev)
	case PhaseClearingData:
		return transitionClearingData(app, ev)
	case PhaseSettingsOpen:
		return transitionSettingsOpen(app, ev)
	case PhaseError:
		return transitionError(app, ev)
	}
	return ignored(ev)
}

func transitionIdle(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvStateLoaded:
		return applyLoadedState(app, e)
	case EvStartGraphCreate:
		app.State = State{Phase: PhaseGraphCreating}
		return nil
	case EvCreateGraph:
		return createGraph(app, e.Title)
	case EvSelectGraph:
		return openGraph(app, e.GraphID)
	case EvImport:
		return startImport(app, e.Payload)
	case EvDeleteGraph:
		return startGraphDelete(app, e.GraphID)
	case EvClearData:
		app.State = State{Phase: PhaseClearingData}
		return nil
	case EvOpenSettings:
		app.State = State{Phase: PhaseSettingsOpen}
		return nil
	case EvCleared:
		return nil
	}
	return ignored(ev)
}

func transitionGraphCreating(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvCreateGraph:
		return createGraph(app, e.Title)
	case EvCancel, EvClose:
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionGraphOpen(app *AppState, ev Event) []Effect {
	if app.CurrentGraph == nil {
		return toError(app, "graph_open without a current graph")
	}

	// Events accepted in every graph_open sub-state
	switch e := ev.(type) {
	case EvSelectGraph:
		return openGraph(app, e.GraphID)
	case EvStartGraphCreate:
		app.State = State{Phase: PhaseGraphCreating}
		return nil
	case EvCreateGraph:
		return createGraph(app, e.Title)
	case EvDeleteGraph:
		return startGraphDelete(app, e.GraphID)
	case EvImport:
		return startImport(app, e.Payload)
	case EvExport:
		app.State = State{Phase: PhaseExporting}
		return []Effect{EffectExportDocument{GraphID: app.CurrentGraph.ID()}}
	case EvClearData:
		app.State = State{Phase: PhaseClearingData}
		return nil
	case EvOpenSettings:
		app.State = State{Phase: PhaseSettingsOpen}
		return nil
	case EvSelectionResolved:
		return applyResolvedSelection(app, e.NodeID)
	}

	switch app.State.Sub {
	case SubNodeIdle:
		return transitionNodeIdle(app, ev)
	case SubNodeCreating:
		return transitionNodeCreating(app, ev)
	case SubCreatingNode:
		return transitionCreatingNode(app, ev)
	case SubNodeSelected:
		return transitionNodeSelected(app, ev)
	case SubNodeEditing:
		return transitionNodeEditing(app, ev)
	case SubNodeMoving:
		return transitionNodeMoving(app, ev)
	case SubNodeConnecting:
		return transitionNodeConnecting(app, ev)
	case SubNodeDeleting:
		return transitionNodeDeleting(app, ev)
	case SubChatActive:
		return transitionChatActive(app, ev)
	case SubChatProcessing:
		return transitionChatProcessing(app, ev)
	}
	return ignored(ev)
}

func transitionNodeIdle(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvStartNodeCreate:
		app.State = GraphOpen(SubNodeCreating)
		return nil
	case EvAddNode:
		return addNode(app, e)
	case EvSelectNode:
		return applyClickSelection(app, e.NodeID)
	}
	return ignored(ev)
}

func transitionNodeCreating(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvAddNode:
		return addNode(app, e)
	case EvCancel, EvClose:
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionCreatingNode(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvPositionSet:
		return applyPosition(app, e, GraphOpen(SubNodeSelected))
	case EvCancel:
		if !app.pendingNode.IsZero() {
			if err := app.CurrentGraph.RemoveNode(app.pendingNode); err == nil {
				app.pendingNode = valueobjects.NodeID{}
				app.State = returnState(app)
				return []Effect{EffectPersistState{}}
			}
		}
		app.pendingNode = valueobjects.NodeID{}
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionNodeSelected(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvSelectNode:
		return applyClickSelection(app, e.NodeID)
	case EvStartNodeCreate:
		app.State = GraphOpen(SubNodeCreating)
		return nil
	case EvAddNode:
		return addNode(app, e)
	case EvStartNodeMove:
		if !app.CurrentGraph.HasNode(e.NodeID) {
			return ignored(ev)
		}
		app.pendingNode = e.NodeID
		app.State = GraphOpen(SubNodeMoving)
		return nil
	case EvStartNodeEdit:
		if !app.CurrentGraph.HasNode(e.NodeID) {
			return ignored(ev)
		}
		app.pendingNode = e.NodeID
		app.State = GraphOpen(SubNodeEditing)
		return nil
	case EvStartConnect:
		if !app.CurrentGraph.HasNode(e.SourceID) {
			return ignored(ev)
		}
		app.connectSource = e.SourceID
		app.State = GraphOpen(SubNodeConnecting)
		return nil
	case EvStartNodeDelete:
		if !app.CurrentGraph.HasNode(e.NodeID) {
			return ignored(ev)
		}
		app.deleteTarget = e.NodeID
		app.State = GraphOpen(SubNodeDeleting)
		return nil
	case EvChat:
		return openChat(app)
	case EvClose:
		app.clearSelection()
		app.State = GraphOpen(SubNodeIdle)
		return nil
	}
	return ignored(ev)
}

func transitionNodeEditing(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvRenameNode:
		nodeID := e.NodeID
		if nodeID.IsZero() {
			nodeID = app.pendingNode
		}
		node, err := app.CurrentGraph.GetNode(nodeID)
		if err != nil {
			return ignored(ev)
		}
		if err := node.Rename(e.Label); err != nil {
			return []Effect{EffectLog{Level: "warn", Message: "rename rejected: " + err.Error()}}
		}
		if app.SelectedNode != nil && app.SelectedNode.ID.Equals(nodeID) {
			app.SelectedNode.Label = node.Label()
		}
		app.pendingNode = valueobjects.NodeID{}
		app.State = GraphOpen(SubNodeSelected)
		return []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
	case EvCancel, EvClose:
		app.pendingNode = valueobjects.NodeID{}
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	return ignored(ev)
}

func transitionNodeMoving(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvPositionSet:
		return applyPosition(app, e, GraphOpen(SubNodeSelected))
	case EvCancel, EvClose:
		app.pendingNode = valueobjects.NodeID{}
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	return ignored(ev)
}

func transitionNodeConnecting(app *AppState, ev Event) []Effect {
	switch e := ev.(type) {
	case EvConnectNodes:
		sourceID := e.SourceID
		if sourceID.IsZero() {
			sourceID = app.connectSource
		}
		if _, err := app.CurrentGraph.ConnectNodesWithConfig(e.EdgeID, sourceID, e.TargetID, nil, app.cfg); err != nil {
			app.connectSource = valueobjects.NodeID{}
			app.State = GraphOpen(SubNodeSelected)
			return []Effect{EffectLog{Level: "warn", Message: "connect rejected: " + err.Error()}}
		}
		app.connectSource = valueobjects.NodeID{}
		app.State = GraphOpen(SubNodeSelected)
		return []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
	case EvCancel, EvClose:
		app.connectSource = valueobjects.NodeID{}
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	return ignored(ev)
}

func transitionNodeDeleting(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvConfirm:
		target := app.deleteTarget
		app.deleteTarget = valueobjects.NodeID{}
		if err := app.CurrentGraph.RemoveNode(target); err != nil {
			app.State = GraphOpen(SubNodeSelected)
			return []Effect{EffectLog{Level: "warn", Message: "delete rejected: " + err.Error()}}
		}
		effects := []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
		if app.SelectedNode != nil && app.SelectedNode.ID.Equals(target) {
			// The selection died with the node; ask the tracker for a
			// replacement among the survivors
			app.clearSelection()
			app.State = GraphOpen(SubNodeIdle)
			return append(effects, EffectReselect{GraphID: app.CurrentGraph.ID()})
		}
		if app.SelectedNode != nil {
			app.State = GraphOpen(SubNodeSelected)
		} else {
			app.State = GraphOpen(SubNodeIdle)
		}
		return effects
	case EvCancel, EvClose:
		app.deleteTarget = valueobjects.NodeID{}
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	return ignored(ev)
}

func transitionChatActive(app *AppState, ev Event) []Effect {
	if app.ChatSession == nil {
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	switch e := ev.(type) {
	case EvSendMessage:
		content := strings.TrimSpace(e.Content)
		if content == "" {
			return ignored(ev)
		}
		msg, err := valueobjects.NewChatMessage(valueobjects.RoleUser, content)
		if err != nil {
			return []Effect{EffectLog{Level: "warn", Message: "chat message rejected: " + err.Error()}}
		}
		app.ChatSession.Messages = append(app.ChatSession.Messages, msg)
		trimChatSession(app.ChatSession, app.cfg.MaxChatMessages)
		_ = app.CurrentGraph.SetNodeLoading(app.ChatSession.NodeID, true)
		app.State = GraphOpen(SubChatProcessing)

		history := make([]valueobjects.ChatMessage, len(app.ChatSession.Messages))
		copy(history, app.ChatSession.Messages)
		return []Effect{EffectCallChat{
			GraphID:  app.CurrentGraph.ID(),
			NodeID:   app.ChatSession.NodeID,
			Messages: history,
		}}
	case EvAppendTranscript:
		return appendTranscript(app)
	case EvClose, EvCancel:
		_ = app.CurrentGraph.SetNodeLoading(app.ChatSession.NodeID, false)
		app.ChatSession = nil
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	return ignored(ev)
}

func transitionChatProcessing(app *AppState, ev Event) []Effect {
	if app.ChatSession == nil {
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	switch e := ev.(type) {
	case EvMessageReceived:
		return receiveChatReply(app, e.Content, nil)
	case EvChatFailed:
		return receiveChatReply(app, app.cfg.FallbackChatAnswer, []Effect{
			EffectLog{Level: "warn", Message: "chat collaborator failed: " + e.Reason},
		})
	case EvCancel:
		_ = app.CurrentGraph.SetNodeLoading(app.ChatSession.NodeID, false)
		app.State = GraphOpen(SubChatActive)
		return nil
	}
	return ignored(ev)
}

func transitionImporting(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvConfirm:
		payload := app.pendingImport
		app.pendingImport = nil
		return applyImport(app, payload)
	case EvCancel, EvClose:
		app.pendingImport = nil
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionExporting(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvExportDone, EvClose, EvCancel:
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionGraphDeleting(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvConfirm:
		target := app.pendingDelete
		app.pendingDelete = ""
		return applyGraphDelete(app, target)
	case EvCancel, EvClose:
		app.pendingDelete = ""
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionClearingData(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvConfirm:
		app.Graphs = []*aggregates.Graph{}
		app.CurrentGraph = nil
		app.clearSelection()
		app.ChatSession = nil
		app.Viewport = valueobjects.DefaultViewport()
		app.State = Initial()
		return []Effect{EffectClearStorage{}}
	case EvCancel, EvClose:
		app.State = returnState(app)
		return nil
	}
	return ignored(ev)
}

func transitionSettingsOpen(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvClose, EvCancel:
		app.State = returnState(app)
		return nil
	case EvClearData:
		app.State = State{Phase: PhaseClearingData}
		return nil
	}
	return ignored(ev)
}

func transitionError(app *AppState, ev Event) []Effect {
	switch ev.(type) {
	case EvRetry, EvClear:
		// Re-entering idle always reloads durable state so the editor
		// reflects what actually persisted before the failure.
		app.Error = ""
		app.State = Initial()
		return []Effect{EffectLoadState{}}
	}
	return ignored(ev)
}

// createGraph adds a fresh graph and makes it current
func createGraph(app *AppState, title string) []Effect {
	graph, err := aggregates.NewGraphWithConfig(title, app.cfg)
	if err != nil {
		return toError(app, "create graph: "+err.Error())
	}
	app.Graphs = append(app.Graphs, graph)
	app.CurrentGraph = graph
	app.clearSelection()
	app.ChatSession = nil
	app.State = GraphOpen(SubNodeIdle)
	return []Effect{EffectPersistState{}}
}

// openGraph switches the current graph and defers the selection decision
// to the selection tracker via EffectResolveSelection.
func openGraph(app *AppState, id aggregates.GraphID) []Effect {
	graph := app.GraphByID(id)
	if graph == nil {
		return []Effect{EffectLog{Level: "warn", Message: "select unknown graph " + id.String()}}
	}
	if app.CurrentGraph != nil && app.CurrentGraph.ID() == id {
		return nil
	}

	var prevID aggregates.GraphID
	if app.CurrentGraph != nil {
		prevID = app.CurrentGraph.ID()
	}
	app.CurrentGraph = graph
	app.clearSelection()
	app.ChatSession = nil
	app.State = GraphOpen(SubNodeIdle)
	return []Effect{
		EffectResolveSelection{PrevGraphID: prevID, GraphID: id},
		EffectPersistState{},
	}
}

// addNode creates an unplaced node and waits for a position
func addNode(app *AppState, e EvAddNode) []Effect {
	node, err := entities.NewNodeWithConfig(e.ID, e.Label, app.cfg)
	if err != nil {
		return []Effect{EffectLog{Level: "warn", Message: "add node rejected: " + err.Error()}}
	}
	if err := app.CurrentGraph.AddNodeWithConfig(node, app.cfg); err != nil {
		return []Effect{EffectLog{Level: "warn", Message: "add node rejected: " + err.Error()}}
	}
	app.pendingNode = node.ID()
	app.State = GraphOpen(SubCreatingNode)
	return []Effect{EffectPersistState{}}
}

// applyPosition commits a validated position to the pending node
func applyPosition(app *AppState, e EvPositionSet, next State) []Effect {
	if !IsValidPosition(e.X, e.Y) {
		return toError(app, "position coordinates must be finite numbers")
	}
	nodeID := e.NodeID
	if nodeID.IsZero() {
		nodeID = app.pendingNode
	}
	node, err := app.CurrentGraph.GetNode(nodeID)
	if err != nil {
		return ignored(e)
	}
	position, err := valueobjects.NewPosition(e.X, e.Y)
	if err != nil {
		return []Effect{EffectLog{Level: "warn", Message: "position rejected: " + err.Error()}}
	}
	if err := node.MoveTo(position); err != nil {
		return []Effect{EffectLog{Level: "warn", Message: "position rejected: " + err.Error()}}
	}
	app.pendingNode = valueobjects.NodeID{}
	app.selectNode(nodeID)
	app.State = next
	return []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
}

// applyClickSelection handles a direct node click. Clicks on unknown
// nodes and on nodes without a label are rejected and logged; the
// selection and state stay as they were. Unlabeled nodes exist in
// imported or restored documents whose data carries no label entry.
func applyClickSelection(app *AppState, nodeID valueobjects.NodeID) []Effect {
	node, err := app.CurrentGraph.GetNode(nodeID)
	if err != nil {
		return []Effect{EffectLog{Level: "warn", Message: "click on unknown node " + nodeID.String()}}
	}
	if node.Label() == "" {
		return []Effect{EffectLog{Level: "warn", Message: "click on unlabeled node rejected: " + nodeID.String()}}
	}
	if !app.selectNode(nodeID) {
		app.State = GraphOpen(SubNodeSelected)
		return nil
	}
	app.State = GraphOpen(SubNodeSelected)
	return []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
}

// applyResolvedSelection adopts the selection the tracker computed after
// a graph switch. A zero node id means nothing is selectable.
func applyResolvedSelection(app *AppState, nodeID valueobjects.NodeID) []Effect {
	if nodeID.IsZero() {
		app.clearSelection()
		app.State = GraphOpen(SubNodeIdle)
		return nil
	}
	changed := app.selectNode(nodeID)
	if app.SelectedNode == nil {
		// Tracker pointed at a node that no longer exists
		app.State = GraphOpen(SubNodeIdle)
		return nil
	}
	app.State = GraphOpen(SubNodeSelected)
	if changed {
		return []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
	}
	return nil
}

// openChat starts a chat session seeded with the node's stored transcript
func openChat(app *AppState) []Effect {
	if app.SelectedNode == nil {
		return []Effect{EffectLog{Level: "debug", Message: "chat requires a selected node"}}
	}
	session := &ChatSession{NodeID: app.SelectedNode.ID}
	if extra := app.CurrentGraph.Extra(app.SelectedNode.ID); extra != nil && len(extra.Chat) > 0 {
		session.Messages = make([]valueobjects.ChatMessage, len(extra.Chat))
		copy(session.Messages, extra.Chat)
		session.committed = len(extra.Chat)
	}
	app.ChatSession = session
	app.State = GraphOpen(SubChatActive)
	return nil
}

// receiveChatReply appends the assistant's answer and reopens the panel
func receiveChatReply(app *AppState, content string, extra []Effect) []Effect {
	msg, err := valueobjects.NewChatMessage(valueobjects.RoleAssistant, content)
	if err == nil {
		app.ChatSession.Messages = append(app.ChatSession.Messages, msg)
		trimChatSession(app.ChatSession, app.cfg.MaxChatMessages)
	}
	_ = app.CurrentGraph.SetNodeLoading(app.ChatSession.NodeID, false)
	app.State = GraphOpen(SubChatActive)
	return extra
}

// trimChatSession drops the oldest messages beyond the configured cap.
// The committed marker shifts with the trim so AppendTranscript keeps
// writing only the tail that never reached the node's data.
func trimChatSession(session *ChatSession, max int) {
	if max <= 0 || len(session.Messages) <= max {
		return
	}
	drop := len(session.Messages) - max
	session.Messages = session.Messages[drop:]
	session.committed -= drop
	if session.committed < 0 {
		session.committed = 0
	}
}

// appendTranscript commits the uncommitted tail of the chat session
func appendTranscript(app *AppState) []Effect {
	session := app.ChatSession
	if session.committed >= len(session.Messages) {
		return nil
	}
	for _, msg := range session.Messages[session.committed:] {
		if err := app.CurrentGraph.AppendChat(session.NodeID, msg); err != nil {
			return []Effect{EffectLog{Level: "warn", Message: "append transcript: " + err.Error()}}
		}
	}
	session.committed = len(session.Messages)
	return []Effect{EffectPersistGraph{GraphID: app.CurrentGraph.ID()}}
}

// startImport parks the payload and waits for confirmation
func startImport(app *AppState, payload []byte) []Effect {
	app.pendingImport = payload
	app.State = State{Phase: PhaseImporting}
	return nil
}

// applyImport validates and loads a parked import payload
func applyImport(app *AppState, payload []byte) []Effect {
	doc, err := ValidateGraphData(payload)
	if err != nil {
		return toError(app, "import: "+err.Error())
	}
	graph, err := aggregates.FromDocument(*doc)
	if err != nil {
		return toError(app, "import: "+err.Error())
	}
	app.Graphs = append(app.Graphs, graph)
	app.CurrentGraph = graph
	app.clearSelection()
	app.ChatSession = nil

	if last := graph.LastSelectedNodeID(); !last.IsZero() && app.selectNode(last) {
		app.State = GraphOpen(SubNodeSelected)
	} else {
		app.State = GraphOpen(SubNodeIdle)
	}
	return []Effect{EffectPersistState{}}
}

// startGraphDelete parks the graph id and waits for confirmation
func startGraphDelete(app *AppState, id aggregates.GraphID) []Effect {
	if app.GraphByID(id) == nil {
		return []Effect{EffectLog{Level: "warn", Message: "delete unknown graph " + id.String()}}
	}
	app.pendingDelete = id
	app.State = State{Phase: PhaseGraphDeleting}
	return nil
}

// applyGraphDelete removes a graph and purges its stored viewport
func applyGraphDelete(app *AppState, id aggregates.GraphID) []Effect {
	kept := app.Graphs[:0]
	for _, g := range app.Graphs {
		if g.ID() != id {
			kept = append(kept, g)
		}
	}
	app.Graphs = kept

	effects := []Effect{
		EffectDeleteViewport{GraphID: id},
		EffectPersistState{},
	}

	if app.CurrentGraph != nil && app.CurrentGraph.ID() == id {
		app.CurrentGraph = nil
		app.clearSelection()
		app.ChatSession = nil
		if len(app.Graphs) > 0 {
			next := app.Graphs[0]
			app.CurrentGraph = next
			app.State = GraphOpen(SubNodeIdle)
			effects = append(effects, EffectResolveSelection{PrevGraphID: id, GraphID: next.ID()})
		} else {
			app.State = Initial()
		}
		return effects
	}

	app.State = returnState(app)
	return effects
}

// applyLoadedState adopts persisted editor state
func applyLoadedState(app *AppState, e EvStateLoaded) []Effect {
	app.Graphs = e.Graphs
	if app.Graphs == nil {
		app.Graphs = []*aggregates.Graph{}
	}
	app.CurrentGraph = nil
	app.clearSelection()
	app.ChatSession = nil
	app.Viewport = e.Viewport

	if e.CurrentGraphID != "" {
		app.CurrentGraph = app.GraphByID(e.CurrentGraphID)
	}
	if app.CurrentGraph == nil && len(app.Graphs) > 0 {
		app.CurrentGraph = app.Graphs[0]
	}
	if app.CurrentGraph == nil {
		app.State = Initial()
		return nil
	}

	if last := app.CurrentGraph.LastSelectedNodeID(); !last.IsZero() && app.selectNode(last) {
		app.State = GraphOpen(SubNodeSelected)
	} else {
		app.State = GraphOpen(SubNodeIdle)
	}
	return nil
}

// toError moves the machine into the error state
func toError(app *AppState, message string) []Effect {
	app.Error = message
	app.pendingNode = valueobjects.NodeID{}
	app.connectSource = valueobjects.NodeID{}
	app.deleteTarget = valueobjects.NodeID{}
	app.pendingImport = nil
	app.pendingDelete = ""
	app.State = State{Phase: PhaseError}
	return []Effect{EffectLog{Level: "error", Message: message}}
}

// returnState picks where to land when a panel or dialog closes
func returnState(app *AppState) State {
	if app.CurrentGraph == nil {
		return Initial()
	}
	if app.SelectedNode != nil {
		return GraphOpen(SubNodeSelected)
	}
	return GraphOpen(SubNodeIdle)
}

// ignored reports an event that has no transition in the current state
func ignored(ev Event) []Effect {
	return []Effect{EffectLog{Level: "debug", Message: "ignored event " + ev.EventType()}}
}
