// Package editor is the runtime around the state machine. It owns the
// extended state, serializes event dispatch, executes the effects a
// transition requests and feeds their results back in as events. The
// machine stays pure; everything with a side effect lives here.
package editor

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"kgraph/application/layout"
	"kgraph/application/ports"
	"kgraph/application/projection"
	"kgraph/application/selection"
	"kgraph/domain/config"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
	"kgraph/domain/machine"
	"kgraph/infrastructure/persistence"
	"kgraph/pkg/errors"
	"kgraph/pkg/throttle"
)

// viewportUpdate is the coalesced unit for throttled viewport writes
type viewportUpdate struct {
	graphID  aggregates.GraphID
	viewport valueobjects.Viewport
}

// Params carries the editor's dependencies
type Params struct {
	Config    *config.DomainConfig
	States    *persistence.StateStore
	Tracker   *selection.Tracker
	Projector *projection.Projector
	Simulator layout.Simulator
	Placer    *layout.PolarPlacer
	Chat      ports.ChatModel
	Events    ports.EventSink
	Logger    *zap.Logger

	// ViewportWindow bounds the write rate for pan/zoom updates
	ViewportWindow time.Duration
}

// Editor drives the state machine and executes its effects
type Editor struct {
	mu  sync.Mutex
	app *machine.AppState

	cfg       *config.DomainConfig
	states    *persistence.StateStore
	tracker   *selection.Tracker
	projector *projection.Projector
	simulator layout.Simulator
	placer    *layout.PolarPlacer
	chat      ports.ChatModel
	events    ports.EventSink
	logger    *zap.Logger

	viewportSaver *throttle.Throttle[viewportUpdate]

	exportMu   sync.Mutex
	lastExport []byte
}

// New creates an editor runtime
func New(p Params) *Editor {
	if p.Config == nil {
		p.Config = config.DefaultDomainConfig()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Tracker == nil {
		p.Tracker = selection.NewTracker(p.Logger)
	}
	if p.Projector == nil {
		p.Projector = projection.NewProjector(p.Logger)
	}
	if p.Simulator == nil {
		p.Simulator = layout.NewForceSimulator(p.Config, rand.NewSource(time.Now().UnixNano()))
	}
	if p.Placer == nil {
		p.Placer = layout.NewPolarPlacer(p.Config, rand.NewSource(time.Now().UnixNano()))
	}
	if p.ViewportWindow <= 0 {
		p.ViewportWindow = 200 * time.Millisecond
	}

	e := &Editor{
		app:       machine.NewAppState(p.Config),
		cfg:       p.Config,
		states:    p.States,
		tracker:   p.Tracker,
		projector: p.Projector,
		simulator: p.Simulator,
		placer:    p.Placer,
		chat:      p.Chat,
		events:    p.Events,
		logger:    p.Logger,
	}
	e.viewportSaver = throttle.New(e.applyViewportWrite, p.ViewportWindow)
	return e
}

// Start loads persisted state and feeds it into the machine
func (e *Editor) Start(ctx context.Context) error {
	return e.executeLoad(ctx)
}

// Close stops the editor's background resources
func (e *Editor) Close() {
	e.viewportSaver.Stop()
}

// Dispatch applies one event. Events are processed strictly in
// submission order; a transition never runs while another is mid-flight.
// The returned state is the machine's position after the transition and
// its synchronous effects.
func (e *Editor) Dispatch(ctx context.Context, ev machine.Event) machine.State {
	e.mu.Lock()
	effects := machine.Transition(e.app, ev)
	if click, ok := ev.(machine.EvSelectNode); ok {
		// An applied click becomes the graph's manual-selection memory
		// for future automatic reselection tie-breaks
		if g := e.app.CurrentGraph; g != nil && e.app.SelectedNode != nil && e.app.SelectedNode.ID.Equals(click.NodeID) {
			e.tracker.NoteManualSelection(g.ID(), click.NodeID)
		}
	}
	e.drainDomainEvents(ctx)
	state := e.app.State
	e.mu.Unlock()

	for _, effect := range effects {
		e.execute(ctx, effect)
	}

	e.mu.Lock()
	state = e.app.State
	e.mu.Unlock()
	return state
}

// State returns the machine's current position
func (e *Editor) State() machine.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.app.State
}

// ApplyTuning mutates the domain configuration under the dispatch lock.
// Dynamic tuning reloads go through here so a transition never observes
// a half-applied config.
func (e *Editor) ApplyTuning(apply func(*config.DomainConfig)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	apply(e.cfg)
}

// execute runs one effect and dispatches any resulting events
func (e *Editor) execute(ctx context.Context, effect machine.Effect) {
	switch eff := effect.(type) {
	case machine.EffectLoadState:
		if err := e.executeLoad(ctx); err != nil {
			e.logger.Warn("state load failed", zap.Error(err))
		}
	case machine.EffectPersistState:
		e.persistState(ctx)
	case machine.EffectPersistGraph:
		// The whole snapshot is the persistence unit; a graph-level
		// persist is a snapshot write that also bumps the graph's entry
		e.persistState(ctx)
	case machine.EffectDeleteViewport:
		e.tracker.Forget(eff.GraphID)
		if err := e.states.DeleteViewport(ctx, eff.GraphID); err != nil {
			e.logger.Warn("viewport delete failed",
				zap.String("graph_id", eff.GraphID.String()), zap.Error(err))
		}
	case machine.EffectClearStorage:
		if err := e.states.ClearAll(ctx); err != nil {
			e.logger.Warn("storage clear failed", zap.Error(err))
		}
	case machine.EffectResolveSelection:
		e.resolveSelection(ctx, eff)
	case machine.EffectReselect:
		e.reselect(ctx, eff.GraphID)
	case machine.EffectCallChat:
		go e.callChat(eff)
	case machine.EffectExportDocument:
		e.exportDocument(ctx, eff.GraphID)
	case machine.EffectLog:
		e.log(eff)
	}
}

// executeLoad reads the snapshot and delivers it as an event
func (e *Editor) executeLoad(ctx context.Context) error {
	snap, err := e.states.Load(ctx)
	if err != nil {
		return err
	}
	e.Dispatch(ctx, machine.EvStateLoaded{
		Graphs:         snap.Graphs,
		CurrentGraphID: snap.CurrentGraphID,
		Viewport:       snap.Viewport,
	})
	return nil
}

// persistState writes the full snapshot, best-effort. A failed write is
// logged and swallowed: in-memory state stays authoritative for the
// session and the operation reports success to the caller.
func (e *Editor) persistState(ctx context.Context) {
	e.mu.Lock()
	snap := persistence.StateSnapshot{
		Viewport: e.app.Viewport,
		Graphs:   append([]*aggregates.Graph{}, e.app.Graphs...),
	}
	if e.app.CurrentGraph != nil {
		snap.CurrentGraphID = e.app.CurrentGraph.ID()
	}
	e.mu.Unlock()

	if err := e.states.Save(ctx, snap); err != nil {
		e.logger.Warn("state persist failed", zap.Error(err))
	}
}

// resolveSelection runs the tracker for a graph switch and feeds the
// outcome back into the machine
func (e *Editor) resolveSelection(ctx context.Context, eff machine.EffectResolveSelection) {
	e.mu.Lock()
	outgoing := e.app.GraphByID(eff.PrevGraphID)
	incoming := e.app.GraphByID(eff.GraphID)
	var outgoingSelection valueobjects.NodeID
	if outgoing != nil {
		outgoingSelection = outgoing.LastSelectedNodeID()
	}
	e.mu.Unlock()

	if incoming == nil {
		return
	}
	selected, outgoingChanged := e.tracker.OnGraphSwitch(outgoing, incoming, outgoingSelection)
	if outgoingChanged {
		e.persistState(ctx)
	}
	e.Dispatch(ctx, machine.EvSelectionResolved{NodeID: selected})
}

// reselect recomputes the selection after an in-place node list change
// and feeds the outcome back into the machine
func (e *Editor) reselect(ctx context.Context, graphID aggregates.GraphID) {
	e.mu.Lock()
	graph := e.app.GraphByID(graphID)
	var current valueobjects.NodeID
	if e.app.SelectedNode != nil {
		current = e.app.SelectedNode.ID
	}
	e.mu.Unlock()

	if graph == nil {
		return
	}
	e.Dispatch(ctx, machine.EvSelectionResolved{NodeID: e.tracker.Reselect(graph, current)})
}

// callChat performs the collaborator call with a bounded wait. Whatever
// happens, the machine leaves chat_processing: a reply, an error or the
// timeout all produce a feedback event.
func (e *Editor) callChat(eff machine.EffectCallChat) {
	e.mu.Lock()
	timeout := e.cfg.ChatTimeout
	e.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if e.chat == nil {
		e.Dispatch(ctx, machine.EvChatFailed{Reason: "no chat collaborator configured"})
		return
	}

	answer, err := e.chat.Complete(ctx, eff.Messages)
	if err != nil {
		e.Dispatch(ctx, machine.EvChatFailed{Reason: err.Error()})
		return
	}
	e.Dispatch(ctx, machine.EvMessageReceived{Content: answer})
}

// exportDocument materializes the export payload and completes the flow
func (e *Editor) exportDocument(ctx context.Context, graphID aggregates.GraphID) {
	e.mu.Lock()
	graph := e.app.GraphByID(graphID)
	e.mu.Unlock()
	if graph == nil {
		e.Dispatch(ctx, machine.EvError{Message: "export: graph not found"})
		return
	}

	payload, err := json.MarshalIndent(graph.Document(), "", "  ")
	if err != nil {
		e.Dispatch(ctx, machine.EvError{Message: "export: " + err.Error()})
		return
	}

	e.exportMu.Lock()
	e.lastExport = payload
	e.exportMu.Unlock()
	e.Dispatch(ctx, machine.EvExportDone{})
}

// LastExport returns the most recent export payload, nil when none
func (e *Editor) LastExport() []byte {
	e.exportMu.Lock()
	defer e.exportMu.Unlock()
	if e.lastExport == nil {
		return nil
	}
	out := make([]byte, len(e.lastExport))
	copy(out, e.lastExport)
	return out
}

// drainDomainEvents publishes aggregate events raised by the transition
func (e *Editor) drainDomainEvents(ctx context.Context) {
	if e.events == nil {
		return
	}
	for _, g := range e.app.Graphs {
		for _, ev := range g.GetUncommittedEvents() {
			e.events.Publish(ctx, ev)
		}
		g.MarkEventsAsCommitted()
	}
}

func (e *Editor) log(eff machine.EffectLog) {
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message)
	case "warn":
		e.logger.Warn(eff.Message)
	case "error":
		e.logger.Error(eff.Message)
	default:
		e.logger.Info(eff.Message)
	}
}

// SetViewport records a pan/zoom change. The machine state updates
// immediately; the durable per-graph write goes through the coalescing
// throttle so drag streams cost one write per window.
func (e *Editor) SetViewport(ctx context.Context, vp valueobjects.Viewport) {
	e.Dispatch(ctx, machine.EvSetViewport{Viewport: vp})

	e.mu.Lock()
	current := e.app.CurrentGraph
	e.mu.Unlock()
	if current == nil {
		return
	}
	e.viewportSaver.Dispatch(viewportUpdate{graphID: current.ID(), viewport: vp})
}

func (e *Editor) applyViewportWrite(update viewportUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.states.SaveViewport(ctx, update.graphID, update.viewport); err != nil {
		e.logger.Warn("viewport persist failed",
			zap.String("graph_id", update.graphID.String()), zap.Error(err))
	}
}

// Viewport reads the stored viewport for one graph
func (e *Editor) Viewport(ctx context.Context, graphID aggregates.GraphID) (valueobjects.Viewport, error) {
	return e.states.LoadViewport(ctx, graphID)
}

// Elements projects one graph into renderer elements
func (e *Editor) Elements(graphID aggregates.GraphID) (projection.Elements, error) {
	e.mu.Lock()
	graph := e.app.GraphByID(graphID)
	e.mu.Unlock()
	if graph == nil {
		return projection.Elements{}, errors.NewNotFoundError("graph " + graphID.String())
	}
	return e.projector.ProjectGraph(graph), nil
}

// RunLayout assigns positions to every unplaced node of a graph via the
// force simulation, then persists. Placed nodes are left untouched.
func (e *Editor) RunLayout(ctx context.Context, graphID aggregates.GraphID) ([]valueobjects.NodeID, error) {
	e.mu.Lock()
	graph := e.app.GraphByID(graphID)
	if graph == nil {
		e.mu.Unlock()
		return nil, errors.NewNotFoundError("graph " + graphID.String())
	}
	placed, err := layout.ApplyLayout(graph, e.simulator, e.cfg.CanvasWidth, e.cfg.CanvasHeight)
	e.drainDomainEvents(ctx)
	e.mu.Unlock()
	if err != nil {
		return placed, err
	}
	if len(placed) > 0 {
		e.persistState(ctx)
	}
	return placed, nil
}

// AddChildNode creates a node attached to a parent, placed on the polar
// ring around it, and connects the two.
func (e *Editor) AddChildNode(ctx context.Context, parentID valueobjects.NodeID, label string) (valueobjects.NodeID, error) {
	e.mu.Lock()
	graph := e.app.CurrentGraph
	if graph == nil {
		e.mu.Unlock()
		return valueobjects.NodeID{}, errors.NewConflictError("no graph open")
	}
	parent, err := graph.GetNode(parentID)
	if err != nil {
		e.mu.Unlock()
		return valueobjects.NodeID{}, err
	}
	if !parent.HasPosition() {
		e.mu.Unlock()
		return valueobjects.NodeID{}, errors.NewConflictError("parent node has no position")
	}
	parentPos := *parent.Position()
	siblingIndex := 0
	for _, edge := range graph.Edges() {
		if edge.Source.Equals(parentID) {
			siblingIndex++
		}
	}
	e.mu.Unlock()

	childID := valueobjects.NewNodeID()
	if state := e.Dispatch(ctx, machine.EvAddNode{ID: childID, Label: label, Parent: parentID}); state.Sub != machine.SubCreatingNode {
		return valueobjects.NodeID{}, errors.NewValidationError("node creation rejected")
	}

	// The placer reads the shared config, so it runs under the same lock
	// that guards tuning updates
	e.mu.Lock()
	pos := e.placer.PlaceChild(parentPos, siblingIndex)
	e.mu.Unlock()
	e.Dispatch(ctx, machine.EvPositionSet{NodeID: childID, X: pos.X, Y: pos.Y})
	e.Dispatch(ctx, machine.EvStartConnect{SourceID: parentID})
	e.Dispatch(ctx, machine.EvConnectNodes{SourceID: parentID, TargetID: childID})
	return childID, nil
}

// Snapshot is the read model handed to the interface layer
type Snapshot struct {
	State        string                     `json:"state"`
	Error        string                     `json:"error,omitempty"`
	Viewport     valueobjects.Viewport      `json:"viewport"`
	Graphs       []GraphSummary             `json:"graphs"`
	CurrentGraph string                     `json:"currentGraph,omitempty"`
	SelectedNode *SelectedNodeView          `json:"selectedNode,omitempty"`
	ChatMessages []valueobjects.ChatMessage `json:"chatMessages,omitempty"`
}

// GraphSummary is one graph's listing entry
type GraphSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
}

// SelectedNodeView is the denormalized selection
type SelectedNodeView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Snapshot captures the editor's current read model
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:    e.app.State.String(),
		Error:    e.app.Error,
		Viewport: e.app.Viewport,
		Graphs:   make([]GraphSummary, 0, len(e.app.Graphs)),
	}
	for _, g := range e.app.Graphs {
		snap.Graphs = append(snap.Graphs, GraphSummary{
			ID:        g.ID().String(),
			Title:     g.Title(),
			NodeCount: g.NodeCount(),
			EdgeCount: len(g.Edges()),
		})
	}
	if e.app.CurrentGraph != nil {
		snap.CurrentGraph = e.app.CurrentGraph.ID().String()
	}
	if e.app.SelectedNode != nil {
		snap.SelectedNode = &SelectedNodeView{
			ID:    e.app.SelectedNode.ID.String(),
			Label: e.app.SelectedNode.Label,
		}
	}
	if e.app.ChatSession != nil {
		snap.ChatMessages = append(snap.ChatMessages, e.app.ChatSession.Messages...)
	}
	return snap
}
