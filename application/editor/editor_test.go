package editor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/domain/config"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
	"kgraph/domain/events"
	"kgraph/domain/machine"
	"kgraph/infrastructure/persistence"
	"kgraph/infrastructure/persistence/kv"
)

func graphID(s string) aggregates.GraphID {
	return aggregates.GraphID(s)
}

func nodeID(t *testing.T, e *Editor) valueobjects.NodeID {
	t.Helper()
	selected := e.Snapshot().SelectedNode
	require.NotNil(t, selected)
	id, err := valueobjects.NewNodeIDFromString(selected.ID)
	require.NoError(t, err)
	return id
}

type fakeChat struct {
	answer string
	err    error
	delay  time.Duration
}

func (f *fakeChat) Complete(ctx context.Context, _ []valueobjects.ChatMessage) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

type fakeSink struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (f *fakeSink) Publish(_ context.Context, ev events.DomainEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newEditor(t *testing.T, chat *fakeChat) (*Editor, *kv.MemoryStore) {
	t.Helper()
	raw := kv.NewMemoryStore()
	e := New(Params{
		States:         persistence.NewStateStore(raw, nil),
		Chat:           chat,
		Events:         &fakeSink{},
		ViewportWindow: 20 * time.Millisecond,
	})
	t.Cleanup(e.Close)
	return e, raw
}

func TestDomainEventsReachTheSink(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	e := New(Params{
		States: persistence.NewStateStore(kv.NewMemoryStore(), nil),
		Events: sink,
	})
	defer e.Close()
	require.NoError(t, e.Start(ctx))

	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "n"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 1})

	// graph.created, graph.node_added, node.moved, node.selected
	assert.GreaterOrEqual(t, sink.count(), 4)
}

func TestFreshStartHasNoGraphs(t *testing.T) {
	e, _ := newEditor(t, nil)
	require.NoError(t, e.Start(context.Background()))

	snap := e.Snapshot()
	assert.Equal(t, "app_idle", snap.State)
	assert.Empty(t, snap.Graphs)
	assert.Empty(t, snap.CurrentGraph)
}

func TestCreateGraphPersistsBlob(t *testing.T) {
	ctx := context.Background()
	e, raw := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))

	state := e.Dispatch(ctx, machine.EvCreateGraph{Title: "Demo"})
	assert.Equal(t, machine.GraphOpen(machine.SubNodeIdle), state)

	payload, err := raw.Get(ctx, persistence.StateKey)
	require.NoError(t, err)

	var blob struct {
		Graphs       []map[string]interface{} `json:"graphs"`
		CurrentGraph string                   `json:"currentGraph"`
	}
	require.NoError(t, json.Unmarshal(payload, &blob))
	require.Len(t, blob.Graphs, 1)
	assert.Equal(t, "Demo", blob.Graphs[0]["title"])
	assert.Equal(t, blob.Graphs[0]["id"], blob.CurrentGraph)
}

func TestRestartRestoresState(t *testing.T) {
	ctx := context.Background()
	raw := kv.NewMemoryStore()
	states := persistence.NewStateStore(raw, nil)

	first := New(Params{States: states})
	require.NoError(t, first.Start(ctx))
	first.Dispatch(ctx, machine.EvCreateGraph{Title: "Durable"})
	first.Dispatch(ctx, machine.EvAddNode{Label: "alpha"})
	first.Dispatch(ctx, machine.EvPositionSet{X: 10, Y: 20})
	first.Close()

	second := New(Params{States: states})
	defer second.Close()
	require.NoError(t, second.Start(ctx))

	snap := second.Snapshot()
	require.Len(t, snap.Graphs, 1)
	assert.Equal(t, "Durable", snap.Graphs[0].Title)
	assert.Equal(t, 1, snap.Graphs[0].NodeCount)
	require.NotNil(t, snap.SelectedNode)
	assert.Equal(t, "alpha", snap.SelectedNode.Label)
}

func TestChatRoundTripThroughRuntime(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, &fakeChat{answer: "the answer"})
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "topic"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 1})
	e.Dispatch(ctx, machine.EvChat{})

	state := e.Dispatch(ctx, machine.EvSendMessage{Content: "question"})
	assert.Equal(t, machine.GraphOpen(machine.SubChatProcessing), state)

	require.Eventually(t, func() bool {
		return e.State() == machine.GraphOpen(machine.SubChatActive)
	}, time.Second, 5*time.Millisecond)

	snap := e.Snapshot()
	require.Len(t, snap.ChatMessages, 2)
	assert.Equal(t, "the answer", snap.ChatMessages[1].Content)
}

func TestChatFailureProducesFallback(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, &fakeChat{err: context.DeadlineExceeded})
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "topic"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 1})
	e.Dispatch(ctx, machine.EvChat{})
	e.Dispatch(ctx, machine.EvSendMessage{Content: "question"})

	require.Eventually(t, func() bool {
		return e.State() == machine.GraphOpen(machine.SubChatActive)
	}, time.Second, 5*time.Millisecond)

	snap := e.Snapshot()
	require.Len(t, snap.ChatMessages, 2)
	assert.Equal(t, valueobjects.RoleAssistant, snap.ChatMessages[1].Role)
	assert.NotEmpty(t, snap.ChatMessages[1].Content)
}

func TestGraphSwitchResolvesSelection(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))

	e.Dispatch(ctx, machine.EvCreateGraph{Title: "first"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "f1"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 1})
	firstID := e.Snapshot().CurrentGraph

	e.Dispatch(ctx, machine.EvCreateGraph{Title: "second"})

	state := e.Dispatch(ctx, machine.EvSelectGraph{GraphID: graphID(firstID)})
	assert.Equal(t, machine.GraphOpen(machine.SubNodeSelected), state)

	snap := e.Snapshot()
	assert.Equal(t, firstID, snap.CurrentGraph)
	require.NotNil(t, snap.SelectedNode)
	assert.Equal(t, "f1", snap.SelectedNode.Label)
}

func TestDeleteSelectedNodeReselectsSurvivor(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "keep"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 1})
	keepID := nodeID(t, e)
	e.Dispatch(ctx, machine.EvAddNode{Label: "drop"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 2, Y: 2})
	dropID := nodeID(t, e)

	e.Dispatch(ctx, machine.EvStartNodeDelete{NodeID: dropID})
	state := e.Dispatch(ctx, machine.EvConfirm{})

	// The tracker picks a replacement among the survivors
	assert.Equal(t, machine.GraphOpen(machine.SubNodeSelected), state)
	snap := e.Snapshot()
	require.NotNil(t, snap.SelectedNode)
	assert.Equal(t, keepID.String(), snap.SelectedNode.ID)
}

func TestTuningChangesChatFallback(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, &fakeChat{err: context.DeadlineExceeded})
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "topic"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 1})

	e.ApplyTuning(func(cfg *config.DomainConfig) {
		cfg.FallbackChatAnswer = "retuned fallback"
	})

	e.Dispatch(ctx, machine.EvChat{})
	e.Dispatch(ctx, machine.EvSendMessage{Content: "question"})
	require.Eventually(t, func() bool {
		return e.State() == machine.GraphOpen(machine.SubChatActive)
	}, time.Second, 5*time.Millisecond)

	snap := e.Snapshot()
	require.Len(t, snap.ChatMessages, 2)
	assert.Equal(t, "retuned fallback", snap.ChatMessages[1].Content)
}

func TestTuningConcurrentWithDispatch(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.ApplyTuning(func(cfg *config.DomainConfig) {
				cfg.MaxNodesPerGraph = 100 + i
				cfg.ChildRadius = float64(80 + i)
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.Dispatch(ctx, machine.EvAddNode{Label: "n"})
			e.Dispatch(ctx, machine.EvPositionSet{X: float64(i), Y: float64(i)})
		}
	}()
	wg.Wait()
}

func TestViewportWritesAreCoalesced(t *testing.T) {
	ctx := context.Background()
	e, raw := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	id := graphID(e.Snapshot().CurrentGraph)

	for i := 1; i <= 20; i++ {
		e.SetViewport(ctx, valueobjects.Viewport{Zoom: float64(i)})
	}

	require.Eventually(t, func() bool {
		_, err := raw.Get(ctx, persistence.ViewportKey(id))
		return err == nil
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	vp, err := e.Viewport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 20.0, vp.Zoom)
}

func TestAddChildNodeUsesPolarPlacement(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "parent"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 500, Y: 500})
	parentID := nodeID(t, e)

	childID, err := e.AddChildNode(ctx, parentID, "child")
	require.NoError(t, err)

	elements, err := e.Elements(graphID(e.Snapshot().CurrentGraph))
	require.NoError(t, err)
	assert.Len(t, elements.Nodes, 2)
	require.Len(t, elements.Edges, 1)
	assert.Equal(t, parentID.String(), elements.Edges[0].Source)
	assert.Equal(t, childID.String(), elements.Edges[0].Target)
}

func TestRunLayoutPlacesAndPersists(t *testing.T) {
	ctx := context.Background()
	e, raw := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "g"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "a"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 100, Y: 100})
	e.Dispatch(ctx, machine.EvAddNode{Label: "b"}) // stays unplaced
	id := graphID(e.Snapshot().CurrentGraph)

	placed, err := e.RunLayout(ctx, id)
	require.NoError(t, err)
	assert.Len(t, placed, 1)

	payload, err := raw.Get(ctx, persistence.StateKey)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "position")
}

func TestExportProducesDocument(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, nil)
	require.NoError(t, e.Start(ctx))
	e.Dispatch(ctx, machine.EvCreateGraph{Title: "exported"})
	e.Dispatch(ctx, machine.EvAddNode{Label: "n"})
	e.Dispatch(ctx, machine.EvPositionSet{X: 1, Y: 2})

	state := e.Dispatch(ctx, machine.EvExport{})
	assert.Equal(t, machine.PhaseGraphOpen, state.Phase)

	payload := e.LastExport()
	require.NotNil(t, payload)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Equal(t, "exported", doc["title"])
}
