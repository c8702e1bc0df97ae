package machine

import (
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

// Effect is a side effect requested by a transition. Transition itself
// performs no IO; the editor runtime executes effects after the state
// change is applied and feeds any results back in as events.
type Effect interface {
	isEffect()
}

// EffectLoadState asks the runtime to load persisted editor state
type EffectLoadState struct{}

func (EffectLoadState) isEffect() {}

// EffectPersistState asks the runtime to save the full editor state
type EffectPersistState struct{}

func (EffectPersistState) isEffect() {}

// EffectPersistGraph asks the runtime to save one graph's document
type EffectPersistGraph struct {
	GraphID aggregates.GraphID
}

func (EffectPersistGraph) isEffect() {}

// EffectDeleteViewport asks the runtime to drop a graph's stored viewport
type EffectDeleteViewport struct {
	GraphID aggregates.GraphID
}

func (EffectDeleteViewport) isEffect() {}

// EffectClearStorage asks the runtime to wipe all persisted state
type EffectClearStorage struct{}

func (EffectClearStorage) isEffect() {}

// EffectResolveSelection asks the runtime to run the selection tracker
// after a graph switch and dispatch EvSelectionResolved with the result.
type EffectResolveSelection struct {
	PrevGraphID aggregates.GraphID
	GraphID     aggregates.GraphID
}

func (EffectResolveSelection) isEffect() {}

// EffectReselect asks the runtime to run the selection tracker after
// the node list changed in place (not a graph switch) and dispatch
// EvSelectionResolved with the result.
type EffectReselect struct {
	GraphID aggregates.GraphID
}

func (EffectReselect) isEffect() {}

// EffectCallChat asks the runtime to call the chat collaborator
type EffectCallChat struct {
	GraphID  aggregates.GraphID
	NodeID   valueobjects.NodeID
	Messages []valueobjects.ChatMessage
}

func (EffectCallChat) isEffect() {}

// EffectExportDocument asks the runtime to materialize an export snapshot
type EffectExportDocument struct {
	GraphID aggregates.GraphID
}

func (EffectExportDocument) isEffect() {}

// EffectLog asks the runtime to emit a log line
type EffectLog struct {
	Level   string
	Message string
}

func (EffectLog) isEffect() {}
