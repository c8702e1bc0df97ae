// Package persistence serializes the editor's durable state to a
// key-value store. Corrupt entries are discarded and replaced with
// defaults rather than surfaced: the store is a cache of last known good
// state, never a source of hard failures.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"kgraph/application/ports"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
	"kgraph/pkg/errors"
	"kgraph/pkg/utils"
)

// Storage keys. Viewports are stored per graph under the derived prefix.
const (
	StateKey          = "kgraph-state"
	LastActiveKey     = "kgraph-last-graph"
	ViewportKeyPrefix = "viewport-"
)

// ViewportKey derives the storage key for one graph's viewport
func ViewportKey(graphID aggregates.GraphID) string {
	return ViewportKeyPrefix + graphID.String()
}

// StateSnapshot is the durable subset of the editor state
type StateSnapshot struct {
	Viewport       valueobjects.Viewport
	Graphs         []*aggregates.Graph
	CurrentGraphID aggregates.GraphID
}

// stateBlob is the wire shape of the primary state entry
type stateBlob struct {
	Viewport     valueobjects.Viewport      `json:"viewport"`
	Graphs       []aggregates.GraphDocument `json:"graphs"`
	CurrentGraph string                     `json:"currentGraph,omitempty"`
	SavedAt      string                     `json:"savedAt,omitempty"`
}

// StateStore is the persistence adapter over a key-value store
type StateStore struct {
	store  ports.KeyValueStore
	logger *zap.Logger
}

// NewStateStore creates a persistence adapter
func NewStateStore(store ports.KeyValueStore, logger *zap.Logger) *StateStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateStore{store: store, logger: logger}
}

// Save writes the full state snapshot under the primary key
func (s *StateStore) Save(ctx context.Context, snap StateSnapshot) error {
	blob := stateBlob{
		Viewport:     snap.Viewport,
		Graphs:       make([]aggregates.GraphDocument, 0, len(snap.Graphs)),
		CurrentGraph: snap.CurrentGraphID.String(),
		SavedAt:      utils.NowRFC3339(),
	}
	for _, g := range snap.Graphs {
		blob.Graphs = append(blob.Graphs, g.Document())
	}

	payload, err := json.Marshal(blob)
	if err != nil {
		return errors.NewStorageError("encode state", err)
	}
	if err := s.store.Set(ctx, StateKey, payload); err != nil {
		return errors.Wrap(err, "save state")
	}
	if snap.CurrentGraphID != "" {
		if err := s.store.Set(ctx, LastActiveKey, []byte(snap.CurrentGraphID)); err != nil {
			return errors.Wrap(err, "save last active graph")
		}
	}
	return nil
}

// Load reads the state snapshot. A missing entry yields empty defaults.
// A corrupt entry is deleted and logged, then the same defaults are
// returned: parse failures never propagate to the caller.
func (s *StateStore) Load(ctx context.Context) (StateSnapshot, error) {
	defaults := StateSnapshot{
		Viewport: valueobjects.DefaultViewport(),
		Graphs:   []*aggregates.Graph{},
	}

	payload, err := s.store.Get(ctx, StateKey)
	if err != nil {
		if errors.IsNotFound(err) {
			return defaults, nil
		}
		return defaults, errors.Wrap(err, "load state")
	}

	blob, ok := s.decode(payload)
	if !ok {
		s.logger.Warn("discarding corrupt state entry", zap.String("key", StateKey))
		if err := s.store.Delete(ctx, StateKey); err != nil {
			s.logger.Warn("failed to delete corrupt state entry", zap.Error(err))
		}
		return defaults, nil
	}

	snap := StateSnapshot{
		Viewport:       blob.Viewport,
		Graphs:         make([]*aggregates.Graph, 0, len(blob.Graphs)),
		CurrentGraphID: aggregates.GraphID(blob.CurrentGraph),
	}
	for _, doc := range blob.Graphs {
		graph, err := aggregates.FromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping unloadable graph", zap.String("graph_id", doc.ID), zap.Error(err))
			continue
		}
		snap.Graphs = append(snap.Graphs, graph)
	}
	return snap, nil
}

// decode parses the blob and checks its structural shape
func (s *StateStore) decode(payload []byte) (stateBlob, bool) {
	var shape struct {
		Graphs json.RawMessage `json:"graphs"`
	}
	if err := json.Unmarshal(payload, &shape); err != nil {
		return stateBlob{}, false
	}
	trimmed := bytes.TrimSpace(shape.Graphs)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return stateBlob{}, false
	}

	var blob stateBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return stateBlob{}, false
	}
	return blob, true
}

// SaveViewport writes one graph's viewport under its derived key
func (s *StateStore) SaveViewport(ctx context.Context, graphID aggregates.GraphID, vp valueobjects.Viewport) error {
	payload, err := json.Marshal(vp)
	if err != nil {
		return errors.NewStorageError("encode viewport", err)
	}
	return s.store.Set(ctx, ViewportKey(graphID), payload)
}

// LoadViewport reads one graph's viewport. Absent or corrupt entries
// yield the fit-to-contents default; corrupt entries are also deleted.
func (s *StateStore) LoadViewport(ctx context.Context, graphID aggregates.GraphID) (valueobjects.Viewport, error) {
	payload, err := s.store.Get(ctx, ViewportKey(graphID))
	if err != nil {
		if errors.IsNotFound(err) {
			return valueobjects.DefaultViewport(), nil
		}
		return valueobjects.DefaultViewport(), errors.Wrap(err, "load viewport")
	}

	var vp valueobjects.Viewport
	if err := json.Unmarshal(payload, &vp); err != nil {
		s.logger.Warn("discarding corrupt viewport entry",
			zap.String("graph_id", graphID.String()), zap.Error(err))
		if err := s.store.Delete(ctx, ViewportKey(graphID)); err != nil {
			s.logger.Warn("failed to delete corrupt viewport entry", zap.Error(err))
		}
		return valueobjects.DefaultViewport(), nil
	}
	return vp, nil
}

// DeleteViewport removes one graph's stored viewport
func (s *StateStore) DeleteViewport(ctx context.Context, graphID aggregates.GraphID) error {
	return s.store.Delete(ctx, ViewportKey(graphID))
}

// ClearAll removes the primary state entry, the last-active marker and
// every per-graph viewport entry. From the caller's point of view the
// wipe is atomic: a later Load observes only empty defaults.
func (s *StateStore) ClearAll(ctx context.Context) error {
	if err := s.store.Delete(ctx, StateKey); err != nil {
		return errors.Wrap(err, "clear state")
	}
	if err := s.store.Delete(ctx, LastActiveKey); err != nil {
		return errors.Wrap(err, "clear last active graph")
	}

	keys, err := s.store.Keys(ctx, ViewportKeyPrefix)
	if err != nil {
		return errors.Wrap(err, "list viewport entries")
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return errors.Wrap(err, "clear viewport entry")
		}
	}
	return nil
}
