package entities

import (
	"strings"
	"time"

	"kgraph/domain/config"
	"kgraph/domain/core/valueobjects"
	"kgraph/domain/events"
	pkgerrors "kgraph/pkg/errors"
)

// Node is the main entity representing one box on the canvas.
// Position stays nil until the layout engine (or the user) assigns one.
type Node struct {
	id        valueobjects.NodeID
	position  *valueobjects.Position
	label     string
	isLoading bool
	data      map[string]interface{}
	createdAt time.Time
	updatedAt time.Time

	// Domain events that occurred during this entity's lifetime
	events []events.DomainEvent
}

// NewNode creates a new node with label validation
func NewNode(id valueobjects.NodeID, label string) (*Node, error) {
	return NewNodeWithConfig(id, label, config.DefaultDomainConfig())
}

// NewNodeWithConfig creates a new node with label validation and configuration
func NewNodeWithConfig(id valueobjects.NodeID, label string, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if id.IsZero() {
		id = valueobjects.NewNodeID()
	}

	label = strings.TrimSpace(label)
	if len(label) < cfg.MinLabelLength {
		return nil, pkgerrors.NewValidationError("node label cannot be empty")
	}
	if len(label) > cfg.MaxLabelLength {
		return nil, pkgerrors.NewValidationError("node label too long")
	}

	now := time.Now()
	return &Node{
		id:        id,
		label:     label,
		data:      make(map[string]interface{}),
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}, nil
}

// ReconstructNode recreates a node from stored data without raising events
func ReconstructNode(
	id valueobjects.NodeID,
	label string,
	position *valueobjects.Position,
	isLoading bool,
	data map[string]interface{},
	createdAt, updatedAt time.Time,
) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID required for reconstruction")
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	return &Node{
		id:        id,
		position:  position,
		label:     label,
		isLoading: isLoading,
		data:      data,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Label returns the node's display label
func (n *Node) Label() string {
	return n.label
}

// Position returns the node's position, nil when not yet placed
func (n *Node) Position() *valueobjects.Position {
	return n.position
}

// HasPosition reports whether the node has been placed on the canvas
func (n *Node) HasPosition() bool {
	return n.position != nil
}

// IsLoading reports whether the node is awaiting an async operation
func (n *Node) IsLoading() bool {
	return n.isLoading
}

// SetLoading flags the node as awaiting an async operation
func (n *Node) SetLoading(loading bool) {
	if n.isLoading == loading {
		return
	}
	n.isLoading = loading
	n.updatedAt = time.Now()
}

// MoveTo assigns a new validated position to the node
func (n *Node) MoveTo(position valueobjects.Position) error {
	if !position.IsValid() {
		return pkgerrors.NewValidationError("position coordinates must be finite numbers")
	}

	if n.position != nil && position.Equals(*n.position) {
		return nil // No movement needed
	}

	oldPosition := n.position
	n.position = &position
	n.updatedAt = time.Now()

	n.addEvent(events.NewNodeMoved(n.id, oldPosition, position, n.updatedAt))

	return nil
}

// Rename updates the node's label with validation
func (n *Node) Rename(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return pkgerrors.NewValidationError("node label cannot be empty")
	}
	if label == n.label {
		return nil
	}

	n.label = label
	n.updatedAt = time.Now()
	return nil
}

// Data returns the node's freeform payload
func (n *Node) Data() map[string]interface{} {
	// Return a copy to maintain encapsulation
	data := make(map[string]interface{}, len(n.data))
	for k, v := range n.data {
		data[k] = v
	}
	return data
}

// SetData replaces one freeform payload entry
func (n *Node) SetData(key string, value interface{}) {
	n.data[key] = value
	n.updatedAt = time.Now()
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

// addEvent adds a domain event to the uncommitted list
func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}
