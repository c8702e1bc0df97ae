package events

import (
	"time"

	"kgraph/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Graph Events

// GraphCreated is raised when a new graph document is created
type GraphCreated struct {
	BaseEvent
	GraphID string `json:"graph_id"`
	Title   string `json:"title"`
}

// NewGraphCreated creates a GraphCreated event
func NewGraphCreated(graphID, title string, timestamp time.Time) GraphCreated {
	return GraphCreated{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID: graphID,
		Title:   title,
	}
}

// GraphDeleted is raised when a graph document is deleted
type GraphDeleted struct {
	BaseEvent
	GraphID string `json:"graph_id"`
}

// NewGraphDeleted creates a GraphDeleted event
func NewGraphDeleted(graphID string, timestamp time.Time) GraphDeleted {
	return GraphDeleted{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID: graphID,
	}
}

// Node Events

// NodeAdded is raised when a node is added to a graph
type NodeAdded struct {
	BaseEvent
	GraphID string              `json:"graph_id"`
	NodeID  valueobjects.NodeID `json:"node_id"`
	Label   string              `json:"label"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(graphID string, nodeID valueobjects.NodeID, label string, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.node_added",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID: graphID,
		NodeID:  nodeID,
		Label:   label,
	}
}

// NodeRemoved is raised when a node is removed from a graph
type NodeRemoved struct {
	BaseEvent
	GraphID string              `json:"graph_id"`
	NodeID  valueobjects.NodeID `json:"node_id"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(graphID string, nodeID valueobjects.NodeID, timestamp time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.node_removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID: graphID,
		NodeID:  nodeID,
	}
}

// NodeMoved is raised when a node is assigned a new position
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID    `json:"node_id"`
	OldPosition *valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position  `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(nodeID valueobjects.NodeID, oldPos *valueobjects.Position, newPos valueobjects.Position, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.moved",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeSelected is raised when a graph's last selected node changes
type NodeSelected struct {
	BaseEvent
	GraphID string              `json:"graph_id"`
	NodeID  valueobjects.NodeID `json:"node_id"`
}

// NewNodeSelected creates a NodeSelected event
func NewNodeSelected(graphID string, nodeID valueobjects.NodeID, timestamp time.Time) NodeSelected {
	return NodeSelected{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "node.selected",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID: graphID,
		NodeID:  nodeID,
	}
}

// Edge Events

// NodesConnected is raised when two nodes are connected
type NodesConnected struct {
	BaseEvent
	EdgeID   string              `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
}

// NewNodesConnected creates a NodesConnected event
func NewNodesConnected(edgeID string, sourceID, targetID valueobjects.NodeID, timestamp time.Time) NodesConnected {
	return NodesConnected{
		BaseEvent: BaseEvent{
			AggregateID: sourceID.String(),
			EventType:   "nodes.connected",
			Timestamp:   timestamp,
			Version:     1,
		},
		EdgeID:   edgeID,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// Chat Events

// ChatMessageAppended is raised when a chat message is committed to a node's transcript
type ChatMessageAppended struct {
	BaseEvent
	NodeID valueobjects.NodeID      `json:"node_id"`
	Role   valueobjects.MessageRole `json:"role"`
}

// NewChatMessageAppended creates a ChatMessageAppended event
func NewChatMessageAppended(nodeID valueobjects.NodeID, role valueobjects.MessageRole, timestamp time.Time) ChatMessageAppended {
	return ChatMessageAppended{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "chat.message_appended",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID: nodeID,
		Role:   role,
	}
}
