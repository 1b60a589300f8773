package events

import (
	"time"

	"mindcanvas/domain/core/valueobjects"
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

// Event type names
const (
	TypeNodeCreated       = "node.created"
	TypeNodeUpdated       = "node.updated"
	TypeNodeMoved         = "node.moved"
	TypeNodeResized       = "node.resized"
	TypeNodesDeleted      = "nodes.deleted"
	TypeConnectionAdded   = "connection.added"
	TypeConnectionRemoved = "connection.removed"
	TypeDocumentLoaded    = "document.loaded"
	TypeDocumentSaved     = "document.saved"
)

func newBase(aggregateID, eventType string, version int, ts time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   ts,
		Version:     version,
	}
}

// NodeCreated is raised when a new node is added to the map
type NodeCreated struct {
	BaseEvent
	NodeID   valueobjects.NodeID  `json:"node_id"`
	ParentID *valueobjects.NodeID `json:"parent_id,omitempty"`
	Position valueobjects.Point   `json:"position"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(mapID string, version int, nodeID valueobjects.NodeID, parentID *valueobjects.NodeID, pos valueobjects.Point, ts time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: newBase(mapID, TypeNodeCreated, version, ts),
		NodeID:    nodeID,
		ParentID:  parentID,
		Position:  pos,
	}
}

// NodeUpdated is raised when node content, status, formatting, media or chat change
type NodeUpdated struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Fields []string            `json:"fields"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(mapID string, version int, nodeID valueobjects.NodeID, fields []string, ts time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: newBase(mapID, TypeNodeUpdated, version, ts),
		NodeID:    nodeID,
		Fields:    fields,
	}
}

// NodeMoved is raised when a node is moved to a new position
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID `json:"node_id"`
	OldPosition valueobjects.Point  `json:"old_position"`
	NewPosition valueobjects.Point  `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(mapID string, version int, nodeID valueobjects.NodeID, oldPos, newPos valueobjects.Point, ts time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBase(mapID, TypeNodeMoved, version, ts),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeResized is raised when a node's stored size changes
type NodeResized struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Size   valueobjects.Size   `json:"size"`
}

// NewNodeResized creates a NodeResized event
func NewNodeResized(mapID string, version int, nodeID valueobjects.NodeID, size valueobjects.Size, ts time.Time) NodeResized {
	return NodeResized{
		BaseEvent: newBase(mapID, TypeNodeResized, version, ts),
		NodeID:    nodeID,
		Size:      size,
	}
}

// NodesDeleted is raised once per cascade delete with every removed id
type NodesDeleted struct {
	BaseEvent
	RootID  valueobjects.NodeID   `json:"root_id"`
	Removed []valueobjects.NodeID `json:"removed"`
}

// NewNodesDeleted creates a NodesDeleted event
func NewNodesDeleted(mapID string, version int, rootID valueobjects.NodeID, removed []valueobjects.NodeID, ts time.Time) NodesDeleted {
	return NodesDeleted{
		BaseEvent: newBase(mapID, TypeNodesDeleted, version, ts),
		RootID:    rootID,
		Removed:   removed,
	}
}

// ConnectionAdded is raised when a directed cross-link is appended
type ConnectionAdded struct {
	BaseEvent
	From valueobjects.NodeID `json:"from"`
	To   valueobjects.NodeID `json:"to"`
}

// NewConnectionAdded creates a ConnectionAdded event
func NewConnectionAdded(mapID string, version int, from, to valueobjects.NodeID, ts time.Time) ConnectionAdded {
	return ConnectionAdded{
		BaseEvent: newBase(mapID, TypeConnectionAdded, version, ts),
		From:      from,
		To:        to,
	}
}

// ConnectionRemoved is raised when cross-links between two nodes are dropped
type ConnectionRemoved struct {
	BaseEvent
	From  valueobjects.NodeID `json:"from"`
	To    valueobjects.NodeID `json:"to"`
	Count int                 `json:"count"`
}

// NewConnectionRemoved creates a ConnectionRemoved event
func NewConnectionRemoved(mapID string, version int, from, to valueobjects.NodeID, count int, ts time.Time) ConnectionRemoved {
	return ConnectionRemoved{
		BaseEvent: newBase(mapID, TypeConnectionRemoved, version, ts),
		From:      from,
		To:        to,
		Count:     count,
	}
}

// DocumentLoaded is raised when the whole node collection is replaced
type DocumentLoaded struct {
	BaseEvent
	NodeCount int `json:"node_count"`
}

// NewDocumentLoaded creates a DocumentLoaded event
func NewDocumentLoaded(mapID string, version int, nodeCount int, ts time.Time) DocumentLoaded {
	return DocumentLoaded{
		BaseEvent: newBase(mapID, TypeDocumentLoaded, version, ts),
		NodeCount: nodeCount,
	}
}

// DocumentSaved is raised by the persistence layer after a successful write
type DocumentSaved struct {
	BaseEvent
	Key       string `json:"key"`
	NodeCount int    `json:"node_count"`
	Bytes     int    `json:"bytes"`
}

// NewDocumentSaved creates a DocumentSaved event
func NewDocumentSaved(mapID string, version int, key string, nodeCount, size int, ts time.Time) DocumentSaved {
	return DocumentSaved{
		BaseEvent: newBase(mapID, TypeDocumentSaved, version, ts),
		Key:       key,
		NodeCount: nodeCount,
		Bytes:     size,
	}
}
