package entities

import (
	"mindcanvas/domain/config"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// Node is a single mind-map item: a positioned card with text, status,
// formatting, attachments and its tree and cross-link references.
// Tree linkage (parent, children, connections) is only changed by the
// MindMap aggregate, which keeps both sides consistent.
type Node struct {
	// Private fields ensure encapsulation
	id          valueobjects.NodeID
	position    valueobjects.Point
	size        *valueobjects.Size
	title       string
	description string
	completed   bool
	parentID    *valueobjects.NodeID
	children    []valueobjects.NodeID
	connections []valueobjects.NodeID
	media       []valueobjects.Media
	formatting  valueobjects.Formatting
	chat        []valueobjects.ChatMessage
}

// NodeState is the full exported state of a node, used to rebuild nodes
// from storage and to hand snapshots across layers.
type NodeState struct {
	ID          valueobjects.NodeID
	Position    valueobjects.Point
	Size        *valueobjects.Size
	Title       string
	Description string
	Completed   bool
	ParentID    *valueobjects.NodeID
	Children    []valueobjects.NodeID
	Connections []valueobjects.NodeID
	Media       []valueobjects.Media
	Formatting  valueobjects.Formatting
	Chat        []valueobjects.ChatMessage
}

// NewNode creates a node with default content and formatting.
func NewNode(id valueobjects.NodeID, parentID *valueobjects.NodeID, position valueobjects.Point, title, description string) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	return &Node{
		id:          id,
		position:    position,
		title:       title,
		description: description,
		parentID:    copyID(parentID),
		children:    []valueobjects.NodeID{},
		connections: []valueobjects.NodeID{},
		media:       []valueobjects.Media{},
		formatting:  valueobjects.DefaultFormatting(),
	}, nil
}

// ReconstructNode rebuilds a node from stored state. Slices are copied.
func ReconstructNode(state NodeState) (*Node, error) {
	if state.ID.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	n := &Node{
		id:          state.ID,
		position:    state.Position,
		title:       state.Title,
		description: state.Description,
		completed:   state.Completed,
		parentID:    copyID(state.ParentID),
		children:    copyIDs(state.Children),
		connections: copyIDs(state.Connections),
		media:       copyMedia(state.Media),
		formatting:  state.Formatting.Normalize(),
		chat:        copyChat(state.Chat),
	}
	if state.Size != nil {
		s := *state.Size
		n.size = &s
	}
	return n, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// Position returns the canvas-space origin of the node
func (n *Node) Position() valueobjects.Point { return n.position }

// Title returns the node title
func (n *Node) Title() string { return n.title }

// Description returns the node description
func (n *Node) Description() string { return n.description }

// Completed reports the todo status
func (n *Node) Completed() bool { return n.completed }

// Formatting returns the text styling
func (n *Node) Formatting() valueobjects.Formatting { return n.formatting }

// HasExplicitSize reports whether a size was ever stored for the node.
func (n *Node) HasExplicitSize() bool { return n.size != nil }

// Size returns the stored size, or the configured default when none is stored.
func (n *Node) Size(cfg *config.DomainConfig) valueobjects.Size {
	if n.size != nil {
		return *n.size
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return valueobjects.NewSize(cfg.DefaultNodeWidth, cfg.DefaultNodeHeight)
}

// ParentID returns the parent id, or nil for roots
func (n *Node) ParentID() *valueobjects.NodeID { return copyID(n.parentID) }

// IsRoot reports whether the node has no parent
func (n *Node) IsRoot() bool { return n.parentID == nil }

// Children returns a copy of the ordered child ids
func (n *Node) Children() []valueobjects.NodeID { return copyIDs(n.children) }

// Connections returns a copy of the outgoing cross-link ids
func (n *Node) Connections() []valueobjects.NodeID { return copyIDs(n.connections) }

// Media returns a copy of the attachments
func (n *Node) Media() []valueobjects.Media { return copyMedia(n.media) }

// Chat returns a copy of the chat transcript
func (n *Node) Chat() []valueobjects.ChatMessage { return copyChat(n.chat) }

// State returns a deep copy of the node state
func (n *Node) State() NodeState {
	s := NodeState{
		ID:          n.id,
		Position:    n.position,
		Title:       n.title,
		Description: n.description,
		Completed:   n.completed,
		ParentID:    copyID(n.parentID),
		Children:    copyIDs(n.children),
		Connections: copyIDs(n.connections),
		Media:       copyMedia(n.media),
		Formatting:  n.formatting,
		Chat:        copyChat(n.chat),
	}
	if n.size != nil {
		sz := *n.size
		s.Size = &sz
	}
	return s
}

// Clone returns an independent copy
func (n *Node) Clone() *Node {
	c, _ := ReconstructNode(n.State())
	return c
}

// MoveTo sets the position. Returns false when nothing changed.
func (n *Node) MoveTo(p valueobjects.Point) bool {
	if n.position == p {
		return false
	}
	n.position = p
	return true
}

// ResizeTo stores a size clamped to the configured minimum.
func (n *Node) ResizeTo(s valueobjects.Size, cfg *config.DomainConfig) valueobjects.Size {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	clamped := s.Clamp(valueobjects.NewSize(cfg.MinNodeWidth, cfg.MinNodeHeight))
	n.size = &clamped
	return clamped
}

// SetTitle replaces the title
func (n *Node) SetTitle(title string) { n.title = title }

// SetDescription replaces the description
func (n *Node) SetDescription(description string) { n.description = description }

// SetCompleted sets the todo status
func (n *Node) SetCompleted(completed bool) { n.completed = completed }

// SetFormatting replaces the styling, normalizing unknown enum values
func (n *Node) SetFormatting(f valueobjects.Formatting) { n.formatting = f.Normalize() }

// SetMedia replaces the attachment list
func (n *Node) SetMedia(media []valueobjects.Media) { n.media = copyMedia(media) }

// SetChat replaces the chat transcript
func (n *Node) SetChat(chat []valueobjects.ChatMessage) { n.chat = copyChat(chat) }

// AddMedia appends an attachment
func (n *Node) AddMedia(m valueobjects.Media) { n.media = append(n.media, m) }

// RemoveMedia drops the attachment with the given id. Returns false if absent.
func (n *Node) RemoveMedia(mediaID string) bool {
	kept := n.media[:0:0]
	for _, m := range n.media {
		if m.Info().ID != mediaID {
			kept = append(kept, m)
		}
	}
	removed := len(kept) != len(n.media)
	n.media = kept
	return removed
}

// SetParent is used by the aggregate during creation and tree repair.
func (n *Node) SetParent(parentID *valueobjects.NodeID) { n.parentID = copyID(parentID) }

// AppendChild adds a child id if not already present.
func (n *Node) AppendChild(id valueobjects.NodeID) {
	if !containsID(n.children, id) {
		n.children = append(n.children, id)
	}
}

// SetChildren replaces the child list
func (n *Node) SetChildren(ids []valueobjects.NodeID) { n.children = copyIDs(ids) }

// AppendConnection adds an outgoing cross-link. Duplicates are the caller's call.
func (n *Node) AppendConnection(id valueobjects.NodeID) { n.connections = append(n.connections, id) }

// HasConnection reports whether an outgoing link to id exists
func (n *Node) HasConnection(id valueobjects.NodeID) bool { return containsID(n.connections, id) }

// RemoveConnections drops every link to id and returns how many were removed.
func (n *Node) RemoveConnections(id valueobjects.NodeID) int {
	before := len(n.connections)
	n.connections = filterIDs(n.connections, func(c valueobjects.NodeID) bool { return !c.Equals(id) })
	return before - len(n.connections)
}

// PruneReferences drops children and connections for which keep returns false.
func (n *Node) PruneReferences(keep func(valueobjects.NodeID) bool) {
	n.children = filterIDs(n.children, keep)
	n.connections = filterIDs(n.connections, keep)
}

func copyID(id *valueobjects.NodeID) *valueobjects.NodeID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyIDs(ids []valueobjects.NodeID) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(ids))
	copy(out, ids)
	return out
}

func copyMedia(media []valueobjects.Media) []valueobjects.Media {
	out := make([]valueobjects.Media, len(media))
	copy(out, media)
	return out
}

func copyChat(chat []valueobjects.ChatMessage) []valueobjects.ChatMessage {
	if chat == nil {
		return nil
	}
	out := make([]valueobjects.ChatMessage, len(chat))
	copy(out, chat)
	return out
}

func containsID(ids []valueobjects.NodeID, id valueobjects.NodeID) bool {
	for _, v := range ids {
		if v.Equals(id) {
			return true
		}
	}
	return false
}

func filterIDs(ids []valueobjects.NodeID, keep func(valueobjects.NodeID) bool) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, 0, len(ids))
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
