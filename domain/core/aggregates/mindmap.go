package aggregates

import (
	"time"

	"github.com/google/uuid"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/domain/events"
	pkgerrors "mindcanvas/pkg/errors"
)

// MindMap is the aggregate root owning the authoritative node collection.
// It is not safe for concurrent use; callers serialize access.
type MindMap struct {
	id      string
	nodes   map[valueobjects.NodeID]*entities.Node
	order   []valueobjects.NodeID
	cfg     *config.DomainConfig
	ids     valueobjects.IDGenerator
	now     func() time.Time
	version int
	events  []events.DomainEvent
}

// Option configures a MindMap
type Option func(*MindMap)

// WithClock overrides the time source used for events
func WithClock(now func() time.Time) Option {
	return func(m *MindMap) { m.now = now }
}

// WithID sets the aggregate id carried on events
func WithID(id string) Option {
	return func(m *MindMap) { m.id = id }
}

// NodePatch is a shallow merge applied by UpdateNode. Nil fields are left
// untouched. Identity and tree linkage are not patchable.
type NodePatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Formatting  *valueobjects.Formatting
	Media       *[]valueobjects.Media
	Chat        *[]valueobjects.ChatMessage
}

// IsEmpty reports whether the patch changes nothing
func (p NodePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.Formatting == nil && p.Media == nil && p.Chat == nil
}

func (p NodePatch) fields() []string {
	var f []string
	if p.Title != nil {
		f = append(f, "title")
	}
	if p.Description != nil {
		f = append(f, "description")
	}
	if p.Completed != nil {
		f = append(f, "completed")
	}
	if p.Formatting != nil {
		f = append(f, "formatting")
	}
	if p.Media != nil {
		f = append(f, "media")
	}
	if p.Chat != nil {
		f = append(f, "chat")
	}
	return f
}

// NewMindMap creates a map holding the default single root node.
func NewMindMap(cfg *config.DomainConfig, ids valueobjects.IDGenerator, opts ...Option) *MindMap {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if ids == nil {
		ids = valueobjects.NewTimestampGenerator()
	}
	m := &MindMap{
		id:    uuid.New().String(),
		nodes: make(map[valueobjects.NodeID]*entities.Node),
		cfg:   cfg,
		ids:   ids,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.reset(m.defaultNodes())
	return m
}

// ID returns the aggregate id
func (m *MindMap) ID() string { return m.id }

// Version increments on every successful mutation
func (m *MindMap) Version() int { return m.version }

// Config returns the domain rules in effect
func (m *MindMap) Config() *config.DomainConfig { return m.cfg }

// Len returns the number of nodes
func (m *MindMap) Len() int { return len(m.order) }

// HasNode checks if a node exists
func (m *MindMap) HasNode(id valueobjects.NodeID) bool {
	_, ok := m.nodes[id]
	return ok
}

// Node returns a copy of the node with id
func (m *MindMap) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Nodes returns copies of all nodes in document order
func (m *MindMap) Nodes() []*entities.Node {
	out := make([]*entities.Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id].Clone())
	}
	return out
}

// Snapshot returns the state of every node in document order
func (m *MindMap) Snapshot() []entities.NodeState {
	out := make([]entities.NodeState, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id].State())
	}
	return out
}

// CreateNode adds a node at (x, y). A parent id that does not resolve is
// ignored and the node becomes a root.
func (m *MindMap) CreateNode(parentID *valueobjects.NodeID, x, y float64) (*entities.Node, error) {
	if m.cfg.MaxNodesPerDocument > 0 && len(m.order) >= m.cfg.MaxNodesPerDocument {
		return nil, pkgerrors.NewValidationError("maximum nodes reached")
	}

	var parent *entities.Node
	if parentID != nil {
		if p, ok := m.nodes[*parentID]; ok {
			parent = p
		} else {
			parentID = nil
		}
	}

	id := m.ids.NextID()
	for m.HasNode(id) {
		id = m.ids.NextID()
	}

	pos := valueobjects.NewPoint(x, y)
	node, err := entities.NewNode(id, parentID, pos, m.cfg.NewNodeTitle, m.cfg.DefaultDescription)
	if err != nil {
		return nil, err
	}

	m.insert(node)
	if parent != nil {
		parent.AppendChild(id)
	}

	m.touch()
	m.addEvent(events.NewNodeCreated(m.id, m.version, id, node.ParentID(), pos, m.now()))

	return node.Clone(), nil
}

// UpdateNode shallow-merges patch into the node. Unknown ids leave the map
// unchanged and return a not-found error.
func (m *MindMap) UpdateNode(id valueobjects.NodeID, patch NodePatch) error {
	node, ok := m.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	if patch.IsEmpty() {
		return nil
	}

	if patch.Title != nil {
		node.SetTitle(*patch.Title)
	}
	if patch.Description != nil {
		node.SetDescription(*patch.Description)
	}
	if patch.Completed != nil {
		node.SetCompleted(*patch.Completed)
	}
	if patch.Formatting != nil {
		node.SetFormatting(*patch.Formatting)
	}
	if patch.Media != nil {
		node.SetMedia(*patch.Media)
	}
	if patch.Chat != nil {
		node.SetChat(*patch.Chat)
	}

	m.touch()
	m.addEvent(events.NewNodeUpdated(m.id, m.version, id, patch.fields(), m.now()))
	return nil
}

// MoveNode sets a node's canvas position
func (m *MindMap) MoveNode(id valueobjects.NodeID, x, y float64) error {
	node, ok := m.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	old := node.Position()
	if !node.MoveTo(valueobjects.NewPoint(x, y)) {
		return nil
	}
	m.touch()
	m.addEvent(events.NewNodeMoved(m.id, m.version, id, old, node.Position(), m.now()))
	return nil
}

// ResizeNode stores a node size, clamped to the configured minimum, and
// returns the size actually stored.
func (m *MindMap) ResizeNode(id valueobjects.NodeID, width, height float64) (valueobjects.Size, error) {
	node, ok := m.nodes[id]
	if !ok {
		return valueobjects.Size{}, pkgerrors.NewNotFoundError("node")
	}
	size := node.ResizeTo(valueobjects.NewSize(width, height), m.cfg)
	m.touch()
	m.addEvent(events.NewNodeResized(m.id, m.version, id, size, m.now()))
	return size, nil
}

// DeleteNode removes the node and all of its descendants, then prunes
// children and connections that referenced them. It refuses when the
// removal would leave the document without nodes.
func (m *MindMap) DeleteNode(id valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if _, ok := m.nodes[id]; !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	if len(m.order) <= 1 {
		return nil, pkgerrors.NewLastNodeError()
	}

	removed := m.Descendants(id)
	if len(removed) >= len(m.order) {
		return nil, pkgerrors.NewLastNodeError().WithDetails(map[string]interface{}{
			"node_id":      id.String(),
			"would_remove": len(removed),
		})
	}

	gone := make(map[valueobjects.NodeID]bool, len(removed))
	for _, rid := range removed {
		gone[rid] = true
		delete(m.nodes, rid)
	}

	kept := m.order[:0]
	for _, nid := range m.order {
		if !gone[nid] {
			kept = append(kept, nid)
		}
	}
	m.order = kept

	keep := func(ref valueobjects.NodeID) bool { return !gone[ref] }
	for _, nid := range m.order {
		n := m.nodes[nid]
		n.PruneReferences(keep)
		if p := n.ParentID(); p != nil && gone[*p] {
			n.SetParent(nil)
		}
	}

	m.touch()
	m.addEvent(events.NewNodesDeleted(m.id, m.version, id, removed, m.now()))
	return removed, nil
}

// Descendants returns id followed by every node reachable through children,
// depth first. Unknown and repeated ids are skipped.
func (m *MindMap) Descendants(id valueobjects.NodeID) []valueobjects.NodeID {
	var out []valueobjects.NodeID
	seen := make(map[valueobjects.NodeID]bool)
	var walk func(valueobjects.NodeID)
	walk = func(nid valueobjects.NodeID) {
		n, ok := m.nodes[nid]
		if !ok || seen[nid] {
			return
		}
		seen[nid] = true
		out = append(out, nid)
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(id)
	return out
}

// AddConnection appends a directed cross-link from -> to. Both nodes must
// exist. Duplicate and self links follow the domain config.
func (m *MindMap) AddConnection(from, to valueobjects.NodeID) error {
	src, ok := m.nodes[from]
	if !ok {
		return pkgerrors.NewNotFoundError("source node")
	}
	if !m.HasNode(to) {
		return pkgerrors.NewNotFoundError("target node")
	}
	if from.Equals(to) && !m.cfg.AllowSelfConnections {
		return pkgerrors.NewValidationError("cannot connect node to itself").WithCode(pkgerrors.CodeSelfConnection)
	}
	if !m.cfg.AllowDuplicateConnections && src.HasConnection(to) {
		return pkgerrors.NewConflictError("connection already exists").WithCode(pkgerrors.CodeDuplicateEdge)
	}

	src.AppendConnection(to)
	m.touch()
	m.addEvent(events.NewConnectionAdded(m.id, m.version, from, to, m.now()))
	return nil
}

// RemoveConnection drops every from -> to link and returns how many were removed
func (m *MindMap) RemoveConnection(from, to valueobjects.NodeID) (int, error) {
	src, ok := m.nodes[from]
	if !ok {
		return 0, pkgerrors.NewNotFoundError("source node")
	}
	n := src.RemoveConnections(to)
	if n == 0 {
		return 0, pkgerrors.NewNotFoundError("connection")
	}
	m.touch()
	m.addEvent(events.NewConnectionRemoved(m.id, m.version, from, to, n, m.now()))
	return n, nil
}

// AddMedia appends an attachment to a node
func (m *MindMap) AddMedia(id valueobjects.NodeID, media valueobjects.Media) error {
	node, ok := m.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	if media == nil {
		return pkgerrors.NewValidationError("media is required")
	}
	node.AddMedia(media)
	m.touch()
	m.addEvent(events.NewNodeUpdated(m.id, m.version, id, []string{"media"}, m.now()))
	return nil
}

// RemoveMedia drops an attachment from a node
func (m *MindMap) RemoveMedia(id valueobjects.NodeID, mediaID string) error {
	node, ok := m.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	if !node.RemoveMedia(mediaID) {
		return pkgerrors.NewNotFoundError("media")
	}
	m.touch()
	m.addEvent(events.NewNodeUpdated(m.id, m.version, id, []string{"media"}, m.now()))
	return nil
}

// ToggleFormat flips bold, italic, underline or strikethrough
func (m *MindMap) ToggleFormat(id valueobjects.NodeID, flag valueobjects.FormatFlag) error {
	node, ok := m.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	f, err := node.Formatting().Toggle(flag)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return m.UpdateNode(id, NodePatch{Formatting: &f})
}

// ToggleCompleted flips the todo status
func (m *MindMap) ToggleCompleted(id valueobjects.NodeID) error {
	node, ok := m.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	done := !node.Completed()
	return m.UpdateNode(id, NodePatch{Completed: &done})
}

// LoadDocument replaces the node collection. The tree is repaired: a
// parent that does not resolve makes the node a root, children are
// filtered to nodes that name this node as parent, missing child entries
// are appended and duplicate ids keep their first occurrence. An empty
// list loads the default node.
func (m *MindMap) LoadDocument(states []entities.NodeState) error {
	nodes := make([]*entities.Node, 0, len(states))
	seen := make(map[valueobjects.NodeID]bool, len(states))
	for _, st := range states {
		if st.ID.IsZero() || seen[st.ID] {
			continue
		}
		n, err := entities.ReconstructNode(st)
		if err != nil {
			return err
		}
		seen[st.ID] = true
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		nodes = m.defaultNodes()
	}

	repairTree(nodes)
	m.reset(nodes)
	m.touch()
	m.addEvent(events.NewDocumentLoaded(m.id, m.version, len(nodes), m.now()))
	return nil
}

func repairTree(nodes []*entities.Node) {
	byID := make(map[valueobjects.NodeID]*entities.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}

	for _, n := range nodes {
		if p := n.ParentID(); p != nil {
			if _, ok := byID[*p]; !ok || p.Equals(n.ID()) {
				n.SetParent(nil)
			}
		}
	}

	for _, n := range nodes {
		id := n.ID()
		children := make([]valueobjects.NodeID, 0, len(n.Children()))
		dup := make(map[valueobjects.NodeID]bool)
		for _, c := range n.Children() {
			child, ok := byID[c]
			if !ok || dup[c] {
				continue
			}
			if cp := child.ParentID(); cp == nil || !cp.Equals(id) {
				continue
			}
			dup[c] = true
			children = append(children, c)
		}
		n.SetChildren(children)
	}

	for _, n := range nodes {
		if p := n.ParentID(); p != nil {
			byID[*p].AppendChild(n.ID())
		}
	}

	// Connections to unknown nodes are dangling references
	for _, n := range nodes {
		n.PruneReferences(func(ref valueobjects.NodeID) bool {
			_, ok := byID[ref]
			return ok
		})
	}
}

func (m *MindMap) defaultNodes() []*entities.Node {
	cfg := m.cfg
	n, _ := entities.NewNode(
		valueobjects.MustNodeID(cfg.InitialNodeID),
		nil,
		valueobjects.NewPoint(cfg.InitialNodeX, cfg.InitialNodeY),
		cfg.InitialNodeTitle,
		cfg.DefaultDescription,
	)
	f := n.Formatting()
	f.Bold = true
	n.SetFormatting(f)
	return []*entities.Node{n}
}

func (m *MindMap) reset(nodes []*entities.Node) {
	m.nodes = make(map[valueobjects.NodeID]*entities.Node, len(nodes))
	m.order = make([]valueobjects.NodeID, 0, len(nodes))
	for _, n := range nodes {
		m.insert(n)
	}
}

func (m *MindMap) insert(n *entities.Node) {
	m.nodes[n.ID()] = n
	m.order = append(m.order, n.ID())
}

func (m *MindMap) touch() {
	m.version++
}

// GetUncommittedEvents returns all uncommitted domain events
func (m *MindMap) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (m *MindMap) MarkEventsAsCommitted() {
	m.events = []events.DomainEvent{}
}

func (m *MindMap) addEvent(event events.DomainEvent) {
	m.events = append(m.events, event)
}
