package canvas

import (
	"mindcanvas/domain/config"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// Mode is the gesture currently in progress
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDragging Mode = "dragging"
	ModeResizing Mode = "resizing"
	ModePanning  Mode = "panning"
)

// Handle identifies one of the eight resize handles
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Valid reports whether h names a known handle
func (h Handle) Valid() bool {
	switch h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

func (h Handle) edges() (north, south, east, west bool) {
	switch h {
	case HandleN:
		north = true
	case HandleS:
		south = true
	case HandleE:
		east = true
	case HandleW:
		west = true
	case HandleNE:
		north, east = true, true
	case HandleNW:
		north, west = true, true
	case HandleSE:
		south, east = true, true
	case HandleSW:
		south, west = true, true
	}
	return
}

// NodeStore is the subset of the MindMap the controller mutates through
type NodeStore interface {
	Node(id valueobjects.NodeID) (*entities.Node, bool)
	MoveNode(id valueobjects.NodeID, x, y float64) error
	ResizeNode(id valueobjects.NodeID, width, height float64) (valueobjects.Size, error)
	AddConnection(from, to valueobjects.NodeID) error
}

// State is a snapshot of selection and gesture state
type State struct {
	Mode          Mode                  `json:"mode"`
	HandTool      bool                  `json:"handTool"`
	Selected      *valueobjects.NodeID  `json:"selected"`
	MultiSelected []valueobjects.NodeID `json:"multiSelected"`
	ActiveNode    *valueobjects.NodeID  `json:"activeNode,omitempty"`
	Handle        Handle                `json:"handle,omitempty"`
}

// Controller translates pointer input into node store mutations. Only one
// gesture is active at a time; pointer-up or pointer-leave ends it.
type Controller struct {
	store    NodeStore
	viewport *Viewport
	cfg      *config.DomainConfig

	origin   valueobjects.Point
	handTool bool
	mode     Mode

	selected *valueobjects.NodeID
	multi    []valueobjects.NodeID

	active       valueobjects.NodeID
	handle       Handle
	grab         valueobjects.Point
	startPointer valueobjects.Point
	startSize    valueobjects.Size
	startPos     valueobjects.Point
}

// NewController creates an idle controller
func NewController(store NodeStore, viewport *Viewport, cfg *config.DomainConfig) *Controller {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if viewport == nil {
		viewport = NewViewport(cfg)
	}
	return &Controller{store: store, viewport: viewport, cfg: cfg, mode: ModeIdle}
}

// Viewport returns the viewport the controller converts through
func (c *Controller) Viewport() *Viewport { return c.viewport }

// SetContainerOrigin records the screen position of the canvas container
func (c *Controller) SetContainerOrigin(p valueobjects.Point) { c.origin = p }

// SetHandTool switches between select mode and hand (pan) mode. Any
// gesture in progress ends.
func (c *Controller) SetHandTool(on bool) {
	c.endGesture()
	c.handTool = on
}

// HandTool reports whether hand mode is active
func (c *Controller) HandTool() bool { return c.handTool }

// Mode returns the gesture in progress
func (c *Controller) Mode() Mode { return c.mode }

// State returns selection and gesture state
func (c *Controller) State() State {
	s := State{
		Mode:          c.mode,
		HandTool:      c.handTool,
		Selected:      copyID(c.selected),
		MultiSelected: append([]valueobjects.NodeID{}, c.multi...),
	}
	if c.mode == ModeDragging || c.mode == ModeResizing {
		a := c.active
		s.ActiveNode = &a
	}
	if c.mode == ModeResizing {
		s.Handle = c.handle
	}
	return s
}

// Selected returns the single-selected node, if any
func (c *Controller) Selected() (valueobjects.NodeID, bool) {
	if c.selected == nil {
		return valueobjects.NodeID{}, false
	}
	return *c.selected, true
}

// MultiSelected returns the multi-selection in selection order
func (c *Controller) MultiSelected() []valueobjects.NodeID {
	return append([]valueobjects.NodeID{}, c.multi...)
}

// Select makes id the single selection and clears multi-selection
func (c *Controller) Select(id valueobjects.NodeID) {
	c.selected = &id
	c.multi = nil
}

// ToggleMultiSelect adds or removes id from the multi-selection and clears
// the single selection
func (c *Controller) ToggleMultiSelect(id valueobjects.NodeID) {
	kept := c.multi[:0:0]
	found := false
	for _, m := range c.multi {
		if m.Equals(id) {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		kept = append(kept, id)
	}
	c.multi = kept
	c.selected = nil
}

// ClearSelection drops single and multi selection
func (c *Controller) ClearSelection() {
	c.selected = nil
	c.multi = nil
}

// Forget removes deleted ids from the selection and ends a gesture on them
func (c *Controller) Forget(ids []valueobjects.NodeID) {
	gone := make(map[valueobjects.NodeID]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	if c.selected != nil && gone[*c.selected] {
		c.selected = nil
	}
	kept := c.multi[:0:0]
	for _, m := range c.multi {
		if !gone[m] {
			kept = append(kept, m)
		}
	}
	c.multi = kept
	if (c.mode == ModeDragging || c.mode == ModeResizing) && gone[c.active] {
		c.endGesture()
	}
}

// CanvasPointerDown handles a press on empty canvas: in hand mode it starts
// panning, otherwise it clears the selection.
func (c *Controller) CanvasPointerDown(pointer valueobjects.Point) {
	c.endGesture()
	if c.handTool {
		c.viewport.StartPan(pointer)
		c.mode = ModePanning
		return
	}
	c.ClearSelection()
}

// NodePointerDown handles a press on a node body. With multi set the node
// is toggled in the multi-selection, otherwise it becomes the single
// selection. The grab offset is captured so the node does not jump. In
// hand mode the press pans the viewport instead.
func (c *Controller) NodePointerDown(id valueobjects.NodeID, pointer valueobjects.Point, multi bool) error {
	c.endGesture()
	if c.handTool {
		c.viewport.StartPan(pointer)
		c.mode = ModePanning
		return nil
	}

	node, ok := c.store.Node(id)
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	if multi {
		c.ToggleMultiSelect(id)
	} else {
		c.Select(id)
	}

	c.active = id
	c.grab = pointer.Sub(c.viewport.CanvasToScreen(node.Position(), c.origin))
	c.mode = ModeDragging
	return nil
}

// ResizePointerDown starts a resize from one of the eight handles. It only
// starts when the node is the current single selection and hand mode is
// off; it reports whether the gesture started.
func (c *Controller) ResizePointerDown(id valueobjects.NodeID, handle Handle, pointer valueobjects.Point) (bool, error) {
	if !handle.Valid() {
		return false, pkgerrors.NewValidationError("unknown resize handle")
	}
	if c.handTool || c.selected == nil || !c.selected.Equals(id) {
		return false, nil
	}
	node, ok := c.store.Node(id)
	if !ok {
		return false, pkgerrors.NewNotFoundError("node")
	}

	c.endGesture()
	c.active = id
	c.handle = handle
	c.startPointer = pointer
	c.startSize = node.Size(c.cfg)
	c.startPos = node.Position()
	c.mode = ModeResizing
	return true, nil
}

// PointerMove advances the active gesture. It is called for every move
// event and does constant work.
func (c *Controller) PointerMove(pointer valueobjects.Point) error {
	switch c.mode {
	case ModePanning:
		c.viewport.PanTo(pointer)
		return nil

	case ModeDragging:
		pos := c.viewport.ScreenToCanvas(pointer.Sub(c.grab), c.origin)
		return c.ignoreMissing(c.store.MoveNode(c.active, pos.X, pos.Y))

	case ModeResizing:
		return c.resize(pointer)
	}
	return nil
}

func (c *Controller) resize(pointer valueobjects.Point) error {
	// Handles are drawn at a fixed visual size, so the delta stays in
	// screen pixels regardless of zoom.
	delta := pointer.Sub(c.startPointer)
	north, south, east, west := c.handle.edges()

	w, h := c.startSize.Width, c.startSize.Height
	if east {
		w += delta.X
	}
	if west {
		w -= delta.X
	}
	if south {
		h += delta.Y
	}
	if north {
		h -= delta.Y
	}
	size := valueobjects.NewSize(w, h).Clamp(valueobjects.NewSize(c.cfg.MinNodeWidth, c.cfg.MinNodeHeight))

	if west || north {
		pos := c.startPos
		if west {
			pos.X = c.startPos.X + c.startSize.Width - size.Width
		}
		if north {
			pos.Y = c.startPos.Y + c.startSize.Height - size.Height
		}
		if err := c.ignoreMissing(c.store.MoveNode(c.active, pos.X, pos.Y)); err != nil {
			return err
		}
	}

	_, err := c.store.ResizeNode(c.active, size.Width, size.Height)
	return c.ignoreMissing(err)
}

// PointerUp ends the active gesture
func (c *Controller) PointerUp() { c.endGesture() }

// PointerLeave ends the active gesture like PointerUp
func (c *Controller) PointerLeave() { c.endGesture() }

// CreateConnection links the two multi-selected nodes, first to second,
// then clears the multi-selection. With any other selection size it does
// nothing and reports false.
func (c *Controller) CreateConnection() (bool, error) {
	if len(c.multi) != 2 {
		return false, nil
	}
	from, to := c.multi[0], c.multi[1]
	if err := c.store.AddConnection(from, to); err != nil {
		return false, err
	}
	c.multi = nil
	return true, nil
}

func (c *Controller) endGesture() {
	if c.mode == ModePanning {
		c.viewport.EndPan()
	}
	c.mode = ModeIdle
	c.handle = ""
}

// A node deleted mid-gesture ends the gesture instead of failing the move.
func (c *Controller) ignoreMissing(err error) error {
	if pkgerrors.IsNotFound(err) {
		c.endGesture()
		return nil
	}
	return err
}

func copyID(id *valueobjects.NodeID) *valueobjects.NodeID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
