package handlers

import (
	"mindcanvas/application/canvas"
	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/services"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// CanvasHandlers executes viewport, selection and gesture commands
type CanvasHandlers struct {
	session *services.Session
}

// NewCanvasHandlers creates canvas command handlers
func NewCanvasHandlers(session *services.Session) *CanvasHandlers {
	return &CanvasHandlers{session: session}
}

// Register adds every canvas command to b
func (h *CanvasHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.ZoomCommand{}, onSession(h.session, zoom)},
		{commands.PanCommand{}, onSession(h.session, pan)},
		{commands.CenterViewCommand{}, onSession(h.session, centerView)},
		{commands.WheelCommand{}, onSession(h.session, wheel)},
		{commands.PointerCommand{}, onSession(h.session, pointer)},
		{commands.SetHandToolCommand{}, onSession(h.session, setHandTool)},
		{commands.SetContainerOriginCommand{}, onSession(h.session, setOrigin)},
		{commands.SelectNodeCommand{}, onSession(h.session, selectNode)},
		{commands.ConnectSelectedCommand{}, onSession(h.session, connectSelected)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func zoom(w *services.Workspace, cmd commands.ZoomCommand) (interface{}, error) {
	switch cmd.Action {
	case commands.ZoomIn:
		w.Viewport.ZoomIn()
	case commands.ZoomOut:
		w.Viewport.ZoomOut()
	case commands.ZoomSet:
		w.Viewport.SetZoom(cmd.Value)
	case commands.ZoomReset:
		w.Viewport.Reset()
	}
	return w.Viewport.State(), nil
}

func pan(w *services.Workspace, cmd commands.PanCommand) (interface{}, error) {
	w.Viewport.SetOffset(valueobjects.NewPoint(cmd.X, cmd.Y))
	return w.Viewport.State(), nil
}

func centerView(w *services.Workspace, cmd commands.CenterViewCommand) (interface{}, error) {
	w.Viewport.CenterOnContent(w.Map.Nodes(), valueobjects.NewSize(cmd.Width, cmd.Height))
	return w.Viewport.State(), nil
}

// WheelResult reports the viewport after a wheel event and whether the
// page scroll must be suppressed
type WheelResult struct {
	canvas.ViewportState
	Consumed bool `json:"consumed"`
}

func wheel(w *services.Workspace, cmd commands.WheelCommand) (interface{}, error) {
	consumed := w.Viewport.Wheel(cmd.DeltaY, cmd.OverCanvas)
	return WheelResult{ViewportState: w.Viewport.State(), Consumed: consumed}, nil
}

func pointer(w *services.Workspace, cmd commands.PointerCommand) (interface{}, error) {
	c := w.Controller
	at := valueobjects.NewPoint(cmd.X, cmd.Y)

	switch cmd.Event {
	case commands.PointerCanvasDown:
		c.CanvasPointerDown(at)
	case commands.PointerNodeDown:
		id, err := parseID("nodeId", cmd.NodeID)
		if err != nil {
			return nil, err
		}
		if err := c.NodePointerDown(id, at, cmd.Multi); err != nil {
			return nil, err
		}
	case commands.PointerResizeDown:
		id, err := parseID("nodeId", cmd.NodeID)
		if err != nil {
			return nil, err
		}
		if _, err := c.ResizePointerDown(id, canvas.Handle(cmd.Handle), at); err != nil {
			return nil, err
		}
	case commands.PointerMove:
		if err := c.PointerMove(at); err != nil {
			return nil, err
		}
	case commands.PointerUp:
		c.PointerUp()
	case commands.PointerLeave:
		c.PointerLeave()
	}
	return c.State(), nil
}

func setHandTool(w *services.Workspace, cmd commands.SetHandToolCommand) (interface{}, error) {
	w.Controller.SetHandTool(cmd.Enabled)
	return w.Controller.State(), nil
}

func setOrigin(w *services.Workspace, cmd commands.SetContainerOriginCommand) (interface{}, error) {
	w.Controller.SetContainerOrigin(valueobjects.NewPoint(cmd.X, cmd.Y))
	return w.Controller.State(), nil
}

func selectNode(w *services.Workspace, cmd commands.SelectNodeCommand) (interface{}, error) {
	if cmd.NodeID == "" {
		w.Controller.ClearSelection()
		return w.Controller.State(), nil
	}
	id := valueobjects.MustNodeID(cmd.NodeID)
	if !w.Map.HasNode(id) {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	if cmd.Multi {
		w.Controller.ToggleMultiSelect(id)
	} else {
		w.Controller.Select(id)
	}
	return w.Controller.State(), nil
}

// ConnectResult reports whether a connection was created
type ConnectResult struct {
	Connected bool         `json:"connected"`
	Selection canvas.State `json:"selection"`
}

func connectSelected(w *services.Workspace, _ commands.ConnectSelectedCommand) (interface{}, error) {
	ok, err := w.Controller.CreateConnection()
	if err != nil {
		return nil, err
	}
	return ConnectResult{Connected: ok, Selection: w.Controller.State()}, nil
}
