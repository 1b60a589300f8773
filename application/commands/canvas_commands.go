package commands

import "mindcanvas/pkg/utils"

// Zoom actions
const (
	ZoomIn    = "in"
	ZoomOut   = "out"
	ZoomSet   = "set"
	ZoomReset = "reset"
)

// ZoomCommand changes the viewport zoom. Value is only read for "set".
type ZoomCommand struct {
	Action string  `json:"action" validate:"required,oneof=in out set reset"`
	Value  float64 `json:"value"`
}

// Validate validates the command
func (c ZoomCommand) Validate() error { return utils.ValidateStruct(c) }

// PanCommand sets the viewport offset in screen pixels
type PanCommand struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate validates the command
func (c PanCommand) Validate() error { return nil }

// CenterViewCommand centers the content in a viewport of the given size
type CenterViewCommand struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Validate validates the command
func (c CenterViewCommand) Validate() error { return utils.ValidateStruct(c) }

// WheelCommand applies a wheel event; positive DeltaY zooms out
type WheelCommand struct {
	DeltaY     float64 `json:"deltaY"`
	OverCanvas bool    `json:"overCanvas"`
}

// Validate validates the command
func (c WheelCommand) Validate() error { return nil }

// Pointer events
const (
	PointerCanvasDown = "canvas_down"
	PointerNodeDown   = "node_down"
	PointerResizeDown = "resize_down"
	PointerMove       = "move"
	PointerUp         = "up"
	PointerLeave      = "leave"
)

// PointerCommand feeds one pointer event to the gesture controller. X and
// Y are screen coordinates.
type PointerCommand struct {
	Event  string  `json:"event" validate:"required,oneof=canvas_down node_down resize_down move up leave"`
	NodeID string  `json:"nodeId" validate:"required_if=Event node_down,required_if=Event resize_down"`
	Handle string  `json:"handle" validate:"omitempty,oneof=n s e w ne nw se sw"`
	Multi  bool    `json:"multi"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Validate validates the command
func (c PointerCommand) Validate() error { return utils.ValidateStruct(c) }

// SetHandToolCommand switches hand (pan) mode
type SetHandToolCommand struct {
	Enabled bool `json:"enabled"`
}

// Validate validates the command
func (c SetHandToolCommand) Validate() error { return nil }

// SetContainerOriginCommand records where the canvas container sits on screen
type SetContainerOriginCommand struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate validates the command
func (c SetContainerOriginCommand) Validate() error { return nil }

// SelectNodeCommand sets the single selection, or toggles the node in the
// multi-selection when Multi is set. An empty NodeID clears the selection.
type SelectNodeCommand struct {
	NodeID string `json:"nodeId"`
	Multi  bool   `json:"multi"`
}

// Validate validates the command
func (c SelectNodeCommand) Validate() error { return nil }

// ConnectSelectedCommand links the two multi-selected nodes
type ConnectSelectedCommand struct{}

// Validate validates the command
func (c ConnectSelectedCommand) Validate() error { return nil }
