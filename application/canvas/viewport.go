// Package canvas holds the interaction state of the editor: the viewport
// transform and the pointer gesture controller.
package canvas

import (
	"math"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
)

// ViewportState is a snapshot of pan and zoom
type ViewportState struct {
	Offset valueobjects.Point `json:"offset"`
	Zoom   float64            `json:"zoom"`
}

// Viewport tracks the pan offset (screen pixels) and zoom factor, and
// converts between screen-space and canvas-space points.
type Viewport struct {
	cfg    *config.DomainConfig
	offset valueobjects.Point
	zoom   float64

	panning  bool
	panStart valueobjects.Point
}

// NewViewport creates a viewport at zoom 1 with no offset
func NewViewport(cfg *config.DomainConfig) *Viewport {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Viewport{cfg: cfg, zoom: 1}
}

// Offset returns the pan offset
func (v *Viewport) Offset() valueobjects.Point { return v.offset }

// Zoom returns the zoom factor
func (v *Viewport) Zoom() float64 { return v.zoom }

// State returns the current pan and zoom
func (v *Viewport) State() ViewportState {
	return ViewportState{Offset: v.offset, Zoom: v.zoom}
}

// ZoomIn raises zoom by one step
func (v *Viewport) ZoomIn() float64 {
	return v.SetZoom(v.zoom + v.cfg.ZoomStep)
}

// ZoomOut lowers zoom by one step
func (v *Viewport) ZoomOut() float64 {
	return v.SetZoom(v.zoom - v.cfg.ZoomStep)
}

// SetZoom rounds z to one decimal and clamps it to the configured range
func (v *Viewport) SetZoom(z float64) float64 {
	z = math.Round(z*10) / 10
	v.zoom = math.Min(v.cfg.MaxZoom, math.Max(v.cfg.MinZoom, z))
	return v.zoom
}

// SetOffset sets the pan offset
func (v *Viewport) SetOffset(p valueobjects.Point) { v.offset = p }

// Reset restores zoom 1 and zero offset
func (v *Viewport) Reset() {
	v.zoom = 1
	v.offset = valueobjects.Point{}
	v.panning = false
}

// CenterOnContent moves the offset so the center of the node position
// bounding box lands on the viewport center at the current zoom. With no
// nodes the offset is unchanged.
func (v *Viewport) CenterOnContent(nodes []*entities.Node, viewport valueobjects.Size) {
	b, ok := aggregates.NodeBounds(nodes)
	if !ok {
		return
	}
	center := b.Center()
	half := valueobjects.NewPoint(viewport.Width/2, viewport.Height/2)
	v.offset = half.Sub(center.Scale(v.zoom))
}

// ScreenToCanvas maps a pointer position to canvas space:
// (screen - origin - offset) / zoom.
func (v *Viewport) ScreenToCanvas(screen, origin valueobjects.Point) valueobjects.Point {
	return screen.Sub(origin).Sub(v.offset).Scale(1 / v.zoom)
}

// CanvasToScreen is the inverse of ScreenToCanvas
func (v *Viewport) CanvasToScreen(canvas, origin valueobjects.Point) valueobjects.Point {
	return canvas.Scale(v.zoom).Add(v.offset).Add(origin)
}

// Wheel zooms in for negative deltaY and out for positive deltaY while the
// pointer is over the canvas. It reports whether the event was consumed,
// in which case the default page scroll must be suppressed.
func (v *Viewport) Wheel(deltaY float64, overCanvas bool) bool {
	if !overCanvas {
		return false
	}
	switch {
	case deltaY < 0:
		v.ZoomIn()
	case deltaY > 0:
		v.ZoomOut()
	}
	return true
}

// StartPan begins a hand-tool drag at the pointer position
func (v *Viewport) StartPan(pointer valueobjects.Point) {
	v.panning = true
	v.panStart = pointer.Sub(v.offset)
}

// PanTo moves the offset so the content follows the pointer
func (v *Viewport) PanTo(pointer valueobjects.Point) {
	if !v.panning {
		return
	}
	v.offset = pointer.Sub(v.panStart)
}

// EndPan stops panning
func (v *Viewport) EndPan() { v.panning = false }

// IsPanning reports whether a pan gesture is active
func (v *Viewport) IsPanning() bool { return v.panning }
