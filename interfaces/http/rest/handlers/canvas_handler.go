package handlers

import (
	"net/http"

	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/queries"
	querybus "mindcanvas/application/queries/bus"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CanvasHandler serves viewport, selection and pointer gesture endpoints
type CanvasHandler struct {
	base
}

// NewCanvasHandler creates a new canvas handler
func NewCanvasHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *CanvasHandler {
	return &CanvasHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// Routes mounts the canvas endpoints
func (h *CanvasHandler) Routes(r chi.Router) {
	r.Get("/viewport", h.GetViewport)
	r.Post("/viewport/zoom", h.Zoom)
	r.Put("/viewport/offset", h.Pan)
	r.Post("/viewport/center", h.Center)
	r.Post("/viewport/wheel", h.Wheel)

	r.Get("/selection", h.GetSelection)
	r.Put("/selection", h.Select)
	r.Post("/pointer", h.Pointer)
	r.Put("/tool/hand", h.SetHandTool)
	r.Put("/canvas/origin", h.SetOrigin)
}

// GetViewport handles GET /viewport
func (h *CanvasHandler) GetViewport(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetViewportQuery{})
}

// Zoom handles POST /viewport/zoom
func (h *CanvasHandler) Zoom(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ZoomCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// Pan handles PUT /viewport/offset
func (h *CanvasHandler) Pan(w http.ResponseWriter, r *http.Request) {
	var cmd commands.PanCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// Center handles POST /viewport/center
func (h *CanvasHandler) Center(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CenterViewCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// Wheel handles POST /viewport/wheel
func (h *CanvasHandler) Wheel(w http.ResponseWriter, r *http.Request) {
	var cmd commands.WheelCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// GetSelection handles GET /selection
func (h *CanvasHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetSelectionQuery{})
}

// Select handles PUT /selection
func (h *CanvasHandler) Select(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SelectNodeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// Pointer handles POST /pointer, one gesture event per request
func (h *CanvasHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	var cmd commands.PointerCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// SetHandTool handles PUT /tool/hand
func (h *CanvasHandler) SetHandTool(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SetHandToolCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}

// SetOrigin handles PUT /canvas/origin
func (h *CanvasHandler) SetOrigin(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SetContainerOriginCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.run(w, r, http.StatusOK, cmd)
}
