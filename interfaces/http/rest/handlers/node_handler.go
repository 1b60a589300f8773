package handlers

import (
	"net/http"

	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/queries"
	querybus "mindcanvas/application/queries/bus"
	"mindcanvas/infrastructure/persistence/document"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// Routes mounts the node endpoints
func (h *NodeHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateNode)
	r.Get("/{nodeID}", h.GetNode)
	r.Patch("/{nodeID}", h.UpdateNode)
	r.Delete("/{nodeID}", h.DeleteNode)
	r.Put("/{nodeID}/position", h.MoveNode)
	r.Put("/{nodeID}/size", h.ResizeNode)
	r.Post("/{nodeID}/completed/toggle", h.ToggleCompleted)
	r.Post("/{nodeID}/format/{flag}/toggle", h.ToggleFormat)
	r.Post("/{nodeID}/media", h.AddMedia)
	r.Delete("/{nodeID}/media/{mediaID}", h.RemoveMedia)
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	ParentID *string `json:"parentId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.run(w, r, http.StatusCreated, commands.CreateNodeCommand{ParentID: req.ParentID, X: req.X, Y: req.Y})
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetNodeQuery{NodeID: chi.URLParam(r, "nodeID")})
}

// UpdateNodeRequest represents the request body for updating a node
type UpdateNodeRequest struct {
	Title       *string                    `json:"title"`
	Description *string                    `json:"description"`
	Completed   *bool                      `json:"completed"`
	Formatting  *document.FormattingRecord `json:"formatting"`
	Chat        *[]document.ChatRecord     `json:"chat"`
}

// UpdateNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req UpdateNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.run(w, r, http.StatusOK, commands.UpdateNodeCommand{
		NodeID:      chi.URLParam(r, "nodeID"),
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Formatting:  req.Formatting,
		Chat:        req.Chat,
	})
}

// DeleteNode handles DELETE /nodes/{nodeID}. The node's descendants go with it.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.DeleteNodeCommand{NodeID: chi.URLParam(r, "nodeID")})
}

// MoveNodeRequest is a canvas position
type MoveNodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MoveNode handles PUT /nodes/{nodeID}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.run(w, r, http.StatusOK, commands.MoveNodeCommand{NodeID: chi.URLParam(r, "nodeID"), X: req.X, Y: req.Y})
}

// ResizeNodeRequest is a node size
type ResizeNodeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ResizeNode handles PUT /nodes/{nodeID}/size
func (h *NodeHandler) ResizeNode(w http.ResponseWriter, r *http.Request) {
	var req ResizeNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.run(w, r, http.StatusOK, commands.ResizeNodeCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		Width:  req.Width,
		Height: req.Height,
	})
}

// ToggleCompleted handles POST /nodes/{nodeID}/completed/toggle
func (h *NodeHandler) ToggleCompleted(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.ToggleCompletedCommand{NodeID: chi.URLParam(r, "nodeID")})
}

// ToggleFormat handles POST /nodes/{nodeID}/format/{flag}/toggle
func (h *NodeHandler) ToggleFormat(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.ToggleFormatCommand{
		NodeID: chi.URLParam(r, "nodeID"),
		Flag:   chi.URLParam(r, "flag"),
	})
}

// AddMedia handles POST /nodes/{nodeID}/media
func (h *NodeHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	var media document.MediaRecord
	if !h.decode(w, r, &media) {
		return
	}
	h.run(w, r, http.StatusCreated, commands.AddMediaCommand{NodeID: chi.URLParam(r, "nodeID"), Media: media})
}

// RemoveMedia handles DELETE /nodes/{nodeID}/media/{mediaID}
func (h *NodeHandler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.RemoveMediaCommand{
		NodeID:  chi.URLParam(r, "nodeID"),
		MediaID: chi.URLParam(r, "mediaID"),
	})
}
