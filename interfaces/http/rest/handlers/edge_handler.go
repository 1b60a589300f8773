package handlers

import (
	"net/http"
	"strconv"

	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/queries"
	querybus "mindcanvas/application/queries/bus"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EdgeHandler serves the derived edge list and cross-link changes
type EdgeHandler struct {
	base
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *EdgeHandler {
	return &EdgeHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// Routes mounts the edge and connection endpoints
func (h *EdgeHandler) Routes(r chi.Router) {
	r.Get("/edges", h.ListEdges)
	r.Post("/connections", h.CreateConnection)
	r.Delete("/connections/{from}/{to}", h.DeleteConnection)
	r.Post("/connections/selected", h.ConnectSelected)
}

// ListEdges handles GET /edges?paths=true
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	withPaths, _ := strconv.ParseBool(r.URL.Query().Get("paths"))
	h.query(w, r, queries.GetEdgesQuery{WithPaths: withPaths})
}

// CreateConnectionRequest names a directed cross-link
type CreateConnectionRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CreateConnection handles POST /connections
func (h *EdgeHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.run(w, r, http.StatusCreated, commands.AddConnectionCommand{From: req.From, To: req.To})
}

// DeleteConnection handles DELETE /connections/{from}/{to}
func (h *EdgeHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.RemoveConnectionCommand{
		From: chi.URLParam(r, "from"),
		To:   chi.URLParam(r, "to"),
	})
}

// ConnectSelected handles POST /connections/selected, linking the two
// multi-selected nodes
func (h *EdgeHandler) ConnectSelected(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.ConnectSelectedCommand{})
}
