package handlers

import (
	"net/http"
	"strconv"

	"mindcanvas/application/commands"
	"mindcanvas/application/commands/bus"
	"mindcanvas/application/queries"
	querybus "mindcanvas/application/queries/bus"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DocumentHandler serves the whole mind map, export, import and storage
type DocumentHandler struct {
	base
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// Routes mounts the document endpoints
func (h *DocumentHandler) Routes(r chi.Router) {
	r.Get("/document", h.GetDocument)
	r.Get("/document/export", h.Export)
	r.Post("/document/import", h.Import)
	r.Post("/document/save", h.Save)
	r.Get("/document/stored", h.GetStored)
	r.Delete("/document/stored", h.ClearStored)
	r.Get("/search", h.Search)
}

// GetDocument handles GET /document?paths=true
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	withPaths, _ := strconv.ParseBool(r.URL.Query().Get("paths"))
	result, err := h.ask(r.Context(), queries.GetDocumentQuery{WithPaths: withPaths})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	doc := result.(queries.DocumentResult)
	meta := common.NewMeta(r)
	meta.Version = doc.Version
	common.RespondWithMeta(w, http.StatusOK, doc, meta)
}

// Export handles GET /document/export as a file download
func (h *DocumentHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, err := h.ask(r.Context(), queries.ExportDocumentQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	export := result.(queries.ExportResult)
	common.RespondFile(w, export.Filename, "application/json", export.Data)
}

// Import handles POST /document/import. The body is the raw document.
func (h *DocumentHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := common.ReadBody(w, r, maxDocumentBytes)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.run(w, r, http.StatusOK, commands.ImportDocumentCommand{Data: data})
}

// Save handles POST /document/save
func (h *DocumentHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.SaveDocumentCommand{})
}

// GetStored handles GET /document/stored
func (h *DocumentHandler) GetStored(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, queries.GetStoredDocumentQuery{})
}

// ClearStored handles DELETE /document/stored
func (h *DocumentHandler) ClearStored(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, commands.ClearStorageCommand{})
}

// Search handles GET /search?q=...&page=&page_size=
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.ask(r.Context(), queries.SearchQuery{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	hits := result.([]queries.SearchHit)
	page := common.ExtractPaginationParams(r)
	start, end := page.Window(len(hits))

	meta := common.NewMeta(r)
	meta.Pagination = common.BuildPaginationMeta(page, len(hits))
	common.RespondWithMeta(w, http.StatusOK, hits[start:end], meta)
}
