// Package queries defines the read-only requests served by the editor
package queries

import (
	"mindcanvas/infrastructure/persistence/document"
	"mindcanvas/pkg/utils"
)

// GetDocumentQuery returns every node and edge
type GetDocumentQuery struct {
	WithPaths bool
}

// Validate validates the query
func (q GetDocumentQuery) Validate() error { return nil }

// DocumentResult is the full editor state for rendering
type DocumentResult struct {
	Version int                   `json:"version"`
	Nodes   []document.NodeRecord `json:"nodes"`
	Edges   []EdgeView            `json:"edges"`
}

// EdgeView is a renderable edge. Path is an SVG path when requested.
type EdgeView struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
}

// GetNodeQuery returns one node
type GetNodeQuery struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// Validate validates the query
func (q GetNodeQuery) Validate() error { return utils.ValidateStruct(q) }

// NodeResult is one node plus its rendered size
type NodeResult struct {
	document.NodeRecord
	RenderWidth  float64 `json:"renderWidth"`
	RenderHeight float64 `json:"renderHeight"`
}

// GetEdgesQuery returns the derived edge list
type GetEdgesQuery struct {
	WithPaths bool
}

// Validate validates the query
func (q GetEdgesQuery) Validate() error { return nil }

// SearchQuery runs a scored search over node text and media
type SearchQuery struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"min=0"`
}

// Validate validates the query
func (q SearchQuery) Validate() error { return utils.ValidateStruct(q) }

// SearchHit is one scored search result
type SearchHit struct {
	NodeID    string  `json:"nodeId"`
	Title     string  `json:"title"`
	MatchType string  `json:"matchType"`
	MatchText string  `json:"matchText"`
	Score     float64 `json:"score"`
}

// GetViewportQuery returns pan and zoom
type GetViewportQuery struct{}

// Validate validates the query
func (q GetViewportQuery) Validate() error { return nil }

// GetSelectionQuery returns selection and gesture state
type GetSelectionQuery struct{}

// Validate validates the query
func (q GetSelectionQuery) Validate() error { return nil }

// ExportDocumentQuery renders the export file
type ExportDocumentQuery struct{}

// Validate validates the query
func (q ExportDocumentQuery) Validate() error { return nil }

// ExportResult is an export file ready for download
type ExportResult struct {
	Filename string
	Data     []byte
}

// GetStoredDocumentQuery returns the autosave document as stored
type GetStoredDocumentQuery struct{}

// Validate validates the query
func (q GetStoredDocumentQuery) Validate() error { return nil }
