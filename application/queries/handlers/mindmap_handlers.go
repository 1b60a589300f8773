// Package handlers answers queries from the editor session
package handlers

import (
	"context"
	"fmt"

	"mindcanvas/application/queries"
	"mindcanvas/application/queries/bus"
	"mindcanvas/application/services"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/infrastructure/persistence/document"
	pkgerrors "mindcanvas/pkg/errors"
)

// MindMapQueries answers every read query
type MindMapQueries struct {
	session *services.Session
	gateway *services.PersistenceGateway
}

// NewMindMapQueries creates the query handlers
func NewMindMapQueries(session *services.Session, gateway *services.PersistenceGateway) *MindMapQueries {
	return &MindMapQueries{session: session, gateway: gateway}
}

// Register adds every query to b
func (h *MindMapQueries) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetDocumentQuery{}, onSession(h.session, getDocument)},
		{queries.GetNodeQuery{}, onSession(h.session, getNode)},
		{queries.GetEdgesQuery{}, onSession(h.session, getEdges)},
		{queries.SearchQuery{}, onSession(h.session, search)},
		{queries.GetViewportQuery{}, onSession(h.session, getViewport)},
		{queries.GetSelectionQuery{}, onSession(h.session, getSelection)},
		{queries.ExportDocumentQuery{}, typed(h.export)},
		{queries.GetStoredDocumentQuery{}, typed(h.stored)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func onSession[Q bus.Query](session *services.Session, fn func(w *services.Workspace, q Q) (interface{}, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		var result interface{}
		err := session.Do(ctx, func(w *services.Workspace) error {
			var err error
			result, err = fn(w, q)
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func typed[Q bus.Query](fn func(ctx context.Context, q Q) (interface{}, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		return fn(ctx, q)
	})
}

func getDocument(w *services.Workspace, q queries.GetDocumentQuery) (interface{}, error) {
	nodes := w.Map.Nodes()
	records := make([]document.NodeRecord, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, document.FromState(n.State()))
	}
	return queries.DocumentResult{
		Version: w.Map.Version(),
		Nodes:   records,
		Edges:   edgeViews(w.Map, q.WithPaths),
	}, nil
}

func getNode(w *services.Workspace, q queries.GetNodeQuery) (interface{}, error) {
	node, ok := w.Map.Node(valueobjects.MustNodeID(q.NodeID))
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	size := node.Size(w.Map.Config())
	return queries.NodeResult{
		NodeRecord:   document.FromState(node.State()),
		RenderWidth:  size.Width,
		RenderHeight: size.Height,
	}, nil
}

func getEdges(w *services.Workspace, q queries.GetEdgesQuery) (interface{}, error) {
	return edgeViews(w.Map, q.WithPaths), nil
}

func edgeViews(m *aggregates.MindMap, withPaths bool) []queries.EdgeView {
	edges := m.Edges()
	var paths []aggregates.BezierPath
	if withPaths {
		paths = m.EdgePaths()
	}
	out := make([]queries.EdgeView, 0, len(edges))
	for i, e := range edges {
		v := queries.EdgeView{From: e.From.String(), To: e.To.String(), Kind: string(e.Kind)}
		if i < len(paths) {
			v.Path = paths[i].SVG()
		}
		out = append(out, v)
	}
	return out
}

func search(w *services.Workspace, q queries.SearchQuery) (interface{}, error) {
	results := w.Map.Search(q.Query)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	hits := make([]queries.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, queries.SearchHit{
			NodeID:    r.Node.ID().String(),
			Title:     r.Node.Title(),
			MatchType: string(r.MatchType),
			MatchText: r.MatchText,
			Score:     r.Score,
		})
	}
	return hits, nil
}

func getViewport(w *services.Workspace, _ queries.GetViewportQuery) (interface{}, error) {
	return w.Viewport.State(), nil
}

func getSelection(w *services.Workspace, _ queries.GetSelectionQuery) (interface{}, error) {
	return w.Controller.State(), nil
}

func (h *MindMapQueries) export(ctx context.Context, _ queries.ExportDocumentQuery) (interface{}, error) {
	snap, err := h.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	name, data, err := h.gateway.Export(snap)
	if err != nil {
		return nil, err
	}
	return queries.ExportResult{Filename: name, Data: data}, nil
}

func (h *MindMapQueries) stored(ctx context.Context, _ queries.GetStoredDocumentQuery) (interface{}, error) {
	doc, err := h.gateway.Document(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("stored document")
	}
	return doc, nil
}
