package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mindcanvas/application/commands/bus"
	cmdhandlers "mindcanvas/application/commands/handlers"
	querybus "mindcanvas/application/queries/bus"
	queryhandlers "mindcanvas/application/queries/handlers"
	"mindcanvas/application/services"
	"mindcanvas/domain/config"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/infrastructure/persistence/kv"
	pkgerrors "mindcanvas/pkg/errors"
	"mindcanvas/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Version    int `json:"version"`
		Pagination *struct {
			Total int `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newServer(t *testing.T, ready ReadyCheck) (http.Handler, *kv.MemoryStore) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	store := kv.NewMemoryStore()
	gateway := services.NewPersistenceGateway(store, cfg, nil, nil, zap.NewNop())
	m := aggregates.NewMindMap(cfg, valueobjects.NewSequenceGenerator("n"))
	session := services.NewSession(m, gateway, nil, zap.NewNop())
	session.Start()
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	metrics := observability.NewCollector("test")
	commandBus := bus.NewCommandBus(bus.MetricsMiddleware(metrics))
	require.NoError(t, cmdhandlers.NewNodeHandlers(session, zap.NewNop()).Register(commandBus))
	require.NoError(t, cmdhandlers.NewCanvasHandlers(session).Register(commandBus))
	require.NoError(t, cmdhandlers.NewDocumentHandlers(session, gateway, zap.NewNop()).Register(commandBus))

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewMindMapQueries(session, gateway).Register(queryBus))

	router := NewRouter(commandBus, queryBus, metrics, pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop(), nil, ready)
	return router.Setup(), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return env
}

func TestRouter_HealthAndReady(t *testing.T) {
	h, _ := newServer(t, nil)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)

	down, _ := newServer(t, func(ctx context.Context) error { return errors.New("connection refused") })
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/ready", "").Code)
}

func TestRouter_NodeLifecycle(t *testing.T) {
	h, _ := newServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/nodes", `{"parentId":"1","x":600,"y":300}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		ParentID *string `json:"parentId"`
	}
	decodeData(t, rec, &created)
	assert.Equal(t, "New Task", created.Title)
	require.NotNil(t, created.ParentID)

	rec = do(t, h, http.MethodPatch, "/api/v1/nodes/"+created.ID, `{"title":"Write report"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/nodes/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var node struct {
		Title       string  `json:"title"`
		RenderWidth float64 `json:"renderWidth"`
	}
	decodeData(t, rec, &node)
	assert.Equal(t, "Write report", node.Title)

	rec = do(t, h, http.MethodPost, "/api/v1/nodes/"+created.ID+"/format/bold/toggle", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/nodes/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/nodes/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Errors(t *testing.T) {
	h, _ := newServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown field", http.MethodPost, "/api/v1/nodes", `{"bogus":1}`, http.StatusBadRequest},
		{"malformed json", http.MethodPut, "/api/v1/nodes/1/position", `{"x":`, http.StatusBadRequest},
		{"bad flag", http.MethodPost, "/api/v1/nodes/1/format/shout/toggle", "", http.StatusBadRequest},
		{"last node", http.MethodDelete, "/api/v1/nodes/1", "", http.StatusConflict},
		{"self link", http.MethodPost, "/api/v1/connections", `{"from":"1","to":"1"}`, http.StatusBadRequest},
		{"bad zoom action", http.MethodPost, "/api/v1/viewport/zoom", `{"action":"spin"}`, http.StatusBadRequest},
		{"invalid import", http.MethodPost, "/api/v1/document/import", `{"nodes":"nope"}`, http.StatusBadRequest},
		{"no route", http.MethodGet, "/api/v1/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRouter_DocumentSaveAndExport(t *testing.T) {
	h, store := newServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/document/stored", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/document/save", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok, err := store.Get(context.Background(), "mindmap-autosave")
	require.NoError(t, err)
	assert.True(t, ok)

	rec = do(t, h, http.MethodGet, "/api/v1/document/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "mindmap-")
	exported := rec.Body.String()
	assert.Contains(t, exported, `"My Mindmap Todo"`)

	rec = do(t, h, http.MethodPost, "/api/v1/document/import", exported)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/document?paths=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeData(t, rec, nil)
	require.NotNil(t, env.Meta)
	assert.Positive(t, env.Meta.Version)

	rec = do(t, h, http.MethodDelete, "/api/v1/document/stored", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok, _ = store.Get(context.Background(), "mindmap-autosave")
	assert.False(t, ok)
}

func TestRouter_SearchPaginates(t *testing.T) {
	h, _ := newServer(t, nil)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/nodes", `{"parentId":"1"}`).Code)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/search?q=task&page=1&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var hits []map[string]interface{}
	env := decodeData(t, rec, &hits)
	assert.Len(t, hits, 2)
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, 3, env.Meta.Pagination.Total)

	rec = do(t, h, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CanvasGestures(t *testing.T) {
	h, _ := newServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/viewport/zoom", `{"action":"in"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var vp struct {
		Zoom float64 `json:"zoom"`
	}
	decodeData(t, rec, &vp)
	assert.InDelta(t, 1.1, vp.Zoom, 1e-9)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/viewport/zoom", `{"action":"reset"}`).Code)

	steps := []string{
		`{"event":"node_down","nodeId":"1","x":410,"y":210}`,
		`{"event":"move","x":510,"y":260}`,
		`{"event":"up"}`,
	}
	for _, s := range steps {
		rec = do(t, h, http.MethodPost, "/api/v1/pointer", s)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/nodes/1", "")
	var node struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	decodeData(t, rec, &node)
	assert.Equal(t, 500.0, node.X)
	assert.Equal(t, 250.0, node.Y)

	rec = do(t, h, http.MethodGet, "/api/v1/selection", "")
	var sel struct {
		Selected *string `json:"selected"`
	}
	decodeData(t, rec, &sel)
	require.NotNil(t, sel.Selected)
	assert.Equal(t, "1", *sel.Selected)
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newServer(t, nil)
	do(t, h, http.MethodGet, "/api/v1/viewport", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	m := aggregates.NewMindMap(cfg, valueobjects.NewSequenceGenerator("n"))
	session := services.NewSession(m, nil, nil, zap.NewNop())
	session.Start()
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewMindMapQueries(session, nil).Register(queryBus))
	limited := NewRouter(bus.NewCommandBus(), queryBus, nil, pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop(), nil, nil).
		WithRateLimit(1, 1).
		Setup()

	assert.Equal(t, http.StatusOK, do(t, limited, http.MethodGet, "/api/v1/viewport", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, limited, http.MethodGet, "/api/v1/viewport", "").Code)
	assert.Equal(t, http.StatusOK, do(t, limited, http.MethodGet, "/health", "").Code)
}
