package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "mindcanvas/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 2, pkgerrors.NewErrorHandler(zap.NewNop(), false))
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("a")
	assert.True(t, ok)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
	ok, wait := l.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.Allow("b")
	assert.True(t, ok, "clients have separate buckets")

	now = now.Add(1500 * time.Millisecond)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
	ok, wait = l.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 5, pkgerrors.NewErrorHandler(zap.NewNop(), false))
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Minute)
	l.Allow("b")

	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "b")
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1, 1, pkgerrors.NewErrorHandler(zap.NewNop(), false))
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/nodes", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req.RemoteAddr = "10.0.0.1:6666"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	statuses := map[string]int{"/ok": 200, "/missing": 404, "/boom": 500, "/health": 200}
	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statuses[r.URL.Path])
	}))

	for _, path := range []string{"/ok", "/missing", "/boom", "/health"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
}
