package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/domain/events"
	"mindcanvas/pkg/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	types []string
	err   error
	only  string
}

func (r *recorder) Handle(_ context.Context, e events.DomainEvent) error {
	r.types = append(r.types, e.GetEventType())
	return r.err
}

func (r *recorder) CanHandle(t string) bool { return r.only == "" || r.only == t }

func moved() events.DomainEvent {
	return events.NewNodeMoved("map", 1, valueobjects.MustNodeID("1"), valueobjects.Point{}, valueobjects.NewPoint(1, 2), time.Unix(0, 0))
}

func saved() events.DomainEvent {
	return events.NewDocumentSaved("map", 2, "mindmap-autosave", 3, 256, time.Unix(0, 0))
}

func TestEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	typed := &recorder{}
	all := &recorder{}
	require.NoError(t, bus.Subscribe(events.TypeNodeMoved, typed))
	require.NoError(t, bus.Subscribe(AllEvents, all))

	require.NoError(t, bus.PublishBatch(context.Background(), []events.DomainEvent{moved(), saved()}))

	assert.Equal(t, []string{events.TypeNodeMoved}, typed.types)
	assert.Equal(t, []string{events.TypeNodeMoved, events.TypeDocumentSaved}, all.types)
}

func TestEventBus_CanHandleFilters(t *testing.T) {
	bus := NewEventBus(nil)
	h := &recorder{only: events.TypeDocumentSaved}
	require.NoError(t, bus.Subscribe(AllEvents, h))

	require.NoError(t, bus.PublishBatch(context.Background(), []events.DomainEvent{moved(), saved()}))
	assert.Equal(t, []string{events.TypeDocumentSaved}, h.types)
}

func TestEventBus_HandlerErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewEventBus(zap.New(core))
	failing := &recorder{err: errors.New("boom")}
	next := &recorder{}
	require.NoError(t, bus.Subscribe(AllEvents, failing))
	require.NoError(t, bus.Subscribe(AllEvents, next))

	assert.NoError(t, bus.Publish(context.Background(), moved()))
	assert.Len(t, next.types, 1)
	assert.Equal(t, 1, logs.FilterMessage("Event handler failed").Len())
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	h := &recorder{}
	require.NoError(t, bus.Subscribe(events.TypeNodeMoved, h))
	assert.Equal(t, 1, bus.GetHandlerCount(events.TypeNodeMoved))

	require.NoError(t, bus.Unsubscribe(events.TypeNodeMoved, h))
	assert.Equal(t, 0, bus.GetHandlerCount(events.TypeNodeMoved))
	require.NoError(t, bus.Publish(context.Background(), moved()))
	assert.Empty(t, h.types)
}

func TestMetricsHandler(t *testing.T) {
	metrics := observability.NewCollector("test")
	bus := NewEventBus(nil)
	require.NoError(t, bus.Subscribe(AllEvents, NewMetricsHandler(metrics)))

	require.NoError(t, bus.PublishBatch(context.Background(), []events.DomainEvent{moved(), saved()}))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DomainEvents.WithLabelValues(events.TypeNodeMoved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DocumentSaves))
	assert.Equal(t, 256.0, testutil.ToFloat64(metrics.DocumentBytes))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DocumentNodes))
}
