package inmemory

import (
	"context"

	"mindcanvas/domain/events"
	"mindcanvas/pkg/observability"

	"go.uber.org/zap"
)

// MetricsHandler counts events and records save sizes
type MetricsHandler struct {
	metrics *observability.Collector
}

// NewMetricsHandler creates a handler reporting to metrics
func NewMetricsHandler(metrics *observability.Collector) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Handle implements ports.EventHandler
func (h *MetricsHandler) Handle(_ context.Context, event events.DomainEvent) error {
	h.metrics.RecordEvent(event.GetEventType())
	if saved, ok := event.(events.DocumentSaved); ok {
		h.metrics.RecordSave(saved.NodeCount, saved.Bytes)
	}
	return nil
}

// CanHandle implements ports.EventHandler
func (h *MetricsHandler) CanHandle(string) bool { return true }

// LoggingHandler writes every event at debug level
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a logging handler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle implements ports.EventHandler
func (h *LoggingHandler) Handle(_ context.Context, event events.DomainEvent) error {
	h.logger.Debug("Domain event",
		zap.String("type", event.GetEventType()),
		zap.String("aggregate_id", event.GetAggregateID()),
		zap.Int("version", event.GetVersion()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

// CanHandle implements ports.EventHandler
func (h *LoggingHandler) CanHandle(string) bool { return true }
