// Package inmemory provides a synchronous in-process event bus.
package inmemory

import (
	"context"
	"sync"

	"mindcanvas/application/ports"
	"mindcanvas/domain/events"

	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

// EventBus dispatches events to subscribed handlers on the caller's
// goroutine, in subscription order. Handler errors are logged and do not
// stop the remaining handlers.
type EventBus struct {
	handlers map[string][]ports.EventHandler
	mu       sync.RWMutex
	logger   *zap.Logger
}

var _ ports.EventBus = (*EventBus)(nil)

// NewEventBus creates an empty bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for eventType, or AllEvents
func (eb *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("Event handler subscribed",
		zap.String("event_type", eventType),
		zap.Int("total_handlers", len(eb.handlers[eventType])))
	return nil
}

// Unsubscribe removes handler from eventType. Removing an unknown handler
// is a no-op.
func (eb *EventBus) Unsubscribe(eventType string, handler ports.EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	current := eb.handlers[eventType]
	kept := current[:0:0]
	for _, h := range current {
		if h != handler {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		delete(eb.handlers, eventType)
	} else {
		eb.handlers[eventType] = kept
	}
	return nil
}

// Publish delivers one event
func (eb *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	eventType := event.GetEventType()

	eb.mu.RLock()
	targets := make([]ports.EventHandler, 0, len(eb.handlers[eventType])+len(eb.handlers[AllEvents]))
	targets = append(targets, eb.handlers[eventType]...)
	targets = append(targets, eb.handlers[AllEvents]...)
	eb.mu.RUnlock()

	for _, handler := range targets {
		if !handler.CanHandle(eventType) {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			eb.logger.Error("Event handler failed",
				zap.String("event_type", eventType),
				zap.String("aggregate_id", event.GetAggregateID()),
				zap.Error(err))
		}
	}
	return nil
}

// PublishBatch delivers events in order
func (eb *EventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, e := range batch {
		if err := eb.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// GetHandlerCount returns the number of handlers for a given event type
func (eb *EventBus) GetHandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}
