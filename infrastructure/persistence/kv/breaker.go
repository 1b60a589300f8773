package kv

import (
	"context"
	"errors"
	"time"

	"mindcanvas/application/ports"
	pkgerrors "mindcanvas/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds circuit breaker settings for a remote store
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for remote backends
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerStore guards a store with a circuit breaker. While the breaker is
// open every call fails fast with an unavailable error.
type BreakerStore struct {
	next ports.KeyValueStore
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps next
func NewBreakerStore(next ports.KeyValueStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// a cancelled caller says nothing about the backend's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

// State returns the breaker state
func (s *BreakerStore) State() gobreaker.State { return s.cb.State() }

// Get retrieves a value through the breaker
func (s *BreakerStore) Get(ctx context.Context, key string) (string, bool, error) {
	type result struct {
		value string
		ok    bool
	}
	out, err := s.cb.Execute(func() (interface{}, error) {
		value, ok, err := s.next.Get(ctx, key)
		return result{value, ok}, err
	})
	if err != nil {
		return "", false, s.translate(err)
	}
	r := out.(result)
	return r.value, r.ok, nil
}

// Set stores a value through the breaker
func (s *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Set(ctx, key, value)
	})
	return s.translate(err)
}

// Remove deletes a value through the breaker
func (s *BreakerStore) Remove(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Remove(ctx, key)
	})
	return s.translate(err)
}

func (s *BreakerStore) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError(s.cb.Name()).
			WithCode(pkgerrors.CodeStorageBreakerOff).
			WithCause(err)
	}
	return err
}
