// Package kv holds the key-value store backends documents are persisted to.
package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. It also implements
// ports.ChangeNotifier so tests can observe writes.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]string
	watchers map[string][]chan struct{}
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]string),
		watchers: make(map[string][]chan struct{}),
	}
}

// Get retrieves a value
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	return value, ok, nil
}

// Set stores a value
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// Remove deletes a value
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, existed := s.items[key]
	delete(s.items, key)
	s.mu.Unlock()

	if existed {
		s.notify(key)
	}
	return nil
}

// Keys returns the number of stored keys
func (s *MemoryStore) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Watch reports every write to key until ctx is done. Notifications are
// coalesced when the receiver is slow.
func (s *MemoryStore) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.watchers[key]
		for i, c := range list {
			if c == ch {
				s.watchers[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (s *MemoryStore) notify(key string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
