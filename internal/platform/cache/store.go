package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/resilience"
)

type item[V any] struct {
	value     V
	staleAt   time.Time
	unbounded bool
}

// Store is an in-process TTL cache. Loads through GetOrLoad are
// collapsed so a cold key fans a burst of readers into one loader call.
type Store[V any] struct {
	mu     sync.RWMutex
	items  map[string]item[V]
	ttl    time.Duration
	flight resilience.Group[V]

	now func() time.Time
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		items: make(map[string]item[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !it.unbounded && !it.staleAt.After(s.now()) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return zero, false
	}

	return it.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	it := item[V]{value: value, unbounded: s.ttl <= 0}
	if !it.unbounded {
		it.staleAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

func (s *Store[V]) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value for key or runs loader to fill it.
// Concurrent cold reads of the same key share one loader execution.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	var zero V
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (V, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return zero, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	return value, nil
}
