// Package cache provides exact-key memoization for the expensive network
// lookups performed during toponym resolution. Failed computations are never
// cached; a failure is retried on the next access to the same key.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/geolit/geolit/internal"
)

var log = internal.GetLogger()

// ComputeFunc produces the value for a missing key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Cache memoizes values by exact key. Implementations must be safe for
// concurrent use and must invoke the compute function at most once per key
// across concurrent callers.
type Cache[V any] interface {
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error)
}

// Memory is an unbounded in-process cache. No eviction: the key space is the
// set of distinct toponyms and entity references seen in a run, which is
// bounded by the input documents.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	group   singleflight.Group
}

var _ Cache[string] = &Memory[string]{}

func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]V),
	}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// first access. Concurrent callers for the same key share a single in-flight
// computation. Compute errors are returned to every waiter and nothing is
// stored, so the next access retries.
func (m *Memory[V]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	m.mu.RLock()
	value, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return value, nil
	}

	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		// Another caller may have populated the key while we waited on
		// the flight group.
		m.mu.RLock()
		value, ok := m.entries[key]
		m.mu.RUnlock()
		if ok {
			return value, nil
		}

		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.entries[key] = computed
		m.mu.Unlock()

		return computed, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return result.(V), nil
}

// Len returns the number of cached entries.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
