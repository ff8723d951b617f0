// Package cache provides the TTL response store and the HTTP caching
// middleware that serves idempotent read routes from it.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Store is a key-value store with per-entry expiration. Values are opaque
// JSON payloads. Get returns ok=false for absent or expired keys; expiry is
// not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const shardCount = 16

// Memory implements Store with a sharded in-memory map. Shards keep writes
// for unrelated keys from serializing on a single lock. Expired entries are
// dropped lazily on Get and by a periodic janitor sweep. The store is
// unbounded; route keys are finite and low-cardinality.
type Memory struct {
	shards   [shardCount]*shard
	stop     chan struct{}
	stopOnce sync.Once
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory store. When sweepInterval is positive a
// janitor goroutine reclaims expired entries at that interval; the interval
// is independent of any entry's TTL. Call Stop to halt the janitor.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{stop: make(chan struct{})}
	for i := range m.shards {
		m.shards[i] = &shard{entries: make(map[string]entry)}
	}
	if sweepInterval > 0 {
		go m.janitor(sweepInterval)
	}
	return m
}

func (m *Memory) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%shardCount]
}

// Get returns the payload for key if present and not expired. An entry past
// its expiry is logically absent even before the janitor reclaims it.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s := m.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := s.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key, overwriting any existing entry and resetting
// its expiry to now+ttl. The value is copied.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s := m.shardFor(key)
	s.mu.Lock()
	s.entries[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries across all shards, counting entries
// that are expired but not yet swept.
func (m *Memory) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stop halts the janitor goroutine. Safe to call more than once.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	for _, s := range m.shards {
		s.mu.Lock()
		for k, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}
}
