// Package cache implements the single shared mutable store described in
// §5: rate-limit counters, presence session counts/sets, and short-TTL
// verification/reset/embed caches. The in-memory implementation follows
// the teacher's previewCache (pkg/connector/linkpreview.go) for the
// get/set-with-expiry shape and its lazy-cleanup-on-write idiom, and the
// periodic sweep from other_examples' eventbus.go (cleanupLoop) for the
// background eviction of expired entries.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is the shared mutable store contract. Every operation is atomic
// with respect to a single key; callers never need external locking.
type Cache interface {
	// Get returns the raw bytes stored at key, or ok=false if absent/expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value at key with the given TTL (0 means no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key.
	Delete(ctx context.Context, key string) error
	// TTL returns the remaining time-to-live for key, or 0 if absent/no TTL.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Incr atomically increments the integer counter at key by delta,
	// creating it at 0 with the given TTL if absent, and returns the new
	// value. The TTL is only applied on creation, matching the rate
	// limiter's "set TTL on first hit" fixed-window algorithm (§4.2).
	Incr(ctx context.Context, key string, delta int64, ttlIfAbsent time.Duration) (int64, error)
	// Decr atomically decrements the integer counter at key by delta and
	// returns the new value. A counter that hits zero is NOT deleted
	// automatically; callers decide (see internal/presence).
	Decr(ctx context.Context, key string, delta int64) (int64, error)

	// SetAdd adds member to the set at key.
	SetAdd(ctx context.Context, key, member string) error
	// SetRemove removes member from the set at key.
	SetRemove(ctx context.Context, key, member string) error
	// SetContains reports whether member is present in the set at key.
	SetContains(ctx context.Context, key, member string) (bool, error)
	// SetSize reports how many members are currently in the set at key.
	SetSize(ctx context.Context, key string) (int, error)
}

type entry struct {
	value   []byte
	set     map[string]struct{}
	isSet   bool
	counter int64
	isCtr   bool
	expires time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is an in-process Cache, sufficient for a single-instance gateway
// per §1's clustering non-goal. Production deployments needing multiple
// Oprish/Pandemonium processes would swap this for a networked backend
// behind the same interface; nothing above this package depends on the
// in-memory nature.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	stop    chan struct{}
}

// NewMemory constructs a Memory cache with a periodic cleanup goroutine.
func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{entries: make(map[string]*entry), stop: make(chan struct{})}
	if cleanupInterval > 0 {
		go m.cleanupLoop(cleanupInterval)
	}
	return m
}

// Close stops the cleanup goroutine.
func (m *Memory) Close() {
	close(m.stop)
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) get(key string) (*entry, bool) {
	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		if ok {
			delete(m.entries, key)
		}
		return nil, false
	}
	return e, true
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok || e.expires.IsZero() {
		return 0, nil
	}
	if d := time.Until(e.expires); d > 0 {
		return d, nil
	}
	return 0, nil
}

func (m *Memory) Incr(_ context.Context, key string, delta int64, ttlIfAbsent time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok {
		e = &entry{isCtr: true}
		if ttlIfAbsent > 0 {
			e.expires = time.Now().Add(ttlIfAbsent)
		}
		m.entries[key] = e
	}
	e.isCtr = true
	e.counter += delta
	return e.counter, nil
}

func (m *Memory) Decr(ctx context.Context, key string, delta int64) (int64, error) {
	return m.Incr(ctx, key, -delta, 0)
}

func (m *Memory) SetAdd(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok {
		e = &entry{isSet: true, set: make(map[string]struct{})}
		m.entries[key] = e
	}
	if e.set == nil {
		e.set = make(map[string]struct{})
	}
	e.isSet = true
	e.set[member] = struct{}{}
	return nil
}

func (m *Memory) SetRemove(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok {
		return nil
	}
	delete(e.set, member)
	return nil
}

func (m *Memory) SetContains(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok || e.set == nil {
		return false, nil
	}
	_, present := e.set[member]
	return present, nil
}

func (m *Memory) SetSize(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.get(key)
	if !ok {
		return 0, nil
	}
	return len(e.set), nil
}
