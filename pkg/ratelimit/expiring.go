package ratelimit

import (
	"sync"
	"time"
)

// ExpiringTokenBucket grants capacity tokens per key within a fixed TTL
// window starting at the key's first consumption. Unlike the refilling
// bucket there is no gradual refill: once the TTL passes the entry is
// treated as absent and the key starts over with a full allowance.
type ExpiringTokenBucket[K comparable] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[K]*expiringEntry

	now func() time.Time
}

type expiringEntry struct {
	count     int
	createdAt time.Time
}

func NewExpiringTokenBucket[K comparable](capacity int, ttl time.Duration) *ExpiringTokenBucket[K] {
	return &ExpiringTokenBucket[K]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[K]*expiringEntry),
		now:      time.Now,
	}
}

// Check reports whether a Consume of cost would currently succeed without
// mutating state.
func (b *ExpiringTokenBucket[K]) Check(key K, cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok || b.now().Sub(e.createdAt) >= b.ttl {
		return b.capacity >= cost
	}
	return e.count >= cost
}

// Consume debits cost tokens, initialising the window on first use or after
// the TTL boundary. Exhausted keys stay exhausted until the window expires.
func (b *ExpiringTokenBucket[K]) Consume(key K, cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	e, ok := b.entries[key]
	if !ok || now.Sub(e.createdAt) >= b.ttl {
		e = &expiringEntry{count: b.capacity, createdAt: now}
		b.entries[key] = e
	}
	if e.count < cost {
		return false
	}
	e.count -= cost
	return true
}

// Reset removes the key entirely, clearing any penalty immediately. Called
// after a successful sensitive operation.
func (b *ExpiringTokenBucket[K]) Reset(key K) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
}

// Sweep drops entries whose TTL window has passed. Returns the number of
// keys removed.
func (b *ExpiringTokenBucket[K]) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for key, e := range b.entries {
		if now.Sub(e.createdAt) >= b.ttl {
			delete(b.entries, key)
			removed++
		}
	}
	return removed
}
