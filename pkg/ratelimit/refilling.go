// Package ratelimit provides the in-memory quota primitives used by the
// auth endpoints: a refilling token bucket, a hard-reset expiring bucket,
// and an exponential-backoff throttler. All three are keyed by a comparable
// identifier (client IP, user ID, session ID) and are safe for concurrent
// use. State lives for the lifetime of the process only.
package ratelimit

import (
	"sync"
	"time"
)

// RefillingTokenBucket grants up to capacity tokens per key and refills one
// token every refill interval. New keys start at full capacity.
type RefillingTokenBucket[K comparable] struct {
	mu             sync.Mutex
	capacity       int
	refillInterval time.Duration
	entries        map[K]*refillingEntry

	// now is swappable for tests.
	now func() time.Time
}

type refillingEntry struct {
	count      int
	lastRefill time.Time
}

func NewRefillingTokenBucket[K comparable](capacity int, refillInterval time.Duration) *RefillingTokenBucket[K] {
	return &RefillingTokenBucket[K]{
		capacity:       capacity,
		refillInterval: refillInterval,
		entries:        make(map[K]*refillingEntry),
		now:            time.Now,
	}
}

// Check reports whether a Consume of cost would currently succeed. It never
// mutates state, so handlers can reject exhausted callers before doing any
// parsing or crypto work.
func (b *RefillingTokenBucket[K]) Check(key K, cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return b.capacity >= cost
	}
	count := e.count
	if refilled := int(b.now().Sub(e.lastRefill) / b.refillInterval); refilled > 0 {
		count = min(b.capacity, count+refilled)
	}
	return count >= cost
}

// Consume commits any pending refill, then debits cost tokens. It returns
// false without debiting when the key lacks the tokens.
func (b *RefillingTokenBucket[K]) Consume(key K, cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	e, ok := b.entries[key]
	if !ok {
		e = &refillingEntry{count: b.capacity, lastRefill: now}
		b.entries[key] = e
	}
	if refilled := int(now.Sub(e.lastRefill) / b.refillInterval); refilled > 0 {
		e.count = min(b.capacity, e.count+refilled)
		// Advance by whole intervals so partial progress is not lost.
		e.lastRefill = e.lastRefill.Add(time.Duration(refilled) * b.refillInterval)
	}
	if e.count < cost {
		return false
	}
	e.count -= cost
	return true
}

// Sweep drops keys that have refilled back to full capacity. A full bucket
// is indistinguishable from an absent one, so this only bounds memory.
// Returns the number of keys removed.
func (b *RefillingTokenBucket[K]) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for key, e := range b.entries {
		count := e.count
		if refilled := int(now.Sub(e.lastRefill) / b.refillInterval); refilled > 0 {
			count = min(b.capacity, count+refilled)
		}
		if count >= b.capacity {
			delete(b.entries, key)
			removed++
		}
	}
	return removed
}
