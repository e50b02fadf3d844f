package ratelimit

import (
	"sync"
	"time"
)

// Throttler enforces an increasing delay between attempts per key. Each
// successful Consume advances the key one step along the backoff ladder,
// clamped at the final step. Used to slow per-account password guessing.
type Throttler[K comparable] struct {
	mu      sync.Mutex
	backoff []time.Duration
	entries map[K]*throttlerEntry

	now func() time.Time
}

type throttlerEntry struct {
	index       int
	lastAttempt time.Time
}

func NewThrottler[K comparable](backoff []time.Duration) *Throttler[K] {
	return &Throttler[K]{
		backoff: backoff,
		entries: make(map[K]*throttlerEntry),
		now:     time.Now,
	}
}

// Consume succeeds when the key's current backoff delay has elapsed since
// its last successful attempt. An unknown key always succeeds and starts at
// the first step. Failed calls leave the entry untouched.
func (t *Throttler[K]) Consume(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok {
		t.entries[key] = &throttlerEntry{index: 0, lastAttempt: now}
		return true
	}
	if now.Sub(e.lastAttempt) < t.backoff[e.index] {
		return false
	}
	e.lastAttempt = now
	e.index = min(e.index+1, len(t.backoff)-1)
	return true
}

// Reset removes the key entirely so the next Consume succeeds
// unconditionally. Called after a successful authentication.
func (t *Throttler[K]) Reset(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Sweep drops keys whose final backoff window has fully elapsed; such keys
// could attempt again immediately anyway, they just restart the ladder.
// Returns the number of keys removed.
func (t *Throttler[K]) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	last := t.backoff[len(t.backoff)-1]
	removed := 0
	for key, e := range t.entries {
		if now.Sub(e.lastAttempt) >= last {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}
