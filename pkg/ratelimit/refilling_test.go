package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter clocks deterministically in tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRefillingTokenBucket(t *testing.T) {
	t.Parallel()

	t.Run("new keys start at full capacity", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](3, time.Second)
		b.now = clock.Now

		require.True(t, b.Check("ip", 3))
		require.False(t, b.Check("ip", 4))
		require.True(t, b.Consume("ip", 3))
		require.False(t, b.Consume("ip", 1))
	})

	t.Run("check does not mutate state", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](2, time.Second)
		b.now = clock.Now

		for range 10 {
			require.True(t, b.Check("ip", 2))
		}
		require.True(t, b.Consume("ip", 2))
		require.False(t, b.Check("ip", 1))
	})

	t.Run("refills one token per interval capped at capacity", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](5, time.Second)
		b.now = clock.Now

		require.True(t, b.Consume("ip", 5))
		require.False(t, b.Consume("ip", 1))

		clock.Advance(time.Second)
		require.True(t, b.Consume("ip", 1))
		require.False(t, b.Consume("ip", 1))

		clock.Advance(3 * time.Second)
		require.True(t, b.Consume("ip", 3))
		require.False(t, b.Consume("ip", 1))

		// A long idle period never overfills the bucket.
		clock.Advance(time.Hour)
		require.True(t, b.Consume("ip", 5))
		require.False(t, b.Consume("ip", 1))
	})

	t.Run("partial intervals carry over", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](5, 10*time.Second)
		b.now = clock.Now

		require.True(t, b.Consume("ip", 5))
		clock.Advance(15 * time.Second)
		require.True(t, b.Consume("ip", 1))
		// The half interval above still counts towards the next token.
		clock.Advance(5 * time.Second)
		require.True(t, b.Consume("ip", 1))
	})

	t.Run("failed consume does not debit", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](4, time.Second)
		b.now = clock.Now

		require.True(t, b.Consume("ip", 3))
		require.False(t, b.Consume("ip", 2))
		require.True(t, b.Consume("ip", 1))
	})

	t.Run("keys are independent", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](1, time.Second)
		b.now = clock.Now

		require.True(t, b.Consume("a", 1))
		require.True(t, b.Consume("b", 1))
		require.False(t, b.Consume("a", 1))
	})

	t.Run("sweep drops refilled keys only", func(t *testing.T) {
		clock := newFakeClock()
		b := NewRefillingTokenBucket[string](2, time.Second)
		b.now = clock.Now

		require.True(t, b.Consume("idle", 1))
		require.True(t, b.Consume("busy", 2))

		clock.Advance(time.Second)
		require.Equal(t, 1, b.Sweep())
		require.False(t, b.Consume("busy", 2))
		require.True(t, b.Consume("idle", 2))
	})
}
