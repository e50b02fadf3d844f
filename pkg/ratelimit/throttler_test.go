package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottler(t *testing.T) {
	t.Parallel()

	ladder := []time.Duration{
		0, time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	}

	t.Run("unknown key always succeeds", func(t *testing.T) {
		clock := newFakeClock()
		th := NewThrottler[int64](ladder)
		th.now = clock.Now

		require.True(t, th.Consume(1))
	})

	t.Run("backoff advances on each success", func(t *testing.T) {
		clock := newFakeClock()
		th := NewThrottler[int64](ladder)
		th.now = clock.Now

		require.True(t, th.Consume(1)) // entry created at step 0
		require.True(t, th.Consume(1)) // step 0 delay is zero, now at step 1

		require.False(t, th.Consume(1)) // step 1 wants 1s
		clock.Advance(time.Second)
		require.True(t, th.Consume(1)) // now at step 2

		clock.Advance(time.Second)
		require.False(t, th.Consume(1)) // step 2 wants 2s
		clock.Advance(time.Second)
		require.True(t, th.Consume(1))
	})

	t.Run("failed consume does not advance or re-arm", func(t *testing.T) {
		clock := newFakeClock()
		th := NewThrottler[int64](ladder)
		th.now = clock.Now

		require.True(t, th.Consume(1))
		require.True(t, th.Consume(1)) // step 1: 1s delay armed
		clock.Advance(500 * time.Millisecond)
		require.False(t, th.Consume(1))
		clock.Advance(500 * time.Millisecond)
		// The failed call above did not move lastAttempt, so 1s total elapsed.
		require.True(t, th.Consume(1))
	})

	t.Run("index clamps at the last step", func(t *testing.T) {
		clock := newFakeClock()
		th := NewThrottler[int64](ladder)
		th.now = clock.Now

		for range 10 {
			clock.Advance(8 * time.Second)
			require.True(t, th.Consume(1))
		}
		clock.Advance(8 * time.Second)
		require.True(t, th.Consume(1))
		clock.Advance(7 * time.Second)
		require.False(t, th.Consume(1))
	})

	t.Run("reset makes the next consume succeed unconditionally", func(t *testing.T) {
		clock := newFakeClock()
		th := NewThrottler[int64](ladder)
		th.now = clock.Now

		require.True(t, th.Consume(1))
		require.True(t, th.Consume(1))
		require.False(t, th.Consume(1))
		th.Reset(1)
		require.True(t, th.Consume(1))
	})

	t.Run("sweep drops keys past the final window", func(t *testing.T) {
		clock := newFakeClock()
		th := NewThrottler[int64](ladder)
		th.now = clock.Now

		require.True(t, th.Consume(1))
		clock.Advance(4 * time.Second)
		require.True(t, th.Consume(2))
		clock.Advance(4 * time.Second)
		require.Equal(t, 1, th.Sweep())
	})
}
