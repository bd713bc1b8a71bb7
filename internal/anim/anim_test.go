package anim

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStart_TicksUntilStopped(t *testing.T) {
	var mu sync.Mutex
	var seen []time.Duration
	stop := Start(context.Background(), 5*time.Millisecond, func(elapsed time.Duration) {
		mu.Lock()
		seen = append(seen, elapsed)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 4
	}, 2*time.Second, time.Millisecond)
	stop()
	stop()

	mu.Lock()
	n := len(seen)
	got := append([]time.Duration(nil), seen...)
	mu.Unlock()

	require.Zero(t, got[0])
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i], got[i-1])
	}

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, n, len(seen), "ticks after stop")
}

func TestStart_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int64
	stop := Start(ctx, time.Millisecond, func(time.Duration) { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	stop()
	n := ticks.Load()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, n, ticks.Load())
}

func TestStart_ElapsedFromClock(t *testing.T) {
	base := time.Unix(1000, 0)
	var calls atomic.Int64
	now := func() time.Time {
		return base.Add(time.Duration(calls.Add(1)-1) * time.Second)
	}
	got := make(chan time.Duration, 8)
	stop := start(context.Background(), time.Millisecond, func(e time.Duration) {
		select {
		case got <- e:
		default:
		}
	}, now)
	require.Equal(t, time.Duration(0), <-got)
	require.Equal(t, time.Second, <-got)
	require.Equal(t, 2*time.Second, <-got)
	stop()
}
