// Package anim drives frame callbacks on a fixed interval.
package anim

import (
	"context"
	"sync"
	"time"
)

// TickFunc receives the time elapsed since Start.
type TickFunc func(elapsed time.Duration)

// Start calls tick once immediately and then every interval until ctx is
// done or the returned stop is called. Ticks never overlap; a slow tick
// drops the ticks it missed. stop is idempotent and returns once the loop
// has exited.
func Start(ctx context.Context, interval time.Duration, tick TickFunc) (stop func()) {
	return start(ctx, interval, tick, time.Now)
}

func start(ctx context.Context, interval time.Duration, tick TickFunc, now func() time.Time) func() {
	if interval <= 0 {
		interval = time.Second / 30
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		began := now()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		tick(0)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				tick(now().Sub(began))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}
}
