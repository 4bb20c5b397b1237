package utils

import (
	"context"
	"time"
)

// RunOnInterval calls fn once immediately and then once every interval until
// ctx is cancelled.  All calls happen on a single goroutine, so a call that
// runs longer than the interval delays the next one instead of overlapping
// it.
func RunOnInterval(ctx context.Context, fn func(context.Context), interval time.Duration) {
	go func() {
		timer := time.NewTicker(interval)
		defer timer.Stop()

		fn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
}

// SecondsToDuration converts a floating point number of seconds, as collectd
// expresses intervals, into a time.Duration.
func SecondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
