package progress

import (
	"context"
	"sync"
	"time"
)

// Simulator advances a cosmetic percentage on a fixed interval while a request
// is in flight. The value is not derived from transferred bytes.
type Simulator struct {
	Interval time.Duration
	Step     int
	Ceiling  int
}

// DefaultSimulator moves 10 points every 300ms and stops at 90.
var DefaultSimulator = Simulator{Interval: 300 * time.Millisecond, Step: 10, Ceiling: 90}

// Start calls report with the next percentage on every tick until stop is
// called or ctx is done. The percentage never exceeds Ceiling. stop blocks
// until the ticking goroutine has exited, so report is never invoked after
// stop returns. stop is safe to call more than once.
func (s Simulator) Start(ctx context.Context, report func(percent int)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		percent := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}

				next := min(percent+s.Step, s.Ceiling)
				if next == percent {
					continue
				}

				percent = next
				report(percent)
			}
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
