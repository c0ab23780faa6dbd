package schedule

import (
	"context"
	"time"
)

// Schedule runs fn immediately and then at every interval until ctx is
// cancelled.
func Schedule(ctx context.Context, fn func(), interval time.Duration) {
	go func() {
		fn()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
