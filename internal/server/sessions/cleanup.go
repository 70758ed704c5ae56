package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/webportal/internal/logging"
)

// Expirer is implemented by stores that do not expire entries on their own.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunCleanup purges expired sessions every interval until ctx is done.
// Stores that do not implement Expirer return immediately.
func RunCleanup(ctx context.Context, store Store, interval time.Duration, logger logging.Logger) {
	e, ok := store.(Expirer)
	if !ok || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.DeleteExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
