package cleanup

import (
	"context"
	"time"

	"github.com/italolelis/docx2xlsx/internal/logctx"
	"github.com/italolelis/docx2xlsx/internal/session"
)

// ExpireSessions drops sessions idle for longer than ttl.
func ExpireSessions(ctx context.Context, store *session.Store, ttl time.Duration) int {
	logger := logctx.LoggerFromContext(ctx)

	removed := store.DeleteIdle(ctx, ttl)
	for _, id := range removed {
		logger.Debug("Expired idle session", "session_id", id)
	}

	if len(removed) > 0 {
		logger.Info("Expired idle sessions", "count", len(removed), "remaining", store.Len())
	}

	return len(removed)
}

// Run expires idle sessions every interval until ctx is done.
func Run(ctx context.Context, store *session.Store, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ExpireSessions(ctx, store, ttl)
		}
	}
}
