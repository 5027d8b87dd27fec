package provider

import (
	"context"
	"fmt"
	"time"

	appLog "calsync/internal/log"
)

const (
	acquireAttempts = 5
	acquireInterval = 2 * time.Second
)

// ConnectFunc opens a handle to a concrete store provider.
type ConnectFunc func(ctx context.Context) (Provider, error)

// Acquire calls connect up to five times with a fixed interval between
// attempts. There is no backoff growth; after the budget is exhausted it
// returns ErrProviderUnavailable wrapping the last connect error.
func Acquire(ctx context.Context, connect ConnectFunc) (Provider, error) {
	var lastErr error
	for attempt := 1; attempt <= acquireAttempts; attempt++ {
		p, err := connect(ctx)
		if err == nil {
			return p, nil
		}
		lastErr = err
		appLog.Warn("provider acquisition failed",
			"attempt", attempt,
			"max_attempts", acquireAttempts,
			"err", err,
		)
		if attempt == acquireAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquireInterval):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
}
