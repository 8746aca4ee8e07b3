package fetcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Retry calls fn until it succeeds or attempts run out, sleeping delay
// between attempts. The last error is returned. Cancelling ctx stops the
// wait and returns ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, log zerolog.Logger, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		log.Debug().
			Err(lastErr).
			Int("attempt", attempt).
			Dur("wait", delay).
			Msg("Attempt failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
