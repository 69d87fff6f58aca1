// Package clock provides helpers for waiting and retrying.
package clock

import (
	"context"
	"fmt"
	"time"
)

// SleepWithContext waits for d or returns the context error once ctx is done.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn up to attempts times, sleeping delay between failed calls. It returns nil
// after the first success, the last error of fn after the final attempt, or the context
// error when ctx is done while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context, attempt int) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if sleepErr := SleepWithContext(ctx, delay); sleepErr != nil {
			return fmt.Errorf("%w (last error: %v)", sleepErr, err)
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
