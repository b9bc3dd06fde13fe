package command

import (
	"context"
	"time"
)

const (
	DefaultPersistAttempts = 5
	DefaultPersistBackoff  = 200 * time.Millisecond
)

// retry calls fn until it succeeds, fails with an error permanent reports as
// final, attempts run out or ctx ends. The delay doubles after every failure.
func retry(ctx context.Context, attempts int, backoff time.Duration, permanent func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := backoff
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || permanent(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
