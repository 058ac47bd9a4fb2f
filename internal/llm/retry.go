package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// ErrTransport is returned once the text model failed on every attempt.
var ErrTransport = errors.New("text generation transport failure")

// RetryPolicy controls how a failing call is repeated.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Jitter is the upper bound of the random extra delay added to BaseDelay.
	Jitter time.Duration
	// Sleep waits for d or until ctx is done. Nil means a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes 3 attempts, waiting 2s plus up to 1s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Jitter:      time.Second,
	}
}

// Backoff returns the wait before the next attempt.
func (p RetryPolicy) Backoff() time.Duration {
	d := p.BaseDelay
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return d
}

// Do calls fn until it succeeds or MaxAttempts is reached. The final error
// wraps ErrTransport and the last cause.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var (
		lastErr error
		made    int
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		slog.Warn("text generation failed", "attempt", attempt, "max", attempts, "error", err)

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Backoff()); err != nil {
			lastErr = err
			break
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrTransport, made, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
