package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRetryPolicyDo(t *testing.T) {
	var waits []time.Duration
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Jitter:      time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	cause := errors.New("timeout")
	calls := 0
	_, err := p.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", cause
	})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, cause) {
		t.Fatalf("Do() error = %v, want ErrTransport wrapping cause", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// No wait after the final attempt.
	if len(waits) != 2 {
		t.Fatalf("waits = %v, want 2 entries", waits)
	}
	for _, w := range waits {
		if w < 2*time.Second || w >= 3*time.Second {
			t.Errorf("wait %v outside [2s, 3s)", w)
		}
	}
}

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Sleep: func(context.Context, time.Duration) error { return nil }}
	calls := 0
	out, err := p.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("flaky")
		}
		return "done", nil
	})
	if err != nil || out != "done" {
		t.Fatalf("Do() = %q, %v; want done, nil", out, err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryPolicyCancelledWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}
	calls := 0
	_, err := p.Do(ctx, func(context.Context) (string, error) {
		calls++
		return "", errors.New("down")
	})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want ErrTransport wrapping context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !strings.Contains(err.Error(), "after 1 attempts") {
		t.Errorf("Do() error = %q, want it to report the 1 attempt made", err)
	}
}

func TestRetryPolicyZeroAttempts(t *testing.T) {
	calls := 0
	_, _ = RetryPolicy{}.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("x")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want at least one attempt", calls)
	}
}

func TestBackoffWithoutJitter(t *testing.T) {
	p := RetryPolicy{BaseDelay: 500 * time.Millisecond}
	if got := p.Backoff(); got != 500*time.Millisecond {
		t.Errorf("Backoff() = %v, want 500ms", got)
	}
}
