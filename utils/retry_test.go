package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		Logger:      NewLogger(),
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	r := testRetryConfig(3)

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	r := testRetryConfig(3)

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do should succeed on the final attempt: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	r := testRetryConfig(3)

	boom := errors.New("persistent")
	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("final error should wrap the last failure; got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly MaxAttempts calls, got %d", calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	r := testRetryConfig(5)
	r.BaseDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, "op", func() error {
		calls++
		cancel()
		return errors.New("fail then cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("cancelled context should stop further attempts; got %d calls", calls)
	}
}
