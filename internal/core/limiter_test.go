package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunLimiterAcquireRelease(t *testing.T) {
	l := NewRunLimiter(2, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}

	// All slots busy: the third acquire times out.
	if err := l.Acquire(ctx); !errors.Is(err, ErrTooManyRuns) {
		t.Fatalf("third Acquire() error = %v, want ErrTooManyRuns", err)
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() after Release() error = %v", err)
	}

	l.Release()
	l.Release()
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after draining = %d, want 0", got)
	}
}

func TestRunLimiterContextCancel(t *testing.T) {
	l := NewRunLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestRunLimiterDefaults(t *testing.T) {
	l := NewRunLimiter(0, 0)
	if got := l.MaxConcurrent(); got != DefaultMaxConcurrentRuns {
		t.Errorf("MaxConcurrent() = %d, want default %d", got, DefaultMaxConcurrentRuns)
	}
}

func TestRunLimiterWaitForDrain(t *testing.T) {
	l := NewRunLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	go func() {
		time.Sleep(150 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain() error = %v", err)
	}
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after drain = %d, want 0", got)
	}
}

func TestRunLimiterStatus(t *testing.T) {
	l := NewRunLimiter(3, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	status := l.Status()
	if status.Active != 1 || status.Available != 2 || status.MaxConcurrent != 3 {
		t.Errorf("Status() = %+v, want {Active:1 Available:2 MaxConcurrent:3}", status)
	}
}
