package runlock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemory().(*memoryLocker)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	release, err := l.TryAcquire(ctx, "student-a", time.Minute)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := l.TryAcquire(ctx, "student-a", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("second acquire: want ErrHeld got %v", err)
	}
	if _, err := l.TryAcquire(ctx, "student-b", time.Minute); err != nil {
		t.Fatalf("other key: %v", err)
	}

	_ = release(ctx)
	_ = release(ctx)
	if _, err := l.TryAcquire(ctx, "student-a", time.Minute); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	l := NewMemory().(*memoryLocker)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	staleRelease, _ := l.TryAcquire(ctx, "k", time.Second)
	now = now.Add(2 * time.Second)
	if _, err := l.TryAcquire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("expired claim should be replaceable: %v", err)
	}
	// the stale holder must not free the new claim
	_ = staleRelease(ctx)
	if _, err := l.TryAcquire(ctx, "k", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("want ErrHeld after stale release, got %v", err)
	}
}

func TestNoop(t *testing.T) {
	l := Noop()
	for i := 0; i < 2; i++ {
		if _, err := l.TryAcquire(context.Background(), "k", time.Minute); err != nil {
			t.Fatalf("noop acquire: %v", err)
		}
	}
}
