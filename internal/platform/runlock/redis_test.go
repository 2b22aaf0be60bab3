package runlock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis lock tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	l := NewRedis(rdb, "test-runlock:")
	key := uuid.NewString()

	release, err := l.TryAcquire(ctx, key, 10*time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := l.TryAcquire(ctx, key, 10*time.Second); !errors.Is(err, ErrHeld) {
		t.Fatalf("second acquire: want ErrHeld got %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	release, err = l.TryAcquire(ctx, key, 10*time.Second)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	_ = release(ctx)
}
