package lease

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/config"
	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, "test:"), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	held, err := locker.Acquire(ctx, "notification:1", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !mr.Exists("test:notification:1") {
		t.Fatal("expected lease key in redis")
	}

	if _, err := locker.Acquire(ctx, "notification:1", time.Minute); !errors.Is(err, domainErrors.ErrLeaseNotAcquired) {
		t.Fatalf("expected lease not acquired, got %v", err)
	}

	if err := held.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := held.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("expected not held on second release, got %v", err)
	}

	if _, err := locker.Acquire(ctx, "notification:1", time.Minute); err != nil {
		t.Fatalf("re-acquire after release failed: %v", err)
	}
}

func TestRedisLockerExpiredLeaseCannotReleaseNewHolder(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := locker.Acquire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("expected expired lease to be free: %v", err)
	}
	if err := stale.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("stale holder must not release the new lease, got %v", err)
	}
	if !mr.Exists("test:k") {
		t.Fatal("new lease must survive")
	}
}

func TestRedisLockerError(t *testing.T) {
	locker, mr := newRedisLocker(t)
	mr.Close()
	if _, err := locker.Acquire(context.Background(), "k", time.Second); err == nil || errors.Is(err, domainErrors.ErrLeaseNotAcquired) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestMemoryLockerSingleWinner(t *testing.T) {
	locker := NewMemoryLocker()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := locker.Acquire(context.Background(), "n:1", time.Minute); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestMemoryLockerExpiry(t *testing.T) {
	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	locker := NewMemoryLocker()
	locker.now = func() time.Time { return now }
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, err := locker.Acquire(ctx, "k", time.Second); !errors.Is(err, domainErrors.ErrLeaseNotAcquired) {
		t.Fatalf("expected held lease, got %v", err)
	}

	now = now.Add(2 * time.Second)
	fresh, err := locker.Acquire(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("expected expired lease to be taken over: %v", err)
	}
	if err := stale.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("stale release must fail, got %v", err)
	}
	if err := fresh.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
}

func TestMemoryLockerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemoryLocker().Acquire(ctx, "k", time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestModuleSelectsLocker(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var memory Locker
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{}, logger),
		Module,
		fx.Populate(&memory),
	)
	if err := app.Err(); err != nil {
		t.Fatalf("fx app failed: %v", err)
	}
	if _, ok := memory.(*MemoryLocker); !ok {
		t.Fatalf("expected memory locker, got %T", memory)
	}

	mr := miniredis.RunT(t)
	var shared Locker
	app = fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{RedisAddress: mr.Addr()}, logger),
		Module,
		fx.Populate(&shared),
	)
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	if _, ok := shared.(*RedisLocker); !ok {
		t.Fatalf("expected redis locker, got %T", shared)
	}
}
