package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

func newTestLocker(t *testing.T) (*miniredis.Miniredis, clinic.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisLocker(rdb, 5*time.Second)
}

func TestWithLock_RunsFnAndReleases(t *testing.T) {
	mr, locker := newTestLocker(t)

	called := false
	err := locker.WithLock(context.Background(), "slot:2025-04-10:9:00-10:00", func(ctx context.Context) error {
		called = true
		if !mr.Exists("lock:slot:2025-04-10:9:00-10:00") {
			t.Error("expected lock key to exist while fn runs")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if mr.Exists("lock:slot:2025-04-10:9:00-10:00") {
		t.Error("expected lock key to be released")
	}
}

func TestWithLock_ContentionIsBusy(t *testing.T) {
	mr, locker := newTestLocker(t)
	if err := mr.Set("lock:doctor:Alice Lee|Cardiology", "other-token"); err != nil {
		t.Fatal(err)
	}

	err := locker.WithLock(context.Background(), "doctor:Alice Lee|Cardiology", func(ctx context.Context) error {
		t.Error("fn must not run while the lock is held elsewhere")
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	if !errors.Is(err, clinic.ErrBusy) {
		t.Fatalf("expected lock contention to match clinic.ErrBusy, got %v", err)
	}

	// A foreign holder's key must survive.
	got, _ := mr.Get("lock:doctor:Alice Lee|Cardiology")
	if got != "other-token" {
		t.Errorf("expected foreign lock to be untouched, got %q", got)
	}
}

func TestWithLock_PropagatesFnError(t *testing.T) {
	mr, locker := newTestLocker(t)
	want := clinic.ErrSlotTaken

	err := locker.WithLock(context.Background(), "slot:x", func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if mr.Exists("lock:slot:x") {
		t.Error("expected lock to be released after fn error")
	}
}
