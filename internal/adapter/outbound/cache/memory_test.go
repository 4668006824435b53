package cache

import (
	"context"
	"testing"
	"time"

	"github.com/textguard/textguard/internal/domain/guard"
)

func TestMemory_PutThenGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	want := guard.CheckResult{Violations: []guard.Violation{{RuleID: "r1"}}}
	m.Put(ctx, "key1", want, time.Minute)

	got, ok := m.Get(ctx, "key1")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if len(got.Violations) != 1 || got.Violations[0].RuleID != "r1" {
		t.Errorf("expected matching result, got %+v", got)
	}
}

func TestMemory_GetMissReturnsFalse(t *testing.T) {
	m := NewMemory()
	_, ok := m.Get(context.Background(), "never-put")
	if ok {
		t.Fatal("expected a cache miss for a key never stored")
	}
}

func TestMemory_EntryExpiresAfterTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Put(ctx, "key1", guard.CheckResult{}, 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	_, ok := m.Get(ctx, "key1")
	if ok {
		t.Fatal("expected the entry to have expired")
	}
}

func TestMemory_JanitorSweepsExpiredEntries(t *testing.T) {
	m := NewMemoryWithInterval(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Put(ctx, "stale", guard.CheckResult{}, 5*time.Millisecond)
	m.StartJanitor(ctx)
	defer m.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if m.Size() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected janitor to sweep the expired entry, size is still %d", m.Size())
}

func TestMemory_StopIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.StartJanitor(ctx)

	m.Stop()
	m.Stop() // must not panic or deadlock on a second call
}

func TestMemory_SizeReflectsStoredEntries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if m.Size() != 0 {
		t.Fatalf("expected empty cache initially, got size %d", m.Size())
	}
	m.Put(ctx, "a", guard.CheckResult{}, time.Minute)
	m.Put(ctx, "b", guard.CheckResult{}, time.Minute)
	if m.Size() != 2 {
		t.Fatalf("expected size 2, got %d", m.Size())
	}
}
