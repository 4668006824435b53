package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/textguard/textguard/internal/domain/guard"
)

// newTestRedisClient connects to a local Redis instance for integration
// testing. These tests only run if a Redis server is reachable on the
// default port; CI and local dev without Redis installed skip them rather
// than fail.
func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("no local redis reachable at localhost:6379, skipping integration test")
	}
	return client
}

func TestRedis_PutThenGet(t *testing.T) {
	client := newTestRedisClient(t)
	defer func() { _ = client.Close() }()

	r := NewRedis(client, nil)
	ctx := context.Background()
	key := "test-put-then-get"
	defer client.Del(ctx, keyPrefix+key)

	want := guard.CheckResult{Violations: []guard.Violation{{RuleID: "r1", Type: guard.ViolationKeyword, Matched: "spam"}}}
	r.Put(ctx, key, want, time.Minute)

	got, ok := r.Get(ctx, key)
	if !ok {
		t.Fatal("expected a cache hit after Put")
	}
	if len(got.Violations) != 1 || got.Violations[0].RuleID != "r1" {
		t.Errorf("expected round-tripped violation, got %+v", got)
	}
}

func TestRedis_GetMissReturnsFalse(t *testing.T) {
	client := newTestRedisClient(t)
	defer func() { _ = client.Close() }()

	r := NewRedis(client, nil)
	_, ok := r.Get(context.Background(), "definitely-not-a-cached-key")
	if ok {
		t.Fatal("expected a cache miss for an unknown key")
	}
}

func TestRedis_ExpiresAfterTTL(t *testing.T) {
	client := newTestRedisClient(t)
	defer func() { _ = client.Close() }()

	r := NewRedis(client, nil)
	ctx := context.Background()
	key := "test-expiry"
	defer client.Del(ctx, keyPrefix+key)

	r.Put(ctx, key, guard.CheckResult{}, 50*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	_, ok := r.Get(ctx, key)
	if ok {
		t.Fatal("expected the entry to have expired")
	}
}
