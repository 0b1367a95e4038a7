package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/voxboard/redis"
)

type envelope struct {
	Text      string `json:"text"`
	RequestID string `json:"requestId"`
}

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisCache[envelope], *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache[envelope](client, "resp", ttl), mini
}

func TestRedisCache_GetSet(t *testing.T) {
	c, mini := newRedisCache(t, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "req-1"); ok || err != nil {
		t.Fatalf("miss = %v, %v", ok, err)
	}
	if err := c.Set(ctx, "req-1", envelope{Text: "Hi.", RequestID: "req-1"}); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "req-1")
	if err != nil || !ok || got.Text != "Hi." {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}
	if mini.TTL("resp:req-1") != time.Minute {
		t.Error("ttl not applied")
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mini := newRedisCache(t, time.Minute)
	ctx := context.Background()
	_ = c.Set(ctx, "k", envelope{Text: "x"})
	mini.FastForward(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry returned")
	}
}

func TestRedisCache_SetIfAbsent(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	got, stored, err := c.SetIfAbsent(ctx, "k", envelope{Text: "first"})
	if err != nil || !stored || got.Text != "first" {
		t.Fatalf("first = %+v, %v, %v", got, stored, err)
	}
	got, stored, err = c.SetIfAbsent(ctx, "k", envelope{Text: "second"})
	if err != nil || stored || got.Text != "first" {
		t.Fatalf("second = %+v, %v, %v", got, stored, err)
	}
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mini := newRedisCache(t, time.Minute)
	mini.Close()
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from closed server")
	}
}
