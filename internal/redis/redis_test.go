package redis

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"jadwalku/internal/config"
)

func TestNilClientBehavesAsMiss(t *testing.T) {
	var c *Client
	ctx := context.Background()
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
	var dst []string
	if err := c.GetJSON(ctx, "k", &dst); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
	if err := c.Set(ctx, "k", "v", time.Minute); err == nil {
		t.Fatalf("expected error on nil set")
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("nil del should be a no-op: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestJSONRoundTripAgainstRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	client, err := NewRedisClient(&config.Config{Redis: config.RedisConfig{Host: host, Port: port}})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	key := "jadwalku:test:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	want := map[string]int{"a": 1}
	if err := client.SetJSON(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var got map[string]int
	if err := client.GetJSON(ctx, key, &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got["a"] != 1 {
		t.Fatalf("unexpected value %#v", got)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := client.GetJSON(ctx, key, &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
