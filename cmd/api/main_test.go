package main

import (
	"context"
	"testing"

	"dining-ranker/internal/infrastructure/config"
)

func TestBuildMenuCacheFallsBackWhenRedisIsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{
		Menu: config.MenuConfig{Timezone: "UTC"},
		Cache: config.CacheConfig{
			Enabled:   true,
			Backend:   "redis",
			RedisAddr: "127.0.0.1:1",
		},
	}

	c, err := buildMenuCache(ctx, cfg)
	if err != nil {
		t.Fatalf("expected fallback instead of error, got %v", err)
	}
	defer c.Close()

	if !c.Enabled() {
		t.Error("expected in-memory cache to back the fallback")
	}
}

func TestBuildMenuCacheDisabled(t *testing.T) {
	cfg := &config.Config{Menu: config.MenuConfig{Timezone: "UTC"}}

	c, err := buildMenuCache(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Enabled() {
		t.Error("expected disabled cache")
	}
}
