package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/finsim-app/admin-console/internal/config"
)

func TestMemoryLimiter_BlocksOverLimitWithinWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_040, 0)

	for i := 0; i < 3; i++ {
		result, errAllow := limiter.Allow(context.Background(), "login:1.2.3.4", 3, now)
		if errAllow != nil {
			t.Fatalf("allow %d: %v", i, errAllow)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d blocked below limit", i)
		}
	}

	result, errAllow := limiter.Allow(context.Background(), "login:1.2.3.4", 3, now)
	if errAllow != nil {
		t.Fatalf("allow over limit: %v", errAllow)
	}
	if result.Allowed {
		t.Fatal("attempt over limit allowed")
	}
	if result.Reset.Before(now) {
		t.Fatalf("reset %v before now %v", result.Reset, now)
	}
}

func TestMemoryLimiter_NewWindowResetsCount(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_040, 0)

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(context.Background(), "k", 2, now); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}
	if result, _ := limiter.Allow(context.Background(), "k", 2, now); result.Allowed {
		t.Fatal("exhausted window still allowed")
	}

	later := now.Add(window)
	result, errAllow := limiter.Allow(context.Background(), "k", 2, later)
	if errAllow != nil {
		t.Fatalf("allow in next window: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatal("fresh window blocked")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_040, 0)

	if result, _ := limiter.Allow(context.Background(), "a", 1, now); !result.Allowed {
		t.Fatal("first attempt for a blocked")
	}
	if result, _ := limiter.Allow(context.Background(), "a", 1, now); result.Allowed {
		t.Fatal("second attempt for a allowed")
	}
	if result, _ := limiter.Allow(context.Background(), "b", 1, now); !result.Allowed {
		t.Fatal("first attempt for b blocked")
	}
}

func TestManager_MemoryOnlyWithoutRedis(t *testing.T) {
	manager := NewManager(config.RedisConfig{})

	for i := 0; i < 5; i++ {
		result, errAllow := manager.Allow(context.Background(), "login:9.9.9.9", 5)
		if errAllow != nil {
			t.Fatalf("allow %d: %v", i, errAllow)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d blocked below limit", i)
		}
	}
	result, _ := manager.Allow(context.Background(), "login:9.9.9.9", 5)
	if result.Allowed {
		t.Fatal("attempt over limit allowed")
	}
}

func TestManager_ZeroLimitDisablesThrottle(t *testing.T) {
	manager := NewManager(config.RedisConfig{})
	for i := 0; i < 100; i++ {
		result, errAllow := manager.Allow(context.Background(), "k", 0)
		if errAllow != nil || !result.Allowed {
			t.Fatalf("attempt %d throttled with zero limit", i)
		}
	}
}
