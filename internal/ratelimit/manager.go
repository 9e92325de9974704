package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/finsim-app/admin-console/internal/config"
)

// redisBreakerDuration is how long the memory fallback is used after a
// Redis failure before the backend is retried.
const redisBreakerDuration = 30 * time.Second

// Manager selects a limiter backend and enforces auth attempt limits.
// Without a configured Redis address it is purely in-memory.
type Manager struct {
	nowFn         func() time.Time
	memoryLimiter Limiter

	mu           sync.Mutex
	redisLimiter *RedisLimiter
	redisCfg     config.RedisConfig
	breakerUntil time.Time
}

// NewManager constructs a Manager. cfg.Addr may be empty.
func NewManager(cfg config.RedisConfig) *Manager {
	m := &Manager{
		nowFn:         time.Now,
		memoryLimiter: NewMemoryLimiter(),
		redisCfg:      cfg,
	}
	if cfg.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		m.redisLimiter = NewRedisLimiter(client, cfg.Prefix+":ratelimit")
	}
	return m
}

// Allow checks whether the attempt should be allowed using the best
// available backend.
func (m *Manager) Allow(ctx context.Context, key string, limit int) (Result, error) {
	if m == nil || limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	now := m.nowFn()

	if m.redisLimiter != nil && !m.isBreakerActive(now) {
		result, errAllow := m.redisLimiter.Allow(ctx, key, limit, now)
		if errAllow == nil {
			return result, nil
		}
		m.tripBreaker(errAllow, now)
	}
	return m.memoryLimiter.Allow(ctx, key, limit, now)
}

func (m *Manager) isBreakerActive(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.breakerUntil.IsZero() {
		return false
	}
	if now.Before(m.breakerUntil) {
		return true
	}
	m.breakerUntil = time.Time{}
	return false
}

func (m *Manager) tripBreaker(err error, now time.Time) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	log.WithError(err).Warn("rate limit: redis unavailable, falling back to memory")
}
