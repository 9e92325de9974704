package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/finsim-app/admin-console/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Mirror is an optional shared copy of cached reads, letting console
// replicas reuse each other's fetches. All methods are best effort: a
// mirror failure never fails the read.
type Mirror interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, raw []byte)
	Del(ctx context.Context, keys ...string)
}

const (
	// mirrorTTL bounds how long a mirrored read can outlive its source.
	mirrorTTL = 30 * time.Second
	// breakerDuration is how long the mirror stays bypassed after a
	// redis failure.
	breakerDuration = 30 * time.Second
)

// RedisMirror mirrors cache entries into redis with a failure breaker:
// after an error the mirror goes quiet for breakerDuration and reads fall
// back to the local cache only.
type RedisMirror struct {
	client *redis.Client
	prefix string

	mu           sync.Mutex
	breakerUntil time.Time
	nowFn        func() time.Time
}

// NewRedisMirror constructs a redis mirror, or nil when no address is
// configured.
func NewRedisMirror(cfg config.RedisConfig) *RedisMirror {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisMirror{client: client, prefix: cfg.Prefix, nowFn: time.Now}
}

func (m *RedisMirror) fullKey(key string) string {
	return m.prefix + ":" + key
}

func (m *RedisMirror) breakerActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.breakerUntil.IsZero() {
		return false
	}
	if m.nowFn().Before(m.breakerUntil) {
		return true
	}
	m.breakerUntil = time.Time{}
	return false
}

func (m *RedisMirror) tripBreaker(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.nowFn()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(breakerDuration)
	log.WithError(err).Warn("cache: redis mirror unavailable, serving local only")
}

// Get returns the mirrored bytes for key when present.
func (m *RedisMirror) Get(ctx context.Context, key string) ([]byte, bool) {
	if m == nil || m.breakerActive() {
		return nil, false
	}
	raw, err := m.client.Get(ctx, m.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		m.tripBreaker(err)
		return nil, false
	}
	return raw, true
}

// Set mirrors raw under key with the mirror TTL.
func (m *RedisMirror) Set(ctx context.Context, key string, raw []byte) {
	if m == nil || m.breakerActive() {
		return
	}
	if err := m.client.Set(ctx, m.fullKey(key), raw, mirrorTTL).Err(); err != nil {
		m.tripBreaker(err)
	}
}

// Del drops the mirrored copies of keys.
func (m *RedisMirror) Del(ctx context.Context, keys ...string) {
	if m == nil || m.breakerActive() || len(keys) == 0 {
		return
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, m.fullKey(key))
	}
	if err := m.client.Del(ctx, full...).Err(); err != nil {
		m.tripBreaker(err)
	}
}
