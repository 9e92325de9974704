// Package cache keeps backend read results consistent with the latest
// writes. Reads are cached under one or more tags; every successful write
// invalidates its tags, which marks matching entries stale and pokes
// their subscribers to re-fetch. Polling subscriptions additionally
// re-execute reads on a fixed interval so changes made outside this
// process surface within a few seconds.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Tag groups cached reads that must be invalidated together.
type Tag string

// The console's cache tags, one per backend resource family.
const (
	TagAdmin         Tag = "Admin"
	TagUsers         Tag = "Users"
	TagSubscriptions Tag = "Subscriptions"
	TagTickets       Tag = "Tickets"
)

// Key builds a cache key from an operation name and its parameters.
func Key(op string, params ...string) string {
	if len(params) == 0 {
		return op
	}
	return op + "(" + strings.Join(params, ",") + ")"
}

// entry is one cached read result.
type entry struct {
	tags      []Tag
	value     any
	stale     bool
	fetchedAt time.Time
}

// Cache is the tag-invalidated response cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	subs    map[string]map[*Subscription]struct{}

	group  singleflight.Group
	mirror Mirror
	nowFn  func() time.Time
}

// New constructs a cache. mirror may be nil when no shared backend is
// configured.
func New(mirror Mirror) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		subs:    make(map[string]map[*Subscription]struct{}),
		mirror:  mirror,
		nowFn:   time.Now,
	}
}

// lookup returns the cached value for key when present and not stale.
func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return e.value, true
}

// store records a freshly fetched value under key.
func (c *Cache) store(key string, tags []Tag, value any) {
	c.mu.Lock()
	c.entries[key] = &entry{tags: tags, value: value, fetchedAt: c.nowFn()}
	c.mu.Unlock()
}

// Invalidate marks every entry under the given tags stale, drops the
// mirrored copies, and pokes active subscribers to re-fetch.
func (c *Cache) Invalidate(ctx context.Context, tags ...Tag) {
	if c == nil || len(tags) == 0 {
		return
	}
	tagSet := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	var staleKeys []string
	var poked []*Subscription

	c.mu.Lock()
	for key, e := range c.entries {
		if !matchesAny(e.tags, tagSet) {
			continue
		}
		e.stale = true
		staleKeys = append(staleKeys, key)
		for sub := range c.subs[key] {
			poked = append(poked, sub)
		}
	}
	c.mu.Unlock()

	if c.mirror != nil && len(staleKeys) > 0 {
		c.mirror.Del(ctx, staleKeys...)
	}
	for _, sub := range poked {
		sub.poke()
	}
}

func matchesAny(tags []Tag, set map[Tag]struct{}) bool {
	for _, t := range tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// Fetch returns the cached value for key, fetching through fn on a miss.
// Identical in-flight fetches are coalesced; the most recently resolved
// response wins.
func Fetch[T any](ctx context.Context, c *Cache, key string, tags []Tag, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, okType := v.(T); okType {
			return typed, nil
		}
	}

	if c.mirror != nil {
		if raw, ok := c.mirror.Get(ctx, key); ok {
			var typed T
			if errDecode := json.Unmarshal(raw, &typed); errDecode == nil {
				c.store(key, tags, typed)
				return typed, nil
			}
		}
	}

	return Refresh(ctx, c, key, tags, fn)
}

// Refresh fetches through fn unconditionally and replaces the cached
// value on success. Concurrent refreshes of the same key share one
// backend request.
func Refresh[T any](ctx context.Context, c *Cache, key string, tags []Tag, fn func(context.Context) (T, error)) (T, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		value, errFetch := fn(ctx)
		if errFetch != nil {
			return nil, errFetch
		}
		c.store(key, tags, value)
		if c.mirror != nil {
			if raw, errMarshal := json.Marshal(value); errMarshal == nil {
				c.mirror.Set(ctx, key, raw)
			}
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return typed, nil
}
