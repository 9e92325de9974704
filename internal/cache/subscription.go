package cache

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Subscription is a cancellable handle on a polled read. While active it
// re-executes the read on its interval and whenever one of the read's
// tags is invalidated. Stop cancels the timer; a refresh resolving after
// Stop is discarded by the loop simply exiting.
type Subscription struct {
	key      string
	interval time.Duration
	refresh  func(context.Context)

	cancel context.CancelFunc
	pokeCh chan struct{}
	done   chan struct{}
	owner  *Cache
}

// Subscribe starts polling key. refresh is invoked immediately, then on
// every interval tick and every invalidation poke, until Stop.
func (c *Cache) Subscribe(key string, interval time.Duration, refresh func(context.Context)) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		key:      key,
		interval: interval,
		refresh:  refresh,
		cancel:   cancel,
		pokeCh:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		owner:    c,
	}

	c.mu.Lock()
	if c.subs[key] == nil {
		c.subs[key] = make(map[*Subscription]struct{})
	}
	c.subs[key][sub] = struct{}{}
	c.mu.Unlock()

	go sub.run(ctx)
	return sub
}

// run is the polling loop. It owns the timer so cancellation always
// clears it.
func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.pokeCh:
			s.refresh(ctx)
			ticker.Reset(s.interval)
		}
	}
}

// poke requests an immediate out-of-cycle refresh.
func (s *Subscription) poke() {
	select {
	case s.pokeCh <- struct{}{}:
	default:
	}
}

// Stop cancels the subscription's timer and unregisters it. It returns
// once the polling loop has exited.
func (s *Subscription) Stop() {
	if s == nil {
		return
	}
	s.owner.mu.Lock()
	if subs, ok := s.owner.subs[s.key]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.owner.subs, s.key)
		}
	}
	s.owner.mu.Unlock()

	s.cancel()
	<-s.done
	log.WithField("key", s.key).Debug("cache: subscription stopped")
}
