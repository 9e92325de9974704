// Package reads combines the backend client and the tag cache into the
// console's read side. Each list read owns a polling watch while it is
// being requested: the watch re-executes the read on a fixed interval and
// on tag invalidation, and is reaped once no request has touched it for a
// few intervals — the server-side equivalent of a screen unmounting.
package reads

import (
	"context"
	"sync"
	"time"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/config"
	"github.com/finsim-app/admin-console/internal/models"
)

// idleIntervals is how many poll intervals a watch survives without
// being requested before its timer is cancelled.
const idleIntervals = 3

// watch is one active polled read.
type watch struct {
	sub      *cache.Subscription
	interval time.Duration
	lastSeen time.Time
	token    string
}

// Service is the console's cached read layer.
type Service struct {
	client *backend.Client
	cache  *cache.Cache
	poll   config.PollConfig

	mu      sync.Mutex
	watches map[string]*watch
	nowFn   func() time.Time

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// NewService constructs the read service.
func NewService(client *backend.Client, c *cache.Cache, poll config.PollConfig) *Service {
	return &Service{
		client:      client,
		cache:       c,
		poll:        poll,
		watches:     make(map[string]*watch),
		nowFn:       time.Now,
		janitorStop: make(chan struct{}),
	}
}

// Close stops the idle-watch janitor and every active watch.
func (s *Service) Close() {
	s.janitorOnce.Do(func() {})
	select {
	case <-s.janitorStop:
	default:
		close(s.janitorStop)
	}

	s.mu.Lock()
	watches := make([]*watch, 0, len(s.watches))
	for _, w := range s.watches {
		watches = append(watches, w)
	}
	s.watches = make(map[string]*watch)
	s.mu.Unlock()

	for _, w := range watches {
		w.sub.Stop()
	}
}

// touch records a request against key, starting a polling watch when none
// is active. The stored token is refreshed on every touch so polling
// keeps using a live session's credentials.
func (s *Service) touch(key string, interval time.Duration, token string, refresh func(context.Context, string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.watches[key]; ok {
		w.lastSeen = s.nowFn()
		w.token = token
		return
	}

	w := &watch{interval: interval, lastSeen: s.nowFn(), token: token}
	w.sub = s.cache.Subscribe(key, interval, func(ctx context.Context) {
		s.mu.Lock()
		current := w.token
		s.mu.Unlock()
		refresh(ctx, current)
	})
	s.watches[key] = w
	s.startJanitor()
}

// startJanitor launches the idle reaper once.
func (s *Service) startJanitor() {
	s.janitorOnce.Do(func() {
		go s.runJanitor()
	})
}

// runJanitor periodically stops watches nothing has requested lately.
func (s *Service) runJanitor() {
	ticker := time.NewTicker(s.poll.DetailInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			s.reapIdle()
		}
	}
}

func (s *Service) reapIdle() {
	now := s.nowFn()
	var stopped []*cache.Subscription

	s.mu.Lock()
	for key, w := range s.watches {
		if now.Sub(w.lastSeen) > time.Duration(idleIntervals)*w.interval {
			stopped = append(stopped, w.sub)
			delete(s.watches, key)
		}
	}
	s.mu.Unlock()

	for _, sub := range stopped {
		sub.Stop()
	}
}

// Invalidate marks the given tags stale and pokes their watches.
func (s *Service) Invalidate(ctx context.Context, tags ...cache.Tag) {
	s.cache.Invalidate(ctx, tags...)
}

// Users returns the cached user list, polled while requested.
func (s *Service) Users(ctx context.Context, token string) ([]models.User, error) {
	key := cache.Key("getUsers")
	tags := []cache.Tag{cache.TagUsers}
	s.touch(key, s.poll.ListInterval, token, func(pollCtx context.Context, pollToken string) {
		_, _ = cache.Refresh(pollCtx, s.cache, key, tags, func(fetchCtx context.Context) ([]models.User, error) {
			return s.client.GetUsers(fetchCtx, pollToken)
		})
	})
	return cache.Fetch(ctx, s.cache, key, tags, func(fetchCtx context.Context) ([]models.User, error) {
		return s.client.GetUsers(fetchCtx, token)
	})
}

// Plans returns the cached plan list, polled while requested.
func (s *Service) Plans(ctx context.Context, token string) ([]models.Plan, error) {
	key := cache.Key("getSubscriptions")
	tags := []cache.Tag{cache.TagSubscriptions}
	s.touch(key, s.poll.ListInterval, token, func(pollCtx context.Context, pollToken string) {
		_, _ = cache.Refresh(pollCtx, s.cache, key, tags, func(fetchCtx context.Context) ([]models.Plan, error) {
			return s.client.GetSubscriptions(fetchCtx, pollToken)
		})
	})
	return cache.Fetch(ctx, s.cache, key, tags, func(fetchCtx context.Context) ([]models.Plan, error) {
		return s.client.GetSubscriptions(fetchCtx, token)
	})
}

// Plan returns one cached plan by id. Plan details are not polled; the
// Subscriptions tag keeps them consistent after writes.
func (s *Service) Plan(ctx context.Context, token, id string) (*models.Plan, error) {
	key := cache.Key("getSubscriptionById", id)
	tags := []cache.Tag{cache.TagSubscriptions}
	return cache.Fetch(ctx, s.cache, key, tags, func(fetchCtx context.Context) (*models.Plan, error) {
		return s.client.GetSubscriptionByID(fetchCtx, token, id)
	})
}

// Tickets returns the cached ticket list, polled while requested.
func (s *Service) Tickets(ctx context.Context, token string) ([]models.Ticket, error) {
	key := cache.Key("getTickets")
	tags := []cache.Tag{cache.TagTickets}
	s.touch(key, s.poll.ListInterval, token, func(pollCtx context.Context, pollToken string) {
		_, _ = cache.Refresh(pollCtx, s.cache, key, tags, func(fetchCtx context.Context) ([]models.Ticket, error) {
			return s.client.GetTickets(fetchCtx, pollToken)
		})
	})
	return cache.Fetch(ctx, s.cache, key, tags, func(fetchCtx context.Context) ([]models.Ticket, error) {
		return s.client.GetTickets(fetchCtx, token)
	})
}

// Ticket returns one cached ticket, polled at the faster detail interval
// while its screen is open.
func (s *Service) Ticket(ctx context.Context, token, ticketID string) (*models.Ticket, error) {
	key := cache.Key("getTicketById", ticketID)
	tags := []cache.Tag{cache.TagTickets}
	s.touch(key, s.poll.DetailInterval, token, func(pollCtx context.Context, pollToken string) {
		_, _ = cache.Refresh(pollCtx, s.cache, key, tags, func(fetchCtx context.Context) (*models.Ticket, error) {
			return s.client.GetTicketByID(fetchCtx, pollToken, ticketID)
		})
	})
	return cache.Fetch(ctx, s.cache, key, tags, func(fetchCtx context.Context) (*models.Ticket, error) {
		return s.client.GetTicketByID(fetchCtx, token, ticketID)
	})
}

// AdminProfile returns the cached extended admin record.
func (s *Service) AdminProfile(ctx context.Context, token, adminID string) (*models.AdminProfile, error) {
	key := cache.Key("getAdminProfile", adminID)
	tags := []cache.Tag{cache.TagAdmin}
	return cache.Fetch(ctx, s.cache, key, tags, func(fetchCtx context.Context) (*models.AdminProfile, error) {
		return s.client.GetAdminProfile(fetchCtx, token, adminID)
	})
}
