package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	var calls atomic.Int64

	fetch := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a", "b"}, nil
	}

	key := Key("getUsers")
	if _, err := Fetch(ctx, c, key, []Tag{TagUsers}, fetch); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := Fetch(ctx, c, key, []Tag{TagUsers}, fetch); err != nil {
		t.Fatalf("Fetch (cached): %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 backend call, got %d", got)
	}

	c.Invalidate(ctx, TagUsers)

	if _, err := Fetch(ctx, c, key, []Tag{TagUsers}, fetch); err != nil {
		t.Fatalf("Fetch (after invalidate): %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected re-fetch after invalidation, got %d calls", got)
	}
}

func TestInvalidate_OnlyMatchingTags(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	var userCalls, planCalls atomic.Int64

	fetchUsers := func(context.Context) (string, error) {
		userCalls.Add(1)
		return "users", nil
	}
	fetchPlans := func(context.Context) (string, error) {
		planCalls.Add(1)
		return "plans", nil
	}

	if _, err := Fetch(ctx, c, Key("getUsers"), []Tag{TagUsers}, fetchUsers); err != nil {
		t.Fatalf("Fetch users: %v", err)
	}
	if _, err := Fetch(ctx, c, Key("getSubscriptions"), []Tag{TagSubscriptions}, fetchPlans); err != nil {
		t.Fatalf("Fetch plans: %v", err)
	}

	c.Invalidate(ctx, TagUsers)

	if _, err := Fetch(ctx, c, Key("getSubscriptions"), []Tag{TagSubscriptions}, fetchPlans); err != nil {
		t.Fatalf("Fetch plans (cached): %v", err)
	}
	if got := planCalls.Load(); got != 1 {
		t.Fatalf("plans should not re-fetch on Users invalidation, got %d calls", got)
	}
}

func TestRefresh_CoalescesConcurrentFetches(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	var calls atomic.Int64
	release := make(chan struct{})

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := Refresh(ctx, c, Key("getTickets"), []Tag{TagTickets}, fetch); err != nil || v != 42 {
				t.Errorf("Refresh: v=%d err=%v", v, err)
			}
		}()
	}

	// Give the goroutines a moment to pile onto the same key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected coalesced single fetch, got %d", got)
	}
}

func TestSubscribe_RefreshesOnIntervalAndInvalidation(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	var calls atomic.Int64

	refresh := func(refCtx context.Context) {
		_, _ = Refresh(refCtx, c, Key("getTickets"), []Tag{TagTickets}, func(context.Context) (string, error) {
			calls.Add(1)
			return "tickets", nil
		})
	}

	sub := c.Subscribe(Key("getTickets"), 20*time.Millisecond, refresh)
	defer sub.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() < 3 {
		t.Fatalf("expected repeated polling refreshes, got %d", calls.Load())
	}

	before := calls.Load()
	c.Invalidate(ctx, TagTickets)
	deadline = time.Now().Add(2 * time.Second)
	for calls.Load() == before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() == before {
		t.Fatalf("expected invalidation to trigger a refresh")
	}
}

func TestSubscription_StopCancelsTimer(t *testing.T) {
	c := New(nil)
	var calls atomic.Int64

	sub := c.Subscribe(Key("getUsers"), 10*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	sub.Stop()

	settled := calls.Load()
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != settled {
		t.Fatalf("expected no refreshes after Stop, got %d more", calls.Load()-settled)
	}

	// A poke after Stop must be harmless.
	c.Invalidate(context.Background(), TagUsers)
}

func TestKey_JoinsParams(t *testing.T) {
	if got := Key("getTicketById", "TCK-1"); got != "getTicketById(TCK-1)" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("getUsers"); got != "getUsers" {
		t.Fatalf("unexpected key %q", got)
	}
}
