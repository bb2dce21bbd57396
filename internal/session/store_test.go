package session

import (
	"errors"
	"testing"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(Options{TTL: time.Hour})

	sess, err := store.Create("10.0.0.1")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if sess.ID == "" {
		t.Error("Expected non-empty session id")
	}
	if sess.Stage != domain.StageAcknowledge {
		t.Errorf("Expected initial stage acknowledge, got %v", sess.Stage)
	}
	if sess.PendingQuestion != nil {
		t.Error("Expected no pending question on a fresh session")
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got != sess {
		t.Error("Expected Get to return the same session object")
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(Options{})
	if _, err := store.Get("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_Expire(t *testing.T) {
	store := NewStore(Options{})
	sess, _ := store.Create("10.0.0.1")

	store.Expire(sess.ID)

	if _, err := store.Get(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected expired session to be gone, got %v", err)
	}
}

func TestStore_RateLimit(t *testing.T) {
	store := NewStore(Options{RateLimitMax: 2, RateLimitWindow: time.Hour})

	if _, err := store.Create("1.2.3.4"); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	if _, err := store.Create("1.2.3.4"); err != nil {
		t.Fatalf("Second create failed: %v", err)
	}
	if _, err := store.Create("1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited on third create, got %v", err)
	}

	// A different client key has its own budget.
	if _, err := store.Create("5.6.7.8"); err != nil {
		t.Errorf("Expected separate budget per client key, got %v", err)
	}
}

func TestStore_RateLimitWindowSlides(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	store := NewStore(Options{RateLimitMax: 1, RateLimitWindow: time.Minute, Now: now})

	if _, err := store.Create("key"); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	if _, err := store.Create("key"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("Expected rate limit inside window, got %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := store.Create("key"); err != nil {
		t.Errorf("Expected budget restored after window, got %v", err)
	}
}

func TestRateLimiter_SweepDropsStaleKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	limiter := NewRateLimiter(2, time.Minute, now)

	limiter.Allow("stale")
	clock = clock.Add(2 * time.Minute)
	limiter.Allow("live")

	limiter.Sweep()
	if _, ok := limiter.window["stale"]; ok {
		t.Error("Expected stale key dropped by sweep")
	}
	if _, ok := limiter.window["live"]; !ok {
		t.Error("Expected live key kept by sweep")
	}
}

func TestStore_SweepRemovesIdleSessions(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	store := NewStore(Options{TTL: 10 * time.Minute, Now: now})

	idle, _ := store.Create("a")
	active, _ := store.Create("b")

	clock = clock.Add(11 * time.Minute)
	active.Touch(clock)

	removed := store.sweep()
	if removed != 1 {
		t.Fatalf("Expected 1 session swept, got %d", removed)
	}
	if _, err := store.Get(idle.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Error("Expected idle session removed")
	}
	if _, err := store.Get(active.ID); err != nil {
		t.Errorf("Expected touched session kept, got %v", err)
	}
}
