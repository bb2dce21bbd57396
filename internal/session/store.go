// Package session provides the process-wide registry of live wizard
// sessions. State is single-process, in-memory, and ephemeral by design:
// there is no cross-process replication and horizontal scaling is
// explicitly unsupported.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/google/uuid"
)

// Store is the registry of live sessions keyed by opaque id. It is the
// only process-wide mutable structure; each session itself is mutated
// only by its owning connection handler.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	limiter *RateLimiter
	ttl     time.Duration
	now     func() time.Time
}

// Options configure a Store.
type Options struct {
	// TTL is the idle duration after which a session is eligible for
	// expiry by the sweeper.
	TTL time.Duration
	// RateLimitMax and RateLimitWindow bound session creation per client
	// key. Zero max disables rate limiting.
	RateLimitMax    int
	RateLimitWindow time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewStore creates an empty session registry.
func NewStore(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var limiter *RateLimiter
	if opts.RateLimitMax > 0 {
		limiter = NewRateLimiter(opts.RateLimitMax, opts.RateLimitWindow, now)
	}
	return &Store{
		sessions: make(map[string]*domain.Session),
		limiter:  limiter,
		ttl:      opts.TTL,
		now:      now,
	}
}

// Create registers a new session for clientKey. Fails with
// domain.ErrRateLimited before any state is allocated when the client has
// exceeded its creation budget.
func (s *Store) Create(clientKey string) (*domain.Session, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		return nil, domain.ErrRateLimited
	}

	now := s.now()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		Stage:          domain.StageAcknowledge,
		FetchedDocs:    make(map[string]string),
		Model:          domain.DefaultModel(),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	slog.Info("Session created", "session_id", sess.ID, "client_key", clientKey)
	return sess, nil
}

// Get resolves a session id.
func (s *Store) Get(id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Touch records activity on a session.
func (s *Store) Touch(id string) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.Touch(s.now())
	}
}

// Expire removes a session from the registry.
func (s *Store) Expire(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		slog.Info("Session expired", "session_id", id)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweep removes all sessions idle past the TTL and returns the count.
// It also prunes stale rate-limiter keys on the same cadence.
func (s *Store) sweep() int {
	if s.limiter != nil {
		s.limiter.Sweep()
	}
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.Idle(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic idle-session expiry until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.sweep(); removed > 0 {
					slog.Info("Idle sessions swept", "removed", removed)
				}
			}
		}
	}()
}

// Clear drops every session. Intended for shutdown and test setup.
func (s *Store) Clear() {
	s.mu.Lock()
	s.sessions = make(map[string]*domain.Session)
	s.mu.Unlock()
}
