package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godilite/urbanscore/internal/state"
)

const DefaultSessionTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("session not found")

type session struct {
	controller *Controller
	lastSeen   time.Time
}

// SessionRegistry keeps one Controller per client session. Sessions idle for
// longer than the TTL are removed by Prune.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	fetcher  RankingFetcher
	stale    StaleCounter
	gauge    SessionGauge
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessionRegistry(fetcher RankingFetcher, ttl time.Duration, stale StaleCounter, gauge SessionGauge, logger *zap.Logger) *SessionRegistry {
	if fetcher == nil {
		panic("ranking fetcher must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		sessions: make(map[string]*session),
		fetcher:  fetcher,
		stale:    stale,
		gauge:    gauge,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.Named("sessions"),
	}
}

// Open creates a session with the given initial selection. The caller is expected
// to trigger the first load.
func (r *SessionRegistry) Open(initial state.Selection) (string, *Controller) {
	id := uuid.NewString()
	c := NewController(r.fetcher, initial, r.stale, r.logger)

	r.mu.Lock()
	r.sessions[id] = &session{controller: c, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.setGauge(n)
	r.logger.Debug("session opened", zap.String("session_id", id))
	return id, c
}

// Get returns the session's controller and marks it as active.
func (r *SessionRegistry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || r.expired(s) {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.controller, nil
}

// Close removes the session. Expired sessions are reported as not found.
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok || r.expired(s) {
		return ErrSessionNotFound
	}
	r.setGauge(n)
	r.logger.Debug("session closed", zap.String("session_id", id))
	return nil
}

// Prune removes expired sessions and returns how many were removed.
func (r *SessionRegistry) Prune() int {
	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.setGauge(n)
	if removed > 0 {
		r.logger.Info("pruned idle sessions", zap.Int("removed", removed), zap.Int("open", n))
	}
	return removed
}

// PruneEvery calls Prune on every tick of interval until ctx is done.
func (r *SessionRegistry) PruneEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) expired(s *session) bool {
	return r.now().Sub(s.lastSeen) > r.ttl
}

func (r *SessionRegistry) setGauge(n int) {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(n)
	}
}
