// Package store holds the process-local keyed stores backing the
// conversation core. Every mutation happens inside the store's lock so
// callers never do an unguarded read-modify-write cycle.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// SessionStore keeps per-buyer conversation state. All operations are
// total: unknown buyers read as a fresh initial session.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	now      func() time.Time
	log      zerolog.Logger
}

func NewSessionStore(log zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
		log:      log.With().Str("component", "session_store").Logger(),
	}
}

// Get returns a copy of the buyer's session, or an initial one if absent.
func (s *SessionStore) Get(buyerID string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(buyerID)
}

func (s *SessionStore) getLocked(buyerID string) domain.Session {
	sess, ok := s.sessions[buyerID]
	if !ok {
		return domain.Session{
			BuyerID: buyerID,
			Step:    domain.StepInitial,
			Data:    map[string]string{},
		}
	}
	data := make(map[string]string, len(sess.Data))
	for k, v := range sess.Data {
		data[k] = v
	}
	sess.Data = data
	return sess
}

// SetStep overwrites the step and merges patch into the step data.
// Used within a multi-step form where prior answers carry forward.
func (s *SessionStore) SetStep(buyerID string, step domain.Step, patch map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getLocked(buyerID)
	sess.Step = step
	for k, v := range patch {
		sess.Data[k] = v
	}
	s.putLocked(buyerID, sess)
}

// ReplaceStep overwrites the step and replaces the step data wholesale.
// Used when entering an unrelated step so stale scratch never leaks.
func (s *SessionStore) ReplaceStep(buyerID string, step domain.Step, data map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getLocked(buyerID)
	sess.Step = step
	sess.Data = map[string]string{}
	for k, v := range data {
		sess.Data[k] = v
	}
	s.putLocked(buyerID, sess)
}

func (s *SessionStore) SetActiveSeller(buyerID, sellerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getLocked(buyerID)
	sess.SellerID = sellerID
	s.putLocked(buyerID, sess)
}

// Reset returns the buyer to the initial step, preserving the active
// seller so a returning buyer is not forced to re-select one.
func (s *SessionStore) Reset(buyerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getLocked(buyerID)
	sess.Step = domain.StepInitial
	sess.Data = map[string]string{}
	s.putLocked(buyerID, sess)
}

func (s *SessionStore) putLocked(buyerID string, sess domain.Session) {
	sess.BuyerID = buyerID
	sess.LastActivityAt = s.now()
	s.sessions[buyerID] = sess
}

// Len reports the number of sessions ever touched, for stats surfaces.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepInactive resets sessions idle longer than the window. Stale
// sessions are reset in place, never removed.
func (s *SessionStore) SweepInactive(window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-window)
	reset := 0
	for id, sess := range s.sessions {
		if sess.Step != domain.StepInitial && sess.LastActivityAt.Before(cutoff) {
			sess.Step = domain.StepInitial
			sess.Data = map[string]string{}
			s.sessions[id] = sess
			reset++
		}
	}
	if reset > 0 {
		s.log.Debug().Int("reset", reset).Msg("swept inactive sessions")
	}
	return reset
}

// RunSweeper resets inactive sessions on a fixed interval until ctx ends.
func (s *SessionStore) RunSweeper(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepInactive(window)
		}
	}
}
