package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/domain"
)

// SessionStore owns the single live avatar stream record. Last writer wins:
// setting a new record overwrites a prior one without upstream teardown, and
// Clear removes whatever is there. The lock only keeps individual reads and
// writes whole; nothing serializes two handshakes racing for the slot.
type SessionStore struct {
	mu  sync.RWMutex
	cur *domain.StreamSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Set(sess domain.StreamSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &sess
	log.Info().Str("module", "app.sessions").Str("session_id", string(sess.ID)).Msg("stored active session")
}

func (s *SessionStore) Get() (domain.StreamSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return domain.StreamSession{}, false
	}
	return *s.cur, true
}

func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
	log.Info().Str("module", "app.sessions").Msg("cleared active session")
}
