package auth

import (
	"sync"
	"time"
)

// DefaultSessionDuration is how long a login stays valid.
const DefaultSessionDuration = 24 * time.Hour

// SessionValid reports whether a login at loginTime is still inside the
// session window at now. A zero loginTime is never valid unless the window
// is disabled with a non-positive duration.
func SessionValid(loginTime, now time.Time, duration time.Duration) bool {
	if duration <= 0 {
		return true
	}
	if loginTime.IsZero() {
		return false
	}
	return now.Sub(loginTime) < duration
}

// Sessions tracks sessions ended by logout until their tokens expire. It is
// keyed by the token's jti.
type Sessions struct {
	mu    sync.RWMutex
	ended map[string]time.Time
	now   func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{ended: make(map[string]time.Time), now: time.Now}
}

// End marks the session as logged out. Entries past expiresAt are swept on
// the next call.
func (s *Sessions) End(sessionID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.ended {
		if now.After(exp) {
			delete(s.ended, id)
		}
	}
	if expiresAt.IsZero() {
		expiresAt = now.Add(DefaultSessionDuration)
	}
	s.ended[sessionID] = expiresAt
}

func (s *Sessions) Ended(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ended[sessionID]
	return ok
}

func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ended)
}
