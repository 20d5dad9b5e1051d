// Package sessions issues and validates in-memory sign-in sessions.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"nido/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

type session struct {
	identity  models.Identity
	expiresAt time.Time
}

// Service holds active sessions keyed by opaque token. Sessions do not
// survive a restart; members just sign in again.
type Service struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

// NewService creates a session store with the given time-to-live.
func NewService(ttl time.Duration) *Service {
	return &Service{
		ttl:      ttl,
		sessions: make(map[string]session),
	}
}

// Create issues a fresh token for identity.
func (s *Service) Create(identity models.Identity) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{
		identity:  identity,
		expiresAt: time.Now().Add(s.ttl),
	}
	return token
}

// Validate resolves a token to its member identity. Expired sessions are
// removed on sight.
func (s *Service) Validate(token string) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return models.Identity{}, ErrSessionNotFound
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return models.Identity{}, ErrSessionExpired
	}
	return sess.identity, nil
}

// Revoke drops a token. Revoking an unknown token is a no-op.
func (s *Service) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
