package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CSRFService issues anti-forgery tokens and validates them on
// state-changing requests. Tokens are held server-side with a TTL; a
// token stays valid for its lifetime so a client can cache it across
// calls.
type CSRFService struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
	ttl    time.Duration
}

func NewCSRFService(ttl time.Duration) *CSRFService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CSRFService{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
	}
}

// Issue creates and records a new token.
func (s *CSRFService) Issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.tokens[token] = time.Now().Add(s.ttl)
	return token
}

// Valid reports whether token was issued here and has not expired.
func (s *CSRFService) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Revoke drops a token, forcing clients to fetch a fresh one.
func (s *CSRFService) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// sweep removes expired tokens. Caller holds mu.
func (s *CSRFService) sweep() {
	now := time.Now()
	for token, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, token)
		}
	}
}
