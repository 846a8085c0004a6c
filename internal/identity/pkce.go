package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// newCodeVerifier returns a 43-character base64url PKCE verifier.
func newCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// codeChallenge is the S256 challenge for verifier.
func codeChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// stateStore holds in-flight authorization requests keyed by their CSRF
// state. Entries are single use and expire after ttl.
type stateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration
}

type stateEntry struct {
	verifier  string
	createdAt time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{entries: make(map[string]stateEntry), ttl: ttl}
}

func (s *stateStore) create(verifier string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, v := range s.entries {
		if now.Sub(v.createdAt) > s.ttl {
			delete(s.entries, k)
		}
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	state := hex.EncodeToString(b)
	s.entries[state] = stateEntry{verifier: verifier, createdAt: now}
	return state, nil
}

// consume returns the verifier for state and forgets it.
func (s *stateStore) consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return "", false
	}
	delete(s.entries, state)
	if time.Since(e.createdAt) > s.ttl {
		return "", false
	}
	return e.verifier, true
}
