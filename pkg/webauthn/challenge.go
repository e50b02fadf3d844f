package webauthn

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const challengeSize = 20 // bytes of entropy per challenge

// ChallengeStore issues random challenges and consumes them exactly once.
// State is process-lifetime only; a restart discards pending challenges.
type ChallengeStore struct {
	mu      sync.Mutex
	pending map[string]time.Time

	now func() time.Time
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		pending: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Create generates a random challenge and records it as pending.
func (s *ChallengeStore) Create() ([]byte, error) {
	challenge := make([]byte, challengeSize)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("webauthn: failed to generate challenge: %w", err)
	}

	s.mu.Lock()
	s.pending[hex.EncodeToString(challenge)] = s.now()
	s.mu.Unlock()
	return challenge, nil
}

// VerifyAndConsume atomically checks membership and removes the challenge.
// A challenge satisfies at most one verification call.
func (s *ChallengeStore) VerifyAndConsume(challenge []byte) bool {
	key := hex.EncodeToString(challenge)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; !ok {
		return false
	}
	delete(s.pending, key)
	return true
}

// Sweep drops challenges issued more than maxAge ago, bounding the growth of
// never-consumed entries. Returns the number removed.
func (s *ChallengeStore) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, issuedAt := range s.pending {
		if now.Sub(issuedAt) >= maxAge {
			delete(s.pending, key)
			removed++
		}
	}
	return removed
}
