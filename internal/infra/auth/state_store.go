package auth

import (
	"sync"
	"time"

	"casthub/internal/domain/service"
	"casthub/internal/util"

	"github.com/pkg/errors"
)

const (
	stateBytes = 32
	stateTTL   = 10 * time.Minute
)

// StateStore issues and validates the anti-forgery state parameter that ties
// an OAuth callback to the redirect that started it. States are single-use
// and expire after ten minutes.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	clock  service.Clock
}

// NewStateStore is the constructor for StateStore.
func NewStateStore(clock service.Clock) *StateStore {
	return &StateStore{
		states: make(map[string]time.Time),
		clock:  clock,
	}
}

// Issue generates a cryptographically random state and records it.
func (s *StateStore) Issue() (string, error) {
	state, err := util.RandomHex(stateBytes)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate oauth state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state] = s.clock.Now().Add(stateTTL)
	s.cleanupLocked()

	return state, nil
}

// Consume validates a state and removes it so replayed callbacks fail.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.states[state]
	if !exists {
		return false
	}
	delete(s.states, state)

	return s.clock.Now().Before(expiry)
}

// cleanupLocked removes expired states. Callers hold the mutex.
func (s *StateStore) cleanupLocked() {
	now := s.clock.Now()
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}
}
