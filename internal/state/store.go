package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/pixgrab/internal/backend"
)

// Health is the latest view of collaborator reachability.
type Health struct {
	Reachable           bool
	ServerIP            string
	LastChecked         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive ping failures
}

// IsOffline returns true when the collaborator has been unreachable for multiple pings.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Submission Submission
	Health     Health
}

// Store coordinates concurrent access to the active submission and health.
type Store struct {
	mu         sync.RWMutex
	submission Submission
	health     Health
	lastToken  uint64
}

// NextToken reserves a token newer than any handed out before.
func (s *Store) NextToken() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastToken++
	return s.lastToken
}

// Dispatch reduces e into the stored submission. It returns the resulting
// submission and whether the event was applied.
func (s *Store) Dispatch(e Event) (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied := reduce(s.submission, e)
	if applied {
		s.submission = next
		if next.Token > s.lastToken {
			s.lastToken = next.Token
		}
	}
	return s.submission.clone(), applied
}

// Submission returns a copy of the current submission.
func (s *Store) Submission() Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submission.clone()
}

// UpdateHealth records a ping result. When err is non-nil the previous server
// details are kept but the error is recorded for visibility.
func (s *Store) UpdateHealth(info backend.HealthInfo, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.health.LastChecked = time.Now()
	if err != nil {
		s.health.Reachable = false
		s.health.LastError = err
		s.health.ConsecutiveFailures++
		return
	}
	s.health.Reachable = true
	if info.ServerIP != "" {
		s.health.ServerIP = info.ServerIP
	}
	s.health.LastError = nil
	s.health.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Submission: s.submission.clone(),
		Health:     s.health,
	}
	if s.health.LastError != nil {
		snap.Health.LastError = fmt.Errorf("%w", s.health.LastError)
	}
	return snap
}
