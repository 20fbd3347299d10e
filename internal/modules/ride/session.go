// README: Ride session gate; at most one ride is active per process.
package ride

import (
	"fmt"
	"sync"

	"ridesim/internal/types"
)

type Session struct {
	mu     sync.Mutex
	active *Ride
}

func NewSession() *Session {
	return &Session{}
}

// TryOpen activates r unless another ride is active. The check and the state
// change happen under one lock, so concurrent bookings cannot both succeed.
func (s *Session) TryOpen(r Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return ErrBusy
	}
	r.Phase = PhaseToPickup
	s.active = &r
	return nil
}

// Close returns the session to idle if id is the active ride. It reports
// whether anything was closed.
func (s *Session) Close(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != id {
		return false
	}
	s.active = nil
	return true
}

func (s *Session) Active() (Ride, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Ride{}, false
	}
	return *s.active, true
}

func (s *Session) advance(id types.ID, to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != id {
		return fmt.Errorf("advance %s: ride not active", id)
	}
	if !CanTransition(s.active.Phase, to) {
		return fmt.Errorf("%s -> %s: %w", s.active.Phase, to, ErrInvalidPhase)
	}
	s.active.Phase = to
	return nil
}
