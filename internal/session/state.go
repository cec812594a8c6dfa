// Package session owns the state of one page-turning session and the
// scheduling glue around discovery and activation.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Interval bounds.
const (
	MinInterval     = 2 * time.Second
	MaxInterval     = 20 * time.Second
	DefaultInterval = 5 * time.Second
)

// ErrHalted is returned when a cycle is requested after discovery came up
// empty. The session must be rearmed before it can turn again.
var ErrHalted = errors.New("session halted")

// Phase is the session's position in the turn state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseActivating Phase = "activating"
	PhaseHalted     Phase = "halted"
)

// State is the session value object shared by the scheduler and whatever
// displays its status. Safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	id       string
	running  bool
	page     int
	turns    int
	interval time.Duration
	phase    Phase
	lastTier string
	lastErr  error
}

// NewState returns an idle session on page 1.
func NewState(interval time.Duration) (*State, error) {
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}
	return &State{
		id:       uuid.NewString(),
		page:     1,
		interval: interval,
		phase:    PhaseIdle,
	}, nil
}

// ValidateInterval checks d against MinInterval and MaxInterval.
func ValidateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return fmt.Errorf("interval %v out of range [%v, %v]", d, MinInterval, MaxInterval)
	}
	return nil
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// Advance increments the page counter and returns the new page.
func (s *State) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page++
	s.turns++
	return s.page
}

// Page returns the current page counter.
func (s *State) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// Interval returns the configured pacing.
func (s *State) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// SetInterval changes the pacing.
func (s *State) SetInterval(d time.Duration) error {
	if err := ValidateInterval(d); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	return nil
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Running reports whether a scheduler is driving the session.
func (s *State) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Rearm moves a halted session back to idle, keeping the page counter.
func (s *State) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseHalted {
		s.phase = PhaseIdle
		s.lastErr = nil
	}
}

func (s *State) setRunning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = v
}

// transition moves from one phase to another. It fails if the session is
// not in from.
func (s *State) transition(from, to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != from {
		if s.phase == PhaseHalted {
			return ErrHalted
		}
		return fmt.Errorf("session is %s, not %s", s.phase, from)
	}
	s.phase = to
	return nil
}

func (s *State) record(tier string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tier != "" {
		s.lastTier = tier
	}
	s.lastErr = err
}

// Status is a point-in-time copy of the state for display.
type Status struct {
	Session   string `yaml:"session"              json:"session"`
	Running   bool   `yaml:"running"              json:"running"`
	Phase     Phase  `yaml:"phase"                json:"phase"`
	Page      int    `yaml:"page"                 json:"page"`
	Turns     int    `yaml:"turns"                json:"turns"`
	Interval  string `yaml:"interval"             json:"interval"`
	LastTier  string `yaml:"last_tier,omitempty"  json:"last_tier,omitempty"`
	LastError string `yaml:"last_error,omitempty" json:"last_error,omitempty"`
}

// Snapshot returns the current status.
func (s *State) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Session:  s.id,
		Running:  s.running,
		Phase:    s.phase,
		Page:     s.page,
		Turns:    s.turns,
		Interval: s.interval.String(),
		LastTier: s.lastTier,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
