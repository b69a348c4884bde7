// Package botstate holds the process-wide active flag of the Discord bot.
// The status poller is its only writer.
package botstate

import (
	"sync/atomic"
	"time"
)

type State struct {
	active    atomic.Bool
	startedAt time.Time
}

// New returns an active state stamped with the given start time.
func New(startedAt time.Time) *State {
	s := &State{startedAt: startedAt}
	s.active.Store(true)
	return s
}

func (s *State) Active() bool {
	return s.active.Load()
}

// SetActive stores v and reports the previous value.
func (s *State) SetActive(v bool) (previous bool) {
	return s.active.Swap(v)
}

func (s *State) StartedAt() time.Time {
	return s.startedAt
}

func (s *State) Uptime(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}
