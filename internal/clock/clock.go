// Package clock supplies the timestamps stamped on lifecycle traces.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// System reads the wall clock
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Sequence is a deterministic Clock for tests. Every reading returns the
// pending time and then moves it forward by the step, so two lifecycle
// events never share a timestamp.
type Sequence struct {
	mu       sync.Mutex
	next     time.Time
	step     time.Duration
	readings int
}

// NewSequence starts a sequence at start, advancing by step per reading.
// A zero step freezes time until Skip is called.
func NewSequence(start time.Time, step time.Duration) *Sequence {
	return &Sequence{next: start, step: step}
}

// Now returns the pending time and advances the sequence
func (s *Sequence) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.next
	s.next = s.next.Add(s.step)
	s.readings++
	return now
}

// Peek returns the time the next reading will return
func (s *Sequence) Peek() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Skip moves the sequence forward by d without taking a reading
func (s *Sequence) Skip(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = s.next.Add(d)
}

// Readings returns how many times Now has been called
func (s *Sequence) Readings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readings
}
