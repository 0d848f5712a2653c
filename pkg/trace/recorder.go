// Package trace records lifecycle events for inspection. A Recorder is a
// lifecycle.Observer that keeps a timestamped, ordered log of every event of
// the instances it observes, for debugging ordering problems and for tests.
package trace

import (
	"fmt"
	"sync"
	"time"

	"basekit/internal/clock"
	"basekit/pkg/lifecycle"
)

// Entry is a recorded lifecycle event
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Event     lifecycle.Event `json:"event"`
}

// String formats the entry as "step:unit"
func (e Entry) String() string {
	return fmt.Sprintf("%s:%s", e.Event.Step, e.Event.Unit)
}

// Recorder keeps an ordered log of lifecycle events.
// It may be shared by several instances.
type Recorder struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries []Entry
	limit   int
}

// NewRecorder creates a recorder stamping entries with c.
// A nil clock uses the system clock.
func NewRecorder(c clock.Clock) *Recorder {
	if c == nil {
		c = clock.System
	}
	return &Recorder{
		clock:   c,
		entries: make([]Entry, 0),
	}
}

// SetLimit caps the number of retained entries; older entries are dropped
// first. Zero means unlimited.
func (r *Recorder) SetLimit(limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = limit
	r.trim()
}

// Observe implements lifecycle.Observer
func (r *Recorder) Observe(e lifecycle.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{
		Timestamp: r.clock.Now(),
		Event:     e,
	})
	r.trim()
}

func (r *Recorder) trim() {
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = append(r.entries[:0:0], r.entries[len(r.entries)-r.limit:]...)
	}
}

// Entries returns a copy of all recorded entries in order
func (r *Recorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// Units returns the units of recorded events whose step is one of steps, in
// order. With no steps, every non-transition event is included.
func (r *Recorder) Units(steps ...lifecycle.Step) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0)
	for _, entry := range r.entries {
		if matches(entry.Event.Step, steps) {
			result = append(result, entry.Event.Unit)
		}
	}
	return result
}

// Steps returns "step:unit" labels of recorded non-transition events
func (r *Recorder) Steps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Event.Step != lifecycle.StepTransition {
			result = append(result, entry.String())
		}
	}
	return result
}

// Transitions returns the state changes recorded for one instance
func (r *Recorder) Transitions(class string, instanceID uint64) []lifecycle.State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]lifecycle.State, 0)
	for _, entry := range r.entries {
		e := entry.Event
		if e.Step == lifecycle.StepTransition && e.Class == class && e.InstanceID == instanceID {
			result = append(result, e.To)
		}
	}
	return result
}

// Lifetime returns the time between an instance entering Initializing and
// reaching Destroyed. ok is false until both transitions were recorded.
func (r *Recorder) Lifetime(class string, instanceID uint64) (d time.Duration, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var start time.Time
	started := false
	for _, entry := range r.entries {
		e := entry.Event
		if e.Step != lifecycle.StepTransition || e.Class != class || e.InstanceID != instanceID {
			continue
		}
		switch e.To {
		case lifecycle.Initializing:
			start, started = entry.Timestamp, true
		case lifecycle.Destroyed:
			if started {
				return entry.Timestamp.Sub(start), true
			}
		}
	}
	return 0, false
}

// Reset discards all recorded entries
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make([]Entry, 0)
}

func matches(step lifecycle.Step, steps []lifecycle.Step) bool {
	if len(steps) == 0 {
		return step != lifecycle.StepTransition
	}
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}
