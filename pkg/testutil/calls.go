package testutil

import "strings"

// CallLog records named calls in the order they happen. Tests use it to
// assert lifecycle ordering.
type CallLog struct {
	calls []string
}

// Record appends a call
func (l *CallLog) Record(call string) {
	l.calls = append(l.calls, call)
}

// Recorder returns a function that records call each time it runs
func (l *CallLog) Recorder(call string) func() {
	return func() { l.Record(call) }
}

// Calls returns a copy of the recorded calls
func (l *CallLog) Calls() []string {
	result := make([]string, len(l.calls))
	copy(result, l.calls)
	return result
}

// Filter returns the recorded calls starting with prefix, prefix stripped
func (l *CallLog) Filter(prefix string) []string {
	var filtered []string
	for _, call := range l.calls {
		if strings.HasPrefix(call, prefix) {
			filtered = append(filtered, strings.TrimPrefix(call, prefix))
		}
	}
	return filtered
}

// Reset clears the log
func (l *CallLog) Reset() {
	l.calls = nil
}
