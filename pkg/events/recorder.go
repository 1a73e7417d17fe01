package events

import (
	"context"
	"sync"
)

// Recorder captures published events in order. It is intended for tests and
// debugging tools.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Trace returns "kind:name" strings in publication order.
func (r *Recorder) Trace() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, event := range events {
		out[i] = string(event.Kind()) + ":" + event.Component().Name
	}
	return out
}

// OfKind returns recorded events of kind.
func (r *Recorder) OfKind(kind Kind) []Event {
	var out []Event
	for _, event := range r.Events() {
		if event.Kind() == kind {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

var _ Publisher = (*Recorder)(nil)
