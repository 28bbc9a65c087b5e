package broadcast

import "sync"

// Event is one captured publication.
type Event struct {
	Topic   string
	UserID  string // empty for topic-wide publishes
	Payload any
}

// Recorder is a Publisher that captures every publication in memory so
// tests can assert on outbound traffic instead of log output.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Topic: topic, Payload: payload})
}

func (r *Recorder) PublishToUser(topic, userID string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Topic: topic, UserID: userID, Payload: payload})
}

// Events returns a copy of everything captured so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ByTopic filters captured events by destination.
func (r *Recorder) ByTopic(topic string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
