package push

import (
	"sort"
	"sync"

	"livematch-service/internal/domain"
)

const defaultLogCapacity = 256

// MessageLog is a bounded, ordered record of received envelopes. When full,
// the oldest message is discarded first so a long-lived connection cannot
// grow without bound. The log survives reconnects.
type MessageLog struct {
	mu       sync.Mutex
	messages []Envelope
	capacity int
}

func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &MessageLog{capacity: capacity}
}

func (l *MessageLog) Append(env Envelope) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, env)
	if len(l.messages) > l.capacity {
		l.messages = l.messages[len(l.messages)-l.capacity:]
	}
}

// Messages returns a copy in arrival order.
func (l *MessageLog) Messages() []Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Envelope, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// EventLog accumulates timeline events keyed by Seq. Retried deliveries can
// arrive duplicated or out of order; Seq is the only order that counts.
type EventLog struct {
	mu     sync.Mutex
	events map[int64]domain.MatchEvent
}

func NewEventLog() *EventLog {
	return &EventLog{events: make(map[int64]domain.MatchEvent)}
}

// Add records an event; it reports false for a duplicate Seq so callers can
// skip re-triggering side effects.
func (l *EventLog) Add(ev domain.MatchEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.events[ev.Seq]; seen {
		return false
	}
	l.events[ev.Seq] = ev
	return true
}

// Events returns all events sorted by Seq.
func (l *EventLog) Events() []domain.MatchEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.MatchEvent, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
