package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher keeps published events in memory for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	err    error
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	if m.logger != nil {
		m.logger.DebugContext(ctx, "Mock event published", "event_type", event.Type)
	}
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// FailWith makes every later Publish return err; nil restores success
func (m *MockEventPublisher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType filters the recorded events by type
func (m *MockEventPublisher) EventsOfType(eventType EventType) []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
