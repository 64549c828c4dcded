package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/TrailParty/trail-party-backend/types"
)

// MockPublisher implements types.EventPublisher for testing
type MockPublisher struct {
	mu     sync.RWMutex
	events map[string][]types.Event // key: tripID
	closed bool
}

// NewMockPublisher creates a new mock publisher for testing
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		events: make(map[string][]types.Event),
	}
}

// Publish records an event for testing
func (m *MockPublisher) Publish(ctx context.Context, tripID string, event types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("publisher is closed")
	}

	m.events[tripID] = append(m.events[tripID], event)
	return nil
}

// Events returns the events recorded for a trip.
func (m *MockPublisher) Events(tripID string) []types.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Event, len(m.events[tripID]))
	copy(out, m.events[tripID])
	return out
}

// Close marks the publisher closed; subsequent publishes fail.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
