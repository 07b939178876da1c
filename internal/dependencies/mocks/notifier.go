package mocks

import (
	"sync"

	"github.com/cashflowgame/server/internal/model"
)

// SentEvent is one recorded delivery.
type SentEvent struct {
	Event   model.EventType
	Payload any
}

// MockNotifier records every delivery for assertions. Connections are
// online by default; SetOffline makes ToPlayer report failed delivery the
// way a missing connection would.
type MockNotifier struct {
	mu sync.Mutex

	facilitator []SentEvent
	perConn     map[model.ConnectionID][]SentEvent
	broadcasts  []SentEvent
	offline     map[model.ConnectionID]bool
	closed      []model.ConnectionID
}

// NewMockNotifier creates a recording notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		perConn: make(map[model.ConnectionID][]SentEvent),
		offline: make(map[model.ConnectionID]bool),
	}
}

func (m *MockNotifier) ToFacilitator(event model.EventType, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facilitator = append(m.facilitator, SentEvent{Event: event, Payload: payload})
}

func (m *MockNotifier) ToPlayer(conn model.ConnectionID, event model.EventType, payload any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline[conn] {
		return false
	}
	m.perConn[conn] = append(m.perConn[conn], SentEvent{Event: event, Payload: payload})
	return true
}

func (m *MockNotifier) Broadcast(event model.EventType, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasts = append(m.broadcasts, SentEvent{Event: event, Payload: payload})
}

func (m *MockNotifier) Disconnect(conn model.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline[conn] = true
	m.closed = append(m.closed, conn)
}

// SetOffline makes deliveries to the connection fail.
func (m *MockNotifier) SetOffline(conn model.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline[conn] = true
}

// SetOnline makes deliveries to the connection succeed again.
func (m *MockNotifier) SetOnline(conn model.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.offline, conn)
}

// FacilitatorEvents returns everything sent to the facilitator channel.
func (m *MockNotifier) FacilitatorEvents() []SentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEvent(nil), m.facilitator...)
}

// PlayerEvents returns everything sent to one connection.
func (m *MockNotifier) PlayerEvents(conn model.ConnectionID) []SentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEvent(nil), m.perConn[conn]...)
}

// Broadcasts returns everything sent to all connections.
func (m *MockNotifier) Broadcasts() []SentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEvent(nil), m.broadcasts...)
}

// Closed returns the connections the coordinator asked to close.
func (m *MockNotifier) Closed() []model.ConnectionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ConnectionID(nil), m.closed...)
}

// Reset clears all recorded deliveries.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facilitator = nil
	m.perConn = make(map[model.ConnectionID][]SentEvent)
	m.broadcasts = nil
	m.closed = nil
}
