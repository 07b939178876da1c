// Package ws is the websocket transport: a hub of live connections plus
// the event dispatch loop for inbound messages.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cashflowgame/server/internal/model"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks live connections and routes outbound events to them. Sends
// are non-blocking: a client whose buffer is full loses the message, and
// the caller's pending-update fallback covers recovery.
type Hub struct {
	clients      map[model.ConnectionID]*Client
	facilitators map[model.ConnectionID]bool
	mu           sync.RWMutex
	logger       *slog.Logger
}

// NewHub creates a connection hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:      make(map[model.ConnectionID]*Client),
		facilitators: make(map[model.ConnectionID]bool),
		logger:       logger.With(slog.String("component", "ws")),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client registered",
		slog.String("connection", string(client.id)),
		slog.Int("total_clients", total))
}

// MarkFacilitator promotes a connection to the facilitator channel. It
// reports false when the connection is unknown or already promoted, so a
// repeated admin-join can be ignored instead of re-sending snapshots.
func (h *Hub) MarkFacilitator(id model.ConnectionID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; !ok {
		return false
	}
	if h.facilitators[id] {
		return false
	}
	h.facilitators[id] = true
	return true
}

// IsFacilitator reports whether a connection joined as a facilitator.
func (h *Hub) IsFacilitator(id model.ConnectionID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.facilitators[id]
}

// Unregister drops a connection and releases its send buffer.
func (h *Hub) Unregister(id model.ConnectionID) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		delete(h.facilitators, id)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Info("client unregistered",
			slog.String("connection", string(id)),
			slog.Int("total_clients", total))
	}
}

// ToPlayer sends one event to one connection. It reports false when the
// connection is unknown so the caller can fall back to the pending flag.
func (h *Hub) ToPlayer(id model.ConnectionID, event model.EventType, payload any) bool {
	msg, ok := h.encode(event, payload)
	if !ok {
		return false
	}
	// Enqueue while still holding the lock so Unregister cannot close the
	// send channel between the lookup and the send
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, found := h.clients[id]
	if !found {
		return false
	}
	h.enqueue(client, msg, event)
	return true
}

// ToFacilitator broadcasts one event to every facilitator connection.
func (h *Hub) ToFacilitator(event model.EventType, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	for id := range h.facilitators {
		if client, found := h.clients[id]; found {
			h.enqueue(client, msg, event)
		}
	}
	h.mu.RUnlock()
}

// Broadcast sends one event to every connection.
func (h *Hub) Broadcast(event model.EventType, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	for _, client := range h.clients {
		h.enqueue(client, msg, event)
	}
	h.mu.RUnlock()
}

// Disconnect drops a connection and lets its write pump close the socket
// after draining anything already queued.
func (h *Hub) Disconnect(id model.ConnectionID) {
	h.Unregister(id)
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) encode(event model.EventType, payload any) ([]byte, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode event payload",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return nil, false
	}
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("encode event envelope",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return nil, false
	}
	return msg, true
}

func (h *Hub) enqueue(client *Client, msg []byte, event model.EventType) {
	select {
	case client.send <- msg:
	default:
		h.logger.Warn("message dropped - client buffer full",
			slog.String("connection", string(client.id)),
			slog.String("event", string(event)))
	}
}
