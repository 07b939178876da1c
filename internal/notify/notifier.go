// Package notify abstracts outbound event delivery so the session layer
// never touches connection plumbing directly.
package notify

import "github.com/cashflowgame/server/internal/model"

// Notifier delivers events to connected clients. Delivery is best-effort:
// a slow or gone connection never blocks the caller.
type Notifier interface {
	// ToFacilitator broadcasts to every facilitator connection.
	ToFacilitator(event model.EventType, payload any)
	// ToPlayer sends to one player connection. It reports false when the
	// connection is not currently registered, so the caller can flag the
	// update as pending instead.
	ToPlayer(conn model.ConnectionID, event model.EventType, payload any) bool
	// Broadcast sends to every connection, players and facilitators alike.
	Broadcast(event model.EventType, payload any)
	// Disconnect closes one player connection after delivery of anything
	// already queued for it.
	Disconnect(conn model.ConnectionID)
}

// Nop discards every event. Used where delivery is irrelevant.
type Nop struct{}

func (Nop) ToFacilitator(model.EventType, any) {}

func (Nop) ToPlayer(model.ConnectionID, model.EventType, any) bool { return false }

func (Nop) Broadcast(model.EventType, any) {}

func (Nop) Disconnect(model.ConnectionID) {}
