package model

import "time"

// EventType identifies a wire event. Names and payload field names are part
// of the client protocol and must not change.
type EventType string

// Client -> server events
const (
	EventJoinGame      EventType = "join-game"
	EventAdminJoin     EventType = "admin-join"
	EventPlayerAction  EventType = "player-action"
	EventAdminResponse EventType = "admin-response"
	EventGetPlayerData EventType = "get-player-data"
)

// Server -> client events
const (
	EventJoinedGame         EventType = "joined-game"
	EventAdminJoined        EventType = "admin-joined"
	EventActionSubmitted    EventType = "action-submitted"
	EventActionRequest      EventType = "action-request"
	EventActionResult       EventType = "action-result"
	EventActionProcessed    EventType = "action-processed"
	EventPlayerJoined       EventType = "player-joined"
	EventPlayerDisconnected EventType = "player-disconnected"
	EventPlayerRemoved      EventType = "player-removed"
	EventCurrentPlayers     EventType = "current-players"
	EventPendingActions     EventType = "pending-actions"
	EventPlayerUpdated      EventType = "player-updated"
	EventPlayerDataUpdated  EventType = "player-data-updated"
	EventPendingUpdates     EventType = "pending-updates-notification"
	EventMoneyReceived      EventType = "money-received"
	EventGameReset          EventType = "game-reset"
)

// JoinedGamePayload acknowledges a join-game request.
type JoinedGamePayload struct {
	PlayerCode PlayerCode `json:"playerCode"`
	Status     string     `json:"status"`
}

// AdminJoinedPayload acknowledges a facilitator joining.
type AdminJoinedPayload struct {
	Status string `json:"status"`
}

// ActionSubmittedPayload echoes a submission back to the requesting player.
// ActionID is set only when the submission matched an existing pending
// entry; a fresh submission is acked with the status alone.
type ActionSubmittedPayload struct {
	Status   string   `json:"status"`
	ActionID ActionID `json:"actionId,omitempty"`
}

// ActionResultPayload reports a decision outcome to the player. Details is
// kind-specific and, for approved transfers, enriched with transfer fields.
type ActionResultPayload struct {
	Action   ActionKind `json:"action"`
	Approved bool       `json:"approved"`
	Details  any        `json:"details,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// TransferResultDetails is the enriched details payload for an approved
// transfer-money result.
type TransferResultDetails struct {
	TransferMoneyDetails
	TransferSuccess bool   `json:"transferSuccess"`
	RecipientName   string `json:"recipientName"`
}

// The action-request event carries the stored PendingAction itself, and
// current-players/pending-actions carry bare arrays of players and pending
// actions; none of the three wraps its data in a payload struct.

// ActionProcessedPayload acknowledges a decision to the facilitator channel.
type ActionProcessedPayload struct {
	ActionID   ActionID   `json:"actionId"`
	PlayerCode PlayerCode `json:"playerCode"`
	Action     ActionKind `json:"action"`
	Approved   bool       `json:"approved"`
}

// PlayerJoinedPayload notifies the facilitator channel of a new player.
type PlayerJoinedPayload struct {
	PlayerCode PlayerCode  `json:"playerCode"`
	PlayerName string      `json:"playerName"`
	Profession *Profession `json:"profession"`
	Timestamp  time.Time   `json:"timestamp"`
}

// PlayerDisconnectedPayload notifies the facilitator channel of a dropped
// connection.
type PlayerDisconnectedPayload struct {
	PlayerCode PlayerCode `json:"playerCode"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PlayerRemovedPayload is sent to a removed player (Reason set) and to the
// facilitator channel (PlayerCode and Timestamp set).
type PlayerRemovedPayload struct {
	PlayerCode PlayerCode `json:"playerCode,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// PlayerUpdatedPayload notifies the facilitator channel of any state change
// to one player.
type PlayerUpdatedPayload struct {
	PlayerCode PlayerCode `json:"playerCode"`
	Player     *Player    `json:"player"`
}

// PlayerDataUpdatedPayload carries a full snapshot to the player it
// describes. Sent on join, reconnect, and admin overwrite.
type PlayerDataUpdatedPayload struct {
	Player *Player `json:"player"`
}

// PendingUpdatesPayload tells a reconnecting player that state changed
// while they were offline.
type PendingUpdatesPayload struct {
	Message string `json:"message"`
}

// MoneyReceivedPayload notifies a transfer recipient.
type MoneyReceivedPayload struct {
	Amount     float64 `json:"amount"`
	FromPlayer string  `json:"fromPlayer"`
	Reason     string  `json:"reason"`
}

// GameResetPayload announces a full session wipe.
type GameResetPayload struct {
	Reason    string     `json:"reason,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Message   string     `json:"message,omitempty"`
}
