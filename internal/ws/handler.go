package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/services/session"
)

type joinGameRequest struct {
	PlayerCode model.PlayerCode  `json:"playerCode"`
	Name       string            `json:"playerName"`
	Profession *model.Profession `json:"profession"`
}

type playerActionRequest struct {
	PlayerCode model.PlayerCode `json:"playerCode"`
	Action     model.ActionKind `json:"action"`
	Details    json.RawMessage  `json:"details"`
}

// adminResponseRequest carries the facilitator's verdict. A rejection
// reason, when given, rides inside the details object.
type adminResponseRequest struct {
	ActionID model.ActionID `json:"actionId"`
	Approved bool           `json:"approved"`
	Details  struct {
		Reason string `json:"reason"`
	} `json:"details"`
}

type getPlayerDataRequest struct {
	PlayerCode model.PlayerCode `json:"playerCode"`
}

// Handler accepts websocket connections and dispatches their events to the
// session coordinator.
type Handler struct {
	hub         *Hub
	coordinator *session.Coordinator
	logger      *slog.Logger
}

// NewHandler creates a websocket handler
func NewHandler(hub *Hub, coordinator *session.Coordinator, logger *slog.Logger) *Handler {
	return &Handler{
		hub:         hub,
		coordinator: coordinator,
		logger:      logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}

	connID := model.ConnectionID(uuid.NewString())
	client := NewClient(connID, conn)
	h.hub.Register(client)
	// The pump must outlive the request context so queued messages still
	// drain after the read loop returns
	go client.writePump(context.Background())

	defer func() {
		wasFacilitator := h.hub.IsFacilitator(connID)
		h.hub.Unregister(connID)
		if !wasFacilitator {
			if err := h.coordinator.Disconnect(context.Background(), connID); err != nil {
				h.logger.Error("handle disconnect",
					slog.String("connection", string(connID)),
					slog.String("error", err.Error()))
			}
		}
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		h.dispatch(ctx, connID, data)
	}
}

func (h *Handler) dispatch(ctx context.Context, connID model.ConnectionID, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic handling event",
				slog.String("connection", string(connID)),
				slog.Any("panic", rec))
		}
	}()

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Warn("malformed envelope",
			slog.String("connection", string(connID)),
			slog.String("error", err.Error()))
		return
	}

	var err error
	switch env.Event {
	case model.EventJoinGame:
		var req joinGameRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			_, err = h.coordinator.JoinGame(ctx, connID, req.PlayerCode, req.Name, req.Profession)
		}

	case model.EventAdminJoin:
		// A repeated admin-join would re-send the full snapshots
		if !h.hub.MarkFacilitator(connID) {
			return
		}
		err = h.coordinator.AdminJoin(ctx, connID)

	case model.EventPlayerAction:
		var req playerActionRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			var details model.ActionDetails
			details, err = model.DecodeDetails(req.Action, req.Details)
			if err == nil {
				_, err = h.coordinator.SubmitAction(ctx, connID, req.PlayerCode, details)
			}
		}

	case model.EventAdminResponse:
		var req adminResponseRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coordinator.Decide(ctx, req.ActionID, req.Approved, req.Details.Reason)
		}

	case model.EventGetPlayerData:
		var req getPlayerDataRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coordinator.GetPlayerData(ctx, connID, req.PlayerCode)
		}

	default:
		h.logger.Warn("unknown event",
			slog.String("connection", string(connID)),
			slog.String("event", string(env.Event)))
		return
	}

	if err != nil {
		h.logger.Error("handle event",
			slog.String("connection", string(connID)),
			slog.String("event", string(env.Event)),
			slog.String("error", err.Error()))
	}
}
