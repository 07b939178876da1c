package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cashflowgame/server/internal/api/request"
	"github.com/cashflowgame/server/internal/api/response"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/services/registry"
	"github.com/cashflowgame/server/internal/services/session"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	coordinator *session.Coordinator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(coordinator *session.Coordinator) *PlayerHandler {
	return &PlayerHandler{
		coordinator: coordinator,
	}
}

// GenerateCode handles POST /api/player/generate-code
func (h *PlayerHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.coordinator.GeneratePlayerCode(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GenerateCodeResponse{PlayerCode: code})
}

// Update handles PUT /api/player/{playerCode}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := model.PlayerCode(mux.Vars(r)["playerCode"])

	var req request.UpdatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.coordinator.AdminOverwrite(r.Context(), code, registry.AdminPatch{
		Name:        req.Name,
		Profession:  req.Profession,
		Money:       req.Money,
		Assets:      req.Assets,
		Liabilities: req.Liabilities,
		Children:    req.Children,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, player)
}

// Delete handles DELETE /api/player/{playerCode}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := model.PlayerCode(mux.Vars(r)["playerCode"])

	if err := h.coordinator.RemovePlayer(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// List handles GET /api/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.coordinator.Players(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayersResponse{Players: players})
}

// ListSummaries handles GET /api/players/list
// Only connected players with a name are visible to other players.
func (h *PlayerHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	players, err := h.coordinator.Players(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	summaries := make([]response.PlayerSummary, 0, len(players))
	for _, p := range players {
		if !p.Connected || p.Name == "" {
			continue
		}
		summaries = append(summaries, response.PlayerSummaryFromModel(p))
	}
	response.JSON(w, http.StatusOK, response.PlayerListResponse{Players: summaries})
}
