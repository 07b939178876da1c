package handler

import (
	"net/http"
	"time"

	"github.com/cashflowgame/server/internal/api/response"
	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/services/session"
)

// AdminHandler handles facilitator endpoints
type AdminHandler struct {
	coordinator *session.Coordinator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(coordinator *session.Coordinator) *AdminHandler {
	return &AdminHandler{
		coordinator: coordinator,
	}
}

// ClearAll handles POST /api/admin/clear-all-data
func (h *AdminHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.ClearAll(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ClearAllResponse{
		Status:  "success",
		Message: "All game data cleared",
	})
}

// HealthHandler reports liveness and uptime
type HealthHandler struct {
	clock clock.Clock
	start time.Time
}

// NewHealthHandler creates a health handler anchored to the current time
func NewHealthHandler(clk clock.Clock) *HealthHandler {
	return &HealthHandler{
		clock: clk,
		start: clk.Now(),
	}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	now := h.clock.Now()
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:    "healthy",
		Timestamp: now,
		Uptime:    now.Sub(h.start).Seconds(),
	})
}
