// Package api exposes the HTTP surface: facilitator management routes,
// the player roster, and the websocket endpoint.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cashflowgame/server/internal/api/handler"
	apimiddleware "github.com/cashflowgame/server/internal/api/middleware"
	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/middleware"
	"github.com/cashflowgame/server/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *session.Coordinator
	Clock       clock.Clock
	AdminToken  string
	// WSHandler serves the websocket endpoint. It is mounted outside the
	// HTTP middleware chain because the upgrade needs the raw writer.
	WSHandler http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.Coordinator)
	adminHandler := handler.NewAdminHandler(cfg.Coordinator)
	healthHandler := handler.NewHealthHandler(cfg.Clock)

	adminAuth := apimiddleware.AdminAuth(cfg.AdminToken)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player-facing routes
	api.HandleFunc("/player/generate-code", playerHandler.GenerateCode).Methods(http.MethodPost)
	api.HandleFunc("/players/list", playerHandler.ListSummaries).Methods(http.MethodGet)

	// Facilitator routes
	protected := api.NewRoute().Subrouter()
	protected.Use(adminAuth)
	protected.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/player/{playerCode}", playerHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/player/{playerCode}", playerHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/admin/clear-all-data", adminHandler.ClearAll).Methods(http.MethodPost)

	r.Handle("/health", healthHandler).Methods(http.MethodGet)

	if cfg.WSHandler != nil {
		r.Handle("/ws", cfg.WSHandler)
	}

	return r
}
