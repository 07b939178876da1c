package sweeper

import (
	"context"
	"log/slog"

	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/services/session"
)

// DisconnectedPlayersJob reclaims players whose disconnect retention
// expired. It runs through the coordinator so the sweep serializes with
// the foreground handlers.
type DisconnectedPlayersJob struct {
	coordinator *session.Coordinator
	clock       clock.Clock
	logger      *slog.Logger
}

// NewDisconnectedPlayersJob creates the disconnected-player reclamation job
func NewDisconnectedPlayersJob(coordinator *session.Coordinator, clk clock.Clock, logger *slog.Logger) *DisconnectedPlayersJob {
	return &DisconnectedPlayersJob{coordinator: coordinator, clock: clk, logger: logger}
}

func (j *DisconnectedPlayersJob) Name() string { return "reclaim_disconnected_players" }

func (j *DisconnectedPlayersJob) Run(ctx context.Context) error {
	removed, err := j.coordinator.ReclaimDisconnected(ctx, j.clock.Now())
	if err != nil {
		return err
	}
	if removed > 0 {
		j.logger.Info("disconnected players reclaimed", slog.Int("removed", removed))
	}
	return nil
}

// StaleActionsJob reclaims pending actions past their retention window.
type StaleActionsJob struct {
	coordinator *session.Coordinator
	clock       clock.Clock
	logger      *slog.Logger
}

// NewStaleActionsJob creates the stale-action reclamation job
func NewStaleActionsJob(coordinator *session.Coordinator, clk clock.Clock, logger *slog.Logger) *StaleActionsJob {
	return &StaleActionsJob{coordinator: coordinator, clock: clk, logger: logger}
}

func (j *StaleActionsJob) Name() string { return "reclaim_stale_actions" }

func (j *StaleActionsJob) Run(ctx context.Context) error {
	removed, err := j.coordinator.ReclaimStale(ctx, j.clock.Now())
	if err != nil {
		return err
	}
	if removed > 0 {
		j.logger.Info("stale actions reclaimed", slog.Int("removed", removed))
	}
	return nil
}
