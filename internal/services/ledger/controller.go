package ledger

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/dependencies/random"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/storage"
)

// ActionRetention is how long an undecided action survives before the
// sweep reclaims it. Safety net against orphaned facilitator sessions.
const ActionRetention = time.Hour

// Controller owns the pending-action ledger.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a ledger controller
func NewController(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: store,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "ledger")),
	}
}

// Submit records a new pending action, or returns the existing entry when
// an equivalent one (same player, kind and structurally equal details) is
// already pending. Duplicate resubmission is an idempotent re-ack, not an
// error.
func (c *Controller) Submit(ctx context.Context, playerCode model.PlayerCode, details model.ActionDetails) (*model.PendingAction, bool, error) {
	existing, err := c.storage.ListActionsByPlayer(ctx, playerCode)
	if err != nil {
		return nil, false, err
	}
	for _, a := range existing {
		if a.Status != model.StatusPending || a.Action != details.Kind() {
			continue
		}
		if reflect.DeepEqual(a.Details, details) {
			c.logger.Info("duplicate action submission",
				slog.String("player", string(playerCode)),
				slog.String("action", string(a.Action)),
				slog.String("id", string(a.ID)))
			return a, true, nil
		}
	}

	action := &model.PendingAction{
		ID:         model.ActionID(c.random.ID()),
		PlayerCode: playerCode,
		Action:     details.Kind(),
		Details:    details,
		Status:     model.StatusPending,
		Timestamp:  c.clock.Now(),
	}
	if err := c.storage.SaveAction(ctx, action); err != nil {
		return nil, false, err
	}
	c.logger.Info("action submitted",
		slog.String("player", string(playerCode)),
		slog.String("action", string(action.Action)),
		slog.String("id", string(action.ID)))
	return action, false, nil
}

// Retire removes an entry unconditionally. The decision outcome is not
// retained; callers needing an audit trail must record it first.
func (c *Controller) Retire(ctx context.Context, id model.ActionID) error {
	return c.storage.DeleteAction(ctx, id)
}

// ListAll returns a snapshot of every pending action.
func (c *Controller) ListAll(ctx context.Context) ([]*model.PendingAction, error) {
	return c.storage.ListActions(ctx)
}

// ListByPlayer returns a snapshot of one player's pending actions.
func (c *Controller) ListByPlayer(ctx context.Context, code model.PlayerCode) ([]*model.PendingAction, error) {
	return c.storage.ListActionsByPlayer(ctx, code)
}

// ReclaimStale deletes entries older than the retention window regardless
// of status.
func (c *Controller) ReclaimStale(ctx context.Context, now time.Time) (int, error) {
	actions, err := c.storage.ListActions(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, a := range actions {
		if now.Sub(a.Timestamp) > ActionRetention {
			if err := c.storage.DeleteAction(ctx, a.ID); err != nil {
				return removed, err
			}
			c.logger.Info("reclaimed stale action", slog.String("id", string(a.ID)))
			removed++
		}
	}
	return removed, nil
}
