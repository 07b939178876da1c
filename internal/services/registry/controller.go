package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/services/finance"
	"github.com/cashflowgame/server/internal/storage"
)

// DisconnectRetention is how long a disconnected player is kept before the
// sweep reclaims the record.
const DisconnectRetention = 30 * time.Minute

// JoinResult is what UpsertOnJoin reports back to the caller so it can push
// the right notifications.
type JoinResult struct {
	Player *model.Player
	// Reconnected is true when the code already mapped to a player
	Reconnected bool
	// HadPendingUpdates is true when state changed while the player was
	// offline; the flag has already been cleared on the stored record
	HadPendingUpdates bool
}

// AdminPatch is the set of fields a facilitator may overwrite directly.
// Nil fields are left untouched.
type AdminPatch struct {
	Name        *string
	Profession  *model.Profession
	Money       *float64
	Assets      []model.Asset
	Liabilities []model.Liability
	Children    *int
}

// Controller owns the player registry: identity, financial state and
// connection lifecycle.
type Controller struct {
	storage storage.Storage
	finance *finance.Service
	clock   clock.Clock
	logger  *slog.Logger
}

// NewController creates a registry controller
func NewController(store storage.Storage, fin *finance.Service, clk clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		storage: store,
		finance: fin,
		clock:   clk,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// UpsertOnJoin creates a player on first join or reattaches a returning
// one. Name and profession are first-write-wins: a later join cannot
// overwrite an established identity. The baseline is always recomputed and
// the full current player is returned for the snapshot push.
func (c *Controller) UpsertOnJoin(ctx context.Context, code model.PlayerCode, name string, profession *model.Profession, connID model.ConnectionID) (JoinResult, error) {
	player, err := c.storage.GetPlayer(ctx, code)
	if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return JoinResult{}, err
	}

	if player == nil {
		player = &model.Player{
			ConnectionID: connID,
			Code:         code,
			Name:         name,
			Profession:   profession,
			Money:        0,
			Assets:       []model.Asset{},
			Liabilities:  []model.Liability{},
			Connected:    true,
		}
		c.finance.RecomputeBaseline(player)
		if err := c.storage.SavePlayer(ctx, player); err != nil {
			return JoinResult{}, err
		}
		c.logger.Info("player joined", slog.String("player", string(code)))
		return JoinResult{Player: player}, nil
	}

	player.ConnectionID = connID
	player.Connected = true
	if name != "" && player.Name == "" {
		player.Name = name
	}
	if profession != nil && player.Profession == nil {
		player.Profession = profession
	}
	c.finance.RecomputeBaseline(player)

	hadPending := player.HasPendingUpdates
	player.HasPendingUpdates = false

	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return JoinResult{}, err
	}
	c.logger.Info("player reconnected",
		slog.String("player", string(code)),
		slog.Bool("pendingUpdates", hadPending))
	return JoinResult{Player: player, Reconnected: true, HadPendingUpdates: hadPending}, nil
}

// MarkDisconnected flags the player holding the connection as offline and
// starts the reclamation clock. The record is never deleted here.
func (c *Controller) MarkDisconnected(ctx context.Context, connID model.ConnectionID) (*model.Player, error) {
	player, err := c.storage.GetPlayerByConnection(ctx, connID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	player.Connected = false
	player.LastDisconnected = &now
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	c.logger.Info("player disconnected", slog.String("player", string(player.Code)))
	return player, nil
}

// ApplyAdminOverwrite merges a facilitator edit into the player and
// recomputes the baseline. The caller is responsible for delivery; when the
// player has no live connection it should call FlagPendingUpdate.
func (c *Controller) ApplyAdminOverwrite(ctx context.Context, code model.PlayerCode, patch AdminPatch) (*model.Player, error) {
	player, err := c.storage.GetPlayer(ctx, code)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		player.Name = *patch.Name
	}
	if patch.Profession != nil {
		player.Profession = patch.Profession
	}
	if patch.Money != nil {
		player.Money = *patch.Money
	}
	if patch.Assets != nil {
		player.Assets = patch.Assets
	}
	if patch.Liabilities != nil {
		player.Liabilities = patch.Liabilities
	}
	if patch.Children != nil {
		player.Children = *patch.Children
	}

	c.finance.RecomputeBaseline(player)
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	c.logger.Info("admin overwrote player", slog.String("player", string(code)))
	return player, nil
}

// FlagPendingUpdate records that a state change could not be delivered, so
// a full snapshot is resent on the next reconnect.
func (c *Controller) FlagPendingUpdate(ctx context.Context, code model.PlayerCode) error {
	player, err := c.storage.GetPlayer(ctx, code)
	if err != nil {
		return err
	}
	player.HasPendingUpdates = true
	return c.storage.SavePlayer(ctx, player)
}

// Get returns the player for a code.
func (c *Controller) Get(ctx context.Context, code model.PlayerCode) (*model.Player, error) {
	return c.storage.GetPlayer(ctx, code)
}

// List returns all players.
func (c *Controller) List(ctx context.Context) ([]*model.Player, error) {
	return c.storage.ListPlayers(ctx)
}

// Remove hard-deletes a player. Connection teardown and notifications are
// the caller's job.
func (c *Controller) Remove(ctx context.Context, code model.PlayerCode) (*model.Player, error) {
	player, err := c.storage.GetPlayer(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := c.storage.DeletePlayer(ctx, code); err != nil {
		return nil, err
	}
	c.logger.Info("player removed", slog.String("player", string(code)))
	return player, nil
}

// ReclaimNameless deletes players that never completed a join (no name).
// Run once at startup.
func (c *Controller) ReclaimNameless(ctx context.Context) (int, error) {
	players, err := c.storage.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range players {
		if p.Name == "" {
			if err := c.storage.DeletePlayer(ctx, p.Code); err != nil {
				return removed, err
			}
			c.logger.Info("reclaimed nameless player", slog.String("player", string(p.Code)))
			removed++
		}
	}
	return removed, nil
}

// ReclaimDisconnected deletes players that have been offline longer than
// the retention window. Advisory cleanup; losing a long-idle record is
// tolerated.
func (c *Controller) ReclaimDisconnected(ctx context.Context, now time.Time) (int, error) {
	players, err := c.storage.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range players {
		if p.Connected || p.LastDisconnected == nil {
			continue
		}
		if now.Sub(*p.LastDisconnected) > DisconnectRetention {
			if err := c.storage.DeletePlayer(ctx, p.Code); err != nil {
				return removed, err
			}
			c.logger.Info("reclaimed disconnected player", slog.String("player", string(p.Code)))
			removed++
		}
	}
	return removed, nil
}
