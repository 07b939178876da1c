package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/dependencies/random"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/notify"
	"github.com/cashflowgame/server/internal/services/actions"
	"github.com/cashflowgame/server/internal/services/ledger"
	"github.com/cashflowgame/server/internal/services/registry"
	"github.com/cashflowgame/server/internal/storage"
)

// Coordinator ties the registry, ledger and action processor together and
// owns every outbound notification. Transport layers (websocket, HTTP admin
// API) call into it and never talk to the controllers directly.
//
// Every mutating operation runs as one critical section under mu, so a
// read-modify-write against the registry or ledger can never interleave
// with another handler's. Read-only operations take the read side.
type Coordinator struct {
	mu sync.RWMutex

	storage   storage.Storage
	registry  *registry.Controller
	ledger    *ledger.Controller
	processor *actions.Processor
	notifier  notify.Notifier
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// NewCoordinator creates a session coordinator
func NewCoordinator(
	store storage.Storage,
	reg *registry.Controller,
	led *ledger.Controller,
	proc *actions.Processor,
	notifier notify.Notifier,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		storage:   store,
		registry:  reg,
		ledger:    led,
		processor: proc,
		notifier:  notifier,
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "session")),
	}
}

// JoinGame registers or reattaches a player and pushes the join
// notifications: an ack and a full snapshot to the player, and a roster
// update to the facilitator channel.
func (c *Coordinator) JoinGame(ctx context.Context, connID model.ConnectionID, code model.PlayerCode, name string, profession *model.Profession) (*model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.registry.UpsertOnJoin(ctx, code, name, profession, connID)
	if err != nil {
		return nil, err
	}
	player := result.Player

	c.notifier.ToPlayer(connID, model.EventJoinedGame, model.JoinedGamePayload{
		PlayerCode: player.Code,
		Status:     "success",
	})
	c.notifier.ToPlayer(connID, model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{
		Player: player,
	})
	if result.HadPendingUpdates {
		c.notifier.ToPlayer(connID, model.EventPendingUpdates, model.PendingUpdatesPayload{
			Message: "Your data was updated while you were away",
		})
	}

	if result.Reconnected {
		c.notifier.ToFacilitator(model.EventPlayerUpdated, model.PlayerUpdatedPayload{
			PlayerCode: player.Code,
			Player:     player,
		})
	} else {
		c.notifier.ToFacilitator(model.EventPlayerJoined, model.PlayerJoinedPayload{
			PlayerCode: player.Code,
			PlayerName: player.Name,
			Profession: player.Profession,
			Timestamp:  c.clock.Now(),
		})
	}
	return player, nil
}

// AdminJoin acks a facilitator connection and hands it the current roster
// and the undecided action backlog. An empty backlog is not announced.
func (c *Coordinator) AdminJoin(ctx context.Context, connID model.ConnectionID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	players, err := c.registry.List(ctx)
	if err != nil {
		return err
	}
	pending, err := c.ledger.ListAll(ctx)
	if err != nil {
		return err
	}

	c.notifier.ToPlayer(connID, model.EventAdminJoined, model.AdminJoinedPayload{Status: "success"})
	c.notifier.ToPlayer(connID, model.EventCurrentPlayers, players)
	if len(pending) > 0 {
		c.notifier.ToPlayer(connID, model.EventPendingActions, pending)
	}
	c.logger.Info("facilitator joined", slog.String("connection", string(connID)))
	return nil
}

// SubmitAction records a player's proposed transaction and hands the stored
// entry to the facilitator channel to decide. A duplicate submission is
// re-acked with the existing entry's id and no second facilitator prompt.
func (c *Coordinator) SubmitAction(ctx context.Context, connID model.ConnectionID, code model.PlayerCode, details model.ActionDetails) (*model.PendingAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.registry.Get(ctx, code); err != nil {
		return nil, err
	}

	action, duplicate, err := c.ledger.Submit(ctx, code, details)
	if err != nil {
		return nil, err
	}

	if duplicate {
		c.notifier.ToPlayer(connID, model.EventActionSubmitted, model.ActionSubmittedPayload{
			Status:   "pending",
			ActionID: action.ID,
		})
		return action, nil
	}

	c.notifier.ToPlayer(connID, model.EventActionSubmitted, model.ActionSubmittedPayload{
		Status: "pending",
	})
	c.notifier.ToFacilitator(model.EventActionRequest, action)
	return action, nil
}

// Decide settles one pending action with the facilitator's verdict. An
// approval runs the processor; a validation no-op inside the processor
// downgrades the outcome to unapplied. Either way the entry is retired and
// both sides are told what happened.
func (c *Coordinator) Decide(ctx context.Context, actionID model.ActionID, approved bool, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	action, err := c.storage.GetAction(ctx, actionID)
	if err != nil {
		return err
	}
	player, err := c.registry.Get(ctx, action.PlayerCode)
	if err != nil {
		return err
	}

	result := actions.Result{}
	if approved {
		result, err = c.processor.Apply(ctx, player, action.Details)
		if err != nil {
			return err
		}
	}
	applied := approved && result.Applied

	playerPayload := model.ActionResultPayload{
		Action:   action.Action,
		Approved: applied,
		Details:  action.Details,
		Reason:   reason,
	}
	if !approved && reason == "" {
		playerPayload.Reason = "Action denied"
	}
	if approved && !result.Applied {
		playerPayload.Reason = result.Reason
	}
	if applied && action.Action == model.ActionTransferMoney {
		transfer := action.Details.(model.TransferMoneyDetails)
		playerPayload.Details = model.TransferResultDetails{
			TransferMoneyDetails: transfer,
			TransferSuccess:      true,
			RecipientName:        result.Recipient.DisplayName(),
		}
	}
	if !c.notifier.ToPlayer(player.ConnectionID, model.EventActionResult, playerPayload) {
		if err := c.registry.FlagPendingUpdate(ctx, player.Code); err != nil {
			return err
		}
	}

	if applied {
		c.pushPlayerState(ctx, player)
		if result.Recipient != nil {
			transfer := action.Details.(model.TransferMoneyDetails)
			c.pushPlayerState(ctx, result.Recipient)
			if !c.notifier.ToPlayer(result.Recipient.ConnectionID, model.EventMoneyReceived, model.MoneyReceivedPayload{
				Amount:     *transfer.Amount,
				FromPlayer: player.DisplayName(),
				Reason:     transfer.Reason,
			}) {
				if err := c.registry.FlagPendingUpdate(ctx, result.Recipient.Code); err != nil {
					return err
				}
			}
		}
	}

	c.notifier.ToFacilitator(model.EventActionProcessed, model.ActionProcessedPayload{
		ActionID:   action.ID,
		PlayerCode: action.PlayerCode,
		Action:     action.Action,
		Approved:   applied,
	})

	if err := c.ledger.Retire(ctx, action.ID); err != nil {
		return err
	}
	c.logger.Info("action decided",
		slog.String("id", string(action.ID)),
		slog.String("player", string(action.PlayerCode)),
		slog.String("action", string(action.Action)),
		slog.Bool("approved", applied))
	return nil
}

// GetPlayerData pushes a fresh snapshot of the requested player to the
// asking connection and mirrors it to the facilitator channel.
func (c *Coordinator) GetPlayerData(ctx context.Context, connID model.ConnectionID, code model.PlayerCode) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	player, err := c.registry.Get(ctx, code)
	if err != nil {
		return err
	}
	c.notifier.ToPlayer(connID, model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{Player: player})
	c.notifier.ToFacilitator(model.EventPlayerUpdated, model.PlayerUpdatedPayload{
		PlayerCode: player.Code,
		Player:     player,
	})
	return nil
}

// Disconnect marks the player behind a dropped connection offline and
// tells the facilitator channel. Unknown connections (facilitators, or
// players already reclaimed) are ignored.
func (c *Coordinator) Disconnect(ctx context.Context, connID model.ConnectionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.registry.MarkDisconnected(ctx, connID)
	if err != nil {
		if errors.Is(err, model.ErrConnectionNotFound) {
			return nil
		}
		return err
	}
	c.notifier.ToFacilitator(model.EventPlayerDisconnected, model.PlayerDisconnectedPayload{
		PlayerCode: player.Code,
		Timestamp:  c.clock.Now(),
	})
	return nil
}

// AdminOverwrite applies a facilitator edit and pushes the result to the
// player (or flags it pending when they are offline) and to the
// facilitator channel.
func (c *Coordinator) AdminOverwrite(ctx context.Context, code model.PlayerCode, patch registry.AdminPatch) (*model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.registry.ApplyAdminOverwrite(ctx, code, patch)
	if err != nil {
		return nil, err
	}
	c.pushPlayerState(ctx, player)
	return player, nil
}

// RemovePlayer deletes a player, tells them why, and closes their
// connection.
func (c *Coordinator) RemovePlayer(ctx context.Context, code model.PlayerCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.registry.Remove(ctx, code)
	if err != nil {
		return err
	}
	c.notifier.ToPlayer(player.ConnectionID, model.EventPlayerRemoved, model.PlayerRemovedPayload{
		Reason: "Removed by facilitator",
	})
	c.notifier.Disconnect(player.ConnectionID)

	now := c.clock.Now()
	c.notifier.ToFacilitator(model.EventPlayerRemoved, model.PlayerRemovedPayload{
		PlayerCode: player.Code,
		Timestamp:  &now,
	})
	return nil
}

// ClearAll wipes every player and pending action. Each connected player is
// told the session restarted and then disconnected; the remaining
// (facilitator) connections get the confirmation broadcast.
func (c *Coordinator) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	players, err := c.registry.List(ctx)
	if err != nil {
		return err
	}
	for _, player := range players {
		if !player.Connected {
			continue
		}
		c.notifier.ToPlayer(player.ConnectionID, model.EventGameReset, model.GameResetPayload{
			Reason: "The game session was reset by the facilitator",
		})
		c.notifier.Disconnect(player.ConnectionID)
	}

	if err := c.storage.Clear(ctx); err != nil {
		return err
	}
	now := c.clock.Now()
	c.notifier.Broadcast(model.EventGameReset, model.GameResetPayload{
		Timestamp: &now,
		Message:   "All game data cleared",
	})
	c.logger.Warn("session cleared")
	return nil
}

// ReclaimDisconnected removes players whose disconnect retention expired.
// It takes the same lock as the foreground handlers, so a sweep never
// overlaps a join or a decision.
func (c *Coordinator) ReclaimDisconnected(ctx context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.ReclaimDisconnected(ctx, now)
}

// ReclaimStale removes pending actions past their retention window under
// the same lock as the foreground handlers.
func (c *Coordinator) ReclaimStale(ctx context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.ReclaimStale(ctx, now)
}

// GeneratePlayerCode mints a short code not currently held by any player.
func (c *Coordinator) GeneratePlayerCode(ctx context.Context) (model.PlayerCode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for {
		code := model.PlayerCode(c.random.PlayerCode())
		_, err := c.registry.Get(ctx, code)
		if errors.Is(err, model.ErrPlayerNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Players returns the full roster.
func (c *Coordinator) Players(ctx context.Context) ([]*model.Player, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.List(ctx)
}

// Player returns one player by code.
func (c *Coordinator) Player(ctx context.Context, code model.PlayerCode) (*model.Player, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.Get(ctx, code)
}

// pushPlayerState delivers a fresh snapshot to the player, falling back to
// the pending-update flag when they are offline, and mirrors the change to
// the facilitator channel.
func (c *Coordinator) pushPlayerState(ctx context.Context, player *model.Player) {
	if !c.notifier.ToPlayer(player.ConnectionID, model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{Player: player}) {
		if err := c.registry.FlagPendingUpdate(ctx, player.Code); err != nil {
			c.logger.Error("flag pending update",
				slog.String("player", string(player.Code)),
				slog.String("error", err.Error()))
		}
	}
	c.notifier.ToFacilitator(model.EventPlayerUpdated, model.PlayerUpdatedPayload{
		PlayerCode: player.Code,
		Player:     player,
	})
}
