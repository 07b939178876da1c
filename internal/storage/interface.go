package storage

import (
	"context"

	"github.com/cashflowgame/server/internal/model"
)

// Storage defines the interface for session state. All state is scoped to
// one authoritative process; implementations must make each call atomic so
// a multi-record write (e.g. both sides of a transfer) is never observed
// half-applied.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	// SavePlayers persists several players as one atomic write
	SavePlayers(ctx context.Context, players ...*model.Player) error
	GetPlayer(ctx context.Context, code model.PlayerCode) (*model.Player, error)
	// GetPlayerByConnection scans for the player holding the given
	// connection reference; connection refs are not indexed
	GetPlayerByConnection(ctx context.Context, connID model.ConnectionID) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, code model.PlayerCode) error

	// Pending action operations
	SaveAction(ctx context.Context, action *model.PendingAction) error
	GetAction(ctx context.Context, id model.ActionID) (*model.PendingAction, error)
	ListActions(ctx context.Context) ([]*model.PendingAction, error)
	ListActionsByPlayer(ctx context.Context, code model.PlayerCode) ([]*model.PendingAction, error)
	DeleteAction(ctx context.Context, id model.ActionID) error

	// Clear wipes all players and pending actions
	Clear(ctx context.Context) error
}
