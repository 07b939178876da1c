package redis

import (
	"fmt"

	"github.com/cashflowgame/server/internal/model"
)

// Key prefix for all session data
const keyPrefix = "cashflow"

// playerKey returns the Redis key for a Player
func playerKey(code model.PlayerCode) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, code)
}

// playerIndexKey returns the Redis key for the SET of player keys
func playerIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// actionKey returns the Redis key for a PendingAction
func actionKey(id model.ActionID) string {
	return fmt.Sprintf("%s:action:%s", keyPrefix, id)
}

// actionIndexKey returns the Redis key for the SET of action keys
func actionIndexKey() string {
	return fmt.Sprintf("%s:idx:actions", keyPrefix)
}
