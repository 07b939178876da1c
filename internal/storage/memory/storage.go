package memory

import (
	"context"
	"sync"

	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/storage"
)

// Storage is an in-memory implementation of the storage interface. It is
// the default backend: state is volatile and scoped to process lifetime.
// Records are cloned on both save and read so callers never share memory
// with the store or with each other.
type Storage struct {
	mu sync.RWMutex

	players map[model.PlayerCode]*model.Player
	actions map[model.ActionID]*model.PendingAction
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[model.PlayerCode]*model.Player),
		actions: make(map[model.ActionID]*model.PendingAction),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.Code] = player.Clone()
	return nil
}

func (s *Storage) SavePlayers(ctx context.Context, players ...*model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		s.players[p.Code] = p.Clone()
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, code model.PlayerCode) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[code]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) GetPlayerByConnection(ctx context.Context, connID model.ConnectionID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.ConnectionID == connID {
			return p.Clone(), nil
		}
	}
	return nil, model.ErrConnectionNotFound
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.Clone())
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, code model.PlayerCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, code)
	return nil
}

// Pending action operations

func (s *Storage) SaveAction(ctx context.Context, action *model.PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[action.ID] = action.Clone()
	return nil
}

func (s *Storage) GetAction(ctx context.Context, id model.ActionID) (*model.PendingAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	action, ok := s.actions[id]
	if !ok {
		return nil, model.ErrActionNotFound
	}
	return action.Clone(), nil
}

func (s *Storage) ListActions(ctx context.Context) ([]*model.PendingAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actions := make([]*model.PendingAction, 0, len(s.actions))
	for _, a := range s.actions {
		actions = append(actions, a.Clone())
	}
	return actions, nil
}

func (s *Storage) ListActionsByPlayer(ctx context.Context, code model.PlayerCode) ([]*model.PendingAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var actions []*model.PendingAction
	for _, a := range s.actions {
		if a.PlayerCode == code {
			actions = append(actions, a.Clone())
		}
	}
	return actions, nil
}

func (s *Storage) DeleteAction(ctx context.Context, id model.ActionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actions, id)
	return nil
}

// Clear wipes all session state

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = make(map[model.PlayerCode]*model.Player)
	s.actions = make(map[model.ActionID]*model.PendingAction)
	return nil
}
