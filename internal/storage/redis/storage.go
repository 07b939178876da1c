package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface. It is
// an optional deployment mode; the memory backend remains the default and
// the redis TTLs are only a bound, not a durability promise.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	return s.SavePlayers(ctx, player)
}

func (s *Storage) SavePlayers(ctx context.Context, players ...*model.Player) error {
	// Pipeline keeps multi-player writes (transfers) atomic
	pipe := s.client.TxPipeline()
	indexKey := playerIndexKey()
	for _, p := range players {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		key := playerKey(p.Code)
		pipe.Set(ctx, key, data, s.cfg.PlayerTTL)
		pipe.SAdd(ctx, indexKey, key)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, code model.PlayerCode) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByConnection(ctx context.Context, connID model.ConnectionID) (*model.Player, error) {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if p.ConnectionID == connID {
			return p, nil
		}
	}
	return nil, model.ErrConnectionNotFound
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	keys, err := s.client.SMembers(ctx, playerIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Player{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // record may have expired
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			continue // skip invalid data
		}
		players = append(players, &player)
	}
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, code model.PlayerCode) error {
	key := playerKey(code)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, playerIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Pending action operations

func (s *Storage) SaveAction(ctx context.Context, action *model.PendingAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return err
	}

	key := actionKey(action.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.cfg.ActionTTL)
	pipe.SAdd(ctx, actionIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAction(ctx context.Context, id model.ActionID) (*model.PendingAction, error) {
	data, err := s.client.Get(ctx, actionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrActionNotFound
		}
		return nil, err
	}

	var action model.PendingAction
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

func (s *Storage) ListActions(ctx context.Context) ([]*model.PendingAction, error) {
	keys, err := s.client.SMembers(ctx, actionIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.PendingAction{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	actions := make([]*model.PendingAction, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var action model.PendingAction
		if err := json.Unmarshal([]byte(val.(string)), &action); err != nil {
			continue
		}
		actions = append(actions, &action)
	}
	return actions, nil
}

func (s *Storage) ListActionsByPlayer(ctx context.Context, code model.PlayerCode) ([]*model.PendingAction, error) {
	actions, err := s.ListActions(ctx)
	if err != nil {
		return nil, err
	}
	filtered := actions[:0]
	for _, a := range actions {
		if a.PlayerCode == code {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

func (s *Storage) DeleteAction(ctx context.Context, id model.ActionID) error {
	key := actionKey(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, actionIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Clear wipes all session state

func (s *Storage) Clear(ctx context.Context) error {
	playerKeys, err := s.client.SMembers(ctx, playerIndexKey()).Result()
	if err != nil {
		return err
	}
	actionKeys, err := s.client.SMembers(ctx, actionIndexKey()).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, key := range playerKeys {
		pipe.Del(ctx, key)
	}
	for _, key := range actionKeys {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, playerIndexKey())
	pipe.Del(ctx, actionIndexKey())
	_, err = pipe.Exec(ctx)
	return err
}
