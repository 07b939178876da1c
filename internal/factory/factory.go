// Package factory wires the application's components together.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/cashflowgame/server/internal/dependencies/clock"
	"github.com/cashflowgame/server/internal/dependencies/random"
	"github.com/cashflowgame/server/internal/notify"
	"github.com/cashflowgame/server/internal/services/actions"
	"github.com/cashflowgame/server/internal/services/finance"
	"github.com/cashflowgame/server/internal/services/ledger"
	"github.com/cashflowgame/server/internal/services/registry"
	"github.com/cashflowgame/server/internal/services/session"
	"github.com/cashflowgame/server/internal/storage"
	"github.com/cashflowgame/server/internal/storage/memory"
	redisstorage "github.com/cashflowgame/server/internal/storage/redis"
	"github.com/cashflowgame/server/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	FinanceService     *finance.Service
	RegistryController *registry.Controller
	LedgerController   *ledger.Controller
	ActionProcessor    *actions.Processor
	Coordinator        *session.Coordinator

	// Transport
	Hub *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()
	hub := ws.NewHub(logger)

	return newWithDependencies(store, clk, rnd, hub, hub, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, notifier notify.Notifier, hub *ws.Hub, logger *slog.Logger) *App {
	financeService := finance.New(logger)
	registryController := registry.NewController(store, financeService, clk, logger)
	ledgerController := ledger.NewController(store, clk, rnd, logger)
	processor := actions.NewProcessor(store, financeService, rnd, logger)
	coordinator := session.NewCoordinator(store, registryController, ledgerController, processor, notifier, clk, rnd, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		FinanceService:     financeService,
		RegistryController: registryController,
		LedgerController:   ledgerController,
		ActionProcessor:    processor,
		Coordinator:        coordinator,
		Hub:                hub,
	}
}
