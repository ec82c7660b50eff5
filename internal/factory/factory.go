package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/soddle/internal/config"
	"github.com/mcoot/soddle/internal/dependencies/clock"
	"github.com/mcoot/soddle/internal/dependencies/ids"
	"github.com/mcoot/soddle/internal/dependencies/random"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/catalog"
	"github.com/mcoot/soddle/internal/services/leaderboard"
	"github.com/mcoot/soddle/internal/services/ledger"
	"github.com/mcoot/soddle/internal/services/rotation"
	"github.com/mcoot/soddle/internal/services/scoring"
	"github.com/mcoot/soddle/internal/services/session"
	"github.com/mcoot/soddle/internal/storage"
	"github.com/mcoot/soddle/internal/storage/memory"
	redisstorage "github.com/mcoot/soddle/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
)

// Ledger type constants
const (
	LedgerTypeMemory = config.LedgerMemory
	LedgerTypeRPC    = config.LedgerRPC
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator
	Ledger ledger.Client

	// Observability
	Metrics *metrics.Manager
	Logger  *slog.Logger

	// Services
	CatalogService     *catalog.Service
	ScoringService     *scoring.Service
	Anchor             *ledger.Anchor
	SessionController  *session.Controller
	LeaderboardService *leaderboard.Service
	RotationScheduler  *rotation.Scheduler
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
	// MaxCommitAttempts bounds unit of work retries (optional)
	MaxCommitAttempts int

	// LedgerType selects the ledger client ("memory" or "rpc")
	// If empty, defaults to "memory"
	LedgerType string
	// LedgerURL is the JSON-RPC gateway (required if LedgerType is "rpc")
	LedgerURL string
	// LedgerConfig tunes anchoring; zero value means ledger.DefaultConfig()
	LedgerConfig ledger.Config

	// ScoringPolicy; zero value means scoring.DefaultPolicy()
	ScoringPolicy scoring.Policy
	// SessionOptions tunes the session lifecycle
	SessionOptions session.Options
	// LeaderboardConfig; zero value means leaderboard.DefaultConfig()
	LeaderboardConfig leaderboard.Config
	// RotationInterval is the competition length (optional)
	RotationInterval time.Duration
}

// FromConfig translates loaded settings into a factory Config
func FromConfig(cfg *config.Config, logger *slog.Logger) (Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Config{}, err
	}

	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = cfg.RedisURL
	redisCfg.PoolSize = cfg.RedisPoolSize
	redisCfg.MaxAttempts = cfg.MaxCommitAttempts

	return Config{
		Logger:            logger,
		StorageType:       cfg.StorageType,
		RedisConfig:       &redisCfg,
		MaxCommitAttempts: cfg.MaxCommitAttempts,
		LedgerType:        cfg.LedgerType,
		LedgerURL:         cfg.LedgerURL,
		LedgerConfig: ledger.Config{
			ProgramID:          cfg.LedgerProgramID,
			MaxAttempts:        cfg.LedgerMaxAttempts,
			BackoffStep:        cfg.LedgerBackoffStep,
			SubmitTimeout:      cfg.LedgerTimeout,
			AttemptTimeout:     cfg.LedgerAttemptTimeout,
			CompetitionRefresh: cfg.LedgerCompetitionRefresh,
		},
		ScoringPolicy: scoring.Policy{
			BaseScore:       cfg.BaseScore,
			RatePerSecond:   cfg.RatePerSecond,
			PenaltyPerGuess: cfg.PenaltyPerGuess,
		},
		SessionOptions: session.Options{
			ArchiveOnStageComplete: cfg.ArchiveOnStageComplete,
		},
		LeaderboardConfig: leaderboard.Config{
			Limit:    cfg.LeaderboardLimit,
			Location: loc,
		},
		RotationInterval: cfg.RotationInterval,
	}, nil
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		opts := []memory.Option{memory.WithClock(clk)}
		if cfg.MaxCommitAttempts > 0 {
			opts = append(opts, memory.WithMaxAttempts(cfg.MaxCommitAttempts))
		}
		store = memory.New(opts...)
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

	// Create ledger client based on type
	ledgerCfg := cfg.LedgerConfig
	if ledgerCfg == (ledger.Config{}) {
		ledgerCfg = ledger.DefaultConfig()
	}
	if ledgerCfg.AttemptTimeout <= 0 {
		ledgerCfg.AttemptTimeout = ledger.DefaultConfig().AttemptTimeout
	}

	var client ledger.Client
	ledgerType := cfg.LedgerType
	if ledgerType == "" {
		ledgerType = LedgerTypeMemory
	}

	switch ledgerType {
	case LedgerTypeMemory:
		client = ledger.NewMemoryClient(initialCompetition(clk.Now(), cfg.RotationInterval))
	case LedgerTypeRPC:
		if cfg.LedgerURL == "" {
			return nil, errors.New("LedgerURL required when LedgerType is rpc")
		}
		client = ledger.NewRPCClient(cfg.LedgerURL, ledgerCfg.AttemptTimeout)
	default:
		return nil, errors.New("invalid LedgerType: must be 'memory' or 'rpc'")
	}

	return newWithDependencies(store, client, clk, random.New(), ids.New(), metrics.NewManager(), ledgerCfg, cfg, logger), nil
}

// initialCompetition is the competition an in-memory ledger starts with
func initialCompetition(now time.Time, interval time.Duration) model.Competition {
	if interval <= 0 {
		interval = rotation.DefaultInterval
	}
	start := now.UTC().Truncate(interval)
	return model.Competition{
		ID:        ledger.CompetitionID(start),
		StartTime: start,
		EndTime:   start.Add(interval),
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	client ledger.Client,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	mgr *metrics.Manager,
	ledgerCfg ledger.Config,
	cfg Config,
	logger *slog.Logger,
) *App {
	policy := cfg.ScoringPolicy
	if policy == (scoring.Policy{}) {
		policy = scoring.DefaultPolicy()
	}
	lbCfg := cfg.LeaderboardConfig
	if lbCfg == (leaderboard.Config{}) {
		lbCfg = leaderboard.DefaultConfig()
	}

	// Create services
	catalogService := catalog.New(rnd)
	scoringService := scoring.New(policy)
	anchor := ledger.NewAnchor(client, ledgerCfg, clk, mgr, logger)
	sessionController := session.NewController(store, scoringService, anchor, clk, idGen, mgr, logger, cfg.SessionOptions)
	leaderboardService := leaderboard.New(store, clk, lbCfg, logger)
	rotationScheduler := rotation.NewScheduler(anchor, store, clk, cfg.RotationInterval, mgr, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		IDs:                idGen,
		Ledger:             client,
		Metrics:            mgr,
		Logger:             logger,
		CatalogService:     catalogService,
		ScoringService:     scoringService,
		Anchor:             anchor,
		SessionController:  sessionController,
		LeaderboardService: leaderboardService,
		RotationScheduler:  rotationScheduler,
	}
}
