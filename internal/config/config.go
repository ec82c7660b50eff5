// Package config defines the server's settings and how they are loaded.
//
// Settings are layered, lowest precedence first: built-in defaults, an
// optional YAML file named by SODDLE_CONFIG, then SODDLE_* environment
// variables. Keys are flat, so SODDLE_LEDGER_URL sets ledger_url.
package config

import (
	"fmt"
	"slices"
	"time"
)

// Backend names
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"

	LedgerMemory = "memory"
	LedgerRPC    = "rpc"
)

// Config contains process configuration
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogPath is the JSON file secret profiles are loaded from.
	CatalogPath string `koanf:"catalog_path"`

	// Storage
	StorageType       string `koanf:"storage_type"`
	RedisURL          string `koanf:"redis_url"`
	RedisPoolSize     int    `koanf:"redis_pool_size"`
	MaxCommitAttempts int    `koanf:"max_commit_attempts"`

	// ArchiveOnStageComplete retires a session once either stage is solved.
	ArchiveOnStageComplete bool `koanf:"archive_on_stage_complete"`

	// Scoring
	BaseScore       int     `koanf:"score_base"`
	RatePerSecond   float64 `koanf:"score_rate_per_second"`
	PenaltyPerGuess int     `koanf:"score_penalty_per_guess"`

	// Ledger
	LedgerType               string        `koanf:"ledger_type"`
	LedgerURL                string        `koanf:"ledger_url"`
	LedgerProgramID          string        `koanf:"ledger_program_id"`
	LedgerTimeout            time.Duration `koanf:"ledger_timeout"`
	LedgerAttemptTimeout     time.Duration `koanf:"ledger_attempt_timeout"`
	LedgerMaxAttempts        int           `koanf:"ledger_max_attempts"`
	LedgerBackoffStep        time.Duration `koanf:"ledger_backoff_step"`
	LedgerCompetitionRefresh time.Duration `koanf:"ledger_competition_refresh"`

	// Rotation
	RotationEnabled    bool          `koanf:"rotation_enabled"`
	RotationInterval   time.Duration `koanf:"rotation_interval"`
	RotationCheckEvery time.Duration `koanf:"rotation_check_every"`

	// Leaderboard
	LeaderboardLimit    int    `koanf:"leaderboard_limit"`
	LeaderboardTimezone string `koanf:"leaderboard_timezone"`
}

// New returns a Config populated with defaults
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":8080",
		CatalogPath: "data/profiles.json",

		StorageType:       StorageMemory,
		RedisURL:          "redis://localhost:6379",
		RedisPoolSize:     10,
		MaxCommitAttempts: 5,

		BaseScore:       1000,
		RatePerSecond:   5,
		PenaltyPerGuess: 50,

		LedgerType:               LedgerMemory,
		LedgerProgramID:          "soddle",
		LedgerTimeout:            30 * time.Second,
		LedgerAttemptTimeout:     5 * time.Second,
		LedgerMaxAttempts:        3,
		LedgerBackoffStep:        time.Second,
		LedgerCompetitionRefresh: time.Minute,

		RotationEnabled:    true,
		RotationInterval:   24 * time.Hour,
		RotationCheckEvery: time.Minute,

		LeaderboardLimit:    100,
		LeaderboardTimezone: "Local",
	}
}

// Location resolves LeaderboardTimezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.LeaderboardTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: leaderboard_timezone: %w", ErrInvalidConfig, err)
	}
	return loc, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel):
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	case c.StorageType != StorageMemory && c.StorageType != StorageRedis:
		return fmt.Errorf("%w: storage_type must be %q or %q", ErrInvalidConfig, StorageMemory, StorageRedis)
	case c.StorageType == StorageRedis && c.RedisURL == "":
		return fmt.Errorf("%w: redis_url is required for redis storage", ErrInvalidConfig)
	case c.MaxCommitAttempts < 1:
		return fmt.Errorf("%w: max_commit_attempts must be positive", ErrInvalidConfig)
	case c.BaseScore <= 0:
		return fmt.Errorf("%w: score_base must be positive", ErrInvalidConfig)
	case c.RatePerSecond < 0 || c.PenaltyPerGuess < 0:
		return fmt.Errorf("%w: scoring penalties must not be negative", ErrInvalidConfig)
	case c.LedgerType != LedgerMemory && c.LedgerType != LedgerRPC:
		return fmt.Errorf("%w: ledger_type must be %q or %q", ErrInvalidConfig, LedgerMemory, LedgerRPC)
	case c.LedgerType == LedgerRPC && c.LedgerURL == "":
		return fmt.Errorf("%w: ledger_url is required for the rpc ledger", ErrInvalidConfig)
	case c.LedgerMaxAttempts < 1:
		return fmt.Errorf("%w: ledger_max_attempts must be positive", ErrInvalidConfig)
	case c.LedgerBackoffStep < 0 || c.LedgerTimeout <= 0 || c.LedgerAttemptTimeout <= 0:
		return fmt.Errorf("%w: ledger timings must be positive", ErrInvalidConfig)
	case c.LedgerAttemptTimeout > c.LedgerTimeout:
		return fmt.Errorf("%w: ledger_attempt_timeout must not exceed ledger_timeout", ErrInvalidConfig)
	case c.RotationEnabled && (c.RotationInterval <= 0 || c.RotationCheckEvery <= 0):
		return fmt.Errorf("%w: rotation intervals must be positive", ErrInvalidConfig)
	case c.LeaderboardLimit < 1:
		return fmt.Errorf("%w: leaderboard_limit must be positive", ErrInvalidConfig)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
