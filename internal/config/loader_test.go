package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/mcoot/soddle/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StorageType, convey.ShouldEqual, config.StorageMemory)
				convey.So(cfg.LedgerType, convey.ShouldEqual, config.LedgerMemory)
				convey.So(cfg.BaseScore, convey.ShouldEqual, 1000)
				convey.So(cfg.RatePerSecond, convey.ShouldEqual, 5.0)
				convey.So(cfg.PenaltyPerGuess, convey.ShouldEqual, 50)
				convey.So(cfg.LedgerMaxAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.LedgerBackoffStep, convey.ShouldEqual, time.Second)
				convey.So(cfg.LedgerTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.LedgerAttemptTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.RotationInterval, convey.ShouldEqual, 24*time.Hour)
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.ArchiveOnStageComplete, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SODDLE_ADDR", ":9090")
			_ = os.Setenv("SODDLE_SCORE_RATE_PER_SECOND", "2.5")
			_ = os.Setenv("SODDLE_LEDGER_BACKOFF_STEP", "250ms")
			_ = os.Setenv("SODDLE_LEDGER_ATTEMPT_TIMEOUT", "2s")
			_ = os.Setenv("SODDLE_ARCHIVE_ON_STAGE_COMPLETE", "true")
			_ = os.Setenv("SODDLE_LEADERBOARD_LIMIT", "10")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.RatePerSecond, convey.ShouldEqual, 2.5)
				convey.So(cfg.LedgerBackoffStep, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.LedgerAttemptTimeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.ArchiveOnStageComplete, convey.ShouldBeTrue)
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, `
addr: ":7070"
storage_type: redis
redis_url: redis://cache:6379
ledger_type: rpc
ledger_url: http://ledger:8899
leaderboard_timezone: UTC
`)
			_ = os.Setenv("SODDLE_CONFIG", path)
			_ = os.Setenv("SODDLE_REDIS_URL", "redis://override:6379")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StorageType, convey.ShouldEqual, config.StorageRedis)
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://override:6379")
				convey.So(cfg.LedgerURL, convey.ShouldEqual, "http://ledger:8899")
				convey.So(cfg.LedgerMaxAttempts, convey.ShouldEqual, 3)

				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc, convey.ShouldEqual, time.UTC)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("SODDLE_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SODDLE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the rpc ledger has no url", func() {
			_ = os.Setenv("SODDLE_LEDGER_TYPE", "rpc")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ledger_url")
			})
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("It should be valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("It should reject impossible values", func() {
			cases := []func(c *config.Config){
				func(c *config.Config) { c.Addr = "" },
				func(c *config.Config) { c.LogLevel = "verbose" },
				func(c *config.Config) { c.StorageType = "postgres" },
				func(c *config.Config) { c.MaxCommitAttempts = 0 },
				func(c *config.Config) { c.BaseScore = 0 },
				func(c *config.Config) { c.RatePerSecond = -1 },
				func(c *config.Config) { c.LedgerType = "chain" },
				func(c *config.Config) { c.LedgerMaxAttempts = 0 },
				func(c *config.Config) { c.LedgerAttemptTimeout = 0 },
				func(c *config.Config) { c.LedgerAttemptTimeout = time.Minute },
				func(c *config.Config) { c.RotationInterval = 0 },
				func(c *config.Config) { c.LeaderboardLimit = 0 },
				func(c *config.Config) { c.LeaderboardTimezone = "Nowhere/Atlantis" },
			}
			for _, mutate := range cases {
				c := config.New()
				mutate(c)
				convey.So(errors.Is(c.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("It should allow disabled rotation without intervals", func() {
			cfg.RotationEnabled = false
			cfg.RotationInterval = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "soddle.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}
