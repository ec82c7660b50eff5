package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/soddle/internal/dependencies/mocks"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/ledger"
	"github.com/mcoot/soddle/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDs
	MockLedger *ledger.MemoryClient
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(Config{})
}

// NewTestAppWithConfig is NewTestApp with lifecycle and scoring settings from cfg.
// Storage and ledger settings in cfg are ignored.
func NewTestAppWithConfig(cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs("session")
	mockLedger := ledger.NewMemoryClient(initialCompetition(mockClock.Now(), cfg.RotationInterval))
	store := memory.New(memory.WithClock(mockClock), memory.WithMaxAttempts(100))

	ledgerCfg := ledger.DefaultConfig()
	ledgerCfg.BackoffStep = time.Millisecond

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	app := newWithDependencies(store, mockLedger, mockClock, mockRandom, mockIDs, metrics.NewManager(), ledgerCfg, cfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
		MockLedger: mockLedger,
	}
}

// TestProfiles is the small catalog LoadTestProfiles installs
var TestProfiles = []model.Profile{
	{ID: "ansem", Name: "Ansem", Age: 29, Country: "USA", PfpType: "human", AccountCreation: 1546300800, Followers: 750_000, Ecosystem: "Solana"},
	{ID: "cobie", Name: "Cobie", Age: 33, Country: "UK", PfpType: "cartoon", AccountCreation: 1262304000, Followers: 750_000, Ecosystem: "Ethereum"},
	{ID: "hsaka", Name: "Hsaka", Age: 27, Country: "Singapore", PfpType: "anime", AccountCreation: 1420070400, Followers: 250_000, Ecosystem: "Multi-chain"},
	{ID: "toly", Name: "Toly", Age: 41, Country: "USA", PfpType: "human", AccountCreation: 1325376000, Followers: 2_000_000, Ecosystem: "Solana"},
}

// LoadTestProfiles loads a small profile catalog for testing
func (t *TestApp) LoadTestProfiles() error {
	return t.CatalogService.LoadProfiles(TestProfiles)
}
