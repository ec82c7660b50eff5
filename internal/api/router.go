package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/soddle/internal/api/handler"
	"github.com/mcoot/soddle/internal/api/middleware"
	"github.com/mcoot/soddle/internal/api/response"
	"github.com/mcoot/soddle/internal/metrics"
	"github.com/mcoot/soddle/internal/services/catalog"
	"github.com/mcoot/soddle/internal/services/leaderboard"
	"github.com/mcoot/soddle/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            *metrics.Manager
	SessionController  *session.Controller
	CatalogService     *catalog.Service
	LeaderboardService *leaderboard.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.CatalogService)
	playerHandler := handler.NewPlayerHandler(cfg.SessionController)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardService)
	profileHandler := handler.NewProfileHandler(cfg.CatalogService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, cfg.Metrics))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Metrics(cfg.Metrics))

	// Session routes
	api.HandleFunc("/sessions", sessionHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/players/{public_key}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{public_key}/session", sessionHandler.GetActive).Methods(http.MethodGet)
	api.HandleFunc("/players/{public_key}/guesses", sessionHandler.Guess).Methods(http.MethodPost)

	// Read-only routes
	api.HandleFunc("/leaderboard", leaderboardHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/profiles", profileHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", profileHandler.Get).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.CatalogService)).Methods(http.MethodGet)

	// Prometheus scrape endpoint
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	return r
}

// healthHandler reports ready once the profile catalog is loaded; without it
// no session can be started
func healthHandler(profiles *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !profiles.IsLoaded() {
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: response.HealthDegraded})
			return
		}
		response.JSON(w, http.StatusOK, response.Health{Status: response.HealthOK, Profiles: profiles.Count()})
	}
}
