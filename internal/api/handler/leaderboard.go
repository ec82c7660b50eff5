package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/soddle/internal/api/response"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/leaderboard"
)

// LeaderboardHandler serves ranked players
type LeaderboardHandler struct {
	service *leaderboard.Service
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
	}
}

// Get handles GET /api/v1/leaderboard?window=&stage=
// window defaults to daily and stage to 1.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window := model.WindowDaily
	if raw := q.Get("window"); raw != "" {
		parsed, err := model.ParseWindow(raw)
		if err != nil {
			WriteError(w, err)
			return
		}
		window = parsed
	}

	stage := model.StageOne
	if raw := q.Get("stage"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, model.ErrInvalidStage)
			return
		}
		stage, err = model.ParseStage(n)
		if err != nil {
			WriteError(w, err)
			return
		}
	}

	entries, err := h.service.GetLeaderboard(r.Context(), window, stage)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(window, stage, entries))
}
