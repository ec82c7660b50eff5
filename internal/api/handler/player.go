package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/soddle/internal/api/response"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/session"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	controller *session.Controller
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(controller *session.Controller) *PlayerHandler {
	return &PlayerHandler{
		controller: controller,
	}
}

// Get handles GET /api/v1/players/{public_key}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["public_key"])

	player, err := h.controller.GetPlayer(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Live(w, http.StatusOK, response.PlayerFromModel(player))
}
