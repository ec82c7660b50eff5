package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/soddle/internal/api/request"
	"github.com/mcoot/soddle/internal/api/response"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/catalog"
	"github.com/mcoot/soddle/internal/services/session"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	controller *session.Controller
	catalog    *catalog.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, catalog *catalog.Service) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		catalog:    catalog,
	}
}

// Start handles POST /api/v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req request.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.PublicKey == "" {
		WriteError(w, NewInvalidRequestError("public_key is required"))
		return
	}
	stage, err := model.ParseStage(req.Stage)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Only used if a new session is created
	profile, err := h.catalog.Random()
	if err != nil {
		WriteError(w, err)
		return
	}

	s, err := h.controller.StartSession(r.Context(), model.PlayerID(req.PublicKey), stage, profile)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Live(w, http.StatusCreated, response.SessionFromModel(s))
}

// GetActive handles GET /api/v1/players/{public_key}/session
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["public_key"])

	s, err := h.controller.GetActiveSession(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Live(w, http.StatusOK, response.SessionFromModel(s))
}

// Guess handles POST /api/v1/players/{public_key}/guesses
func (h *SessionHandler) Guess(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["public_key"])

	var req request.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	stage, err := model.ParseStage(req.Stage)
	if err != nil {
		WriteError(w, err)
		return
	}

	var guess model.Profile
	switch {
	case req.ProfileID != "":
		guess, err = h.catalog.Get(model.ProfileID(req.ProfileID))
		if err != nil {
			WriteError(w, err)
			return
		}
	case req.Guess != nil:
		guess = req.Guess.ToModel()
	default:
		WriteError(w, model.ErrInvalidGuess)
		return
	}

	s, err := h.controller.SubmitGuess(r.Context(), playerID, stage, guess)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Live(w, http.StatusOK, response.SessionFromModel(s))
}
