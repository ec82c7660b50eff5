package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/soddle/internal/api/response"
	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/services/catalog"
)

// ProfileHandler exposes the guessable profiles
type ProfileHandler struct {
	catalog *catalog.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(catalog *catalog.Service) *ProfileHandler {
	return &ProfileHandler{
		catalog: catalog,
	}
}

// List handles GET /api/v1/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.IsLoaded() {
		WriteError(w, model.ErrCatalogNotLoaded)
		return
	}
	response.JSON(w, http.StatusOK, response.ProfilesFromModel(h.catalog.List()))
}

// Get handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.catalog.Get(model.ProfileID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}
