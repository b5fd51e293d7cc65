package handlers

import (
	"net/http"

	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/api/middleware"
	"github.com/hugh/go-invite/internal/auth"
)

type ProfileHandler struct {
	profiles *auth.ProfileService
}

func NewProfileHandler(profiles *auth.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.Profile(r.Context(), middleware.TokenFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewUserDTO(user))
}

// Update applies a partial profile edit and returns the resulting profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token := middleware.TokenFromRequest(r)
	if err := h.profiles.Edit(r.Context(), token, req.Input()); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.profiles.Profile(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewUserDTO(user))
}
