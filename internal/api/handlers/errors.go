package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

// writeServiceError maps errors from package auth onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *auth.ValidationError
		cerr *auth.ConstraintError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: verr.Fields})
	case errors.Is(err, auth.ErrMalformedOrganizations):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrPasswordRequired):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Password is required"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid token"})
	case errors.Is(err, auth.ErrInviteNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invite not found"})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{
			Error:   "Constraint violation",
			Details: map[string]string{"detail": cerr.Detail},
		})
	case errors.Is(err, auth.ErrInviteExpired):
		writeJSON(w, http.StatusGone, dto.ErrorResponse{Error: "Invite has expired"})
	case errors.Is(err, auth.ErrTokenExpired):
		writeJSON(w, http.StatusGone, dto.ErrorResponse{Error: "Token has expired"})
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
