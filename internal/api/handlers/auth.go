package handlers

import (
	"net/http"
	"time"

	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/api/middleware"
	"github.com/hugh/go-invite/internal/auth"
)

type AuthHandler struct {
	sessions      *auth.SessionService
	sessionLife   time.Duration
	secureCookies bool
}

func NewAuthHandler(sessions *auth.SessionService, sessionLife time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		sessions:      sessions,
		sessionLife:   sessionLife,
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.sessions.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Set cookie for browser clients
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionLife.Seconds()),
	})
	if _, err := middleware.SetCSRFCookie(w, h.secureCookies, h.sessionLife); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	middleware.ClearCSRFCookie(w)

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}
