package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/api/middleware"
	"github.com/hugh/go-invite/internal/auth"
)

type InviteHandler struct {
	invites *auth.InviteService
}

func NewInviteHandler(invites *auth.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// Issue creates a pending user. Only administrators reach this handler.
func (h *InviteHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.invites.Issue(r.Context(), req.Input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "invite issued via api",
		"issued_by", middleware.GetSubject(r.Context()),
		"expires_at", resp.ExpiresAt,
	)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *InviteHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req dto.RedeemInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.invites.Redeem(r.Context(), auth.RedeemInput{
		InviteCode: req.InviteCode,
		Password:   req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SuccessResponse{Message: "Account activated"})
}
