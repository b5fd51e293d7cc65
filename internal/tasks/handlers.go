package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-invite/internal/sweeper"
)

// Sweeper runs one expiry cycle.
type Sweeper interface {
	Sweep(ctx context.Context) (sweeper.Result, error)
}

type Handler struct {
	sweeper Sweeper
	logger  *slog.Logger
}

func NewHandler(s Sweeper, logger *slog.Logger) *Handler {
	return &Handler{
		sweeper: s,
		logger:  logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeExpirySweep, h.HandleExpirySweep)
}

func (h *Handler) HandleExpirySweep(ctx context.Context, t *asynq.Task) error {
	payload := ExpirySweepPayload{Trigger: "scheduler"}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}

	h.logger.Info("starting expiry sweep", "trigger", payload.Trigger)

	res, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}

	h.logger.Info("expiry sweep task completed",
		"trigger", payload.Trigger,
		"sessions_deleted", res.Sessions,
		"invites_deleted", res.Invites,
	)
	return nil
}
