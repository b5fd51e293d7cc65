package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/tasks"
)

// dedupeWindow keeps repeated admin requests from piling up sweep tasks.
const dedupeWindow = time.Minute

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type AdminHandler struct {
	queue   Enqueuer
	sweeper tasks.Sweeper
}

// NewAdminHandler hands sweeps to the worker when queue is set and runs them
// in-process otherwise.
func NewAdminHandler(queue Enqueuer, sweeper tasks.Sweeper) *AdminHandler {
	return &AdminHandler{queue: queue, sweeper: sweeper}
}

func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		res, err := h.sweeper.Sweep(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	task, err := tasks.NewExpirySweepTask("admin", dedupeWindow)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	info, err := h.queue.EnqueueContext(r.Context(), task)
	switch {
	case errors.Is(err, asynq.ErrDuplicateTask):
		writeJSON(w, http.StatusAccepted, dto.SweepQueuedResponse{Message: "Sweep already queued"})
	case err != nil:
		writeServiceError(w, r, err)
	default:
		writeJSON(w, http.StatusAccepted, dto.SweepQueuedResponse{TaskID: info.ID, Message: "Sweep queued"})
	}
}
