package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeExpirySweep = "cleanup:expiry_sweep"
)

const sweepTimeout = 5 * time.Minute

// ExpirySweepPayload records who asked for the sweep; the cycle itself needs no input.
type ExpirySweepPayload struct {
	Trigger string `json:"trigger"` // "scheduler" or "admin"
}

// NewExpirySweepTask builds a sweep task. uniqueFor, when positive, stops a
// second copy from being queued while one is still pending.
func NewExpirySweepTask(trigger string, uniqueFor time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(ExpirySweepPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}

	opts := []asynq.Option{
		asynq.Queue("low"),
		asynq.MaxRetry(1),
		asynq.Timeout(sweepTimeout),
	}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	return asynq.NewTask(TypeExpirySweep, data, opts...), nil
}
