package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database/models"
	"github.com/hugh/go-invite/internal/sweeper"
	"github.com/hugh/go-invite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	res   sweeper.Result
	err   error
	calls int
}

func (s *stubSweeper) Sweep(context.Context) (sweeper.Result, error) {
	s.calls++
	return s.res, s.err
}

// TestNewHandler tests handler initialization
func TestNewHandler(t *testing.T) {
	handler := NewHandler(&stubSweeper{}, testutil.DiscardLogger())

	assert.NotNil(t, handler)
	assert.NotNil(t, handler.sweeper)
	assert.NotNil(t, handler.logger)
}

func TestNewExpirySweepTask(t *testing.T) {
	task, err := NewExpirySweepTask("admin", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, TypeExpirySweep, task.Type())

	var payload ExpirySweepPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "admin", payload.Trigger)
}

func TestHandleExpirySweep_InvalidPayload(t *testing.T) {
	stub := &stubSweeper{}
	handler := NewHandler(stub, testutil.DiscardLogger())

	task := asynq.NewTask(TypeExpirySweep, []byte("invalid json"))

	err := handler.HandleExpirySweep(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal payload")
	assert.Zero(t, stub.calls)
}

func TestHandleExpirySweep_EmptyPayload(t *testing.T) {
	stub := &stubSweeper{}
	handler := NewHandler(stub, testutil.DiscardLogger())

	// periodic tasks registered without a payload still run
	err := handler.HandleExpirySweep(context.Background(), asynq.NewTask(TypeExpirySweep, nil))
	assert.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestHandleExpirySweep_Error(t *testing.T) {
	boom := errors.New("database is locked")
	handler := NewHandler(&stubSweeper{err: boom}, testutil.DiscardLogger())

	task, err := NewExpirySweepTask("scheduler", 0)
	require.NoError(t, err)

	err = handler.HandleExpirySweep(context.Background(), task)
	assert.ErrorIs(t, err, boom)
}

func TestHandleExpirySweep_DeletesExpiredRows(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	user := testutil.CreateActiveUser(t, setup.DB, setup.Hasher, testutil.Epoch)
	testutil.CreateSession(t, setup.DB, user, testutil.Epoch)
	testutil.CreatePendingUser(t, setup.DB, testutil.Epoch)

	setup.Clock.Advance(auth.DefaultSessionLife + time.Second)

	s := sweeper.New(setup.Store, setup.Policy, setup.Logger, sweeper.WithClock(setup.Clock.Now))
	handler := NewHandler(s, setup.Logger)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	task, err := NewExpirySweepTask("scheduler", 0)
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(testutil.TestContext(t), task))

	assert.Equal(t, int64(0), testutil.CountRows(t, setup.DB, &models.Session{}))
	assert.Equal(t, int64(1), testutil.CountRows(t, setup.DB, &models.User{}))
}
