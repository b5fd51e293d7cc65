// Package sweeper periodically removes expired sessions and invites. It is a
// backstop for the inline expiry checks in package auth, sharing their
// ExpiryPolicy so both agree on what "expired" means.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/pkg/util"
	"github.com/robfig/cron/v3"
)

const DefaultInterval = 10 * time.Minute

// Store is the subset of database.Store a sweep cycle needs.
type Store interface {
	DeleteSessionsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeletePendingUsersInvitedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Result counts the rows removed by one cycle.
type Result struct {
	Sessions int64 `json:"sessions"`
	Invites  int64 `json:"invites"`
}

type Sweeper struct {
	store    Store
	policy   auth.ExpiryPolicy
	logger   *slog.Logger
	now      func() time.Time
	interval time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithInterval sets the period between cycles; values under a second are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d >= time.Second {
			s.interval = d
		}
	}
}

func New(store Store, policy auth.ExpiryPolicy, logger *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		policy:   policy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Sweep runs one cycle. Both deletions are attempted even if the first fails.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var (
		res  Result
		errs []error
	)
	now := s.now()

	sessions, err := s.store.DeleteSessionsCreatedBefore(ctx, s.policy.SessionCutoff(now))
	if err != nil {
		errs = append(errs, fmt.Errorf("deleting expired sessions: %w", err))
	}
	res.Sessions = sessions

	invites, err := s.store.DeletePendingUsersInvitedBefore(ctx, s.policy.InviteCutoff(now))
	if err != nil {
		errs = append(errs, fmt.Errorf("deleting expired invites: %w", err))
	}
	res.Invites = invites

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("expiry sweep failed",
			"sessions_deleted", res.Sessions,
			"invites_deleted", res.Invites,
			"error", err,
		)
		return res, err
	}

	s.logger.Info("expiry sweep completed",
		"sessions_deleted", res.Sessions,
		"invites_deleted", res.Invites,
	)
	return res, nil
}

// Start runs a cycle immediately, then schedules one every interval. A cycle
// still running when the next is due causes that run to be skipped.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("sweeper already started")
	}

	spec := util.EverySpec(s.interval)
	schedule, err := util.ParseCronSchedule(spec)
	if err != nil {
		return err
	}

	logger := util.CronLogger(s.logger)
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(schedule, cron.FuncJob(func() {
		s.cycle(ctx)
	}))

	s.cycle(ctx)

	c.Start()
	s.cron = c

	s.logger.Info("sweeper started", "interval", s.interval, "schedule", spec)
	return nil
}

func (s *Sweeper) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// errors are logged by Sweep
	_, _ = s.Sweep(ctx)

	next, err := util.NextRunTime(util.EverySpec(s.interval), s.now())
	if err != nil {
		s.logger.Warn("failed to compute next sweep", "error", err)
		return
	}
	s.logger.Info("next expiry sweep scheduled", "next_run", next.Format(time.RFC3339))
}

// Stop halts scheduling and waits for a running cycle to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
		s.logger.Info("sweeper stopped")
	case <-ctx.Done():
		s.logger.Warn("sweeper stop timed out", "error", ctx.Err())
	}
}
