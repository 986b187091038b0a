package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nekogravitycat/car-rental-backend/internal/booking"
)

// Sweeper cancels reservations whose start has passed without a pickup.
type Sweeper interface {
	SweepMissed(ctx context.Context, now time.Time) (int, error)
}

// Config controls how often the sweep runs and how long one run may take.
type Config struct {
	Schedule string        // cron expression or descriptor, e.g. "@every 60s"
	Timeout  time.Duration // per run
}

// Scheduler runs the missed-reservation sweep on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	clock   booking.Clock
	timeout time.Duration
	log     *zap.Logger

	// base is cancelled when Stop gives up waiting for a running sweep.
	base   context.Context
	cancel context.CancelFunc
}

// New creates a scheduler and registers the sweep job. It does not start it.
func New(cfg Config, sweeper Sweeper, clock booking.Clock, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = booking.SystemClock{}
	}
	log = log.Named("scheduler")
	cl := cronLogger{log: log.Sugar()}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		// Recover runs inside SkipIfStillRunning so a panic still frees the slot.
		cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
	)

	base, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		clock:   clock,
		timeout: cfg.Timeout,
		log:     log,
		base:    base,
		cancel:  cancel,
	}

	if _, err := c.AddFunc(cfg.Schedule, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("register sweep job %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.log.Info("starting scheduler")
	s.cron.Start()
}

// Stop halts new runs and waits for a running sweep to finish, or for ctx
// to end, whichever comes first. A sweep still running at that point is
// cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("stopping scheduler")
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running sweep: %w", ctx.Err())
	}
}

// RunOnce performs a single sweep immediately and returns how many
// reservations were cancelled.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := s.sweeper.SweepMissed(ctx, s.clock.Now())
	if err != nil {
		return n, fmt.Errorf("sweep missed reservations: %w", err)
	}
	s.log.Debug("sweep finished",
		zap.Int("cancelled", n),
		zap.Duration("took", time.Since(start)),
	)
	return n, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunOnce(s.base); err != nil {
		s.log.Error("sweep failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
