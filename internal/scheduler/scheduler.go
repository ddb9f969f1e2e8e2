// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
)

const expireJobName = "expire-bounties"

// Expirer closes bounties whose expiry has passed.
type Expirer interface {
	ExpireDue(ctx context.Context) ([]*model.Bounty, error)
}

// Scheduler owns the gocron scheduler and the jobs registered on it.
type Scheduler struct {
	sched    gocron.Scheduler
	expirer  Expirer
	interval time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler running the expiry sweep every cfg.ExpireInterval.
func New(expirer Expirer, cfg config.SchedulerConfig) (*Scheduler, error) {
	if expirer == nil {
		return nil, fmt.Errorf("scheduler requires an expirer")
	}
	if cfg.ExpireInterval <= 0 {
		return nil, fmt.Errorf("expire interval must be positive, got %s", cfg.ExpireInterval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		sched:    sched,
		expirer:  expirer,
		interval: cfg.ExpireInterval,
		ctx:      context.Background(),
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.ExpireInterval),
		gocron.NewTask(s.expireTask),
		gocron.WithName(expireJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register %s job: %w", expireJobName, err)
	}
	return s, nil
}

// Start begins running jobs. Jobs stop receiving a live context once ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.sched.Start()
	log.Info().Str("job", expireJobName).Dur("interval", s.interval).Msg("Scheduler started")
}

// Stop cancels running jobs and waits for the scheduler to shut down.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	log.Info().Msg("Scheduler stopped")
	return nil
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) expireTask() {
	if _, err := s.ExpireNow(s.jobContext()); err != nil {
		log.Error().Err(err).Str("job", expireJobName).Msg("Scheduled job failed")
	}
}

// ExpireNow runs one expiry sweep and returns how many bounties it closed.
func (s *Scheduler) ExpireNow(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	expired, err := s.expirer.ExpireDue(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to expire bounties: %w", err)
	}
	for _, b := range expired {
		log.Debug().
			Str("bounty_id", b.ID.String()).
			Str("target", b.TargetGamertag).
			Time("expires_at", b.ExpiresAt).
			Msg("Bounty expired")
	}
	return len(expired), nil
}
