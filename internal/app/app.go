// Package app wires repositories, services and background jobs together.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/config"
	"bounty-tracker/internal/pkg/db"
	"bounty-tracker/internal/pkg/lock"
	"bounty-tracker/internal/repository"
	"bounty-tracker/internal/scheduler"
	"bounty-tracker/internal/service"
)

// App holds every long-lived component of the process.
type App struct {
	cfg       *config.Config
	pool      *db.Pool
	scheduler *scheduler.Scheduler

	Users *repository.UserRepository

	Valuation    *service.ValuationService
	Achievements *service.AchievementService
	Bounties     *service.BountyService
	Hunts        *service.HuntService
	Claims       *service.ClaimService
	Rankings     *service.RankingService
}

// New connects to the database, applies migrations and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool.Pool); err != nil {
		pool.Close()
		return nil, err
	}

	a, err := Wire(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// Wire builds the application on an already migrated pool.
func Wire(cfg *config.Config, pool *db.Pool) (*App, error) {
	users := repository.NewUserRepository(pool.Pool)
	bounties := repository.NewBountyRepository(pool.Pool)
	hunters := repository.NewHunterRepository(pool.Pool)
	claims := repository.NewClaimRepository(pool.Pool)
	achievements := repository.NewAchievementRepository(pool.Pool)

	// One lock set for every award cycle in the process.
	userLock := lock.NewUserLock()

	a := &App{cfg: cfg, pool: pool, Users: users}
	a.Achievements = service.NewAchievementService(users, achievements, nil, userLock, cfg.Achievements)
	a.Valuation = service.NewValuationService(bounties, hunters, users, cfg.Valuation)
	a.Bounties = service.NewBountyService(bounties, users, a.Valuation, a.Achievements, cfg.Bounty)
	a.Hunts = service.NewHuntService(bounties, hunters, users, a.Valuation, a.Achievements, cfg.Bounty)
	a.Claims = service.NewClaimService(claims, bounties, hunters, users, a.Valuation, a.Achievements)
	a.Rankings = service.NewRankingService(users, cfg.Achievements)

	sched, err := scheduler.New(a.Bounties, cfg.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	a.scheduler = sched

	log.Info().
		Int("max_active_hunts", cfg.Bounty.MaxActiveHunts).
		Dur("valuation_cache_ttl", cfg.Valuation.CacheTTL).
		Dur("expire_interval", cfg.Scheduler.ExpireInterval).
		Msg("Services initialized")
	return a, nil
}

// Start seeds the catalog when configured, starts the scheduler and runs
// one expiry sweep so bounties that lapsed while the process was down close.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Achievements.SeedCatalog {
		if _, err := a.Achievements.SeedCatalog(ctx); err != nil {
			return err
		}
	}

	a.scheduler.Start(ctx)

	if _, err := a.scheduler.ExpireNow(ctx); err != nil {
		log.Error().Err(err).Msg("Initial expiry sweep failed")
	}
	return nil
}

// HealthCheck reports whether the database is reachable.
func (a *App) HealthCheck(ctx context.Context) error {
	return a.pool.HealthCheck(ctx)
}

// Stop shuts the scheduler down and closes the pool.
func (a *App) Stop() {
	if err := a.scheduler.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop scheduler")
	}
	a.pool.Close()
}
