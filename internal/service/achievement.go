package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
	"bounty-tracker/internal/pkg/lock"
)

const defaultTopAchievements = 3

// AchievementService runs the award cycle and serves achievement reads.
type AchievementService struct {
	users        UserStore
	achievements AchievementStore
	engine       *achievement.Engine
	locks        *lock.UserLock
	lockTimeout  time.Duration
}

// NewAchievementService creates a new AchievementService instance.
// A nil engine uses the default rules and a nil lock set gets its own.
func NewAchievementService(
	users UserStore,
	achievements AchievementStore,
	engine *achievement.Engine,
	locks *lock.UserLock,
	cfg config.AchievementsConfig,
) *AchievementService {
	if engine == nil {
		engine = achievement.NewEngine(nil)
	}
	if locks == nil {
		locks = lock.NewUserLock()
	}
	return &AchievementService{
		users:        users,
		achievements: achievements,
		engine:       engine,
		locks:        locks,
		lockTimeout:  cfg.LockTimeout,
	}
}

// SeedCatalog inserts any built-in achievements missing from the store.
func (s *AchievementService) SeedCatalog(ctx context.Context) (int, error) {
	n, err := s.achievements.SeedCatalog(ctx, achievement.SeedCatalog)
	if err != nil {
		return n, fmt.Errorf("failed to seed achievement catalog: %w", err)
	}
	log.Info().Int("inserted", n).Int("catalog", len(achievement.SeedCatalog)).Msg("Achievement catalog seeded")
	return n, nil
}

// CheckAndAward evaluates ev for its user and grants every newly qualifying
// achievement. It returns the names actually awarded. Failures are logged
// and never returned, so callers can fire events without guarding them.
func (s *AchievementService) CheckAndAward(ctx context.Context, ev achievement.Event) []string {
	if ev == nil {
		return nil
	}
	userID := ev.User()

	var awarded []string
	err := s.locks.WithLockTimeout(ctx, userID, s.lockTimeout, func() error {
		awarded = s.awardLocked(ctx, ev)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).
			Str("user_id", userID.String()).
			Str("event", string(ev.Kind())).
			Msg("Achievement check skipped")
		return nil
	}
	return awarded
}

func (s *AchievementService) awardLocked(ctx context.Context, ev achievement.Event) []string {
	userID := ev.User()
	logger := log.With().Str("user_id", userID.String()).Str("event", string(ev.Kind())).Logger()

	stats, err := s.users.GetStats(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load user stats for achievements")
		return nil
	}
	catalog, err := s.achievements.ListCatalog(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load achievement catalog")
		return nil
	}
	earnedIDs, err := s.achievements.EarnedIDs(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load earned achievements")
		return nil
	}

	qualifying := s.engine.Evaluate(ev, stats, catalog, achievement.NewEarnedSet(earnedIDs...))

	var awarded []string
	for _, a := range qualifying {
		ok, err := s.achievements.Award(ctx, userID, a)
		if err != nil {
			logger.Warn().Err(err).Str("achievement", a.Name).Msg("Failed to award achievement")
			continue
		}
		if !ok {
			continue
		}
		awarded = append(awarded, a.Name)
		logger.Info().
			Str("achievement", a.Name).
			Str("rarity", string(a.Rarity)).
			Int64("points_reward", a.PointsReward).
			Msg("Achievement awarded")
	}
	return awarded
}

// Progress summarizes what a user has earned against the full catalog.
type Progress struct {
	Earned      []*model.UserAchievement
	Available   []*model.Achievement
	EarnedCount int
	TotalCount  int
	ByRarity    map[model.Rarity]int
}

// Progress returns the user's earned achievements, what is still available
// and the earned count per rarity.
func (s *AchievementService) Progress(ctx context.Context, userID uuid.UUID) (*Progress, error) {
	earned, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned achievements: %w", err)
	}
	catalog, err := s.achievements.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement catalog: %w", err)
	}

	p := &Progress{
		Earned:      earned,
		EarnedCount: len(earned),
		TotalCount:  len(catalog),
		ByRarity:    make(map[model.Rarity]int, len(model.Rarities())),
	}
	for _, r := range model.Rarities() {
		p.ByRarity[r] = 0
	}

	earnedSet := achievement.NewEarnedSet()
	for _, ua := range earned {
		earnedSet[ua.AchievementID] = struct{}{}
		if ua.Achievement != nil {
			p.ByRarity[ua.Achievement.Rarity]++
		}
	}
	for _, a := range catalog {
		if !earnedSet.Has(a.ID) {
			p.Available = append(p.Available, a)
		}
	}
	return p, nil
}

// Recent returns the latest awards across all users.
func (s *AchievementService) Recent(ctx context.Context, limit int) ([]*model.UserAchievement, error) {
	recent, err := s.achievements.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent achievements: %w", err)
	}
	return recent, nil
}

// Top returns the user's most recent achievements, rarest first.
// limit <= 0 returns three.
func (s *AchievementService) Top(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Achievement, error) {
	if limit <= 0 {
		limit = defaultTopAchievements
	}
	earned, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get top achievements: %w", err)
	}

	top := make([]*model.Achievement, 0, limit)
	for _, ua := range earned {
		if len(top) == limit {
			break
		}
		if ua.Achievement != nil {
			top = append(top, ua.Achievement)
		}
	}
	achievement.SortByRarityDesc(top)
	return top, nil
}
