package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
	"bounty-tracker/internal/valuation"
)

const defaultLeaderboardSize = 10

// RankingService handles ranking and leaderboard operations.
type RankingService struct {
	users UserStore
	size  int
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(users UserStore, cfg config.AchievementsConfig) *RankingService {
	size := cfg.LeaderboardSize
	if size <= 0 {
		size = defaultLeaderboardSize
	}
	return &RankingService{users: users, size: size}
}

func (s *RankingService) limit(limit int) int {
	if limit <= 0 {
		return s.size
	}
	return limit
}

// TopHunters retrieves the top users by total points.
func (s *RankingService) TopHunters(ctx context.Context, limit int) ([]*model.User, error) {
	return s.users.TopByPoints(ctx, s.limit(limit))
}

// TopKillers retrieves the top users by kill count, ties broken by id.
func (s *RankingService) TopKillers(ctx context.Context, limit int) ([]*model.User, error) {
	users, err := s.users.TopKillers(ctx, s.limit(limit))
	if err != nil {
		return nil, err
	}
	// Re-sort so the order holds even if the store ignores the tiebreak.
	return valuation.SortByKills(users), nil
}

// LeaderboardRank returns the user's 1-based points rank. Unknown users and
// store failures rank at achievement.UnrankedPosition.
func (s *RankingService) LeaderboardRank(ctx context.Context, userID uuid.UUID) int {
	rank, err := s.users.LeaderboardRank(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to get leaderboard rank")
		}
		return achievement.UnrankedPosition
	}
	return rank
}
