package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
	"bounty-tracker/internal/pkg/lock"
)

const defaultMaxActiveHunts = 3

// HuntService handles hunters joining and leaving bounties.
type HuntService struct {
	bounties  BountyStore
	hunters   HunterStore
	users     UserStore
	values    ValueInvalidator
	awards    Awarder
	locks     *lock.UserLock
	maxActive int
}

// NewHuntService creates a new HuntService instance. values and awards may be nil.
func NewHuntService(
	bounties BountyStore,
	hunters HunterStore,
	users UserStore,
	values ValueInvalidator,
	awards Awarder,
	cfg config.BountyConfig,
) *HuntService {
	maxActive := cfg.MaxActiveHunts
	if maxActive < 1 {
		maxActive = defaultMaxActiveHunts
	}
	return &HuntService{
		bounties:  bounties,
		hunters:   hunters,
		users:     users,
		values:    values,
		awards:    awards,
		locks:     lock.NewUserLock(),
		maxActive: maxActive,
	}
}

// JoinResult is the outcome of a successful join.
type JoinResult struct {
	Participation *model.HunterParticipation
	Achievements  []string
}

// Join adds the hunter to an active bounty. A hunter may be on at most
// the configured number of active bounties at once.
func (s *HuntService) Join(ctx context.Context, bountyID, hunterID uuid.UUID) (*JoinResult, error) {
	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if bounty.Status != model.BountyActive {
		return nil, ErrBountyNotActive
	}

	var participation *model.HunterParticipation
	// Serialize joins per hunter so the limit check and insert cannot interleave.
	err = s.locks.WithLock(hunterID, func() error {
		hunting, err := s.hunters.IsHunting(ctx, bountyID, hunterID)
		if err != nil {
			return fmt.Errorf("failed to check hunt: %w", err)
		}
		if hunting {
			return ErrAlreadyHunting
		}

		active, err := s.hunters.CountActiveForHunter(ctx, hunterID)
		if err != nil {
			return fmt.Errorf("failed to count active hunts: %w", err)
		}
		if active >= s.maxActive {
			return ErrHuntLimitReached
		}

		participation, err = s.hunters.Join(ctx, bountyID, hunterID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.values != nil {
		s.values.Invalidate(bounty.TargetGamertag)
	}

	result := &JoinResult{Participation: participation}

	total, err := s.users.IncrementCounter(ctx, hunterID, model.CounterHuntsJoined, 1)
	if err != nil {
		log.Warn().Err(err).Str("hunter_id", hunterID.String()).Msg("Failed to count joined hunt")
		return result, nil
	}

	log.Info().
		Str("bounty_id", bountyID.String()).
		Str("hunter_id", hunterID.String()).
		Int64("hunts_joined", total).
		Msg("Hunter joined bounty")

	if s.awards != nil {
		result.Achievements = s.awards.CheckAndAward(ctx, achievement.HuntJoined{
			UserID:           hunterID,
			TotalHuntsJoined: total,
		})
	}
	return result, nil
}

// Leave removes the hunter from a bounty.
func (s *HuntService) Leave(ctx context.Context, bountyID, hunterID uuid.UUID) error {
	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if err := s.hunters.Leave(ctx, bountyID, hunterID); err != nil {
		return err
	}
	if s.values != nil {
		s.values.Invalidate(bounty.TargetGamertag)
	}
	log.Info().Str("bounty_id", bountyID.String()).Str("hunter_id", hunterID.String()).Msg("Hunter left bounty")
	return nil
}

// HunterCount returns how many hunters are on the bounty.
func (s *HuntService) HunterCount(ctx context.Context, bountyID uuid.UUID) (int, error) {
	return s.hunters.CountForBounty(ctx, bountyID)
}

// IsHunting reports whether the hunter is on the bounty.
func (s *HuntService) IsHunting(ctx context.Context, bountyID, hunterID uuid.UUID) (bool, error) {
	return s.hunters.IsHunting(ctx, bountyID, hunterID)
}

// ActiveHunts returns the active bounties the hunter is on.
func (s *HuntService) ActiveHunts(ctx context.Context, hunterID uuid.UUID) ([]*model.Bounty, error) {
	return s.hunters.ActiveHunts(ctx, hunterID)
}

// CanJoin reports whether the hunter has room for another active hunt.
func (s *HuntService) CanJoin(ctx context.Context, hunterID uuid.UUID) (bool, error) {
	active, err := s.hunters.CountActiveForHunter(ctx, hunterID)
	if err != nil {
		return false, err
	}
	return active < s.maxActive, nil
}

