package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/model"
)

const streakWindow = 24 * time.Hour

// ClaimService handles claim submission and admin review.
type ClaimService struct {
	claims   ClaimStore
	bounties BountyStore
	hunters  HunterStore
	users    UserStore
	values   ValueInvalidator
	awards   Awarder
	now      func() time.Time
}

// NewClaimService creates a new ClaimService instance. values and awards may be nil.
func NewClaimService(
	claims ClaimStore,
	bounties BountyStore,
	hunters HunterStore,
	users UserStore,
	values ValueInvalidator,
	awards Awarder,
) *ClaimService {
	return &ClaimService{
		claims:   claims,
		bounties: bounties,
		hunters:  hunters,
		users:    users,
		values:   values,
		awards:   awards,
		now:      time.Now,
	}
}

// Submit files a pending claim against an active bounty.
func (s *ClaimService) Submit(ctx context.Context, bountyID, hunterID uuid.UUID, screenshotURL string) (*model.Claim, error) {
	screenshotURL = strings.TrimSpace(screenshotURL)
	if screenshotURL == "" {
		return nil, ErrScreenshotRequired
	}

	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if bounty.Status != model.BountyActive {
		return nil, ErrBountyNotActive
	}

	claim, err := s.claims.Create(ctx, bountyID, hunterID, screenshotURL)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("claim_id", claim.ID.String()).
		Str("bounty_id", bountyID.String()).
		Str("hunter_id", hunterID.String()).
		Msg("Claim submitted")
	return claim, nil
}

// ListPending returns claims awaiting review.
func (s *ClaimService) ListPending(ctx context.Context, limit int) ([]*model.Claim, error) {
	return s.claims.ListPending(ctx, limit)
}

// ApproveResult is the outcome of a successful approval.
type ApproveResult struct {
	Claim        *model.Claim
	Achievements []string
}

// Approve verifies a claim and credits the hunter with points. Achievement
// events fire afterwards; their failures are logged and never undo the approval.
func (s *ClaimService) Approve(ctx context.Context, claimID, adminID uuid.UUID, points int64) (*ApproveResult, error) {
	if points < 0 {
		return nil, ErrInvalidPoints
	}

	claim, err := s.claims.Approve(ctx, claimID, adminID, points)
	if err != nil {
		return nil, err
	}

	logger := log.With().
		Str("claim_id", claim.ID.String()).
		Str("hunter_id", claim.HunterID.String()).
		Logger()
	logger.Info().Str("admin_id", adminID.String()).Int64("points", points).Msg("Claim approved")

	s.invalidateBounty(ctx, claim.BountyID, logger)

	result := &ApproveResult{Claim: claim}
	if s.awards != nil {
		for _, ev := range s.completionEvents(ctx, claim, points, logger) {
			result.Achievements = append(result.Achievements, s.awards.CheckAndAward(ctx, ev)...)
		}
	}
	return result, nil
}

func (s *ClaimService) invalidateBounty(ctx context.Context, bountyID uuid.UUID, logger zerolog.Logger) {
	if s.values == nil {
		return
	}
	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load bounty for cache invalidation")
		return
	}
	s.values.Invalidate(bounty.TargetGamertag)
}

// completionEvents builds the events an approval fires, in order. Each read
// that fails drops or degrades only its own event.
func (s *ClaimService) completionEvents(ctx context.Context, claim *model.Claim, points int64, logger zerolog.Logger) []achievement.Event {
	hunterID := claim.HunterID

	completed := achievement.BountyCompleted{UserID: hunterID, BountyValue: points}
	if stats, err := s.users.GetStats(ctx, hunterID); err != nil {
		logger.Warn().Err(err).Msg("Failed to load hunter stats")
	} else {
		completed.TotalBountiesCompleted = achievement.Int64(stats.BountiesCompleted)
		completed.TotalPoints = achievement.Int64(stats.TotalPoints)
	}
	if recent, err := s.claims.CountApprovedSince(ctx, hunterID, s.now().Add(-streakWindow)); err != nil {
		logger.Warn().Err(err).Msg("Failed to count recent completions")
	} else {
		completed.RecentCompletions = recent
	}

	events := []achievement.Event{completed}

	if joinedAt, err := s.hunters.JoinedAt(ctx, claim.BountyID, hunterID); err != nil {
		logger.Debug().Err(err).Msg("No join time, skipping speed check")
	} else {
		events = append(events, achievement.SpeedCompletion{
			UserID:                hunterID,
			CompletionTimeMinutes: CompletionMinutes(joinedAt, claim.ClaimedAt),
		})
	}

	// Totals are left nil so the award cycle reads them fresh, after any
	// rewards granted by the events above.
	events = append(events, achievement.PointsEarned{UserID: hunterID})

	rank, err := s.users.LeaderboardRank(ctx, hunterID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load leaderboard rank")
		rank = achievement.UnrankedPosition
	}
	events = append(events, achievement.LeaderboardUpdated{UserID: hunterID, Rank: rank})

	return events
}

// CompletionMinutes is the whole number of minutes from joining a hunt to
// claiming it. A claim made before the join yields a negative value.
func CompletionMinutes(joinedAt, claimedAt time.Time) int {
	d := claimedAt.Sub(joinedAt)
	minutes := int(d / time.Minute)
	if d < 0 && d%time.Minute != 0 {
		minutes--
	}
	return minutes
}

// Reject marks a pending claim as rejected with the given reason.
func (s *ClaimService) Reject(ctx context.Context, claimID, adminID uuid.UUID, reason string) (*model.Claim, error) {
	claim, err := s.claims.Reject(ctx, claimID, adminID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("claim_id", claim.ID.String()).
		Str("admin_id", adminID.String()).
		Str("reason", reason).
		Msg("Claim rejected")
	return claim, nil
}
