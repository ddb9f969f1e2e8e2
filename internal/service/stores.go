package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/model"
)

// The stores below are satisfied by the repository package. Services take
// the narrowest one they need so tests can swap in in-memory fakes.

// UserStore reads and updates user rows.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetStats(ctx context.Context, id uuid.UUID) (model.UserStats, error)
	IncrementCounter(ctx context.Context, id uuid.UUID, counter model.Counter, delta int64) (int64, error)
	TopByPoints(ctx context.Context, limit int) ([]*model.User, error)
	TopKillers(ctx context.Context, limit int) ([]*model.User, error)
	LeaderboardRank(ctx context.Context, id uuid.UUID) (int, error)
}

// BountyStore reads and updates bounties.
type BountyStore interface {
	Create(ctx context.Context, b *model.Bounty) (*model.Bounty, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Bounty, error)
	ListActive(ctx context.Context) ([]*model.Bounty, error)
	ActiveTargets(ctx context.Context) ([]*model.MostWanted, error)
	ExpireDue(ctx context.Context, now time.Time) ([]*model.Bounty, error)
	Extend(ctx context.Context, id uuid.UUID, d time.Duration) (*model.Bounty, error)
}

// HunterStore tracks hunt participation.
type HunterStore interface {
	Join(ctx context.Context, bountyID, hunterID uuid.UUID) (*model.HunterParticipation, error)
	Leave(ctx context.Context, bountyID, hunterID uuid.UUID) error
	IsHunting(ctx context.Context, bountyID, hunterID uuid.UUID) (bool, error)
	JoinedAt(ctx context.Context, bountyID, hunterID uuid.UUID) (time.Time, error)
	CountForBounty(ctx context.Context, bountyID uuid.UUID) (int, error)
	CountActiveForHunter(ctx context.Context, hunterID uuid.UUID) (int, error)
	ActiveHunterIDsForTarget(ctx context.Context, target string) ([]uuid.UUID, error)
	ActiveHunts(ctx context.Context, hunterID uuid.UUID) ([]*model.Bounty, error)
}

// ClaimStore persists claims and their review.
type ClaimStore interface {
	Create(ctx context.Context, bountyID, hunterID uuid.UUID, screenshotURL string) (*model.Claim, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	ListPending(ctx context.Context, limit int) ([]*model.Claim, error)
	Approve(ctx context.Context, claimID, adminID uuid.UUID, points int64) (*model.Claim, error)
	Reject(ctx context.Context, claimID, adminID uuid.UUID, reason string) (*model.Claim, error)
	CountApprovedSince(ctx context.Context, hunterID uuid.UUID, since time.Time) (int64, error)
}

// AchievementStore holds the catalog and earned rows.
type AchievementStore interface {
	SeedCatalog(ctx context.Context, seeds []achievement.Seed) (int, error)
	ListCatalog(ctx context.Context) ([]*model.Achievement, error)
	EarnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Award(ctx context.Context, userID uuid.UUID, a *model.Achievement) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.UserAchievement, error)
	Recent(ctx context.Context, limit int) ([]*model.UserAchievement, error)
}

// Awarder runs the award cycle for an event. AchievementService implements it.
type Awarder interface {
	CheckAndAward(ctx context.Context, ev achievement.Event) []string
}

// ValueInvalidator drops cached valuations. ValuationService implements it.
type ValueInvalidator interface {
	Invalidate(target string)
}
