// Package model defines the data models for the bounty tracker.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserStats holds the aggregate counters kept on every user row.
type UserStats struct {
	TotalPoints        int64 `db:"total_points"`
	BountiesCompleted  int64 `db:"bounties_completed"`
	BountiesCreated    int64 `db:"bounties_created"`
	HuntsJoined        int64 `db:"hunts_joined"`
	AchievementsEarned int64 `db:"achievements_earned"`
	KillCount          int64 `db:"kill_count"`
}

// User represents a player account.
type User struct {
	ID       uuid.UUID `db:"id"`
	Username string    `db:"username"`
	GameRole GameRole  `db:"game_role"`
	Role     string    `db:"role"`
	UserStats
	CreatedAt time.Time `db:"created_at"`
}

// GameRole tags what a user does in the game.
type GameRole string

const (
	GameRoleBountyHunter GameRole = "BountyHunter"
	GameRoleProudRat     GameRole = "ProudRat"
)

// Counter names a numeric user column that can be incremented atomically.
type Counter string

const (
	CounterTotalPoints        Counter = "total_points"
	CounterBountiesCompleted  Counter = "bounties_completed"
	CounterBountiesCreated    Counter = "bounties_created"
	CounterHuntsJoined        Counter = "hunts_joined"
	CounterAchievementsEarned Counter = "achievements_earned"
	CounterKillCount          Counter = "kill_count"
)

// Valid reports whether c is one of the known counters.
func (c Counter) Valid() bool {
	switch c {
	case CounterTotalPoints, CounterBountiesCompleted, CounterBountiesCreated,
		CounterHuntsJoined, CounterAchievementsEarned, CounterKillCount:
		return true
	}
	return false
}

// BountyStatus is the lifecycle state of a bounty.
// Transitions only go active -> completed or active -> expired.
type BountyStatus string

const (
	BountyActive    BountyStatus = "active"
	BountyCompleted BountyStatus = "completed"
	BountyExpired   BountyStatus = "expired"
)

// Platform identifies where the target plays.
type Platform string

const (
	PlatformSteam       Platform = "steam"
	PlatformXbox        Platform = "xbox"
	PlatformPlayStation Platform = "playstation"
)

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	return p == PlatformSteam || p == PlatformXbox || p == PlatformPlayStation
}

// Bounty is a point-valued request to hunt a target player.
// BountyAmount is the amount set at creation; listings show the computed value instead.
type Bounty struct {
	ID               uuid.UUID    `db:"id"`
	TargetGamertag   string       `db:"target_gamertag"`
	Platform         *Platform    `db:"platform"`
	PlatformPlayerID *string      `db:"platform_player_id"`
	BountyAmount     int64        `db:"bounty_amount"`
	CreatedBy        uuid.UUID    `db:"created_by"`
	Status           BountyStatus `db:"status"`
	CreatedAt        time.Time    `db:"created_at"`
	ExpiresAt        time.Time    `db:"expires_at"`
}

// HunterParticipation records that a hunter joined the hunt for a bounty.
type HunterParticipation struct {
	BountyID uuid.UUID `db:"bounty_id"`
	HunterID uuid.UUID `db:"hunter_id"`
	JoinedAt time.Time `db:"joined_at"`
}

// VerificationStatus is the review state of a claim.
type VerificationStatus string

const (
	ClaimPending  VerificationStatus = "pending"
	ClaimApproved VerificationStatus = "approved"
	ClaimRejected VerificationStatus = "rejected"
)

// Claim is a hunter's proof that a bounty was fulfilled.
type Claim struct {
	ID                 uuid.UUID          `db:"id"`
	BountyID           uuid.UUID          `db:"bounty_id"`
	HunterID           uuid.UUID          `db:"hunter_id"`
	ScreenshotURL      string             `db:"screenshot_url"`
	VerificationStatus VerificationStatus `db:"verification_status"`
	VerifiedBy         *uuid.UUID         `db:"verified_by"`
	PointsAwarded      int64              `db:"points_awarded"`
	RejectionReason    *string            `db:"rejection_reason"`
	ClaimedAt          time.Time          `db:"claimed_at"`
	VerifiedAt         *time.Time         `db:"verified_at"`
}

// Rarity grades how hard an achievement is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank orders rarities from common (1) to legendary (4). Unknown rarities rank 0.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	}
	return 0
}

// Rarities returns all rarities in ascending order.
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// RequirementType is the key that selects the rule used to evaluate an achievement.
type RequirementType string

const (
	RequirementBountiesCompleted RequirementType = "bounties_completed"
	RequirementBountiesCreated   RequirementType = "bounties_created"
	RequirementHuntsJoined       RequirementType = "hunts_joined"
	RequirementPointsEarned      RequirementType = "points_earned"
	RequirementSingleBountyValue RequirementType = "single_bounty_value"
	RequirementLeaderboardRank   RequirementType = "leaderboard_rank"
	RequirementSpeedCompletion   RequirementType = "speed_completion"
	RequirementStreak24h         RequirementType = "streak_24h"
)

// Achievement is a catalog entry. The catalog is seeded by admins and read-only here.
type Achievement struct {
	ID               uuid.UUID       `db:"id"`
	Name             string          `db:"name"`
	Description      string          `db:"description"`
	Icon             string          `db:"icon"`
	Category         string          `db:"category"`
	RequirementType  RequirementType `db:"requirement_type"`
	RequirementValue *int64          `db:"requirement_value"`
	BadgeColor       *string         `db:"badge_color"`
	Rarity           Rarity          `db:"rarity"`
	PointsReward     int64           `db:"points_reward"`
	CreatedAt        time.Time       `db:"created_at"`
}

// UserAchievement is an earned achievement. At most one row exists per (user, achievement).
type UserAchievement struct {
	ID            uuid.UUID    `db:"id"`
	UserID        uuid.UUID    `db:"user_id"`
	AchievementID uuid.UUID    `db:"achievement_id"`
	EarnedAt      time.Time    `db:"earned_at"`
	Achievement   *Achievement `db:"-"`
	Username      string       `db:"-"`
}

// MostWanted is one row of the most wanted view, grouped by target.
type MostWanted struct {
	TargetGamertag string
	TotalBounty    int64
	BountyCount    int
	HunterCount    int
}

// Admin action names written to the audit log.
const (
	AdminActionApproveClaim = "approve_claim"
	AdminActionRejectClaim  = "reject_claim"
)
