// Package achievement evaluates which unearned achievements a user qualifies
// for after a lifecycle event. Evaluation is pure; awarding is left to callers.
package achievement

import "github.com/google/uuid"

// EventType names the lifecycle event that triggered an evaluation.
type EventType string

const (
	EventBountyCompleted    EventType = "bounty_completed"
	EventBountyCreated      EventType = "bounty_created"
	EventHuntJoined         EventType = "hunt_joined"
	EventPointsEarned       EventType = "points_earned"
	EventLeaderboardUpdated EventType = "leaderboard_updated"
	EventSpeedCompletion    EventType = "speed_completion"
)

// UnrankedPosition is the leaderboard position used when a user has no rank.
const UnrankedPosition = 999

// Event is one of the concrete event structs below.
type Event interface {
	Kind() EventType
	User() uuid.UUID
}

// BountyCompleted fires when a claim by the user is approved.
// Nil totals fall back to the user's stored stats.
type BountyCompleted struct {
	UserID                 uuid.UUID
	TotalBountiesCompleted *int64
	TotalPoints            *int64
	BountyValue            int64
	RecentCompletions      int64
}

// BountyCreated fires after the user places a bounty.
type BountyCreated struct {
	UserID               uuid.UUID
	TotalBountiesCreated int64
}

// HuntJoined fires after the user joins a hunt.
type HuntJoined struct {
	UserID           uuid.UUID
	TotalHuntsJoined int64
}

// PointsEarned fires whenever the user's point total changes.
// A nil TotalPoints falls back to the user's stored stats.
type PointsEarned struct {
	UserID      uuid.UUID
	TotalPoints *int64
}

// LeaderboardUpdated carries the user's 1-based leaderboard position.
// Rank <= 0 means unranked.
type LeaderboardUpdated struct {
	UserID uuid.UUID
	Rank   int
}

// SpeedCompletion carries the minutes between joining a hunt and claiming it.
// A negative value means the duration is unknown.
type SpeedCompletion struct {
	UserID                uuid.UUID
	CompletionTimeMinutes int
}

func (e BountyCompleted) Kind() EventType    { return EventBountyCompleted }
func (e BountyCreated) Kind() EventType      { return EventBountyCreated }
func (e HuntJoined) Kind() EventType         { return EventHuntJoined }
func (e PointsEarned) Kind() EventType       { return EventPointsEarned }
func (e LeaderboardUpdated) Kind() EventType { return EventLeaderboardUpdated }
func (e SpeedCompletion) Kind() EventType    { return EventSpeedCompletion }

func (e BountyCompleted) User() uuid.UUID    { return e.UserID }
func (e BountyCreated) User() uuid.UUID      { return e.UserID }
func (e HuntJoined) User() uuid.UUID         { return e.UserID }
func (e PointsEarned) User() uuid.UUID       { return e.UserID }
func (e LeaderboardUpdated) User() uuid.UUID { return e.UserID }
func (e SpeedCompletion) User() uuid.UUID    { return e.UserID }

// Position returns the rank, or UnrankedPosition when no rank is known.
func (e LeaderboardUpdated) Position() int {
	if e.Rank <= 0 {
		return UnrankedPosition
	}
	return e.Rank
}

// Int64 returns a pointer to v, for the optional totals on events.
func Int64(v int64) *int64 {
	return &v
}
