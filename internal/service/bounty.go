package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
)

const defaultBountyDuration = 7 * 24 * time.Hour

// BountyService handles the bounty lifecycle: creation, extension and expiry.
type BountyService struct {
	bounties BountyStore
	users    UserStore
	values   ValueInvalidator
	awards   Awarder
	duration time.Duration
	now      func() time.Time
}

// NewBountyService creates a new BountyService instance. values and awards may be nil.
func NewBountyService(
	bounties BountyStore,
	users UserStore,
	values ValueInvalidator,
	awards Awarder,
	cfg config.BountyConfig,
) *BountyService {
	duration := cfg.DefaultDuration
	if duration <= 0 {
		duration = defaultBountyDuration
	}
	return &BountyService{
		bounties: bounties,
		users:    users,
		values:   values,
		awards:   awards,
		duration: duration,
		now:      time.Now,
	}
}

// CreateBountyInput carries the fields a creator supplies.
type CreateBountyInput struct {
	CreatedBy        uuid.UUID
	TargetGamertag   string
	Platform         *model.Platform
	PlatformPlayerID *string
	Amount           int64
}

// CreateResult is the outcome of a successful creation.
type CreateResult struct {
	Bounty       *model.Bounty
	Achievements []string
}

// Create validates the input and opens an active bounty expiring after the
// configured duration.
func (s *BountyService) Create(ctx context.Context, in CreateBountyInput) (*CreateResult, error) {
	target := strings.TrimSpace(in.TargetGamertag)
	if target == "" {
		return nil, ErrTargetRequired
	}
	if in.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	if in.Platform != nil && !in.Platform.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlatform, *in.Platform)
	}

	bounty, err := s.bounties.Create(ctx, &model.Bounty{
		TargetGamertag:   target,
		Platform:         in.Platform,
		PlatformPlayerID: in.PlatformPlayerID,
		BountyAmount:     in.Amount,
		CreatedBy:        in.CreatedBy,
		ExpiresAt:        s.now().Add(s.duration),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("bounty_id", bounty.ID.String()).
		Str("target", target).
		Str("created_by", in.CreatedBy.String()).
		Time("expires_at", bounty.ExpiresAt).
		Msg("Bounty created")

	result := &CreateResult{Bounty: bounty}

	total, err := s.users.IncrementCounter(ctx, in.CreatedBy, model.CounterBountiesCreated, 1)
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.CreatedBy.String()).Msg("Failed to count created bounty")
		return result, nil
	}
	if s.awards != nil {
		result.Achievements = s.awards.CheckAndAward(ctx, achievement.BountyCreated{
			UserID:               in.CreatedBy,
			TotalBountiesCreated: total,
		})
	}
	return result, nil
}

// Get retrieves a bounty by id.
func (s *BountyService) Get(ctx context.Context, id uuid.UUID) (*model.Bounty, error) {
	return s.bounties.GetByID(ctx, id)
}

// ExpireDue closes every active bounty past its expiry and returns them.
func (s *BountyService) ExpireDue(ctx context.Context) ([]*model.Bounty, error) {
	expired, err := s.bounties.ExpireDue(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.values != nil {
		for _, b := range expired {
			s.values.Invalidate(b.TargetGamertag)
		}
	}
	if len(expired) > 0 {
		log.Info().Int("expired", len(expired)).Msg("Expired bounties")
	}
	return expired, nil
}

// Extend pushes an active bounty's expiry back by whole days.
func (s *BountyService) Extend(ctx context.Context, id uuid.UUID, days int) (*model.Bounty, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	b, err := s.bounties.Extend(ctx, id, time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bounty_id", id.String()).Int("days", days).Time("expires_at", b.ExpiresAt).Msg("Bounty extended")
	return b, nil
}

// Urgency buckets how close a bounty is to expiring.
type Urgency string

const (
	UrgencyExpired  Urgency = "expired"
	UrgencyCritical Urgency = "critical" // 24 hours or less
	UrgencyWarning  Urgency = "warning"  // 72 hours or less
	UrgencyNormal   Urgency = "normal"
)

// Remaining is the time left before a bounty expires, floored per unit.
type Remaining struct {
	Days       int
	Hours      int
	Minutes    int
	TotalHours int
	Expired    bool
}

// Urgency classifies the remaining time.
func (r Remaining) Urgency() Urgency {
	switch {
	case r.Expired:
		return UrgencyExpired
	case r.TotalHours <= 24:
		return UrgencyCritical
	case r.TotalHours <= 72:
		return UrgencyWarning
	}
	return UrgencyNormal
}

// TimeRemaining splits the time between now and expiresAt into days, hours
// and minutes. Anything at or past expiry is reported as expired.
func TimeRemaining(expiresAt, now time.Time) Remaining {
	diff := expiresAt.Sub(now)
	if diff <= 0 {
		return Remaining{Expired: true}
	}
	return Remaining{
		Days:       int(diff / (24 * time.Hour)),
		Hours:      int(diff % (24 * time.Hour) / time.Hour),
		Minutes:    int(diff % time.Hour / time.Minute),
		TotalHours: int(diff / time.Hour),
	}
}
