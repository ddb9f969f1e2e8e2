package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bounty-tracker/internal/model"
)

// HunterRepository tracks which hunters have joined which bounties.
type HunterRepository struct {
	pool *pgxpool.Pool
}

// NewHunterRepository creates a new HunterRepository instance.
func NewHunterRepository(pool *pgxpool.Pool) *HunterRepository {
	return &HunterRepository{pool: pool}
}

// Join records a hunter on a bounty.
// Returns ErrAlreadyHunting when the pair already exists.
func (r *HunterRepository) Join(ctx context.Context, bountyID, hunterID uuid.UUID) (*model.HunterParticipation, error) {
	const query = `
		INSERT INTO bounty_hunters (bounty_id, hunter_id)
		VALUES ($1, $2)
		RETURNING bounty_id, hunter_id, joined_at
	`

	var p model.HunterParticipation
	err := r.pool.QueryRow(ctx, query, bountyID, hunterID).Scan(&p.BountyID, &p.HunterID, &p.JoinedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrAlreadyHunting
		case isForeignKeyViolation(err):
			return nil, ErrBountyNotFound
		}
		return nil, fmt.Errorf("failed to join hunt: %w", err)
	}
	return &p, nil
}

// Leave removes a hunter from a bounty.
func (r *HunterRepository) Leave(ctx context.Context, bountyID, hunterID uuid.UUID) error {
	const query = `DELETE FROM bounty_hunters WHERE bounty_id = $1 AND hunter_id = $2`

	result, err := r.pool.Exec(ctx, query, bountyID, hunterID)
	if err != nil {
		return fmt.Errorf("failed to leave hunt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotHunting
	}
	return nil
}

// IsHunting reports whether the hunter has joined the bounty.
func (r *HunterRepository) IsHunting(ctx context.Context, bountyID, hunterID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM bounty_hunters WHERE bounty_id = $1 AND hunter_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, bountyID, hunterID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check hunt: %w", err)
	}
	return exists, nil
}

// JoinedAt returns when the hunter joined the bounty.
func (r *HunterRepository) JoinedAt(ctx context.Context, bountyID, hunterID uuid.UUID) (time.Time, error) {
	const query = `SELECT joined_at FROM bounty_hunters WHERE bounty_id = $1 AND hunter_id = $2`

	var joinedAt time.Time
	if err := r.pool.QueryRow(ctx, query, bountyID, hunterID).Scan(&joinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotHunting
		}
		return time.Time{}, fmt.Errorf("failed to get join time: %w", err)
	}
	return joinedAt, nil
}

// CountForBounty returns how many hunters joined the bounty.
func (r *HunterRepository) CountForBounty(ctx context.Context, bountyID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM bounty_hunters WHERE bounty_id = $1`

	var n int
	if err := r.pool.QueryRow(ctx, query, bountyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count hunters: %w", err)
	}
	return n, nil
}

// CountActiveForHunter returns how many active bounties the hunter is on.
func (r *HunterRepository) CountActiveForHunter(ctx context.Context, hunterID uuid.UUID) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM bounty_hunters bh
		JOIN bounties b ON b.id = bh.bounty_id
		WHERE bh.hunter_id = $1 AND b.status = 'active'
	`

	var n int
	if err := r.pool.QueryRow(ctx, query, hunterID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active hunts: %w", err)
	}
	return n, nil
}

// ActiveHunterIDsForTarget returns the distinct hunters across all active
// bounties on the target.
func (r *HunterRepository) ActiveHunterIDsForTarget(ctx context.Context, target string) ([]uuid.UUID, error) {
	const query = `
		SELECT DISTINCT bh.hunter_id
		FROM bounty_hunters bh
		JOIN bounties b ON b.id = bh.bounty_id
		WHERE b.target_gamertag = $1 AND b.status = 'active'
		ORDER BY bh.hunter_id
	`

	rows, err := r.pool.Query(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get hunters for target: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan hunter ids: %w", err)
	}
	return ids, nil
}

// ActiveHunts returns the active bounties the hunter is on, by join time.
func (r *HunterRepository) ActiveHunts(ctx context.Context, hunterID uuid.UUID) ([]*model.Bounty, error) {
	const query = `
		SELECT b.id, b.target_gamertag, b.platform, b.platform_player_id, b.bounty_amount,
		       b.created_by, b.status, b.created_at, b.expires_at
		FROM bounty_hunters bh
		JOIN bounties b ON b.id = bh.bounty_id
		WHERE bh.hunter_id = $1 AND b.status = 'active'
		ORDER BY bh.joined_at ASC
	`

	rows, err := r.pool.Query(ctx, query, hunterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active hunts: %w", err)
	}
	return collectBounties(rows)
}
