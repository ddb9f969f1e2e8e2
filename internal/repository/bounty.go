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

const bountyColumns = `id, target_gamertag, platform, platform_player_id, bounty_amount,
	created_by, status, created_at, expires_at`

// BountyRepository handles bounty persistence.
type BountyRepository struct {
	pool *pgxpool.Pool
}

// NewBountyRepository creates a new BountyRepository instance.
func NewBountyRepository(pool *pgxpool.Pool) *BountyRepository {
	return &BountyRepository{pool: pool}
}

func scanBounty(row pgx.Row) (*model.Bounty, error) {
	var b model.Bounty
	err := row.Scan(
		&b.ID,
		&b.TargetGamertag,
		&b.Platform,
		&b.PlatformPlayerID,
		&b.BountyAmount,
		&b.CreatedBy,
		&b.Status,
		&b.CreatedAt,
		&b.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBounties(rows pgx.Rows) ([]*model.Bounty, error) {
	defer rows.Close()

	var bounties []*model.Bounty
	for rows.Next() {
		b, err := scanBounty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bounty: %w", err)
		}
		bounties = append(bounties, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bounties: %w", err)
	}
	return bounties, nil
}

// Create inserts an active bounty. ID, status and created_at are assigned
// by the database.
func (r *BountyRepository) Create(ctx context.Context, b *model.Bounty) (*model.Bounty, error) {
	query := `
		INSERT INTO bounties (target_gamertag, platform, platform_player_id, bounty_amount, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bountyColumns

	created, err := scanBounty(r.pool.QueryRow(ctx, query,
		b.TargetGamertag, b.Platform, b.PlatformPlayerID, b.BountyAmount, b.CreatedBy, b.ExpiresAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create bounty: %w", err)
	}
	return created, nil
}

// GetByID retrieves a bounty by id.
func (r *BountyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Bounty, error) {
	query := `SELECT ` + bountyColumns + ` FROM bounties WHERE id = $1`

	b, err := scanBounty(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBountyNotFound
		}
		return nil, fmt.Errorf("failed to get bounty: %w", err)
	}
	return b, nil
}

// ListActive returns all active bounties, newest first.
func (r *BountyRepository) ListActive(ctx context.Context) ([]*model.Bounty, error) {
	query := `SELECT ` + bountyColumns + `
		FROM bounties
		WHERE status = 'active'
		ORDER BY created_at DESC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bounties: %w", err)
	}
	return collectBounties(rows)
}

// ActiveTargets groups active bounties by target. TotalBounty is left at
// zero; the valuation service fills in the computed value.
func (r *BountyRepository) ActiveTargets(ctx context.Context) ([]*model.MostWanted, error) {
	const query = `
		SELECT b.target_gamertag,
		       COUNT(DISTINCT b.id) AS bounty_count,
		       COUNT(DISTINCT bh.hunter_id) AS hunter_count
		FROM bounties b
		LEFT JOIN bounty_hunters bh ON bh.bounty_id = b.id
		WHERE b.status = 'active'
		GROUP BY b.target_gamertag
		ORDER BY b.target_gamertag
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active targets: %w", err)
	}
	defer rows.Close()

	var targets []*model.MostWanted
	for rows.Next() {
		var mw model.MostWanted
		if err := rows.Scan(&mw.TargetGamertag, &mw.BountyCount, &mw.HunterCount); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, &mw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating targets: %w", err)
	}
	return targets, nil
}

// ExpireDue marks every active bounty whose expiry is before now as
// expired and returns the rows it changed.
func (r *BountyRepository) ExpireDue(ctx context.Context, now time.Time) ([]*model.Bounty, error) {
	query := `
		UPDATE bounties
		SET status = 'expired'
		WHERE status = 'active' AND expires_at < $1
		RETURNING ` + bountyColumns

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire bounties: %w", err)
	}
	return collectBounties(rows)
}

// Extend pushes the expiry of an active bounty back by d.
func (r *BountyRepository) Extend(ctx context.Context, id uuid.UUID, d time.Duration) (*model.Bounty, error) {
	query := `
		UPDATE bounties
		SET expires_at = expires_at + make_interval(secs => $2)
		WHERE id = $1 AND status = 'active'
		RETURNING ` + bountyColumns

	b, err := scanBounty(r.pool.QueryRow(ctx, query, id, d.Seconds()))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to extend bounty: %w", err)
	}

	// Nothing matched: tell a missing bounty apart from a closed one.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrBountyNotActive
}
