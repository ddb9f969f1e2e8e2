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

const claimColumns = `id, bounty_id, hunter_id, screenshot_url, verification_status,
	verified_by, points_awarded, rejection_reason, claimed_at, verified_at`

// ClaimRepository handles bounty claims and their review.
type ClaimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository creates a new ClaimRepository instance.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func scanClaim(row pgx.Row) (*model.Claim, error) {
	var c model.Claim
	err := row.Scan(
		&c.ID,
		&c.BountyID,
		&c.HunterID,
		&c.ScreenshotURL,
		&c.VerificationStatus,
		&c.VerifiedBy,
		&c.PointsAwarded,
		&c.RejectionReason,
		&c.ClaimedAt,
		&c.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a pending claim.
func (r *ClaimRepository) Create(ctx context.Context, bountyID, hunterID uuid.UUID, screenshotURL string) (*model.Claim, error) {
	query := `
		INSERT INTO bounty_claims (bounty_id, hunter_id, screenshot_url)
		VALUES ($1, $2, $3)
		RETURNING ` + claimColumns

	c, err := scanClaim(r.pool.QueryRow(ctx, query, bountyID, hunterID, screenshotURL))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrBountyNotFound
		}
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}
	return c, nil
}

// GetByID retrieves a claim by id.
func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM bounty_claims WHERE id = $1`

	c, err := scanClaim(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// ListPending returns pending claims, oldest first.
func (r *ClaimRepository) ListPending(ctx context.Context, limit int) ([]*model.Claim, error) {
	query := `SELECT ` + claimColumns + `
		FROM bounty_claims
		WHERE verification_status = 'pending'
		ORDER BY claimed_at ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending claims: %w", err)
	}
	defer rows.Close()

	var claims []*model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claims: %w", err)
	}
	return claims, nil
}

// Approve verifies a pending claim, completes its bounty, credits the hunter
// and writes the audit row, all in one transaction.
func (r *ClaimRepository) Approve(ctx context.Context, claimID, adminID uuid.UUID, points int64) (*model.Claim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := r.review(ctx, tx, claimID, `
		UPDATE bounty_claims
		SET verification_status = 'approved', verified_by = $2, points_awarded = $3, verified_at = NOW()
		WHERE id = $1 AND verification_status = 'pending'
		RETURNING `+claimColumns, adminID, points)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(ctx, `
		UPDATE bounties SET status = 'completed'
		WHERE id = $1 AND status = 'active'
	`, c.BountyID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete bounty: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrBountyNotActive
	}

	result, err = tx.Exec(ctx, `
		UPDATE users
		SET total_points = total_points + $2, bounties_completed = bounties_completed + 1
		WHERE id = $1
	`, c.HunterID, points)
	if err != nil {
		return nil, fmt.Errorf("failed to credit hunter: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	details := map[string]any{
		"bounty_id":      c.BountyID.String(),
		"hunter_id":      c.HunterID.String(),
		"points_awarded": points,
	}
	if err := insertAdminAction(ctx, tx, adminID, model.AdminActionApproveClaim, c.ID, details); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return c, nil
}

// Reject marks a pending claim as rejected with a reason and writes the audit row.
func (r *ClaimRepository) Reject(ctx context.Context, claimID, adminID uuid.UUID, reason string) (*model.Claim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := r.review(ctx, tx, claimID, `
		UPDATE bounty_claims
		SET verification_status = 'rejected', verified_by = $2, rejection_reason = $3, verified_at = NOW()
		WHERE id = $1 AND verification_status = 'pending'
		RETURNING `+claimColumns, adminID, reason)
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"bounty_id": c.BountyID.String(),
		"hunter_id": c.HunterID.String(),
		"reason":    reason,
	}
	if err := insertAdminAction(ctx, tx, adminID, model.AdminActionRejectClaim, c.ID, details); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return c, nil
}

// review runs a pending-guarded claim update inside tx. When nothing
// matches it reports whether the claim is missing or already reviewed.
func (r *ClaimRepository) review(ctx context.Context, tx pgx.Tx, claimID uuid.UUID, query string, args ...any) (*model.Claim, error) {
	c, err := scanClaim(tx.QueryRow(ctx, query, append([]any{claimID}, args...)...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to review claim: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bounty_claims WHERE id = $1)`, claimID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check claim: %w", err)
	}
	if !exists {
		return nil, ErrClaimNotFound
	}
	return nil, ErrClaimNotPending
}

// CountApprovedSince counts the hunter's claims approved at or after since.
func (r *ClaimRepository) CountApprovedSince(ctx context.Context, hunterID uuid.UUID, since time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM bounty_claims
		WHERE hunter_id = $1 AND verification_status = 'approved' AND verified_at >= $2
	`

	var n int64
	if err := r.pool.QueryRow(ctx, query, hunterID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count approved claims: %w", err)
	}
	return n, nil
}

func insertAdminAction(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, action string, claimID uuid.UUID, details map[string]any) error {
	const query = `
		INSERT INTO admin_actions (admin_id, action, target_table, target_id, details)
		VALUES ($1, $2, 'bounty_claims', $3, $4)
	`
	if _, err := tx.Exec(ctx, query, adminID, action, claimID, details); err != nil {
		return fmt.Errorf("failed to record admin action: %w", err)
	}
	return nil
}
