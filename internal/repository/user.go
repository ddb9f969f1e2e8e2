// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bounty-tracker/internal/model"
)

const userColumns = `id, username, game_role, role, total_points, bounties_completed,
	bounties_created, hunts_joined, achievements_earned, kill_count, created_at`

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.GameRole,
		&user.Role,
		&user.TotalPoints,
		&user.BountiesCompleted,
		&user.BountiesCreated,
		&user.HuntsJoined,
		&user.AchievementsEarned,
		&user.KillCount,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Create creates a new user with zeroed counters.
func (r *UserRepository) Create(ctx context.Context, username string, gameRole model.GameRole) (*model.User, error) {
	if gameRole == "" {
		gameRole = model.GameRoleBountyHunter
	}
	query := `
		INSERT INTO users (username, game_role)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, username, gameRole))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetStats returns the counters the rule engine reads.
func (r *UserRepository) GetStats(ctx context.Context, id uuid.UUID) (model.UserStats, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return model.UserStats{}, err
	}
	return user.UserStats, nil
}

// IncrementCounter atomically adds delta to one counter column and returns
// the new value.
func (r *UserRepository) IncrementCounter(ctx context.Context, id uuid.UUID, counter model.Counter, delta int64) (int64, error) {
	if !counter.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCounter, counter)
	}
	// counter is whitelisted above, so formatting it into the statement is safe.
	query := fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s + $2 WHERE id = $1 RETURNING %[1]s`, counter)

	var value int64
	if err := r.pool.QueryRow(ctx, query, id, delta).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to increment %s: %w", counter, err)
	}
	return value, nil
}

// TopByPoints retrieves the top N users by total points.
func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY total_points DESC, id ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return collectUsers(rows)
}

// TopKillers retrieves the top N users by kill count. Ties break on id so
// the ranking is stable between calls.
func (r *UserRepository) TopKillers(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY kill_count DESC, id ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top killers: %w", err)
	}
	return collectUsers(rows)
}

// LeaderboardRank returns the 1-based points rank of a user.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) LeaderboardRank(ctx context.Context, id uuid.UUID) (int, error) {
	const query = `
		SELECT rank FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY total_points DESC, id ASC) AS rank
			FROM users
		) ranked
		WHERE id = $1
	`

	var rank int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&rank); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get leaderboard rank: %w", err)
	}
	return rank, nil
}

// Exists checks if a user with the given id exists.
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
