package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/model"
)

const achievementColumns = `a.id, a.name, a.description, a.icon, a.category, a.requirement_type,
	a.requirement_value, a.badge_color, a.rarity, a.points_reward, a.created_at`

// catalogOrder sorts the same way as achievement.SortCatalog.
const catalogOrder = `
	ORDER BY CASE a.rarity
		WHEN 'common' THEN 1
		WHEN 'rare' THEN 2
		WHEN 'epic' THEN 3
		WHEN 'legendary' THEN 4
		ELSE 0
	END, COALESCE(a.requirement_value, 0), a.name`

// AchievementRepository handles the achievement catalog and earned rows.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository instance.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

func scanAchievement(row pgx.Row, extra ...any) (*model.Achievement, error) {
	var a model.Achievement
	dest := append([]any{
		&a.ID,
		&a.Name,
		&a.Description,
		&a.Icon,
		&a.Category,
		&a.RequirementType,
		&a.RequirementValue,
		&a.BadgeColor,
		&a.Rarity,
		&a.PointsReward,
		&a.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

// SeedCatalog inserts every seed whose name is not yet in the catalog and
// returns how many were added.
func (r *AchievementRepository) SeedCatalog(ctx context.Context, seeds []achievement.Seed) (int, error) {
	const query = `
		INSERT INTO achievements (name, description, icon, category, requirement_type,
			requirement_value, badge_color, rarity, points_reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, s := range seeds {
		batch.Queue(query, s.Name, s.Description, s.Icon, s.Category, s.RequirementType,
			s.RequirementValue, s.BadgeColor, s.Rarity, s.PointsReward)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for _, s := range seeds {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to seed achievement %q: %w", s.Name, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListCatalog returns the whole catalog in display order.
func (r *AchievementRepository) ListCatalog(ctx context.Context) ([]*model.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements a` + catalogOrder

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var catalog []*model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		catalog = append(catalog, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return catalog, nil
}

// GetByName retrieves a catalog entry by its unique name.
func (r *AchievementRepository) GetByName(ctx context.Context, name string) (*model.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements a WHERE a.name = $1`

	a, err := scanAchievement(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAchievementNotFound
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return a, nil
}

// EarnedIDs returns the ids of every achievement the user holds.
func (r *AchievementRepository) EarnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	const query = `SELECT achievement_id FROM user_achievements WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned achievements: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan earned achievements: %w", err)
	}
	return ids, nil
}

// Award grants an achievement and credits its reward in one transaction.
// It returns false without touching the counters if the user already holds it.
func (r *AchievementRepository) Award(ctx context.Context, userID uuid.UUID, a *model.Achievement) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
		RETURNING id
	`, userID, a.ID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isForeignKeyViolation(err) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to award achievement: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET total_points = total_points + $2, achievements_earned = achievements_earned + 1
		WHERE id = $1
	`, userID, a.PointsReward)
	if err != nil {
		return false, fmt.Errorf("failed to credit achievement reward: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit award: %w", err)
	}
	return true, nil
}

// ListForUser returns the user's earned achievements, most recent first.
func (r *AchievementRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.UserAchievement, error) {
	query := `
		SELECT ` + achievementColumns + `, ua.id, ua.user_id, ua.earned_at, u.username
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		JOIN users u ON u.id = ua.user_id
		WHERE ua.user_id = $1
		ORDER BY ua.earned_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}
	return collectUserAchievements(rows)
}

// Recent returns the latest awards across all users.
func (r *AchievementRepository) Recent(ctx context.Context, limit int) ([]*model.UserAchievement, error) {
	query := `
		SELECT ` + achievementColumns + `, ua.id, ua.user_id, ua.earned_at, u.username
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		JOIN users u ON u.id = ua.user_id
		ORDER BY ua.earned_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent achievements: %w", err)
	}
	return collectUserAchievements(rows)
}

func collectUserAchievements(rows pgx.Rows) ([]*model.UserAchievement, error) {
	defer rows.Close()

	var earned []*model.UserAchievement
	for rows.Next() {
		var ua model.UserAchievement
		a, err := scanAchievement(rows, &ua.ID, &ua.UserID, &ua.EarnedAt, &ua.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user achievement: %w", err)
		}
		ua.AchievementID = a.ID
		ua.Achievement = a
		earned = append(earned, &ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user achievements: %w", err)
	}
	return earned, nil
}
