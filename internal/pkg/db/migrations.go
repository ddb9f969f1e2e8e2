package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type migration struct {
	name string
	sql  string
}

// Every statement is idempotent so Migrate can run on each start.
var migrations = []migration{
	{"users table", `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(255) NOT NULL,
			game_role VARCHAR(32) NOT NULL DEFAULT 'BountyHunter',
			role VARCHAR(16) NOT NULL DEFAULT 'user',
			total_points BIGINT NOT NULL DEFAULT 0,
			bounties_completed BIGINT NOT NULL DEFAULT 0,
			bounties_created BIGINT NOT NULL DEFAULT 0,
			hunts_joined BIGINT NOT NULL DEFAULT 0,
			achievements_earned BIGINT NOT NULL DEFAULT 0,
			kill_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_points ON users(total_points DESC, id);
		CREATE INDEX IF NOT EXISTS idx_users_kills ON users(kill_count DESC, id);
	`},
	{"bounties table", `
		CREATE TABLE IF NOT EXISTS bounties (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			target_gamertag VARCHAR(255) NOT NULL,
			platform VARCHAR(16),
			platform_player_id VARCHAR(255),
			bounty_amount BIGINT NOT NULL DEFAULT 0,
			created_by UUID NOT NULL REFERENCES users(id),
			status VARCHAR(16) NOT NULL DEFAULT 'active'
				CHECK (status IN ('active', 'completed', 'expired')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_bounties_status_target ON bounties(status, target_gamertag);
		CREATE INDEX IF NOT EXISTS idx_bounties_status_expires ON bounties(status, expires_at);
	`},
	{"bounty_hunters table", `
		CREATE TABLE IF NOT EXISTS bounty_hunters (
			bounty_id UUID NOT NULL REFERENCES bounties(id) ON DELETE CASCADE,
			hunter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (bounty_id, hunter_id)
		);
		CREATE INDEX IF NOT EXISTS idx_bounty_hunters_hunter ON bounty_hunters(hunter_id);
	`},
	{"bounty_claims table", `
		CREATE TABLE IF NOT EXISTS bounty_claims (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			bounty_id UUID NOT NULL REFERENCES bounties(id) ON DELETE CASCADE,
			hunter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			screenshot_url TEXT NOT NULL,
			verification_status VARCHAR(16) NOT NULL DEFAULT 'pending'
				CHECK (verification_status IN ('pending', 'approved', 'rejected')),
			verified_by UUID REFERENCES users(id),
			points_awarded BIGINT NOT NULL DEFAULT 0,
			rejection_reason TEXT,
			claimed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			verified_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_claims_hunter_verified ON bounty_claims(hunter_id, verification_status, verified_at);
	`},
	{"achievements tables", `
		CREATE TABLE IF NOT EXISTS achievements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			icon VARCHAR(64) NOT NULL DEFAULT '',
			category VARCHAR(32) NOT NULL DEFAULT 'milestone',
			requirement_type VARCHAR(64) NOT NULL,
			requirement_value BIGINT,
			badge_color VARCHAR(16),
			rarity VARCHAR(16) NOT NULL
				CHECK (rarity IN ('common', 'rare', 'epic', 'legendary')),
			points_reward BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS user_achievements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			achievement_id UUID NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
			earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, achievement_id)
		);
		CREATE INDEX IF NOT EXISTS idx_user_achievements_earned ON user_achievements(earned_at DESC);
	`},
	{"admin_actions table", `
		CREATE TABLE IF NOT EXISTS admin_actions (
			id BIGSERIAL PRIMARY KEY,
			admin_id UUID NOT NULL REFERENCES users(id),
			action VARCHAR(64) NOT NULL,
			target_table VARCHAR(64) NOT NULL,
			target_id UUID NOT NULL,
			details JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Int("count", len(migrations)).Msg("Running database migrations")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", i+1, m.name, err)
		}
		log.Info().Int("step", i+1).Str("migration", m.name).Msg("Migration applied")
	}

	return nil
}
