package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for repository operations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrBountyNotFound      = errors.New("bounty not found")
	ErrBountyNotActive     = errors.New("bounty is not active")
	ErrClaimNotFound       = errors.New("claim not found")
	ErrClaimNotPending     = errors.New("claim is not pending")
	ErrAlreadyHunting      = errors.New("already hunting this bounty")
	ErrNotHunting          = errors.New("not hunting this bounty")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrInvalidCounter      = errors.New("invalid counter")
)

// PostgreSQL error codes the repositories map to sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation)
}
