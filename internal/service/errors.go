// Package service provides business logic implementations.
package service

import (
	"errors"

	"bounty-tracker/internal/repository"
)

// Validation and rule errors returned by the services.
var (
	ErrTargetRequired     = errors.New("target gamertag is required")
	ErrInvalidAmount      = errors.New("invalid amount: must not be negative")
	ErrInvalidPlatform    = errors.New("invalid platform")
	ErrInvalidDays        = errors.New("invalid extension: days must be positive")
	ErrScreenshotRequired = errors.New("screenshot url is required")
	ErrInvalidPoints      = errors.New("invalid points: must not be negative")
	ErrHuntLimitReached   = errors.New("active hunt limit reached")
)

// Store errors surfaced unchanged to callers.
var (
	ErrAlreadyHunting  = repository.ErrAlreadyHunting
	ErrNotHunting      = repository.ErrNotHunting
	ErrBountyNotActive = repository.ErrBountyNotActive
	ErrBountyNotFound  = repository.ErrBountyNotFound
	ErrUserNotFound    = repository.ErrUserNotFound
	ErrClaimNotFound   = repository.ErrClaimNotFound
	ErrClaimNotPending = repository.ErrClaimNotPending
)
