package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// GetActivePeriod returns the period containing now, closing an expired
	// one and opening the current window when needed.
	GetActivePeriod(ctx context.Context, userID string, now time.Time) (*Period, error)

	// Rollover forces the close/open transition. Idempotent: a second call
	// for the same window returns the already-created period.
	Rollover(ctx context.Context, userID string, now time.Time) (*Period, error)

	// List returns the user's periods, newest first.
	List(ctx context.Context, userID string) ([]Period, error)
}

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidPeriod  = errors.New("invalid_period")
	ErrPeriodConflict = errors.New("period_conflict")
	ErrStoreFailure   = errors.New("period_store_failure")
)
