package domain

import (
	"context"
	"errors"
	"time"
)

type UpsertAccountRequest struct {
	UserID         string         `json:"user_id" validate:"required,min=1"`
	Tier           string         `json:"tier" validate:"required,min=1"`
	SignupAt       time.Time      `json:"signup_at" validate:"required"`
	LinkedAccounts int            `json:"linked_accounts"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type Service interface {
	Get(ctx context.Context, userID string) (*Account, error)
	Upsert(ctx context.Context, req UpsertAccountRequest) (*Account, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

var (
	ErrInvalidUser           = errors.New("invalid_user")
	ErrInvalidTier           = errors.New("invalid_tier")
	ErrInvalidSignupAt       = errors.New("invalid_signup_at")
	ErrInvalidLinkedAccounts = errors.New("invalid_linked_accounts")
	ErrAccountNotFound       = errors.New("account_not_found")
)
