package domain

import (
	"context"
	"errors"
	"time"

	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/pkg/db/pagination"
)

// RecordRequest is one metered event. IdempotencyKey is caller supplied and
// required; replays with the same key return the original record.
type RecordRequest struct {
	UserID         string           `json:"user_id"`
	Category       pricing.Category `json:"category" binding:"required"`
	Quantity       float64          `json:"quantity"`
	RecordedAt     *time.Time       `json:"recorded_at,omitempty"`
	IdempotencyKey string           `json:"idempotency_key" binding:"required"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
}

// RecordResult reports whether the write was fresh or a replay.
type RecordResult struct {
	Record       *Record `json:"record"`
	Deduplicated bool    `json:"deduplicated"`
}

type ListRequest struct {
	UserID   string
	Category pricing.Category
	pagination.Pagination
}

type ListResponse struct {
	Data     []Record            `json:"data"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// Record appends a usage event to the user's active billing period.
	Record(ctx context.Context, req RecordRequest) (*RecordResult, error)

	// Summarize computes fresh per-category totals for the given window.
	Summarize(ctx context.Context, userID string, period perioddomain.Period) (Summary, error)

	// SummarizeCached serves a snapshot no older than maxStale, recomputing
	// when the cached one has aged out. The bool reports a cache hit.
	SummarizeCached(ctx context.Context, userID string, period perioddomain.Period, maxStale time.Duration) (Summary, bool, error)

	// List pages through a user's raw usage records, newest first.
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

var (
	ErrInvalidUser           = errors.New("invalid_user")
	ErrInvalidCategory       = errors.New("invalid_category")
	ErrInvalidQuantity       = errors.New("invalid_quantity")
	ErrInvalidIdempotencyKey = errors.New("invalid_idempotency_key")
	ErrRecorderUnavailable   = errors.New("recorder_unavailable")
	ErrStaleSummary          = errors.New("stale_summary")
)
