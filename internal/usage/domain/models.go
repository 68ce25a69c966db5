// Package domain contains persistence models for raw usage metering.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/postloom/postloom/internal/pricing"
	"gorm.io/datatypes"
)

// Record stores a single unit of metered activity. Records are append-only
// and partitioned by user; the unique index on (user_id, idempotency_key)
// is what guards against double billing on retries.
type Record struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID         string            `gorm:"type:text;not null;index;uniqueIndex:ux_usage_idempotency,priority:1" json:"user_id"`
	PeriodID       snowflake.ID      `gorm:"not null;index" json:"period_id"`
	Category       pricing.Category  `gorm:"type:text;not null" json:"category"`
	Quantity       float64           `gorm:"not null" json:"quantity"`
	RecordedAt     time.Time         `gorm:"not null;index" json:"recorded_at"`
	IdempotencyKey string            `gorm:"type:text;not null;uniqueIndex:ux_usage_idempotency,priority:2" json:"idempotency_key"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "usage_records" }

// Summary is the per-category usage total for one billing window. It is
// derived, never stored independently; StorageGB is a running balance of
// signed deltas floored at zero.
type Summary struct {
	UserID         string       `json:"user_id"`
	PeriodID       snowflake.ID `json:"period_id"`
	PeriodStart    time.Time    `json:"period_start"`
	PeriodEnd      time.Time    `json:"period_end"`
	AICredits      float64      `json:"ai_credits"`
	ScheduledPosts float64      `json:"scheduled_posts"`
	StorageGB      float64      `json:"storage_gb"`
	ComputedAt     time.Time    `json:"computed_at"`
}

// For returns the summarized quantity for a category.
func (s Summary) For(category pricing.Category) float64 {
	switch category {
	case pricing.CategoryAICredit:
		return s.AICredits
	case pricing.CategoryScheduledPost:
		return s.ScheduledPosts
	case pricing.CategoryStorageGB:
		return s.StorageGB
	default:
		return 0
	}
}
