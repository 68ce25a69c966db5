// Package domain contains persistence models for billing periods.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PeriodStatus tracks whether a period is still accruing usage.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period is one monthly billing window [PeriodStart, PeriodEnd) anchored to
// the account's signup date. Periods are never mutated in place: rollover
// closes the expired row and inserts a new one. The unique index on
// (user_id, period_start) makes concurrent rollover idempotent.
type Period struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID        string            `gorm:"type:text;not null;index;uniqueIndex:ux_billing_period_start,priority:1" json:"user_id"`
	PeriodStart   time.Time         `gorm:"not null;uniqueIndex:ux_billing_period_start,priority:2" json:"period_start"`
	PeriodEnd     time.Time         `gorm:"not null" json:"period_end"`
	Status        PeriodStatus      `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	ClosedAt      *time.Time        `gorm:"" json:"closed_at,omitempty"`
	FrozenSummary datatypes.JSONMap `gorm:"type:jsonb" json:"frozen_summary,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Period) TableName() string { return "billing_periods" }

// Contains reports whether t falls inside the half-open window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.PeriodStart) && t.Before(p.PeriodEnd)
}
