// Package domain defines entitlement checks: can this user exercise this
// feature right now, given their tier and current-period usage.
package domain

import (
	"context"
	"errors"
	"time"
)

// Denial reasons. An empty reason means access was granted.
const (
	ReasonTierInsufficient  = "tier_insufficient"
	ReasonUsageLimitReached = "usage_limit_reached"
)

// AccessResult is one entitlement answer. Used and Limit are only meaningful
// for quota-bound features; ResetAt is set when the denial clears at the next
// period boundary.
type AccessResult struct {
	Feature   string     `json:"feature"`
	HasAccess bool       `json:"has_access"`
	Reason    string     `json:"reason,omitempty"`
	Used      float64    `json:"used,omitempty"`
	Limit     float64    `json:"limit,omitempty"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

type Service interface {
	// CheckAccess resolves entitlement from live account, period, and usage
	// state. Missing account or usage data is an error, never a silent grant.
	CheckAccess(ctx context.Context, userID, featureKey string) (*AccessResult, error)
}

var ErrInvalidFeature = errors.New("invalid_feature")
