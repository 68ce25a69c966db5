package domain

import (
	"time"

	"github.com/postloom/postloom/internal/pricing"
)

// ResolveInput is the full state an entitlement decision depends on.
type ResolveInput struct {
	Catalog        pricing.Catalog
	Feature        pricing.Feature
	Tier           pricing.Tier
	Used           float64
	LinkedAccounts int
	PeriodEnd      time.Time
}

// Resolve is the pure entitlement rule. Order matters: the tier gate runs
// before any quota check, so an under-tiered user is told to upgrade rather
// than to wait for a reset.
func Resolve(in ResolveInput) AccessResult {
	result := AccessResult{Feature: in.Feature.Key}

	requiredRank := in.Catalog.RankOf(in.Feature.RequiredTier)
	if requiredRank < 0 || in.Tier.Rank < requiredRank {
		result.Reason = ReasonTierInsufficient
		return result
	}

	if in.Feature.Key == pricing.FeatureLinkAccount {
		// The linked-account cap binds every tier, pay-as-you-go included.
		// It does not reset with the billing period.
		limit := float64(in.Tier.Limits.LinkedAccounts)
		result.Used = float64(in.LinkedAccounts)
		result.Limit = limit
		if limit != pricing.Unlimited && result.Used >= limit {
			result.Reason = ReasonUsageLimitReached
			return result
		}
		result.HasAccess = true
		return result
	}

	if !in.Feature.Metered() || in.Tier.PayAsYouGo {
		// Flag features pass on rank alone; pay-as-you-go tiers meter cost,
		// not quantity, so no usage ceiling applies.
		result.HasAccess = true
		return result
	}

	limit := in.Tier.Limits.For(in.Feature.Category)
	result.Used = in.Used
	result.Limit = limit
	if limit != pricing.Unlimited && in.Used >= limit {
		result.Reason = ReasonUsageLimitReached
		resetAt := in.PeriodEnd
		result.ResetAt = &resetAt
		return result
	}

	result.HasAccess = true
	return result
}
