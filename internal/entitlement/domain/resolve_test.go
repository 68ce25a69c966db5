package domain

import (
	"testing"
	"time"

	"github.com/postloom/postloom/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = pricing.DefaultCatalog()

func tier(t *testing.T, id string) pricing.Tier {
	found, err := catalog.TierByID(id)
	require.NoError(t, err)
	return found
}

func feature(t *testing.T, key string) pricing.Feature {
	found, err := catalog.FeatureByKey(key)
	require.NoError(t, err)
	return found
}

func TestResolve_TierGate(t *testing.T) {
	cases := []struct {
		name    string
		tierID  string
		feature string
		allowed bool
	}{
		{"creator denied growth feature", pricing.TierCreator, pricing.FeatureAnalytics, false},
		{"growth gets its own features", pricing.TierGrowth, pricing.FeatureAnalytics, true},
		{"pro passes lower-tier gates", pricing.TierPro, pricing.FeatureBulkScheduling, true},
		{"growth denied pro feature", pricing.TierGrowth, pricing.FeatureTeamSeats, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Resolve(ResolveInput{
				Catalog: catalog,
				Feature: feature(t, tc.feature),
				Tier:    tier(t, tc.tierID),
			})
			assert.Equal(t, tc.allowed, result.HasAccess)
			if !tc.allowed {
				assert.Equal(t, ReasonTierInsufficient, result.Reason)
			}
		})
	}
}

func TestResolve_TierGateRunsBeforeQuota(t *testing.T) {
	// A creator over any hypothetical quota for analytics still sees the
	// upgrade message, not the quota one.
	result := Resolve(ResolveInput{
		Catalog: catalog,
		Feature: feature(t, pricing.FeatureAnalytics),
		Tier:    tier(t, pricing.TierCreator),
		Used:    1e9,
	})
	assert.False(t, result.HasAccess)
	assert.Equal(t, ReasonTierInsufficient, result.Reason)
}

func TestResolve_QuotaExhausted(t *testing.T) {
	periodEnd := time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)

	result := Resolve(ResolveInput{
		Catalog:   catalog,
		Feature:   feature(t, pricing.FeatureScheduling),
		Tier:      tier(t, pricing.TierCreator),
		Used:      100,
		PeriodEnd: periodEnd,
	})

	assert.False(t, result.HasAccess)
	assert.Equal(t, ReasonUsageLimitReached, result.Reason)
	assert.Equal(t, float64(100), result.Used)
	assert.Equal(t, float64(100), result.Limit)
	require.NotNil(t, result.ResetAt)
	assert.Equal(t, periodEnd, *result.ResetAt)
}

func TestResolve_QuotaUnderLimit(t *testing.T) {
	result := Resolve(ResolveInput{
		Catalog: catalog,
		Feature: feature(t, pricing.FeatureScheduling),
		Tier:    tier(t, pricing.TierCreator),
		Used:    99,
	})
	assert.True(t, result.HasAccess)
}

func TestResolve_PayAsYouGoHasNoCeiling(t *testing.T) {
	result := Resolve(ResolveInput{
		Catalog: catalog,
		Feature: feature(t, pricing.FeatureAIGeneration),
		Tier:    tier(t, pricing.TierSpark),
		Used:    1e6,
	})
	assert.True(t, result.HasAccess)
	assert.Nil(t, result.ResetAt)
}

func TestResolve_UnlimitedTierLimit(t *testing.T) {
	result := Resolve(ResolveInput{
		Catalog: catalog,
		Feature: feature(t, pricing.FeatureAIGeneration),
		Tier:    tier(t, pricing.TierPro),
		Used:    1e6,
	})
	assert.True(t, result.HasAccess)
}

func TestResolve_LinkedAccountCap(t *testing.T) {
	linkAccount := feature(t, pricing.FeatureLinkAccount)

	at := Resolve(ResolveInput{
		Catalog:        catalog,
		Feature:        linkAccount,
		Tier:           tier(t, pricing.TierCreator),
		LinkedAccounts: 3,
	})
	assert.False(t, at.HasAccess)
	assert.Equal(t, ReasonUsageLimitReached, at.Reason)
	assert.Nil(t, at.ResetAt)

	under := Resolve(ResolveInput{
		Catalog:        catalog,
		Feature:        linkAccount,
		Tier:           tier(t, pricing.TierCreator),
		LinkedAccounts: 2,
	})
	assert.True(t, under.HasAccess)
}

func TestResolve_LinkedAccountCapBindsPayAsYouGo(t *testing.T) {
	result := Resolve(ResolveInput{
		Catalog:        catalog,
		Feature:        feature(t, pricing.FeatureLinkAccount),
		Tier:           tier(t, pricing.TierSpark),
		LinkedAccounts: 5,
	})
	assert.False(t, result.HasAccess)
	assert.Equal(t, ReasonUsageLimitReached, result.Reason)
}

func TestResolve_UnknownRequiredTierFailsClosed(t *testing.T) {
	result := Resolve(ResolveInput{
		Catalog: catalog,
		Feature: pricing.Feature{Key: "mystery", RequiredTier: "gone"},
		Tier:    tier(t, pricing.TierPro),
	})
	assert.False(t, result.HasAccess)
	assert.Equal(t, ReasonTierInsufficient, result.Reason)
}
