package rating

import (
	"testing"

	"github.com/postloom/postloom/internal/pricing"
	"github.com/stretchr/testify/assert"
)

var table = pricing.DefaultCatalog().Table

func TestComputeCost_UnitPrices(t *testing.T) {
	cost := ComputeCost(UsageVector{AICredits: 10, ScheduledPosts: 3, StorageGB: 1}, table)

	assert.InDelta(t, 150, cost.AICreditCents, 1e-9)
	assert.InDelta(t, 75, cost.ScheduledPostCents, 1e-9)
	assert.InDelta(t, 299, cost.StorageGBCents, 1e-9)
	assert.InDelta(t, 524, cost.TotalCents, 1e-9)
}

func TestComputeCost_Additive(t *testing.T) {
	a := ComputeCost(UsageVector{AICredits: 4, StorageGB: 0.5}, table)
	b := ComputeCost(UsageVector{AICredits: 6, ScheduledPosts: 2, StorageGB: 0.5}, table)
	combined := ComputeCost(UsageVector{AICredits: 10, ScheduledPosts: 2, StorageGB: 1}, table)

	assert.InDelta(t, combined.TotalCents, a.TotalCents+b.TotalCents, 1e-9)
}

func TestComputeCost_ZeroUsage(t *testing.T) {
	cost := ComputeCost(UsageVector{}, table)
	assert.Zero(t, cost.TotalCents)
}

func TestDecide_AboveThresholdChargesFullAmount(t *testing.T) {
	cost := ComputeCost(UsageVector{AICredits: 10, ScheduledPosts: 3, StorageGB: 1}, table)
	decision := Decide(cost, table)

	assert.True(t, decision.WillBeCharged)
	assert.Equal(t, int64(524), decision.TotalCents)
	assert.Equal(t, int64(524), decision.BillableCents)
	assert.Zero(t, decision.RemainingCents)
}

func TestDecide_BelowThresholdWaivesEverything(t *testing.T) {
	cost := ComputeCost(UsageVector{AICredits: 5}, table)
	decision := Decide(cost, table)

	assert.False(t, decision.WillBeCharged)
	assert.Equal(t, int64(75), decision.TotalCents)
	assert.Zero(t, decision.BillableCents)
	assert.Equal(t, int64(425), decision.RemainingCents)
}

func TestDecide_ThresholdBoundary(t *testing.T) {
	cases := []struct {
		name     string
		total    float64
		charged  bool
		billable int64
	}{
		{"one cent below", 499, false, 0},
		{"exactly at threshold", 500, true, 500},
		{"one cent above", 501, true, 501},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Decide(CostBreakdown{TotalCents: tc.total}, table)
			assert.Equal(t, tc.charged, decision.WillBeCharged)
			assert.Equal(t, tc.billable, decision.BillableCents)
		})
	}
}

func TestDecide_FractionalTotalRoundsBeforeGate(t *testing.T) {
	// A balance within half a cent of the threshold lands on whichever side
	// its rounded total does, so the reported triple is never contradictory.
	over := Decide(CostBreakdown{TotalCents: 499.6}, table)
	assert.True(t, over.WillBeCharged)
	assert.Equal(t, int64(500), over.TotalCents)
	assert.Equal(t, int64(500), over.BillableCents)

	under := Decide(CostBreakdown{TotalCents: 499.4}, table)
	assert.False(t, under.WillBeCharged)
	assert.Equal(t, int64(499), under.TotalCents)
	assert.Equal(t, int64(1), under.RemainingCents)
}

func TestDecide_ChargesTotalNotExcess(t *testing.T) {
	decision := Decide(CostBreakdown{TotalCents: 750}, table)

	// The threshold is a gate, not a deductible.
	assert.Equal(t, int64(750), decision.BillableCents)
}

func TestRoundCents_HalfUp(t *testing.T) {
	assert.Equal(t, int64(524), RoundCents(523.5))
	assert.Equal(t, int64(523), RoundCents(523.4999))
	assert.Equal(t, int64(0), RoundCents(0.4))
	assert.Equal(t, int64(1), RoundCents(0.5))
}

func TestEstimate_MatchesComputeAndDecide(t *testing.T) {
	vector := UsageVector{AICredits: 100, ScheduledPosts: 40, StorageGB: 2.5}

	cost, decision := Estimate(vector, table)
	assert.Equal(t, ComputeCost(vector, table), cost)
	assert.Equal(t, Decide(cost, table), decision)
}

func TestEstimate_Monotone(t *testing.T) {
	small, _ := Estimate(UsageVector{AICredits: 10}, table)
	large, _ := Estimate(UsageVector{AICredits: 11}, table)
	assert.Greater(t, large.TotalCents, small.TotalCents)
}
