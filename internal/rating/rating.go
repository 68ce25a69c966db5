package rating

import (
	"math"

	"github.com/postloom/postloom/internal/pricing"
)

// RoundCents rounds half up to whole cents.
func RoundCents(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}

// ComputeCost prices a usage vector with the given table. Per-category cost is
// quantity times unit price; the total is the plain sum, kept unrounded.
func ComputeCost(vector UsageVector, table pricing.Table) CostBreakdown {
	cost := CostBreakdown{
		AICreditCents:      vector.AICredits * float64(table.AICreditCents),
		ScheduledPostCents: vector.ScheduledPosts * float64(table.ScheduledPostCents),
		StorageGBCents:     vector.StorageGB * float64(table.StorageGBCents),
	}
	cost.TotalCents = cost.AICreditCents + cost.ScheduledPostCents + cost.StorageGBCents
	return cost
}

// Decide applies the minimum charge threshold to an accrued cost. The total
// is rounded once here, at the decision boundary, and the gate compares the
// rounded amount so the outcome always agrees with the numbers it reports.
func Decide(cost CostBreakdown, table pricing.Table) Decision {
	total := RoundCents(cost.TotalCents)
	decision := Decision{TotalCents: total}

	if total >= table.MinimumChargeCents {
		decision.WillBeCharged = true
		decision.BillableCents = total
		return decision
	}

	decision.RemainingCents = table.MinimumChargeCents - total
	return decision
}

// Estimate prices a hypothetical usage vector without touching recorded
// usage. It is the what-if twin of ComputeCost plus Decide.
func Estimate(vector UsageVector, table pricing.Table) (CostBreakdown, Decision) {
	cost := ComputeCost(vector, table)
	return cost, Decide(cost, table)
}
