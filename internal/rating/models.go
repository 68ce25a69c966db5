// Package rating prices usage against the unit-price table and applies the
// minimum charge threshold. Everything here is pure: no storage, no clock.
package rating

// UsageVector is the per-category quantity input to rating. Storage is the
// period balance after flooring, never a raw delta.
type UsageVector struct {
	AICredits      float64 `json:"ai_credits"`
	ScheduledPosts float64 `json:"scheduled_posts"`
	StorageGB      float64 `json:"storage_gb"`
}

// CostBreakdown carries per-category cost in unrounded cents. Rounding happens
// once, at the decision boundary, so accumulation never loses fractions.
type CostBreakdown struct {
	AICreditCents      float64 `json:"ai_credit_cents"`
	ScheduledPostCents float64 `json:"scheduled_post_cents"`
	StorageGBCents     float64 `json:"storage_gb_cents"`
	TotalCents         float64 `json:"total_cents"`
}

// Decision is the billing outcome for one window. When the threshold is not
// met the entire accrued amount is waived, not deferred: BillableCents is the
// full total or zero, never the excess over the minimum.
type Decision struct {
	TotalCents     int64 `json:"total_cents"`
	BillableCents  int64 `json:"billable_cents"`
	WillBeCharged  bool  `json:"will_be_charged"`
	RemainingCents int64 `json:"remaining_cents"`
}
