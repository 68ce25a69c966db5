// Package pricing holds the unit-price table, subscription tiers, and the
// feature catalog. Values are process-wide configuration, read-only at runtime.
package pricing

import "errors"

// Category identifies a billable meter.
type Category string

const (
	CategoryAICredit      Category = "ai_credit"
	CategoryScheduledPost Category = "scheduled_post"
	CategoryStorageGB     Category = "storage_gb"
)

// Categories lists every billable meter in rating order.
var Categories = []Category{CategoryAICredit, CategoryScheduledPost, CategoryStorageGB}

func (c Category) Valid() bool {
	switch c {
	case CategoryAICredit, CategoryScheduledPost, CategoryStorageGB:
		return true
	}
	return false
}

// Unlimited marks a tier limit with no ceiling.
const Unlimited = -1

// Table is the unit-price model. Prices are integer cents; cost accumulation
// stays unrounded until display.
type Table struct {
	AICreditCents      int64 `mapstructure:"ai_credit_cents" json:"ai_credit_cents"`
	ScheduledPostCents int64 `mapstructure:"scheduled_post_cents" json:"scheduled_post_cents"`
	StorageGBCents     int64 `mapstructure:"storage_gb_cents" json:"storage_gb_cents"`
	MinimumChargeCents int64 `mapstructure:"minimum_charge_cents" json:"minimum_charge_cents"`
}

// UnitPriceCents returns the unit price for a category.
func (t Table) UnitPriceCents(category Category) int64 {
	switch category {
	case CategoryAICredit:
		return t.AICreditCents
	case CategoryScheduledPost:
		return t.ScheduledPostCents
	case CategoryStorageGB:
		return t.StorageGBCents
	default:
		return 0
	}
}

// Limits are per-period ceilings for a fixed plan. Unlimited (-1) disables a
// ceiling; pay-as-you-go tiers carry no usage ceilings at all.
type Limits struct {
	LinkedAccounts int     `mapstructure:"linked_accounts" json:"linked_accounts"`
	AICredits      float64 `mapstructure:"ai_credits" json:"ai_credits"`
	ScheduledPosts float64 `mapstructure:"scheduled_posts" json:"scheduled_posts"`
	StorageGB      float64 `mapstructure:"storage_gb" json:"storage_gb"`
}

// For returns the usage ceiling for a category.
func (l Limits) For(category Category) float64 {
	switch category {
	case CategoryAICredit:
		return l.AICredits
	case CategoryScheduledPost:
		return l.ScheduledPosts
	case CategoryStorageGB:
		return l.StorageGB
	default:
		return Unlimited
	}
}

// Tier is one subscription plan. Rank gives the total order used for
// "requires tier X or above" checks.
type Tier struct {
	ID                string `mapstructure:"id" json:"id"`
	Name              string `mapstructure:"name" json:"name"`
	Rank              int    `mapstructure:"rank" json:"rank"`
	MonthlyPriceCents int64  `mapstructure:"monthly_price_cents" json:"monthly_price_cents"`
	PayAsYouGo        bool   `mapstructure:"pay_as_you_go" json:"pay_as_you_go"`
	Limits            Limits `mapstructure:"limits" json:"limits"`
}

// Feature is a gated capability. Metered features carry the category whose
// quota constrains them; flag-only features gate on tier rank alone.
type Feature struct {
	Key          string   `mapstructure:"key" json:"key"`
	RequiredTier string   `mapstructure:"required_tier" json:"required_tier"`
	Category     Category `mapstructure:"category" json:"category,omitempty"`
}

// Metered reports whether the feature consumes a billable category.
func (f Feature) Metered() bool { return f.Category != "" }

// Catalog bundles the pricing table, tier definitions, and feature catalog.
type Catalog struct {
	Table    Table     `mapstructure:"table" json:"table"`
	Tiers    []Tier    `mapstructure:"tiers" json:"tiers"`
	Features []Feature `mapstructure:"features" json:"features"`
}

var (
	ErrUnknownTier    = errors.New("unknown_tier")
	ErrUnknownFeature = errors.New("unknown_feature")
)

// TierByID resolves a tier by its identifier.
func (c Catalog) TierByID(id string) (Tier, error) {
	for _, tier := range c.Tiers {
		if tier.ID == id {
			return tier, nil
		}
	}
	return Tier{}, ErrUnknownTier
}

// FeatureByKey resolves a feature from the catalog.
func (c Catalog) FeatureByKey(key string) (Feature, error) {
	for _, feature := range c.Features {
		if feature.Key == key {
			return feature, nil
		}
	}
	return Feature{}, ErrUnknownFeature
}

// RankOf returns the tier rank, or -1 for unknown tiers so comparisons
// against a known tier always fail closed.
func (c Catalog) RankOf(tierID string) int {
	tier, err := c.TierByID(tierID)
	if err != nil {
		return -1
	}
	return tier.Rank
}
