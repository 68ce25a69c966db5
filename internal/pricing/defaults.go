package pricing

// Tier identifiers. Spark is the pay-as-you-go entry tier; the fixed plans
// follow in rank order.
const (
	TierSpark   = "spark"
	TierCreator = "creator"
	TierGrowth  = "growth"
	TierPro     = "pro"
)

// Feature keys gated by the entitlement resolver.
const (
	FeatureLinkAccount    = "link_account"
	FeatureAIGeneration   = "ai_generation"
	FeatureScheduling     = "scheduling"
	FeatureStorage        = "storage"
	FeatureAnalytics      = "analytics"
	FeatureBulkScheduling = "bulk_scheduling"
	FeatureTeamSeats      = "team_seats"
)

// DefaultCatalog returns the canonical pricing contract. A deploy may override
// it from pricing.yml, but these numbers are the source of truth.
func DefaultCatalog() Catalog {
	return Catalog{
		Table: Table{
			AICreditCents:      15,
			ScheduledPostCents: 25,
			StorageGBCents:     299,
			MinimumChargeCents: 500,
		},
		Tiers: []Tier{
			{
				ID:         TierSpark,
				Name:       "Spark",
				Rank:       0,
				PayAsYouGo: true,
				Limits: Limits{
					LinkedAccounts: 5,
					AICredits:      Unlimited,
					ScheduledPosts: Unlimited,
					StorageGB:      Unlimited,
				},
			},
			{
				ID:                TierCreator,
				Name:              "Creator",
				Rank:              1,
				MonthlyPriceCents: 1900,
				Limits: Limits{
					LinkedAccounts: 3,
					AICredits:      150,
					ScheduledPosts: 100,
					StorageGB:      5,
				},
			},
			{
				ID:                TierGrowth,
				Name:              "Growth",
				Rank:              2,
				MonthlyPriceCents: 4900,
				Limits: Limits{
					LinkedAccounts: 7,
					AICredits:      400,
					ScheduledPosts: 300,
					StorageGB:      15,
				},
			},
			{
				ID:                TierPro,
				Name:              "Pro",
				Rank:              3,
				MonthlyPriceCents: 9900,
				Limits: Limits{
					LinkedAccounts: 10,
					AICredits:      Unlimited,
					ScheduledPosts: Unlimited,
					StorageGB:      50,
				},
			},
		},
		Features: []Feature{
			{Key: FeatureLinkAccount, RequiredTier: TierSpark},
			{Key: FeatureAIGeneration, RequiredTier: TierSpark, Category: CategoryAICredit},
			{Key: FeatureScheduling, RequiredTier: TierSpark, Category: CategoryScheduledPost},
			{Key: FeatureStorage, RequiredTier: TierSpark, Category: CategoryStorageGB},
			{Key: FeatureAnalytics, RequiredTier: TierGrowth},
			{Key: FeatureBulkScheduling, RequiredTier: TierGrowth},
			{Key: FeatureTeamSeats, RequiredTier: TierPro},
		},
	}
}
