package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	accountdomain "github.com/postloom/postloom/internal/account/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/entitlement/domain"
	"github.com/postloom/postloom/internal/pricing"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Pricing    *pricing.Holder
	AccountSvc accountdomain.Service
	PeriodSvc  perioddomain.Service
	UsageSvc   usagedomain.Service
}

type Service struct {
	log *zap.Logger

	clock      clock.Clock
	pricing    *pricing.Holder
	accountSvc accountdomain.Service
	periodSvc  perioddomain.Service
	usageSvc   usagedomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log: p.Log.Named("entitlement.service"),

		clock:      p.Clock,
		pricing:    p.Pricing,
		accountSvc: p.AccountSvc,
		periodSvc:  p.PeriodSvc,
		usageSvc:   p.UsageSvc,
	}
}

// CheckAccess loads the live inputs and delegates to the pure resolver. Any
// missing piece of state is surfaced as an error: entitlement never guesses
// in the caller's favor.
func (s *Service) CheckAccess(ctx context.Context, userID, featureKey string) (*domain.AccessResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, accountdomain.ErrInvalidUser
	}
	featureKey = strings.TrimSpace(featureKey)
	if featureKey == "" {
		return nil, domain.ErrInvalidFeature
	}

	catalog := s.pricing.Get()
	feature, err := catalog.FeatureByKey(featureKey)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidFeature, err)
	}

	account, err := s.accountSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier, err := catalog.TierByID(account.Tier)
	if err != nil {
		return nil, fmt.Errorf("account %s has unknown tier %q: %w", userID, account.Tier, err)
	}

	in := domain.ResolveInput{
		Catalog:        catalog,
		Feature:        feature,
		Tier:           tier,
		LinkedAccounts: account.LinkedAccounts,
	}

	// Usage only matters for metered features on quota-bound tiers, so the
	// period and summary lookups are skipped everywhere else.
	if feature.Metered() && !tier.PayAsYouGo {
		period, err := s.periodSvc.GetActivePeriod(ctx, userID, s.clock.Now())
		if err != nil {
			return nil, err
		}
		summary, err := s.usageSvc.Summarize(ctx, userID, *period)
		if err != nil {
			return nil, err
		}
		in.Used = summary.For(feature.Category)
		in.PeriodEnd = period.PeriodEnd
	}

	result := domain.Resolve(in)
	if !result.HasAccess {
		s.log.Debug("entitlement denied",
			zap.String("user_id", userID),
			zap.String("feature", featureKey),
			zap.String("reason", result.Reason),
		)
	}
	return &result, nil
}
