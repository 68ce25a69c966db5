package service

import (
	"context"
	"fmt"
	"strings"

	accountdomain "github.com/postloom/postloom/internal/account/domain"
	"github.com/postloom/postloom/internal/billingoverview/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/internal/rating"
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
		log: p.Log.Named("billingoverview.service"),

		clock:      p.Clock,
		pricing:    p.Pricing,
		accountSvc: p.AccountSvc,
		periodSvc:  p.PeriodSvc,
		usageSvc:   p.UsageSvc,
	}
}

func (s *Service) CurrentState(ctx context.Context, userID string) (*domain.Overview, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, accountdomain.ErrInvalidUser
	}

	account, err := s.accountSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog := s.pricing.Get()
	tier, err := catalog.TierByID(account.Tier)
	if err != nil {
		return nil, fmt.Errorf("account %s has unknown tier %q: %w", userID, account.Tier, err)
	}

	period, err := s.periodSvc.GetActivePeriod(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	summary, err := s.usageSvc.Summarize(ctx, userID, *period)
	if err != nil {
		return nil, err
	}

	cost := rating.ComputeCost(vectorOf(summary), catalog.Table)
	return &domain.Overview{
		Period:   *period,
		Tier:     tier,
		Summary:  summary,
		Cost:     cost,
		Decision: rating.Decide(cost, catalog.Table),
	}, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, accountdomain.ErrInvalidUser
	}

	periods, err := s.periodSvc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	table := s.pricing.Get().Table

	entries := make([]domain.HistoryEntry, 0, len(periods))
	for _, period := range periods {
		if period.Status != perioddomain.PeriodStatusClosed {
			continue
		}
		summary, err := s.usageSvc.Summarize(ctx, userID, period)
		if err != nil {
			return nil, err
		}
		cost := rating.ComputeCost(vectorOf(summary), table)
		entries = append(entries, domain.HistoryEntry{
			Period:   period,
			Summary:  summary,
			Decision: rating.Decide(cost, table),
		})
	}
	return entries, nil
}

func vectorOf(summary usagedomain.Summary) rating.UsageVector {
	return rating.UsageVector{
		AICredits:      summary.AICredits,
		ScheduledPosts: summary.ScheduledPosts,
		StorageGB:      summary.StorageGB,
	}
}
