package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/postloom/postloom/internal/account/domain"
	accountservice "github.com/postloom/postloom/internal/account/service"
	overviewdomain "github.com/postloom/postloom/internal/billingoverview/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	periodservice "github.com/postloom/postloom/internal/billingperiod/service"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/pricing"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
	usageservice "github.com/postloom/postloom/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (overviewdomain.Service, usagedomain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&perioddomain.Period{},
		&usagedomain.Record{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))
	holder := pricing.NewStaticHolder(pricing.DefaultCatalog())
	log := zap.NewNop()

	accountSvc := accountservice.NewService(accountservice.ServiceParam{
		DB: db, Log: log, Pricing: holder,
	})
	periodSvc := periodservice.NewService(periodservice.ServiceParam{
		DB: db, Log: log, GenID: node, AccountSvc: accountSvc,
	})
	usageSvc := usageservice.NewService(usageservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, PeriodSvc: periodSvc,
	})
	svc := NewService(ServiceParam{
		Log: log, Clock: fake, Pricing: holder,
		AccountSvc: accountSvc, PeriodSvc: periodSvc, UsageSvc: usageSvc,
	})

	_, err = accountSvc.Upsert(context.Background(), accountdomain.UpsertAccountRequest{
		UserID:   "user-1",
		Tier:     pricing.TierSpark,
		SignupAt: time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return svc, usageSvc, fake
}

func ingest(t *testing.T, usageSvc usagedomain.Service, category pricing.Category, qty float64, key string) {
	t.Helper()
	_, err := usageSvc.Record(context.Background(), usagedomain.RecordRequest{
		UserID:         "user-1",
		Category:       category,
		Quantity:       qty,
		IdempotencyKey: key,
	})
	require.NoError(t, err)
}

func TestCurrentState_ComposesDecision(t *testing.T) {
	svc, usageSvc, _ := setup(t)

	ingest(t, usageSvc, pricing.CategoryAICredit, 10, "c")
	ingest(t, usageSvc, pricing.CategoryScheduledPost, 3, "p")
	ingest(t, usageSvc, pricing.CategoryStorageGB, 1, "s")

	overview, err := svc.CurrentState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, pricing.TierSpark, overview.Tier.ID)
	assert.Equal(t, perioddomain.PeriodStatusOpen, overview.Period.Status)
	assert.Equal(t, float64(10), overview.Summary.AICredits)
	assert.InDelta(t, 524, overview.Cost.TotalCents, 1e-9)
	assert.True(t, overview.Decision.WillBeCharged)
	assert.Equal(t, int64(524), overview.Decision.BillableCents)
}

func TestCurrentState_BelowThreshold(t *testing.T) {
	svc, usageSvc, _ := setup(t)

	ingest(t, usageSvc, pricing.CategoryAICredit, 5, "c")

	overview, err := svc.CurrentState(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, overview.Decision.WillBeCharged)
	assert.Equal(t, int64(425), overview.Decision.RemainingCents)
}

func TestCurrentState_UnknownUser(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.CurrentState(context.Background(), "ghost")
	assert.ErrorIs(t, err, accountdomain.ErrAccountNotFound)
}

func TestHistory_ReturnsOnlyClosedPeriods(t *testing.T) {
	svc, usageSvc, fake := setup(t)
	ctx := context.Background()

	ingest(t, usageSvc, pricing.CategoryAICredit, 40, "c")

	// Open the window, then jump past its end so CurrentState rolls it over.
	first, err := svc.CurrentState(ctx, "user-1")
	require.NoError(t, err)
	fake.Set(first.Period.PeriodEnd.Add(time.Hour))
	_, err = svc.CurrentState(ctx, "user-1")
	require.NoError(t, err)

	history, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, perioddomain.PeriodStatusClosed, history[0].Period.Status)
	assert.Equal(t, float64(40), history[0].Summary.AICredits)
	assert.True(t, history[0].Decision.WillBeCharged)
	assert.Equal(t, int64(600), history[0].Decision.BillableCents)
}
