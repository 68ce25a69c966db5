package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/postloom/postloom/internal/account/domain"
	accountservice "github.com/postloom/postloom/internal/account/service"
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

func setup(t *testing.T) (*Worker, usagedomain.Service, perioddomain.Service, *clock.FakeClock) {
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

	accountSvc := accountservice.NewService(accountservice.ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		Pricing: holder,
	})
	periodSvc := periodservice.NewService(periodservice.ServiceParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		AccountSvc: accountSvc,
	})
	usageSvc := usageservice.NewService(usageservice.ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		PeriodSvc: periodSvc,
	})

	_, err = accountSvc.Upsert(context.Background(), accountdomain.UpsertAccountRequest{
		UserID:   "user-1",
		Tier:     pricing.TierSpark,
		SignupAt: time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	w := &Worker{
		log:        zap.NewNop(),
		enabled:    true,
		interval:   time.Hour,
		clock:      fake,
		pricing:    holder,
		accountSvc: accountSvc,
		periodSvc:  periodSvc,
		usageSvc:   usageSvc,
	}
	return w, usageSvc, periodSvc, fake
}

func TestSweep_RollsOverExpiredPeriods(t *testing.T) {
	w, _, periodSvc, fake := setup(t)
	ctx := context.Background()

	old, err := periodSvc.GetActivePeriod(ctx, "user-1", fake.Now())
	require.NoError(t, err)

	fake.Set(old.PeriodEnd.Add(30 * time.Minute))
	w.Sweep(ctx)

	periods, err := periodSvc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, perioddomain.PeriodStatusClosed, periods[1].Status)
	assert.Equal(t, perioddomain.PeriodStatusOpen, periods[0].Status)
	assert.True(t, periods[0].Contains(fake.Now()))
}

func TestSweep_NoopWhileWindowActive(t *testing.T) {
	w, _, periodSvc, fake := setup(t)
	ctx := context.Background()

	before, err := periodSvc.GetActivePeriod(ctx, "user-1", fake.Now())
	require.NoError(t, err)

	w.Sweep(ctx)

	periods, err := periodSvc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, before.ID, periods[0].ID)
}

func TestSweep_SecondRunIsIdempotent(t *testing.T) {
	w, _, periodSvc, fake := setup(t)
	ctx := context.Background()

	old, err := periodSvc.GetActivePeriod(ctx, "user-1", fake.Now())
	require.NoError(t, err)

	fake.Set(old.PeriodEnd.Add(30 * time.Minute))
	w.Sweep(ctx)
	w.Sweep(ctx)

	periods, err := periodSvc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestSweep_PricesClosedWindow(t *testing.T) {
	w, usageSvc, periodSvc, fake := setup(t)
	ctx := context.Background()

	// Enough usage to cross the threshold once the window closes.
	_, err := usageSvc.Record(ctx, usagedomain.RecordRequest{
		UserID:         "user-1",
		Category:       pricing.CategoryAICredit,
		Quantity:       40,
		IdempotencyKey: "k1",
	})
	require.NoError(t, err)

	old, err := periodSvc.GetActivePeriod(ctx, "user-1", fake.Now())
	require.NoError(t, err)

	fake.Set(old.PeriodEnd.Add(30 * time.Minute))
	w.Sweep(ctx)

	periods, err := periodSvc.List(ctx, "user-1")
	require.NoError(t, err)
	closed := periods[1]
	require.Equal(t, perioddomain.PeriodStatusClosed, closed.Status)
	assert.EqualValues(t, 40, closed.FrozenSummary[string(pricing.CategoryAICredit)])
}
