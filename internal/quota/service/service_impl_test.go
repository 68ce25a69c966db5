package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/quota/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T, limit int64) (*Service, *miniredis.Miniredis, *clock.FakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	fake := clock.NewFakeClock(time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))

	svc := &Service{
		log:    zap.NewNop(),
		cfg:    domain.Config{Enabled: true, MonthlyEvents: limit},
		clock:  fake,
		client: client,
	}
	return svc, mr, fake
}

func TestCanIngest_UnderLimit(t *testing.T) {
	svc, _, _ := setup(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.NoError(t, svc.CanIngest(ctx, "user-1"))
	}
}

func TestCanIngest_OverLimit(t *testing.T) {
	svc, _, _ := setup(t, 2)
	ctx := context.Background()

	require.NoError(t, svc.CanIngest(ctx, "user-1"))
	require.NoError(t, svc.CanIngest(ctx, "user-1"))
	assert.ErrorIs(t, svc.CanIngest(ctx, "user-1"), domain.ErrQuotaExceeded)
}

func TestCanIngest_CountersAreScopedPerUser(t *testing.T) {
	svc, _, _ := setup(t, 1)
	ctx := context.Background()

	require.NoError(t, svc.CanIngest(ctx, "user-1"))
	assert.NoError(t, svc.CanIngest(ctx, "user-2"))
	assert.ErrorIs(t, svc.CanIngest(ctx, "user-1"), domain.ErrQuotaExceeded)
}

func TestCanIngest_ResetsNextMonth(t *testing.T) {
	svc, _, fake := setup(t, 1)
	ctx := context.Background()

	require.NoError(t, svc.CanIngest(ctx, "user-1"))
	require.ErrorIs(t, svc.CanIngest(ctx, "user-1"), domain.ErrQuotaExceeded)

	fake.Set(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, svc.CanIngest(ctx, "user-1"))
}

func TestCanIngest_FailsOpenWhenRedisDown(t *testing.T) {
	svc, mr, _ := setup(t, 1)
	mr.Close()

	assert.NoError(t, svc.CanIngest(context.Background(), "user-1"))
	assert.NoError(t, svc.CanIngest(context.Background(), "user-1"))
}

func TestCanIngest_Disabled(t *testing.T) {
	svc, _, _ := setup(t, 1)
	svc.cfg.Enabled = false
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.NoError(t, svc.CanIngest(ctx, "user-1"))
	}
}

func TestCanIngest_SetsKeyExpiry(t *testing.T) {
	svc, mr, fake := setup(t, 10)

	require.NoError(t, svc.CanIngest(context.Background(), "user-1"))
	key := "quota:usage:user-1:" + fake.Now().Format("2006-01")
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}
