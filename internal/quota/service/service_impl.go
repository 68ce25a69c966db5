package service

import (
	"context"
	"fmt"
	"time"

	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/quota/domain"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// keyExpiry outlives the longest calendar month so a key never truncates its
// own window, while still garbage-collecting idle users.
const keyExpiry = 35 * 24 * time.Hour

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Client *goredis.Client
}

type Service struct {
	log *zap.Logger

	cfg    domain.Config
	clock  clock.Clock
	client *goredis.Client
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log: p.Log.Named("quota.service"),

		cfg:    domain.LoadConfig(),
		clock:  p.Clock,
		client: p.Client,
	}
}

// CanIngest counts events per user per calendar month with a Redis INCR.
// Counter-store failures fail open: an unavailable Redis must not take the
// ingest path down with it.
func (s *Service) CanIngest(ctx context.Context, userID string) error {
	if !s.cfg.Enabled {
		return nil
	}

	key := s.monthlyKey(userID)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.log.Warn("quota counter unavailable, allowing ingest",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	if count == 1 {
		s.client.Expire(ctx, key, keyExpiry)
	}

	if count > s.cfg.MonthlyEvents {
		return domain.ErrQuotaExceeded
	}
	return nil
}

func (s *Service) monthlyKey(userID string) string {
	now := s.clock.Now().UTC()
	return fmt.Sprintf("quota:usage:%s:%s", userID, now.Format("2006-01"))
}
