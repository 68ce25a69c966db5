// Package scheduler runs the periodic billing sweep: it rolls expired periods
// over for every account and flags freshly closed windows that crossed the
// minimum charge threshold.
package scheduler

import (
	"context"
	"os"
	"time"

	accountdomain "github.com/postloom/postloom/internal/account/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	appclock "github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/config"
	"github.com/postloom/postloom/internal/metrics"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/internal/rating"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultSweepInterval = time.Hour

type WorkerParam struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	Clock      appclock.Clock
	Pricing    *pricing.Holder
	AccountSvc accountdomain.Service
	PeriodSvc  perioddomain.Service
	UsageSvc   usagedomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Worker struct {
	log *zap.Logger

	enabled    bool
	interval   time.Duration
	clock      appclock.Clock
	pricing    *pricing.Holder
	accountSvc accountdomain.Service
	periodSvc  perioddomain.Service
	usageSvc   usagedomain.Service
	metrics    *metrics.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(p WorkerParam) *Worker {
	return &Worker{
		log: p.Log.Named("scheduler"),

		enabled:    p.Config.SchedulerEnabled,
		interval:   sweepInterval(),
		clock:      p.Clock,
		pricing:    p.Pricing,
		accountSvc: p.AccountSvc,
		periodSvc:  p.PeriodSvc,
		usageSvc:   p.UsageSvc,
		metrics:    p.Metrics,
	}
}

func sweepInterval() time.Duration {
	if raw := os.Getenv("SCHEDULER_SWEEP_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return defaultSweepInterval
}

func (w *Worker) Start(ctx context.Context) error {
	if !w.enabled {
		w.log.Info("scheduler disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				w.Sweep(runCtx)
			}
		}
	}()

	w.log.Info("scheduler started", zap.Duration("interval", w.interval))
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Sweep walks every account once. Rollover is idempotent, so overlapping
// sweeps or a concurrent request-path rollover are harmless.
func (w *Worker) Sweep(ctx context.Context) {
	w.metrics.IncSweepRun()
	now := w.clock.Now().UTC()

	userIDs, err := w.accountSvc.ListUserIDs(ctx)
	if err != nil {
		w.metrics.IncSweepError()
		w.log.Error("sweep could not list accounts", zap.Error(err))
		return
	}

	var swept, failed int
	for _, userID := range userIDs {
		if err := w.sweepUser(ctx, userID, now); err != nil {
			failed++
			w.log.Warn("sweep failed for user",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		swept++
	}
	if failed > 0 {
		w.metrics.IncSweepError()
	}
	w.log.Info("sweep finished",
		zap.Int("accounts", swept),
		zap.Int("failed", failed),
	)
}

func (w *Worker) sweepUser(ctx context.Context, userID string, now time.Time) error {
	if _, err := w.periodSvc.GetActivePeriod(ctx, userID, now); err != nil {
		return err
	}

	// A period closed within the last interval is new since the previous
	// sweep; price its frozen totals and surface threshold crossings.
	periods, err := w.periodSvc.List(ctx, userID)
	if err != nil {
		return err
	}
	table := w.pricing.Get().Table
	for _, period := range periods {
		if period.Status != perioddomain.PeriodStatusClosed || period.ClosedAt == nil {
			continue
		}
		if now.Sub(period.ClosedAt.UTC()) > w.interval {
			break
		}
		summary, err := w.usageSvc.Summarize(ctx, userID, period)
		if err != nil {
			return err
		}
		_, decision := rating.Estimate(vectorOf(summary), table)
		if decision.WillBeCharged {
			w.metrics.IncChargeReady()
			w.log.Info("period ready to charge",
				zap.String("user_id", userID),
				zap.Int64("period_id", period.ID.Int64()),
				zap.Int64("billable_cents", decision.BillableCents),
			)
		}
	}
	return nil
}

func vectorOf(summary usagedomain.Summary) rating.UsageVector {
	return rating.UsageVector{
		AICredits:      summary.AICredits,
		ScheduledPosts: summary.ScheduledPosts,
		StorageGB:      summary.StorageGB,
	}
}
