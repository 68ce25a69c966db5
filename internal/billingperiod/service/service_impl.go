package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/postloom/postloom/internal/account/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/metrics"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/pkg/db"
	"github.com/postloom/postloom/pkg/db/option"
	"github.com/postloom/postloom/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	AccountSvc accountdomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	accountSvc accountdomain.Service
	periodrepo repository.Repository[perioddomain.Period]
	metrics    *metrics.Metrics
}

func NewService(p ServiceParam) perioddomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("billingperiod.service"),

		genID:      p.GenID,
		accountSvc: p.AccountSvc,
		periodrepo: repository.ProvideStore[perioddomain.Period](p.DB),
		metrics:    p.Metrics,
	}
}

func (s *Service) GetActivePeriod(ctx context.Context, userID string, now time.Time) (*perioddomain.Period, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perioddomain.ErrInvalidUser
	}
	now = now.UTC()

	open, err := s.findOpenPeriod(ctx, s.db, userID, false)
	if err != nil {
		return nil, err
	}
	if open != nil && open.Contains(now) {
		return open, nil
	}

	return s.Rollover(ctx, userID, now)
}

// Rollover closes an expired open period (freezing its usage summary for
// historical display) and opens the window containing now. Stale gaps are not
// backfilled: the new window is computed from the anchor, not from the old
// boundary plus one interval.
func (s *Service) Rollover(ctx context.Context, userID string, now time.Time) (*perioddomain.Period, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perioddomain.ErrInvalidUser
	}
	now = now.UTC()

	account, err := s.accountSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result *perioddomain.Period
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := s.findOpenPeriod(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if open != nil && open.Contains(now) {
			// Another writer already rolled this user over.
			result = open
			return nil
		}
		if open != nil {
			if err := s.closePeriod(ctx, tx, open, now); err != nil {
				return err
			}
			s.metrics.IncPeriodRollover()
		}

		start, end := perioddomain.WindowContaining(account.SignupAt, now)
		period, err := s.insertPeriod(ctx, tx, userID, start, end, now)
		if err != nil {
			return err
		}
		result = period
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]perioddomain.Period, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perioddomain.ErrInvalidUser
	}

	rows, err := s.periodrepo.Find(ctx, &perioddomain.Period{UserID: userID},
		option.WithSortBy(option.QuerySortBy{
			Field: "period_start",
			Desc:  true,
			Allow: map[string]bool{"period_start": true},
		}),
	)
	if err != nil {
		return nil, errors.Join(perioddomain.ErrStoreFailure, err)
	}

	periods := make([]perioddomain.Period, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, *row)
	}
	return periods, nil
}

func (s *Service) findOpenPeriod(ctx context.Context, tx *gorm.DB, userID string, forUpdate bool) (*perioddomain.Period, error) {
	query := tx.WithContext(ctx)
	if forUpdate && supportsRowLocks(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var period perioddomain.Period
	err := query.
		Where("user_id = ? AND status = ?", userID, perioddomain.PeriodStatusOpen).
		Order("period_start DESC").
		First(&period).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Join(perioddomain.ErrStoreFailure, err)
	}
	return &period, nil
}

func (s *Service) closePeriod(ctx context.Context, tx *gorm.DB, period *perioddomain.Period, now time.Time) error {
	frozen, err := s.summarizeWindow(ctx, tx, period.UserID, period.PeriodStart, period.PeriodEnd)
	if err != nil {
		return err
	}

	closedAt := now
	err = tx.WithContext(ctx).
		Model(&perioddomain.Period{}).
		Where("user_id = ? AND id = ?", period.UserID, period.ID).
		Updates(map[string]any{
			"status":         perioddomain.PeriodStatusClosed,
			"closed_at":      closedAt,
			"frozen_summary": datatypes.JSONMap(frozen),
			"updated_at":     now,
		}).Error
	if err != nil {
		return errors.Join(perioddomain.ErrStoreFailure, err)
	}
	return nil
}

// summarizeWindow sums usage within [start, end) per category so the closing
// period keeps its totals after the fact. Storage is a running balance of
// signed deltas floored at zero.
func (s *Service) summarizeWindow(ctx context.Context, tx *gorm.DB, userID string, start, end time.Time) (map[string]any, error) {
	frozen := make(map[string]any, len(pricing.Categories))
	for _, category := range pricing.Categories {
		var total float64
		err := tx.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(quantity), 0)
			 FROM usage_records
			 WHERE user_id = ? AND category = ?
			 AND recorded_at >= ? AND recorded_at < ?`,
			userID,
			category,
			start,
			end,
		).Scan(&total).Error
		if err != nil {
			return nil, errors.Join(perioddomain.ErrStoreFailure, err)
		}
		if category == pricing.CategoryStorageGB && total < 0 {
			s.log.Warn("storage balance floored at zero",
				zap.String("user_id", userID),
				zap.Float64("balance", total),
			)
			s.metrics.IncStorageFloor()
			total = 0
		}
		frozen[string(category)] = total
	}
	return frozen, nil
}

func (s *Service) insertPeriod(ctx context.Context, tx *gorm.DB, userID string, start, end, now time.Time) (*perioddomain.Period, error) {
	if !end.After(start) {
		return nil, perioddomain.ErrInvalidPeriod
	}

	period := &perioddomain.Period{
		ID:          s.genID.Generate(),
		UserID:      userID,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      perioddomain.PeriodStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "period_start"}},
		DoNothing: true,
	}).Create(period)
	if result.Error != nil && !db.IsDuplicateKeyErr(result.Error) {
		return nil, errors.Join(perioddomain.ErrStoreFailure, result.Error)
	}
	if result.Error == nil && result.RowsAffected > 0 {
		return period, nil
	}

	// Conflict: a concurrent rollover created the same window. Boundaries are
	// deterministic functions of the anchor, so the existing row is ours.
	s.metrics.IncPeriodConflict()
	var existing perioddomain.Period
	err := tx.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", userID, start).
		First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, perioddomain.ErrPeriodConflict
		}
		return nil, errors.Join(perioddomain.ErrStoreFailure, err)
	}
	return &existing, nil
}

// storeErr classifies an unrecognized storage failure so callers can tell a
// retryable outage from a validation error. Known sentinels pass through.
func storeErr(err error) error {
	if errors.Is(err, perioddomain.ErrStoreFailure) ||
		errors.Is(err, perioddomain.ErrInvalidPeriod) ||
		errors.Is(err, perioddomain.ErrPeriodConflict) ||
		errors.Is(err, accountdomain.ErrAccountNotFound) {
		return err
	}
	return errors.Join(perioddomain.ErrStoreFailure, err)
}

func supportsRowLocks(tx *gorm.DB) bool {
	name := strings.ToLower(tx.Dialector.Name())
	return name == "postgres" || name == "mysql"
}
