package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/cache"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/metrics"
	"github.com/postloom/postloom/internal/pricing"
	quotadomain "github.com/postloom/postloom/internal/quota/domain"
	"github.com/postloom/postloom/internal/usage/domain"
	"github.com/postloom/postloom/pkg/db"
	"github.com/postloom/postloom/pkg/db/option"
	"github.com/postloom/postloom/pkg/db/pagination"
	"github.com/postloom/postloom/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	activeSummaryTTL = 30 * time.Second
	closedSummaryTTL = 24 * time.Hour
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	PeriodSvc perioddomain.Service
	QuotaSvc  quotadomain.Service `optional:"true"`
	Metrics   *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	periodSvc perioddomain.Service
	quotaSvc  quotadomain.Service
	usagerepo repository.Repository[domain.Record]
	summaries cache.Cache[string, domain.Summary]
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID:     p.GenID,
		clock:     p.Clock,
		periodSvc: p.PeriodSvc,
		quotaSvc:  p.QuotaSvc,
		usagerepo: repository.ProvideStore[domain.Record](p.DB),
		summaries: cache.NewTTLCache[string, domain.Summary](),
		metrics:   p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.RecordResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		s.metrics.IncUsageRejected("invalid_user")
		return nil, domain.ErrInvalidUser
	}
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.IdempotencyKey == "" {
		s.metrics.IncUsageRejected("invalid_idempotency_key")
		return nil, domain.ErrInvalidIdempotencyKey
	}
	if !req.Category.Valid() {
		s.metrics.IncUsageRejected("invalid_category")
		return nil, domain.ErrInvalidCategory
	}
	if err := validateQuantity(req.Category, req.Quantity); err != nil {
		s.metrics.IncUsageRejected("invalid_quantity")
		return nil, err
	}

	if s.quotaSvc != nil {
		if err := s.quotaSvc.CanIngest(ctx, req.UserID); err != nil {
			if errors.Is(err, quotadomain.ErrQuotaExceeded) {
				s.metrics.IncQuotaDenied()
			}
			return nil, err
		}
	}

	now := s.clock.Now().UTC()
	recordedAt := now
	if req.RecordedAt != nil && !req.RecordedAt.IsZero() {
		recordedAt = req.RecordedAt.UTC()
	}

	period, err := s.periodSvc.GetActivePeriod(ctx, req.UserID, now)
	if err != nil {
		if errors.Is(err, perioddomain.ErrStoreFailure) {
			// The event is unconfirmed, not failed: the caller retries with
			// the same idempotency key.
			return nil, errors.Join(domain.ErrRecorderUnavailable, err)
		}
		return nil, fmt.Errorf("resolve active period: %w", err)
	}

	record := &domain.Record{
		ID:             s.genID.Generate(),
		UserID:         req.UserID,
		PeriodID:       period.ID,
		Category:       req.Category,
		Quantity:       req.Quantity,
		RecordedAt:     recordedAt,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       datatypes.JSONMap(req.Metadata),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil && !db.IsDuplicateKeyErr(result.Error) {
		return nil, errors.Join(domain.ErrRecorderUnavailable, result.Error)
	}

	if result.Error != nil || result.RowsAffected == 0 {
		// Replay: the key already landed. Hand back the original write so the
		// caller observes identical state to the first call.
		existing, err := s.findByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		s.metrics.IncUsageDeduplicated()
		s.log.Debug("usage record deduplicated",
			zap.String("user_id", req.UserID),
			zap.String("idempotency_key", req.IdempotencyKey),
		)
		return &domain.RecordResult{Record: existing, Deduplicated: true}, nil
	}

	s.summaries.Delete(summaryKey(req.UserID, period.ID))
	s.metrics.IncUsageRecorded(string(req.Category))
	s.log.Debug("usage recorded",
		zap.String("user_id", req.UserID),
		zap.String("category", string(req.Category)),
		zap.Float64("quantity", req.Quantity),
		zap.Int64("period_id", period.ID.Int64()),
	)
	return &domain.RecordResult{Record: record}, nil
}

// Summarize recomputes per-category totals from raw records. Closed periods
// answer from their frozen summary so old windows never rescan the table.
func (s *Service) Summarize(ctx context.Context, userID string, period perioddomain.Period) (domain.Summary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Summary{}, domain.ErrInvalidUser
	}

	if period.Status == perioddomain.PeriodStatusClosed && len(period.FrozenSummary) > 0 {
		return s.fromFrozen(userID, period), nil
	}

	summary := domain.Summary{
		UserID:      userID,
		PeriodID:    period.ID,
		PeriodStart: period.PeriodStart,
		PeriodEnd:   period.PeriodEnd,
		ComputedAt:  s.clock.Now().UTC(),
	}
	for _, category := range pricing.Categories {
		var total float64
		err := s.db.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(quantity), 0)
			 FROM usage_records
			 WHERE user_id = ? AND category = ?
			 AND recorded_at >= ? AND recorded_at < ?`,
			userID,
			category,
			period.PeriodStart,
			period.PeriodEnd,
		).Scan(&total).Error
		if err != nil {
			return domain.Summary{}, errors.Join(domain.ErrRecorderUnavailable, err)
		}
		if category == pricing.CategoryStorageGB && total < 0 {
			s.log.Warn("storage balance floored at zero",
				zap.String("user_id", userID),
				zap.Float64("balance", total),
			)
			s.metrics.IncStorageFloor()
			total = 0
		}
		s.assign(&summary, category, total)
	}

	ttl := activeSummaryTTL
	if period.Status == perioddomain.PeriodStatusClosed {
		ttl = closedSummaryTTL
	}
	s.summaries.Set(summaryKey(userID, period.ID), summary, ttl)
	return summary, nil
}

func (s *Service) SummarizeCached(ctx context.Context, userID string, period perioddomain.Period, maxStale time.Duration) (domain.Summary, bool, error) {
	key := summaryKey(strings.TrimSpace(userID), period.ID)
	if cached, age, ok := s.summaries.GetWithAge(key); ok && age <= maxStale {
		return cached, true, nil
	}

	summary, err := s.Summarize(ctx, userID, period)
	if err != nil {
		// The store is down and whatever snapshot we hold is past the
		// staleness bound, so the caller must not trust it.
		return domain.Summary{}, false, errors.Join(domain.ErrStaleSummary, err)
	}
	return summary, false, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, domain.ErrInvalidUser
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	query := &domain.Record{UserID: req.UserID, Category: req.Category}
	records, err := s.usagerepo.Find(ctx, query,
		option.ApplyPagination(req.Pagination),
		option.WithSortBy(option.QuerySortBy{Field: "id", Desc: true}),
	)
	if err != nil {
		return nil, errors.Join(domain.ErrRecorderUnavailable, err)
	}

	size := req.PageSize
	if size <= 0 {
		size = 10
	}
	pageInfo := pagination.BuildCursorPageInfo(records, int32(size), func(r *domain.Record) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: r.ID.String()})
		return token
	})
	if len(records) > size {
		records = records[:size]
	}
	data := make([]domain.Record, 0, len(records))
	for _, r := range records {
		data = append(data, *r)
	}
	return &domain.ListResponse{Data: data, PageInfo: *pageInfo}, nil
}

func (s *Service) findByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Record, error) {
	var record domain.Record
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&record).Error
	if err != nil {
		return nil, errors.Join(domain.ErrRecorderUnavailable, err)
	}
	return &record, nil
}

func (s *Service) fromFrozen(userID string, period perioddomain.Period) domain.Summary {
	summary := domain.Summary{
		UserID:      userID,
		PeriodID:    period.ID,
		PeriodStart: period.PeriodStart,
		PeriodEnd:   period.PeriodEnd,
		ComputedAt:  s.clock.Now().UTC(),
	}
	for _, category := range pricing.Categories {
		if v, ok := period.FrozenSummary[string(category)]; ok {
			if f, ok := toFloat(v); ok {
				s.assign(&summary, category, f)
			}
		}
	}
	return summary
}

func (s *Service) assign(summary *domain.Summary, category pricing.Category, total float64) {
	switch category {
	case pricing.CategoryAICredit:
		summary.AICredits = total
	case pricing.CategoryScheduledPost:
		summary.ScheduledPosts = total
	case pricing.CategoryStorageGB:
		summary.StorageGB = total
	}
}

// validateQuantity rejects non-finite values everywhere and negatives outside
// storage, whose deltas legitimately go both ways.
func validateQuantity(category pricing.Category, quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return domain.ErrInvalidQuantity
	}
	if category != pricing.CategoryStorageGB && quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func summaryKey(userID string, periodID snowflake.ID) string {
	return fmt.Sprintf("%s:%d", userID, periodID.Int64())
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
