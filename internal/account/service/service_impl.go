package service

import (
	"context"
	"strings"
	"time"

	accountdomain "github.com/postloom/postloom/internal/account/domain"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Pricing *pricing.Holder
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	pricing     *pricing.Holder
	accountrepo repository.Repository[accountdomain.Account]
}

func NewService(p ServiceParam) accountdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("account.service"),

		pricing:     p.Pricing,
		accountrepo: repository.ProvideStore[accountdomain.Account](p.DB),
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*accountdomain.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, accountdomain.ErrInvalidUser
	}

	account, err := s.accountrepo.FindOne(ctx, &accountdomain.Account{UserID: userID})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrAccountNotFound
	}
	return account, nil
}

func (s *Service) Upsert(ctx context.Context, req accountdomain.UpsertAccountRequest) (*accountdomain.Account, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, accountdomain.ErrInvalidUser
	}

	tier := strings.TrimSpace(req.Tier)
	if _, err := s.pricing.Get().TierByID(tier); err != nil {
		return nil, accountdomain.ErrInvalidTier
	}

	if req.SignupAt.IsZero() || req.SignupAt.After(time.Now().UTC()) {
		return nil, accountdomain.ErrInvalidSignupAt
	}
	if req.LinkedAccounts < 0 {
		return nil, accountdomain.ErrInvalidLinkedAccounts
	}

	now := time.Now().UTC()
	account := &accountdomain.Account{
		UserID:         userID,
		Tier:           tier,
		SignupAt:       req.SignupAt.UTC(),
		LinkedAccounts: req.LinkedAccounts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Metadata != nil {
		account.Metadata = datatypes.JSONMap(req.Metadata)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "linked_accounts", "metadata", "updated_at",
		}),
	}).Create(account).Error
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (s *Service) ListUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	err := s.db.WithContext(ctx).
		Model(&accountdomain.Account{}).
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
