package repository

import (
	"context"
	"strings"

	"github.com/amirasaad/paylink/infra/repository/model"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/merchant"
	repo "github.com/amirasaad/paylink/pkg/repository/merchant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a merchant repository on db.
func NewMerchantRepository(db *gorm.DB) repo.Repository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(ctx context.Context, m *merchant.Merchant) error {
	row := model.Merchant{
		ID:           m.ID,
		Email:        strings.ToLower(m.Email),
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         string(m.Role),
		Country:      m.Country,
		Balance:      m.Balance,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

func (r *merchantRepository) Get(ctx context.Context, id uuid.UUID) (*merchant.Merchant, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *merchantRepository) GetByEmail(ctx context.Context, email string) (*merchant.Merchant, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *merchantRepository) first(ctx context.Context, query string, arg any) (*merchant.Merchant, error) {
	var row model.Merchant
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	})
	if err != nil {
		return nil, NotFoundAs(err, domain.ErrMerchantNotFound)
	}
	return &merchant.Merchant{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         merchant.Role(row.Role),
		Country:      row.Country,
		Balance:      row.Balance,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

// Credit implements merchant.Repository.
func (r *merchantRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return domain.ErrMerchantNotFound
	}
	return nil
}

// DebitIfSufficient implements merchant.Repository.
func (r *merchantRepository) DebitIfSufficient(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return false, err
	}
	return res.RowsAffected == 1, nil
}
