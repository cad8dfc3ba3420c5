package repository

import (
	"context"
	"strings"

	"github.com/amirasaad/paylink/infra/repository/model"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	repo "github.com/amirasaad/paylink/pkg/repository/providerconfig"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerConfigRepository struct {
	db *gorm.DB
}

// NewProviderConfigRepository creates a provider config repository on db.
func NewProviderConfigRepository(db *gorm.DB) repo.Repository {
	return &providerConfigRepository{db: db}
}

func (r *providerConfigRepository) Create(ctx context.Context, cfg *providerconfig.ProviderConfig) error {
	row := providerConfigToModel(cfg)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

func (r *providerConfigRepository) Update(ctx context.Context, cfg *providerconfig.ProviderConfig) error {
	row := providerConfigToModel(cfg)
	res := r.db.WithContext(ctx).Model(&model.ProviderConfig{}).Where("id = ?", cfg.ID).
		Select("*").Omit("id", "created_at").Updates(&row)
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return domain.ErrProviderNotConfigured
	}
	return nil
}

func (r *providerConfigRepository) Get(ctx context.Context, id uuid.UUID) (*providerconfig.ProviderConfig, error) {
	var row model.ProviderConfig
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, NotFoundAs(err, domain.ErrProviderNotConfigured)
	}
	return providerConfigFromModel(&row), nil
}

func (r *providerConfigRepository) List(ctx context.Context, filter repo.Filter) ([]*providerconfig.ProviderConfig, error) {
	q := r.db.WithContext(ctx).Model(&model.ProviderConfig{})
	if filter.Provider != "" {
		q = q.Where("provider = ?", strings.ToLower(filter.Provider))
	}
	if filter.CountryCode != "" {
		q = q.Where("country_code = ?", strings.ToUpper(filter.CountryCode))
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []model.ProviderConfig
	if err := WrapError(func() error {
		return q.Order("provider, country_code, updated_at DESC").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*providerconfig.ProviderConfig, 0, len(rows))
	for i := range rows {
		out = append(out, providerConfigFromModel(&rows[i]))
	}
	return out, nil
}

// FindActive implements providerconfig.Repository.
func (r *providerConfigRepository) FindActive(ctx context.Context, provider, country string) (*providerconfig.ProviderConfig, error) {
	var row model.ProviderConfig
	err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("provider = ? AND country_code = ? AND is_active = ?",
				strings.ToLower(provider), strings.ToUpper(country), true).
			Order("updated_at DESC").
			First(&row).Error
	})
	if err != nil {
		return nil, NotFoundAs(err, domain.ErrProviderNotConfigured)
	}
	return providerConfigFromModel(&row), nil
}

// DeactivateOthers implements providerconfig.Repository.
func (r *providerConfigRepository) DeactivateOthers(ctx context.Context, keep uuid.UUID, provider, country string) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&model.ProviderConfig{}).
			Where("provider = ? AND country_code = ? AND id <> ? AND is_active = ?", provider, country, keep, true).
			Update("is_active", false).Error
	})
}

func providerConfigToModel(c *providerconfig.ProviderConfig) model.ProviderConfig {
	return model.ProviderConfig{
		ID:                 c.ID,
		Provider:           c.Provider,
		CountryCode:        c.CountryCode,
		Environment:        string(c.Environment),
		ConsumerKey:        c.ConsumerKey,
		ConsumerSecret:     c.ConsumerSecret,
		IPNID:              c.IPNID,
		WebhookSecret:      c.WebhookSecret,
		BaseURL:            c.BaseURL,
		SettlementCurrency: c.SettlementCurrency,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func providerConfigFromModel(m *model.ProviderConfig) *providerconfig.ProviderConfig {
	return &providerconfig.ProviderConfig{
		ID:                 m.ID,
		Provider:           m.Provider,
		CountryCode:        m.CountryCode,
		Environment:        providerconfig.Environment(m.Environment),
		ConsumerKey:        m.ConsumerKey,
		ConsumerSecret:     m.ConsumerSecret,
		IPNID:              m.IPNID,
		WebhookSecret:      m.WebhookSecret,
		BaseURL:            m.BaseURL,
		SettlementCurrency: m.SettlementCurrency,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
