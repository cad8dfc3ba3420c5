// Package providerconfig is the admin surface for provider credentials.
// Every mutation and its audit entry commit together.
package providerconfig

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/audit"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/repository"
	configrepo "github.com/amirasaad/paylink/pkg/repository/providerconfig"
	"github.com/google/uuid"
)

// CreateInput carries a new config.
type CreateInput struct {
	Provider           string
	CountryCode        string
	Environment        providerconfig.Environment
	ConsumerKey        string
	ConsumerSecret     string
	IPNID              string
	WebhookSecret      string
	BaseURL            string
	SettlementCurrency string
}

// UpdateInput is a partial update; nil fields are left alone. Provider and
// country are fixed at creation.
type UpdateInput struct {
	Environment        *providerconfig.Environment
	ConsumerKey        *string
	ConsumerSecret     *string
	IPNID              *string
	WebhookSecret      *string
	BaseURL            *string
	SettlementCurrency *string
	IsActive           *bool
}

// Service manages provider configs.
type Service struct {
	uow       repository.UnitOfWork
	providers *provider.Set
	bus       eventbus.Bus
	logger    *slog.Logger
}

// New creates a Service. providers limits which kinds may be configured.
func New(uow repository.UnitOfWork, providers *provider.Set, bus eventbus.Bus, logger *slog.Logger) *Service {
	return &Service{
		uow:       uow,
		providers: providers,
		bus:       bus,
		logger:    logger.With("service", "providerconfig"),
	}
}

// Create stores a new active config, deactivating any other config for the
// same provider and country.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*providerconfig.ProviderConfig, error) {
	cfg, err := providerconfig.New(in.Provider, in.CountryCode, in.Environment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.checkKind(cfg.Provider); err != nil {
		return nil, err
	}
	cfg.ConsumerKey = in.ConsumerKey
	cfg.ConsumerSecret = in.ConsumerSecret
	cfg.IPNID = in.IPNID
	cfg.WebhookSecret = in.WebhookSecret
	cfg.BaseURL = strings.TrimSpace(in.BaseURL)
	if cfg.SettlementCurrency, err = settlementCurrency(in.SettlementCurrency); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := repository.ProviderConfigs(uow)
		if err != nil {
			return err
		}
		if err := repo.DeactivateOthers(ctx, cfg.ID, cfg.Provider, cfg.CountryCode); err != nil {
			return err
		}
		if err := repo.Create(ctx, cfg); err != nil {
			return err
		}
		return s.audit(ctx, uow, actorID, audit.ActionProviderConfigCreate, cfg, changedFields(in))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("✅ provider config created", "id", cfg.ID, "provider", cfg.Provider, "country", cfg.CountryCode)
	s.emit(ctx, actorID, audit.ActionProviderConfigCreate, cfg)
	return cfg, nil
}

// Update applies in to the config id. Reactivating a config deactivates
// its siblings.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, in UpdateInput) (*providerconfig.ProviderConfig, error) {
	var cfg *providerconfig.ProviderConfig
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := repository.ProviderConfigs(uow)
		if err != nil {
			return err
		}
		cfg, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		fields, err := applyUpdate(cfg, in)
		if err != nil {
			return err
		}
		cfg.UpdatedAt = time.Now().UTC()
		if cfg.IsActive {
			if err := repo.DeactivateOthers(ctx, cfg.ID, cfg.Provider, cfg.CountryCode); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, cfg); err != nil {
			return err
		}
		return s.audit(ctx, uow, actorID, audit.ActionProviderConfigUpdate, cfg, fields)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("provider config updated", "id", cfg.ID, "provider", cfg.Provider, "country", cfg.CountryCode)
	s.emit(ctx, actorID, audit.ActionProviderConfigUpdate, cfg)
	return cfg, nil
}

// Deactivate turns a config off. Configs are never deleted.
func (s *Service) Deactivate(ctx context.Context, actorID, id uuid.UUID) (*providerconfig.ProviderConfig, error) {
	var cfg *providerconfig.ProviderConfig
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := repository.ProviderConfigs(uow)
		if err != nil {
			return err
		}
		cfg, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		cfg.IsActive = false
		cfg.UpdatedAt = time.Now().UTC()
		if err := repo.Update(ctx, cfg); err != nil {
			return err
		}
		return s.audit(ctx, uow, actorID, audit.ActionProviderConfigDeactivate, cfg, nil)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("provider config deactivated", "id", cfg.ID)
	s.emit(ctx, actorID, audit.ActionProviderConfigDeactivate, cfg)
	return cfg, nil
}

// Get returns one config.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*providerconfig.ProviderConfig, error) {
	repo, err := repository.ProviderConfigs(s.uow)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// List returns configs matching filter.
func (s *Service) List(ctx context.Context, filter configrepo.Filter) ([]*providerconfig.ProviderConfig, error) {
	repo, err := repository.ProviderConfigs(s.uow)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

// AuditLogs pages through the audit trail, newest first.
func (s *Service) AuditLogs(ctx context.Context, limit, offset int) ([]*audit.Log, error) {
	repo, err := repository.AuditLogs(s.uow)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, limit, offset)
}

func (s *Service) checkKind(kind string) error {
	if s.providers == nil {
		return nil
	}
	if _, err := s.providers.Get(provider.Kind(kind)); err != nil {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, kind)
	}
	return nil
}

func (s *Service) audit(
	ctx context.Context,
	uow repository.UnitOfWork,
	actorID uuid.UUID,
	action audit.Action,
	cfg *providerconfig.ProviderConfig,
	fields []string,
) error {
	repo, err := repository.AuditLogs(uow)
	if err != nil {
		return err
	}
	details := map[string]any{
		"provider":     cfg.Provider,
		"country_code": cfg.CountryCode,
		"environment":  string(cfg.Environment),
		"is_active":    cfg.IsActive,
	}
	if len(fields) > 0 {
		details["fields"] = fields
	}
	return repo.Append(ctx, audit.New(actorID, action, audit.EntityProviderConfig, cfg.ID, details))
}

func (s *Service) emit(ctx context.Context, actorID uuid.UUID, action audit.Action, cfg *providerconfig.ProviderConfig) {
	if s.bus == nil {
		return
	}
	evt := &events.ProviderConfigChanged{
		ID:          uuid.New(),
		ConfigID:    cfg.ID,
		ActorID:     actorID,
		Action:      string(action),
		Provider:    cfg.Provider,
		CountryCode: cfg.CountryCode,
		Timestamp:   cfg.UpdatedAt,
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Error("failed to emit event", "type", evt.Type(), "error", err)
	}
}

// applyUpdate mutates cfg and returns the names of the fields it touched.
// Secret values never leave this function.
func applyUpdate(cfg *providerconfig.ProviderConfig, in UpdateInput) ([]string, error) {
	var fields []string
	if in.Environment != nil {
		env := *in.Environment
		if env != providerconfig.EnvSandbox && env != providerconfig.EnvProduction {
			return nil, fmt.Errorf("%w: environment must be sandbox or production", domain.ErrInvalidInput)
		}
		cfg.Environment = env
		fields = append(fields, "environment")
	}
	set := func(dst *string, src *string, name string) {
		if src != nil {
			*dst = *src
			fields = append(fields, name)
		}
	}
	set(&cfg.ConsumerKey, in.ConsumerKey, "consumer_key")
	set(&cfg.ConsumerSecret, in.ConsumerSecret, "consumer_secret")
	set(&cfg.IPNID, in.IPNID, "ipn_id")
	set(&cfg.WebhookSecret, in.WebhookSecret, "webhook_secret")
	set(&cfg.BaseURL, in.BaseURL, "base_url")
	if in.SettlementCurrency != nil {
		cur, err := settlementCurrency(*in.SettlementCurrency)
		if err != nil {
			return nil, err
		}
		cfg.SettlementCurrency = cur
		fields = append(fields, "settlement_currency")
	}
	if in.IsActive != nil {
		cfg.IsActive = *in.IsActive
		fields = append(fields, "is_active")
	}
	return fields, nil
}

func changedFields(in CreateInput) []string {
	var fields []string
	for name, v := range map[string]string{
		"consumer_key":        in.ConsumerKey,
		"consumer_secret":     in.ConsumerSecret,
		"ipn_id":              in.IPNID,
		"webhook_secret":      in.WebhookSecret,
		"base_url":            in.BaseURL,
		"settlement_currency": in.SettlementCurrency,
	} {
		if v != "" {
			fields = append(fields, name)
		}
	}
	slices.Sort(fields)
	return fields
}

func settlementCurrency(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	c, err := money.ParseCode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return c.String(), nil
}
