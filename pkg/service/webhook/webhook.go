// Package webhook authenticates inbound provider notifications and hands
// them to reconciliation.
package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/service/reconciliation"
)

// Service handles provider notifications.
type Service struct {
	uow       repository.UnitOfWork
	providers *provider.Set
	recon     *reconciliation.Service
	logger    *slog.Logger
}

// New creates a webhook Service.
func New(
	uow repository.UnitOfWork,
	providers *provider.Set,
	recon *reconciliation.Service,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:       uow,
		providers: providers,
		recon:     recon,
		logger:    logger.With("service", "webhook"),
	}
}

// Handle verifies body against the active config for (kind, country),
// resolves its status and applies it. Nothing is parsed before the
// signature passes, and a missing config is indistinguishable from a bad
// signature. A verified notification may only settle transactions routed
// through the same country. Events that concern no transaction are
// acknowledged with an empty Result.
func (s *Service) Handle(
	ctx context.Context,
	kind provider.Kind,
	country string,
	body []byte,
	header http.Header,
) (*reconciliation.Result, error) {
	kind = provider.Kind(strings.ToLower(strings.TrimSpace(kind.String())))
	country = rail.NormalizeCountry(country)
	logger := s.logger.With("provider", kind, "country", country)

	adapter, err := s.providers.Get(kind)
	if err != nil || kind == provider.Manual {
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrNotFound, kind)
	}
	if country == "" {
		return nil, domain.ErrSignatureInvalid
	}

	configs, err := repository.ProviderConfigs(s.uow)
	if err != nil {
		return nil, err
	}
	cfg, err := configs.FindActive(ctx, kind.String(), country)
	if err != nil {
		logger.Warn("notification for unconfigured provider", "error", err)
		return nil, domain.ErrSignatureInvalid
	}
	if !adapter.Verify(body, header, cfg.WebhookSecret) {
		logger.Warn("notification failed verification")
		return nil, domain.ErrSignatureInvalid
	}

	n, err := adapter.ParseNotification(body)
	if err != nil {
		logger.Info("malformed notification", "error", err)
		return nil, fmt.Errorf("%w: malformed notification", domain.ErrInvalidInput)
	}
	if n.Ignored {
		logger.Debug("notification ignored", "details", n.Details)
		return &reconciliation.Result{}, nil
	}
	if n.Reference == "" {
		return nil, fmt.Errorf("%w: notification without reference", domain.ErrInvalidInput)
	}

	txs, err := repository.Transactions(s.uow)
	if err != nil {
		return nil, err
	}
	tx, err := txs.GetByReference(ctx, kind.String(), n.Reference)
	if err != nil {
		return nil, err
	}
	if rail.NormalizeCountry(tx.CountryCode) != country {
		logger.Warn("notification for a transaction routed through another country",
			"reference", n.Reference, "transaction_country", tx.CountryCode)
		return nil, domain.ErrSignatureInvalid
	}

	out := reconciliation.Notification{
		Provider:  kind.String(),
		Reference: n.Reference,
		Status:    n.Status,
		RawStatus: n.RawStatus,
		Details:   n.Details,
	}
	if !n.HasStatus {
		st, err := adapter.FetchStatus(ctx, n.Reference, cfg)
		if err != nil {
			logger.Error("status fetch failed", "reference", n.Reference, "error", err)
			return nil, err
		}
		out.Status = st.Status
		out.RawStatus = st.RawStatus
		out.Details = st.Details
	}

	res, err := s.recon.ApplyNotification(ctx, out)
	if err != nil {
		return nil, err
	}
	logger.Info("notification processed",
		"reference", out.Reference,
		"status", res.Transaction.Status,
		"applied", res.Applied,
	)
	return res, nil
}
