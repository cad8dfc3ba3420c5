// Package payment starts collections: route by merchant country, call the
// provider, record the pending transaction.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/routing"
	"github.com/amirasaad/paylink/pkg/service/reconciliation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request is a payment a customer makes to a merchant.
type Request struct {
	MerchantID  uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Method      transaction.Method
	Description string
	RedirectURL string
	Customer    provider.Customer
}

// Result is what the payer needs to continue.
type Result struct {
	Transaction  *transaction.Transaction
	RedirectURL  string
	Instructions string
}

// Service initiates payments.
type Service struct {
	uow       repository.UnitOfWork
	providers *provider.Set
	recon     *reconciliation.Service
	bus       eventbus.Bus
	cfg       *config.PaymentProviders
	logger    *slog.Logger
}

// New creates a payment Service.
func New(
	uow repository.UnitOfWork,
	providers *provider.Set,
	recon *reconciliation.Service,
	bus eventbus.Bus,
	cfg *config.PaymentProviders,
	logger *slog.Logger,
) *Service {
	if cfg == nil {
		cfg = &config.PaymentProviders{}
	}
	return &Service{
		uow:       uow,
		providers: providers,
		recon:     recon,
		bus:       bus,
		cfg:       cfg,
		logger:    logger.With("service", "payment"),
	}
}

// Initiate routes req, starts it upstream and records a pending transaction.
// A provider failure leaves the transaction failed and returns the
// provider error; without a checkout link the payer cannot complete it.
func (s *Service) Initiate(ctx context.Context, req Request) (*Result, error) {
	logger := s.logger.With("merchant_id", req.MerchantID, "method", req.Method)

	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	currency, err := money.ParseCode(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidInput, req.Method)
	}

	merchants, err := repository.Merchants(s.uow)
	if err != nil {
		return nil, err
	}
	m, err := merchants.Get(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}

	r, cfg, err := s.resolve(ctx, req.Method, m.Country, currency)
	if err != nil {
		logger.Info("payment not routable", "country", m.Country, "currency", currency, "error", err)
		return nil, err
	}
	if err := r.Provider.CheckPrecision(req.Amount); err != nil {
		return nil, err
	}
	adapter, err := s.providers.Get(r.Provider)
	if err != nil {
		return nil, err
	}

	tx, err := transaction.New(m.ID, transaction.TypePayment, req.Amount, currency, req.Method, r.Provider.String(), r.Country)
	if err != nil {
		return nil, err
	}
	txs, err := repository.Transactions(s.uow)
	if err != nil {
		return nil, err
	}
	if err := txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	redirect := req.RedirectURL
	if redirect == "" {
		redirect = s.cfg.RedirectURL
	}
	intent := &provider.Intent{
		TransactionID: tx.ID,
		Flow:          provider.FlowPayment,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Method:        tx.PaymentMethod,
		Country:       tx.CountryCode,
		Description:   description(req.Description, m.Name),
		CallbackURL:   CallbackURL(s.cfg.CallbackURL, r.Provider, r.Country),
		RedirectURL:   redirect,
		Customer:      req.Customer,
	}
	started, err := adapter.Initiate(ctx, intent, cfg)
	if err != nil {
		logger.Error("provider initiation failed", "provider", r.Provider, "transaction_id", tx.ID, "error", err)
		if _, ferr := s.recon.FailInitiation(ctx, tx.ID, err); ferr != nil {
			logger.Error("failed to mark transaction failed", "transaction_id", tx.ID, "error", ferr)
		}
		return nil, err
	}

	meta := transaction.MergeMetadata(tx.Metadata, map[string]any{
		transaction.MetaRedirectURL:        redirect,
		transaction.MetaLastProviderStatus: started.RawStatus,
	})
	if started.RedirectURL != "" {
		meta["checkout_url"] = started.RedirectURL
	}
	if err := txs.AttachReference(ctx, tx.ID, started.Reference, meta); err != nil {
		return nil, err
	}
	tx.Reference = started.Reference
	tx.Metadata = meta

	if started.Status.IsTerminal() {
		if res, err := s.recon.ApplyNotification(ctx, reconciliation.Notification{
			Provider:  tx.Provider,
			Reference: tx.Reference,
			Status:    started.Status,
			RawStatus: started.RawStatus,
		}); err == nil {
			tx = res.Transaction
		}
	}

	logger.Info("✅ payment initiated", "provider", r.Provider, "transaction_id", tx.ID, "reference", tx.Reference)
	s.emit(ctx, tx, started.RedirectURL)
	return &Result{Transaction: tx, RedirectURL: started.RedirectURL, Instructions: started.Instructions}, nil
}

// resolve picks the rail and its active config. A config's settlement
// currency, when set, overrides the registry's.
func (s *Service) resolve(
	ctx context.Context,
	method transaction.Method,
	country string,
	currency money.Code,
) (rail.Rail, *providerconfig.ProviderConfig, error) {
	r, err := routing.SelectRail(routing.Intent{
		Flow:     provider.FlowPayment,
		Country:  country,
		Currency: currency,
		Method:   method,
	})
	var mismatch *routing.CurrencyMismatchError
	switch {
	case errors.As(err, &mismatch):
		r, _ = rail.Lookup(method, country)
	case err != nil:
		return rail.Rail{}, nil, err
	}

	configs, err := repository.ProviderConfigs(s.uow)
	if err != nil {
		return rail.Rail{}, nil, err
	}
	cfg, err := configs.FindActive(ctx, r.Provider.String(), r.Country)
	if err != nil {
		return rail.Rail{}, nil, err
	}
	if cfg.SettlementCurrency != "" {
		r.SettlementCurrency = money.Code(cfg.SettlementCurrency).Normalize()
	}
	if r.SettlementCurrency != currency {
		return rail.Rail{}, nil, &routing.CurrencyMismatchError{Provider: r.Provider, Required: r.SettlementCurrency, Got: currency}
	}
	return r, cfg, nil
}

func (s *Service) emit(ctx context.Context, tx *transaction.Transaction, redirect string) {
	if s.bus == nil {
		return
	}
	evt := &events.PaymentInitiated{
		TransactionEvent: events.TransactionEvent{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			UserID:        tx.UserID,
			Kind:          string(tx.Type),
			Provider:      tx.Provider,
			Reference:     tx.Reference,
			Amount:        tx.Amount,
			Currency:      tx.Currency.String(),
			Status:        string(tx.Status),
			Timestamp:     tx.CreatedAt,
		},
		RedirectURL: redirect,
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Error("failed to emit event", "type", evt.Type(), "error", err)
	}
}

// CallbackURL is the webhook route a provider is told to notify.
func CallbackURL(base string, kind provider.Kind, country string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), kind, strings.ToLower(country))
}

func description(d, merchantName string) string {
	if d != "" {
		return d
	}
	if merchantName != "" {
		return "Payment to " + merchantName
	}
	return "Payment"
}
