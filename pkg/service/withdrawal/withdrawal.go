// Package withdrawal pays merchant balance out through a disbursement rail.
package withdrawal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/routing"
	"github.com/amirasaad/paylink/pkg/service/payment"
	"github.com/amirasaad/paylink/pkg/service/reconciliation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request is a merchant's payout request.
type Request struct {
	Amount      decimal.Decimal
	Currency    string
	AccountType rail.AccountType
	Destination provider.Destination
	Description string
}

// Result reports the recorded withdrawal.
type Result struct {
	Transaction  *transaction.Transaction
	Instructions string
}

// Service requests withdrawals.
type Service struct {
	uow       repository.UnitOfWork
	providers *provider.Set
	recon     *reconciliation.Service
	bus       eventbus.Bus
	cfg       *config.PaymentProviders
	logger    *slog.Logger
}

// New creates a withdrawal Service.
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
		logger:    logger.With("service", "withdrawal"),
	}
}

// AwaitingConfirmation is returned when the provider's answer was lost and
// the payout is left for its notification or a status check to settle.
const AwaitingConfirmation = "the payout is awaiting confirmation from the provider"

// Request debits the merchant, records a pending withdrawal and starts the
// disbursement. Countries without an automated rail get
// domain.ErrUnsupportedOperation before any money moves. A provider
// rejection reconciles the withdrawal to failed, which refunds the debit.
// A timeout or upstream 5xx may hide an accepted payout, so the withdrawal
// stays pending under its planned reference and no refund is made.
func (s *Service) Request(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	logger := s.logger.With("user_id", userID, "account_type", req.AccountType)

	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	currency, err := money.ParseCode(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	method, err := methodFor(req.AccountType, req.Destination)
	if err != nil {
		return nil, err
	}

	merchants, err := repository.Merchants(s.uow)
	if err != nil {
		return nil, err
	}
	m, err := merchants.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	country := rail.NormalizeCountry(m.Country)
	if req.Destination.Name == "" {
		req.Destination.Name = m.Name
	}

	kind, err := routing.SelectProvider(routing.Intent{
		Flow:        provider.FlowWithdrawal,
		Country:     country,
		Currency:    currency,
		AccountType: req.AccountType,
	})
	if err != nil {
		return nil, err
	}
	if err := kind.CheckPrecision(req.Amount); err != nil {
		return nil, err
	}
	adapter, err := s.providers.WithdrawalAdapter(kind)
	if err != nil {
		logger.Info("no automated withdrawal rail", "country", country, "provider", kind)
		return nil, err
	}
	configs, err := repository.ProviderConfigs(s.uow)
	if err != nil {
		return nil, err
	}
	cfg, err := configs.FindActive(ctx, kind.String(), country)
	if err != nil {
		return nil, err
	}

	tx, err := transaction.New(m.ID, transaction.TypeWithdrawal, req.Amount, currency, method, kind.String(), country)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		merchants, err := repository.Merchants(uow)
		if err != nil {
			return err
		}
		ok, err := merchants.DebitIfSufficient(ctx, m.ID, tx.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		txs, err := repository.Transactions(uow)
		if err != nil {
			return err
		}
		return txs.Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	intent := &provider.Intent{
		TransactionID: tx.ID,
		Flow:          provider.FlowWithdrawal,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Method:        method,
		Country:       country,
		Description:   req.Description,
		CallbackURL:   payment.CallbackURL(s.cfg.CallbackURL, kind, country),
		Customer:      provider.Customer{Email: m.Email, Name: m.Name},
		Destination:   req.Destination,
	}
	started, err := adapter.Initiate(ctx, intent, cfg)
	if err != nil {
		logger.Error("disbursement initiation failed", "provider", kind, "transaction_id", tx.ID, "error", err)
		var planned string
		if p, ok := adapter.(provider.ReferencePlanner); ok {
			planned = p.PlannedReference(intent)
		}
		res, ferr := s.recon.InitiationFailed(ctx, tx.ID, planned, err)
		if ferr != nil {
			logger.Error("failed to settle withdrawal after provider error", "transaction_id", tx.ID, "error", ferr)
			return nil, err
		}
		if res.Transaction.Status != transaction.StatusPending {
			return nil, err
		}
		s.emit(ctx, res.Transaction)
		return &Result{Transaction: res.Transaction, Instructions: AwaitingConfirmation}, nil
	}

	txs, err := repository.Transactions(s.uow)
	if err != nil {
		return nil, err
	}
	meta := transaction.MergeMetadata(tx.Metadata, map[string]any{
		transaction.MetaLastProviderStatus: started.RawStatus,
	})
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

	logger.Info("✅ withdrawal requested", "provider", kind, "transaction_id", tx.ID, "reference", tx.Reference)
	s.emit(ctx, tx)
	return &Result{Transaction: tx, Instructions: started.Instructions}, nil
}

func methodFor(accountType rail.AccountType, dest provider.Destination) (transaction.Method, error) {
	switch accountType {
	case rail.AccountMobile:
		if dest.Phone == "" {
			return "", fmt.Errorf("%w: destination phone is required", domain.ErrInvalidInput)
		}
		return transaction.MethodMobileMoney, nil
	case rail.AccountBank:
		// Bank payouts are settled onto an issued virtual card.
		return transaction.MethodCard, nil
	}
	return "", fmt.Errorf("%w: account_type must be mobile or bank", domain.ErrInvalidInput)
}

func (s *Service) emit(ctx context.Context, tx *transaction.Transaction) {
	if s.bus == nil {
		return
	}
	evt := &events.WithdrawalRequested{TransactionEvent: events.TransactionEvent{
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
	}}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Error("failed to emit event", "type", evt.Type(), "error", err)
	}
}
