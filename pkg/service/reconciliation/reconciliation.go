// Package reconciliation moves transactions out of pending exactly once.
//
// Every terminal transition is a single guarded UPDATE
// (WHERE id = ? AND status = 'pending') executed in the same unit of work
// as the balance change it triggers. Duplicate and concurrent
// notifications therefore race on the database, not on in-process locks:
// exactly one caller sees a row affected and moves money, the rest become
// no-ops that report the current state.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/google/uuid"
)

// Notification is a provider's claim about a transaction's status.
type Notification struct {
	Provider  string
	Reference string
	Status    transaction.Status
	RawStatus string
	Details   map[string]any
}

// Result reports the state after a notification was applied. Applied is
// true only for the call that moved the transaction to a terminal state.
type Result struct {
	Transaction *transaction.Transaction
	Applied     bool
}

// Service applies provider notifications and manual status checks.
type Service struct {
	uow       repository.UnitOfWork
	providers *provider.Set
	bus       eventbus.Bus
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a reconciliation Service.
func New(
	uow repository.UnitOfWork,
	providers *provider.Set,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:       uow,
		providers: providers,
		bus:       bus,
		logger:    logger.With("service", "reconciliation"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ApplyNotification locates the transaction by its provider-scoped
// reference and applies n.
func (s *Service) ApplyNotification(ctx context.Context, n Notification) (*Result, error) {
	if n.Reference == "" {
		return nil, fmt.Errorf("%w: empty reference", domain.ErrInvalidInput)
	}
	return s.apply(ctx, n, func(ctx context.Context, repo txRepo) (*transaction.Transaction, error) {
		return repo.GetByReference(ctx, n.Provider, n.Reference)
	})
}

// FailInitiation marks a pending transaction failed after its provider
// call errored, refunding a withdrawal's debit. The transaction may have
// no reference yet, so it is located by id.
func (s *Service) FailInitiation(ctx context.Context, id uuid.UUID, cause error) (*Result, error) {
	details := map[string]any{}
	if cause != nil {
		details[transaction.MetaProviderError] = errorDetail(cause)
	}
	n := Notification{Status: transaction.StatusFailed, Details: details}
	return s.apply(ctx, n, func(ctx context.Context, repo txRepo) (*transaction.Transaction, error) {
		return repo.Get(ctx, id)
	})
}

// InitiationFailed settles a transaction whose provider call errored. A
// definitive rejection fails it through FailInitiation. When the outcome is
// ambiguous and the provider reference was fixed before the call, the
// transaction stays pending under planned so that the provider's
// notification or a status check decides; no money moves here.
func (s *Service) InitiationFailed(ctx context.Context, id uuid.UUID, planned string, cause error) (*Result, error) {
	if planned == "" || !provider.IsAmbiguous(cause) {
		return s.FailInitiation(ctx, id, cause)
	}

	var res Result
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txs, err := repository.Transactions(uow)
		if err != nil {
			return err
		}
		tx, err := txs.Get(ctx, id)
		if err != nil {
			return err
		}
		res = Result{Transaction: tx}
		if tx.Status.IsTerminal() {
			return nil
		}
		meta := transaction.MergeMetadata(tx.Metadata, map[string]any{
			transaction.MetaProviderError: errorDetail(cause),
		})
		if err := txs.AttachReference(ctx, tx.ID, planned, meta); err != nil {
			return err
		}
		tx.Reference = planned
		tx.Metadata = meta
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Warn("provider outcome unknown, holding transaction pending",
		"transaction_id", id, "reference", planned, "error", cause)
	return &res, nil
}

func errorDetail(cause error) string {
	var perr *provider.Error
	if errors.As(cause, &perr) {
		return perr.Error()
	}
	return cause.Error()
}

// CheckStatus polls the provider for a merchant's pending transaction and
// applies the answer. Terminal transactions are returned without a call.
func (s *Service) CheckStatus(ctx context.Context, userID, transactionID uuid.UUID) (*Result, error) {
	repo, err := repository.Transactions(s.uow)
	if err != nil {
		return nil, err
	}
	tx, err := repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !tx.IsOwnedBy(userID) {
		return nil, domain.ErrAccessDenied
	}
	if tx.Status.IsTerminal() || tx.Reference == "" {
		return &Result{Transaction: tx}, nil
	}

	configs, err := repository.ProviderConfigs(s.uow)
	if err != nil {
		return nil, err
	}
	cfg, err := configs.FindActive(ctx, tx.Provider, tx.CountryCode)
	if err != nil {
		return nil, err
	}
	adapter, err := s.providers.Get(provider.Kind(tx.Provider))
	if err != nil {
		return nil, err
	}
	st, err := adapter.FetchStatus(ctx, tx.Reference, cfg)
	if err != nil {
		s.logger.Warn("status check failed", "transaction_id", tx.ID, "provider", tx.Provider, "error", err)
		return nil, err
	}
	return s.ApplyNotification(ctx, Notification{
		Provider:  tx.Provider,
		Reference: tx.Reference,
		Status:    st.Status,
		RawStatus: st.RawStatus,
		Details:   st.Details,
	})
}

type txRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	GetByReference(ctx context.Context, provider, reference string) (*transaction.Transaction, error)
}

func (s *Service) apply(
	ctx context.Context,
	n Notification,
	load func(context.Context, txRepo) (*transaction.Transaction, error),
) (*Result, error) {
	logger := s.logger.With("provider", n.Provider, "reference", n.Reference, "status", n.Status)
	next := n.Status
	if !next.IsValid() {
		next = transaction.StatusPending
	}

	var res Result
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txs, err := repository.Transactions(uow)
		if err != nil {
			return err
		}
		tx, err := load(ctx, txs)
		if err != nil {
			return err
		}
		res = Result{Transaction: tx}

		if tx.Status.IsTerminal() {
			logger.Debug("transaction already terminal, ignoring", "transaction_id", tx.ID, "current", tx.Status)
			return nil
		}

		now := s.now()
		meta := transaction.MergeMetadata(tx.Metadata, diagnostics(n, now))

		if next == transaction.StatusPending {
			ok, err := txs.UpdatePendingMetadata(ctx, tx.ID, meta)
			if err != nil {
				return err
			}
			if !ok {
				return reload(ctx, txs, tx.ID, &res)
			}
			tx.Metadata = meta
			tx.UpdatedAt = now
			return nil
		}

		won, err := txs.TransitionFromPending(ctx, tx.ID, next, meta, now)
		if err != nil {
			return err
		}
		if !won {
			logger.Info("lost transition race, no-op", "transaction_id", tx.ID)
			return reload(ctx, txs, tx.ID, &res)
		}

		if delta := tx.BalanceDelta(next); delta.IsPositive() {
			merchants, err := repository.Merchants(uow)
			if err != nil {
				return err
			}
			if err := merchants.Credit(ctx, tx.UserID, delta); err != nil {
				return fmt.Errorf("credit merchant %s: %w", tx.UserID, err)
			}
		}

		tx.Status = next
		tx.Metadata = meta
		tx.UpdatedAt = now
		if next == transaction.StatusCompleted {
			tx.CompletedAt = &now
		} else {
			tx.FailedAt = &now
		}
		res.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Applied {
		logger.Info("✅ transaction reconciled", "transaction_id", res.Transaction.ID, "type", res.Transaction.Type)
		s.emit(ctx, res.Transaction)
	}
	return &res, nil
}

func reload(ctx context.Context, txs txRepo, id uuid.UUID, res *Result) error {
	current, err := txs.Get(ctx, id)
	if err != nil {
		return err
	}
	res.Transaction = current
	return nil
}

// diagnostics is the metadata patch a notification contributes.
func diagnostics(n Notification, now time.Time) map[string]any {
	patch := make(map[string]any, len(n.Details)+2)
	for k, v := range n.Details {
		patch[k] = v
	}
	if n.RawStatus != "" {
		patch[transaction.MetaLastProviderStatus] = n.RawStatus
	}
	patch[transaction.MetaReconciledAt] = now.Format(time.RFC3339)
	return patch
}

// emit runs after commit. Bus failures are logged and swallowed.
func (s *Service) emit(ctx context.Context, tx *transaction.Transaction) {
	if s.bus == nil {
		return
	}
	base := events.TransactionEvent{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Kind:          string(tx.Type),
		Provider:      tx.Provider,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Currency:      tx.Currency.String(),
		Status:        string(tx.Status),
		Timestamp:     tx.UpdatedAt,
	}
	var evt events.Event
	switch tx.Status {
	case transaction.StatusCompleted:
		evt = &events.TransactionCompleted{TransactionEvent: base}
	case transaction.StatusFailed:
		evt = &events.TransactionFailed{TransactionEvent: base, Reason: failureReason(tx.Metadata)}
	default:
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Error("failed to emit event", "type", evt.Type(), "transaction_id", tx.ID, "error", err)
	}
}

func failureReason(meta map[string]any) string {
	for _, k := range []string{transaction.MetaStatusDescription, transaction.MetaProviderError} {
		if v, ok := meta[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
