// Package transaction answers merchant queries about their transactions.
package transaction

import (
	"context"
	"log/slog"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/google/uuid"
)

// Service reads transactions on behalf of their owner.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a Service.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger.With("service", "transaction")}
}

// Get returns the transaction if userID owns it. Someone else's
// transaction is reported as access denied, not as missing.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*transaction.Transaction, error) {
	repo, err := repository.Transactions(s.uow)
	if err != nil {
		return nil, err
	}
	tx, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.IsOwnedBy(userID) {
		s.logger.Warn("transaction read by non-owner", "transaction_id", id, "user_id", userID)
		return nil, domain.ErrAccessDenied
	}
	return tx, nil
}

// List pages through userID's transactions, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	repo, err := repository.Transactions(s.uow)
	if err != nil {
		return nil, err
	}
	return repo.ListByUser(ctx, userID, limit, offset)
}
