package transaction

import (
	"context"
	"time"

	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/google/uuid"
)

// Repository persists transactions. Transactions are never deleted.
type Repository interface {
	// Create inserts a new transaction.
	Create(ctx context.Context, tx *transaction.Transaction) error

	// Get retrieves a transaction by id.
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// GetByReference retrieves a transaction by its provider-scoped reference.
	GetByReference(ctx context.Context, provider, reference string) (*transaction.Transaction, error)

	// AttachReference records the provider reference on a pending transaction
	// and merges metadata.
	AttachReference(ctx context.Context, id uuid.UUID, reference string, metadata map[string]any) error

	// TransitionFromPending moves a pending transaction to next with a single
	// guarded update. It reports false when the row was no longer pending,
	// meaning a concurrent caller already won.
	TransitionFromPending(
		ctx context.Context,
		id uuid.UUID,
		next transaction.Status,
		metadata map[string]any,
		at time.Time,
	) (bool, error)

	// UpdatePendingMetadata replaces metadata while the transaction is still
	// pending. It reports false when the row had already left pending.
	UpdatePendingMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) (bool, error)

	// ListByUser lists a merchant's transactions, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error)
}
