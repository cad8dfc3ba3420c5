package merchant

import (
	"context"

	"github.com/amirasaad/paylink/pkg/domain/merchant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists merchant profiles and their balance.
type Repository interface {
	Create(ctx context.Context, m *merchant.Merchant) error
	Get(ctx context.Context, id uuid.UUID) (*merchant.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*merchant.Merchant, error)

	// Credit adds amount to the balance in one statement.
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// DebitIfSufficient subtracts amount only when the balance covers it.
	// It reports false when funds were insufficient.
	DebitIfSufficient(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)
}
