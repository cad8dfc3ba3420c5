package transaction

import (
	"fmt"
	"time"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction.
type Status string

// Transaction statuses. Completed and failed are terminal.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
// Pending may move anywhere (pending -> pending is a metadata-only update);
// terminal states absorb.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && next.IsValid()
}

// Type distinguishes money coming in from money going out.
type Type string

// Transaction types.
const (
	TypePayment    Type = "payment"
	TypeWithdrawal Type = "withdrawal"
)

// Method is a collection payment method.
type Method string

// Payment methods.
const (
	MethodCard         Method = "card"
	MethodMobileMoney  Method = "mobile_money"
	MethodBankTransfer Method = "bank_transfer"
)

// IsValid reports whether m is one of the known methods.
func (m Method) IsValid() bool {
	switch m {
	case MethodCard, MethodMobileMoney, MethodBankTransfer:
		return true
	}
	return false
}

// Metadata keys written by reconciliation.
const (
	MetaLastProviderStatus = "last_provider_status"
	MetaConfirmationCode   = "confirmation_code"
	MetaStatusDescription  = "status_description"
	MetaReconciledAt       = "reconciled_at"
	MetaRedirectURL        = "redirect_url"
	MetaProviderError      = "provider_error"
)

// Transaction is a payment or withdrawal moving through a provider.
type Transaction struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          Type
	Amount        decimal.Decimal
	Currency      money.Code
	Status        Status
	PaymentMethod Method
	Provider      string
	CountryCode   string
	Reference     string
	Metadata      map[string]any
	CompletedAt   *time.Time
	FailedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New builds a pending transaction after validating amount and currency.
func New(
	userID uuid.UUID,
	typ Type,
	amount decimal.Decimal,
	currency money.Code,
	method Method,
	provider, country string,
) (*Transaction, error) {
	if err := money.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, money.ErrInvalidCurrency)
	}
	if typ != TypePayment && typ != TypeWithdrawal {
		return nil, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, typ)
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          typ,
		Amount:        amount,
		Currency:      currency,
		Status:        StatusPending,
		PaymentMethod: method,
		Provider:      provider,
		CountryCode:   country,
		Metadata:      map[string]any{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// BalanceDelta returns the balance change owed when the transaction enters
// next. Only a completed payment (credit) or a failed withdrawal (refund of
// the debit taken at request time) moves money.
func (t *Transaction) BalanceDelta(next Status) decimal.Decimal {
	switch {
	case t.Type == TypePayment && next == StatusCompleted:
		return t.Amount
	case t.Type == TypeWithdrawal && next == StatusFailed:
		return t.Amount
	}
	return decimal.Zero
}

// IsOwnedBy reports whether userID owns the transaction.
func (t *Transaction) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

// MergeMetadata returns base with patch applied on top. Existing keys absent
// from patch are kept; keys present in patch overwrite.
func MergeMetadata(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
