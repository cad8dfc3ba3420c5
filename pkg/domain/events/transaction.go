package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionEvent carries the fields merchants are notified about.
type TransactionEvent struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Kind          string          `json:"kind"`
	Provider      string          `json:"provider"`
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TransactionCompleted is emitted after a transaction commits as completed.
type TransactionCompleted struct {
	TransactionEvent
}

// Type implements Event.
func (e *TransactionCompleted) Type() string { return EventTypeTransactionCompleted.String() }

// TransactionFailed is emitted after a transaction commits as failed.
type TransactionFailed struct {
	TransactionEvent
	Reason string `json:"reason,omitempty"`
}

// Type implements Event.
func (e *TransactionFailed) Type() string { return EventTypeTransactionFailed.String() }

// PaymentInitiated is emitted once a provider accepted a payment and the
// pending record exists.
type PaymentInitiated struct {
	TransactionEvent
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Type implements Event.
func (e *PaymentInitiated) Type() string { return EventTypePaymentInitiated.String() }

// WithdrawalRequested is emitted after the balance debit and provider initiation.
type WithdrawalRequested struct {
	TransactionEvent
}

// Type implements Event.
func (e *WithdrawalRequested) Type() string { return EventTypeWithdrawalRequested.String() }

// ProviderConfigChanged is emitted after an admin mutation commits.
type ProviderConfigChanged struct {
	ID          uuid.UUID `json:"id"`
	ConfigID    uuid.UUID `json:"config_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	Action      string    `json:"action"`
	Provider    string    `json:"provider"`
	CountryCode string    `json:"country_code"`
	Timestamp   time.Time `json:"timestamp"`
}

// Type implements Event.
func (e *ProviderConfigChanged) Type() string { return EventTypeProviderConfigChanged.String() }
