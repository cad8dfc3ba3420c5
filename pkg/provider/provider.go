// Package provider defines the uniform contract every payment provider
// integration implements, plus the helpers they share: status tables,
// typed upstream errors and secret redaction.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names a provider integration.
type Kind string

// Known provider kinds.
const (
	Pesapal     Kind = "pesapal"
	Stripe      Kind = "stripe"
	Flutterwave Kind = "flutterwave"
	Paystack    Kind = "paystack"
	CardIssuer  Kind = "cardissuer"
	Manual      Kind = "manual"
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// minorUnits is how many wire units each provider counts per currency unit.
var minorUnits = map[Kind]int64{
	Pesapal:     1,
	Flutterwave: 1,
	Paystack:    100,
	Stripe:      100,
	CardIssuer:  100,
}

// MinorUnitMultiplier returns the provider's wire scale; 1 when amounts
// travel as decimals.
func (k Kind) MinorUnitMultiplier() int64 {
	if m, ok := minorUnits[k]; ok {
		return m
	}
	return 1
}

// CheckPrecision rejects an amount the provider cannot represent, such as
// 10.005 for a provider that counts cents.
func (k Kind) CheckPrecision(amount decimal.Decimal) error {
	m := k.MinorUnitMultiplier()
	if m == 1 {
		return nil
	}
	if _, err := money.ToMinorUnits(amount, m); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, k, err)
	}
	return nil
}

// Flow distinguishes collection from disbursement.
type Flow string

// Flows.
const (
	FlowPayment    Flow = "payment"
	FlowWithdrawal Flow = "withdrawal"
)

// Customer identifies the payer on a collection.
type Customer struct {
	Email string
	Phone string
	Name  string
}

// Destination identifies where a disbursement goes.
type Destination struct {
	Phone         string
	AccountNumber string
	BankCode      string
	Name          string
}

// Intent is what an adapter needs to start a transaction upstream.
type Intent struct {
	TransactionID uuid.UUID
	Flow          Flow
	Amount        decimal.Decimal
	Currency      money.Code
	Method        transaction.Method
	Country       string
	Description   string
	CallbackURL   string
	RedirectURL   string
	Customer      Customer
	Destination   Destination
}

// Initiation is the provider's answer to Initiate.
type Initiation struct {
	Reference    string
	RedirectURL  string
	Instructions string
	RawStatus    string
	Status       transaction.Status
}

// StatusResult is a normalized status read back from a provider.
type StatusResult struct {
	Status    transaction.Status
	RawStatus string
	Details   map[string]any
}

// Notification is the business content of a verified webhook body.
// HasStatus is false for providers whose notifications only carry a
// reference; the caller must then FetchStatus. Ignored marks a verified
// event that concerns no transaction; it is acknowledged and dropped.
type Notification struct {
	Reference string
	Status    transaction.Status
	RawStatus string
	HasStatus bool
	Ignored   bool
	Details   map[string]any
}

// Adapter is implemented once per provider.
type Adapter interface {
	Kind() Kind
	// Initiate starts a payment or disbursement and returns the provider reference.
	Initiate(ctx context.Context, intent *Intent, cfg *providerconfig.ProviderConfig) (*Initiation, error)
	// FetchStatus reads the current upstream status of reference.
	FetchStatus(ctx context.Context, reference string, cfg *providerconfig.ProviderConfig) (*StatusResult, error)
	// Verify authenticates a raw notification. It must not parse the body.
	Verify(body []byte, header http.Header, secret string) bool
	// ParseNotification extracts the reference (and status, if present) from a verified body.
	ParseNotification(body []byte) (*Notification, error)
}

// ReferencePlanner is implemented by adapters whose provider reference is
// derived from the transaction before the call. When an outcome is
// ambiguous the planned reference is attached so a later notification or
// status check can still find the transaction.
type ReferencePlanner interface {
	PlannedReference(intent *Intent) string
}
