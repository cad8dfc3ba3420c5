// Package routing picks the provider for a payment or withdrawal. Selection
// is a pure function of the intent: no I/O, no retries, no conversion.
package routing

import (
	"fmt"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
)

// Intent is the routing input.
type Intent struct {
	Flow        provider.Flow
	Country     string
	Currency    money.Code
	Method      transaction.Method
	AccountType rail.AccountType
}

// CurrencyMismatchError reports a payment whose currency differs from the
// rail's settlement currency.
type CurrencyMismatchError struct {
	Provider provider.Kind
	Required money.Code
	Got      money.Code
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("%s requires %s, got %s", e.Provider, e.Required, e.Got)
}

// Unwrap returns domain.ErrCurrencyMismatch.
func (e *CurrencyMismatchError) Unwrap() error { return domain.ErrCurrencyMismatch }

// SelectProvider returns the provider kind that handles intent.
func SelectProvider(intent Intent) (provider.Kind, error) {
	switch intent.Flow {
	case provider.FlowWithdrawal:
		return selectWithdrawal(intent), nil
	case provider.FlowPayment:
		r, err := SelectRail(intent)
		if err != nil {
			return "", err
		}
		return r.Provider, nil
	}
	return "", fmt.Errorf("unknown flow %q: %w", intent.Flow, domain.ErrInvalidInput)
}

// SelectRail resolves a payment intent to its rail, enforcing the
// settlement currency.
func SelectRail(intent Intent) (rail.Rail, error) {
	r, ok := rail.Lookup(intent.Method, intent.Country)
	if !ok {
		return rail.Rail{}, fmt.Errorf("%s in %q: %w", intent.Method, intent.Country, domain.ErrRoutingUnsupported)
	}
	if cur := intent.Currency.Normalize(); cur != r.SettlementCurrency {
		return rail.Rail{}, &CurrencyMismatchError{Provider: r.Provider, Required: r.SettlementCurrency, Got: cur}
	}
	return r, nil
}

// Mobile disbursement beats card issuance; anything else needs a human.
func selectWithdrawal(intent Intent) provider.Kind {
	switch {
	case intent.AccountType == rail.AccountMobile && rail.DisbursementSupported(rail.AccountMobile, intent.Country):
		return provider.Flutterwave
	case intent.AccountType == rail.AccountBank && rail.DisbursementSupported(rail.AccountBank, intent.Country):
		return provider.CardIssuer
	default:
		return provider.Manual
	}
}
