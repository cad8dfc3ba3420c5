// Package money holds the decimal helpers shared by routing, adapters and
// reconciliation.
//
// Invariants:
//   - Merchant-facing amounts are decimals in whole currency units.
//   - Conversion to a provider's minor unit uses an explicit multiplier
//     declared by that provider, never an implied currency exponent.
//   - Currency codes are ISO 4217 (3 uppercase letters).
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when an amount is zero, negative or not representable.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCurrency is returned when a currency code is not ISO 4217 shaped.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidMultiplier is returned for a non-positive minor-unit multiplier.
	ErrInvalidMultiplier = errors.New("invalid minor unit multiplier")
	// ErrFractionalMinorUnits is returned when an amount does not fit the
	// provider's minor unit (e.g. 10.005 with multiplier 100).
	ErrFractionalMinorUnits = errors.New("amount has more precision than the provider minor unit")
)

// Code is an ISO 4217 currency code.
type Code string

// Normalize upper-cases and trims the code.
func (c Code) Normalize() Code {
	return Code(strings.ToUpper(strings.TrimSpace(string(c))))
}

// IsValid checks the code is three uppercase ASCII letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}

// ParseCode normalizes and validates a currency code.
func ParseCode(s string) (Code, error) {
	c := Code(s).Normalize()
	if !c.IsValid() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ToMinorUnits converts a whole-unit amount to the provider minor unit.
// The result must be integral: providers never receive fractional minor units.
func ToMinorUnits(amount decimal.Decimal, multiplier int64) (int64, error) {
	if multiplier <= 0 {
		return 0, ErrInvalidMultiplier
	}
	minor := amount.Mul(decimal.NewFromInt(multiplier))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrFractionalMinorUnits
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts a provider minor-unit amount back to whole units.
func FromMinorUnits(minor int64, multiplier int64) (decimal.Decimal, error) {
	if multiplier <= 0 {
		return decimal.Zero, ErrInvalidMultiplier
	}
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(multiplier)), nil
}
