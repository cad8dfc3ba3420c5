package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuthRequired is returned when a caller presents no usable credentials
	ErrAuthRequired = errors.New("authentication required")
	// ErrAccessDenied is returned when a caller is not allowed to perform an action
	ErrAccessDenied = errors.New("access denied")
	// ErrSignatureInvalid is returned when an inbound notification fails authenticity checks
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrProviderUnavailable is returned when an upstream provider fails or times out
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrRoutingUnsupported is returned when no provider serves a country/method pair
	ErrRoutingUnsupported = errors.New("routing unsupported")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the merchant balance
	ErrInsufficientFunds = errors.New("insufficient funds")
)

var (
	// ErrTransactionNotFound is returned when a notification references an unknown transaction
	ErrTransactionNotFound = fmt.Errorf("transaction not found: %w", ErrNotFound)
	// ErrProviderNotConfigured is returned when no active provider config exists for a provider/country
	ErrProviderNotConfigured = fmt.Errorf("provider not configured: %w", ErrNotFound)
	// ErrMerchantNotFound is returned when the merchant profile does not exist
	ErrMerchantNotFound = fmt.Errorf("merchant not found: %w", ErrNotFound)
	// ErrCurrencyMismatch is returned when a rail requires a different settlement currency
	ErrCurrencyMismatch = fmt.Errorf("currency mismatch: %w", ErrRoutingUnsupported)
	// ErrUnsupportedOperation is returned for rails that have no automated path (manual withdrawals)
	ErrUnsupportedOperation = fmt.Errorf("unsupported operation, contact support: %w", ErrRoutingUnsupported)
)
