package rail_test

import (
	"testing"

	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		method   transaction.Method
		country  string
		ok       bool
		provider provider.Kind
		currency money.Code
	}{
		{"kenya card settles in USD", transaction.MethodCard, "KE", true, provider.Pesapal, "USD"},
		{"lower case country", transaction.MethodCard, "ke", true, provider.Pesapal, "USD"},
		{"uk card", transaction.MethodCard, "GB", true, provider.Stripe, "GBP"},
		{"rwanda mobile money", transaction.MethodMobileMoney, "RW", true, provider.Flutterwave, "RWF"},
		{"nigeria bank transfer", transaction.MethodBankTransfer, "NG", true, provider.Paystack, "NGN"},
		{"no mobile money in US", transaction.MethodMobileMoney, "US", false, "", ""},
		{"unknown country", transaction.MethodCard, "XX", false, "", ""},
		{"malformed country", transaction.MethodCard, "KEN", false, "", ""},
		{"empty country", transaction.MethodCard, "", false, "", ""},
		{"unknown method", transaction.Method("crypto"), "KE", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := rail.Lookup(tt.method, tt.country)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.provider, r.Provider)
			assert.Equal(t, tt.currency, r.SettlementCurrency)
			assert.Equal(t, tt.ok, rail.MethodSupported(tt.method, tt.country))
		})
	}
}

func TestListMethodsFor(t *testing.T) {
	assert.Equal(t,
		[]transaction.Method{transaction.MethodCard, transaction.MethodMobileMoney, transaction.MethodBankTransfer},
		rail.ListMethodsFor("KE"))
	assert.Equal(t, []transaction.Method{transaction.MethodCard}, rail.ListMethodsFor("us"))
	assert.Empty(t, rail.ListMethodsFor("XX"))
	assert.Len(t, rail.ListRailsFor("RW"), 2)
}

func TestDisbursementSupported(t *testing.T) {
	assert.True(t, rail.DisbursementSupported(rail.AccountMobile, "RW"))
	assert.True(t, rail.DisbursementSupported(rail.AccountBank, "rw"))
	assert.False(t, rail.DisbursementSupported(rail.AccountBank, "XX"))
	assert.False(t, rail.DisbursementSupported(rail.AccountMobile, "US"))
	assert.False(t, rail.DisbursementSupported(rail.AccountType("wallet"), "RW"))
}

func TestCountriesSorted(t *testing.T) {
	countries := rail.Countries()
	assert.Contains(t, countries, "KE")
	assert.IsNonDecreasing(t, countries)
}
