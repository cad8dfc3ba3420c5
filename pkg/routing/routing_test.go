package routing_test

import (
	"testing"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
	"github.com/amirasaad/paylink/pkg/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectProviderWithdrawal(t *testing.T) {
	tests := []struct {
		name        string
		accountType rail.AccountType
		country     string
		want        provider.Kind
	}{
		{"mobile in RW goes to mobile money disbursement", rail.AccountMobile, "RW", provider.Flutterwave},
		{"bank in RW goes to virtual card issuance", rail.AccountBank, "RW", provider.CardIssuer},
		{"bank in unsupported country is manual", rail.AccountBank, "XX", provider.Manual},
		{"mobile in US is manual", rail.AccountMobile, "US", provider.Manual},
		{"unknown account type is manual", rail.AccountType("paypal"), "RW", provider.Manual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := routing.SelectProvider(routing.Intent{
				Flow:        provider.FlowWithdrawal,
				Country:     tt.country,
				AccountType: tt.accountType,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManualWithdrawalIsUnsupported(t *testing.T) {
	kind, err := routing.SelectProvider(routing.Intent{Flow: provider.FlowWithdrawal, Country: "XX", AccountType: rail.AccountBank})
	require.NoError(t, err)

	_, err = provider.NewSet().WithdrawalAdapter(kind)
	require.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}

func TestSelectProviderPayment(t *testing.T) {
	kind, err := routing.SelectProvider(routing.Intent{
		Flow: provider.FlowPayment, Country: "KE", Currency: "USD", Method: transaction.MethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, provider.Pesapal, kind)

	kind, err = routing.SelectProvider(routing.Intent{
		Flow: provider.FlowPayment, Country: "ng", Currency: "ngn", Method: transaction.MethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, provider.Paystack, kind)
}

func TestSelectProviderPaymentCurrencyMismatch(t *testing.T) {
	_, err := routing.SelectProvider(routing.Intent{
		Flow: provider.FlowPayment, Country: "KE", Currency: "KES", Method: transaction.MethodCard,
	})
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	require.ErrorIs(t, err, domain.ErrRoutingUnsupported)

	var mismatch *routing.CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "USD", mismatch.Required.String())
	assert.Equal(t, "KES", mismatch.Got.String())
}

func TestSelectProviderPaymentUnsupported(t *testing.T) {
	_, err := routing.SelectProvider(routing.Intent{
		Flow: provider.FlowPayment, Country: "XX", Currency: "USD", Method: transaction.MethodCard,
	})
	require.ErrorIs(t, err, domain.ErrRoutingUnsupported)
	require.NotErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = routing.SelectProvider(routing.Intent{Flow: "refund"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSelectProviderIsDeterministic(t *testing.T) {
	intents := []routing.Intent{
		{Flow: provider.FlowPayment, Country: "RW", Currency: "RWF", Method: transaction.MethodMobileMoney},
		{Flow: provider.FlowWithdrawal, Country: "RW", AccountType: rail.AccountBank},
		{Flow: provider.FlowPayment, Country: "XX", Currency: "USD", Method: transaction.MethodCard},
	}
	for _, in := range intents {
		first, firstErr := routing.SelectProvider(in)
		for i := 0; i < 50; i++ {
			got, err := routing.SelectProvider(in)
			assert.Equal(t, first, got)
			assert.Equal(t, firstErr, err)
		}
	}
}
