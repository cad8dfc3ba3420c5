package withdrawal_test

import (
	"net/http"
	"testing"

	"github.com/amirasaad/paylink/internal/fixtures/mocks"
	"github.com/amirasaad/paylink/internal/testdb"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/webapi/testutils"
	"github.com/amirasaad/paylink/webapi/withdrawal"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRequest_MobileMoney(t *testing.T) {
	adapter := mocks.NewAdapter(provider.Flutterwave)
	h := testutils.NewHarness(t, adapter)
	m := testdb.Merchant(t, h.Uow, "rw@example.com", "RW", decimal.NewFromInt(100))
	testdb.ProviderConfig(t, h.Uow, "flutterwave", "RW", "hash")
	token := h.Login(t, "rw@example.com")

	adapter.On("Initiate", mock.Anything, mock.MatchedBy(func(in *provider.Intent) bool {
		return in.Flow == provider.FlowWithdrawal &&
			in.Method == transaction.MethodMobileMoney &&
			in.Destination.Phone == "+250788000000"
	}), mock.Anything).Return(&provider.Initiation{
		Reference: "flw-transfer-1",
		RawStatus: "NEW",
		Status:    transaction.StatusPending,
	}, nil)

	resp := h.Request(t, http.MethodPost, "/api/v1/withdrawals",
		`{"amount":"40","currency":"RWF","account_type":"mobile","destination":{"phone":"+250788000000"}}`, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out withdrawal.RequestResponse
	testutils.Decode(t, resp, &out)
	assert.Equal(t, "withdrawal", out.Transaction.Type)
	assert.Equal(t, "flw-transfer-1", out.Transaction.Reference)
	assert.True(t, testdb.Balance(t, h.Uow, m.ID).Equal(decimal.NewFromInt(60)))
}

func TestRequest_Rejected(t *testing.T) {
	h := testutils.NewHarness(t, mocks.NewAdapter(provider.Flutterwave), mocks.NewAdapter(provider.CardIssuer))
	testdb.Merchant(t, h.Uow, "rw@example.com", "RW", decimal.NewFromInt(10))
	testdb.Merchant(t, h.Uow, "us@example.com", "US", decimal.NewFromInt(10))
	testdb.ProviderConfig(t, h.Uow, "flutterwave", "RW", "hash")
	rw := h.Login(t, "rw@example.com")
	us := h.Login(t, "us@example.com")

	tests := []struct {
		name   string
		token  string
		body   string
		status int
		code   string
	}{
		{"no token", "", `{"amount":1,"currency":"RWF","account_type":"mobile","destination":{"phone":"+250788000000"}}`,
			fiber.StatusUnauthorized, ""},
		{"bad account type", rw, `{"amount":1,"currency":"RWF","account_type":"crypto"}`,
			fiber.StatusBadRequest, "invalid_input"},
		{"mobile without phone", rw, `{"amount":1,"currency":"RWF","account_type":"mobile"}`,
			fiber.StatusBadRequest, "invalid_input"},
		{"insufficient funds", rw, `{"amount":50,"currency":"RWF","account_type":"mobile","destination":{"phone":"+250788000000"}}`,
			fiber.StatusUnprocessableEntity, "insufficient_funds"},
		{"manual country", us, `{"amount":1,"currency":"USD","account_type":"bank"}`,
			fiber.StatusUnprocessableEntity, "unsupported_operation"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.Request(t, http.MethodPost, "/api/v1/withdrawals", tc.body, tc.token)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.code != "" {
				assert.Equal(t, tc.code, testutils.Problem(t, resp).Code)
			}
		})
	}
}
