package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	infraeventbus "github.com/amirasaad/paylink/infra/eventbus"
	"github.com/amirasaad/paylink/infra/provider/pesapal"
	"github.com/amirasaad/paylink/internal/fixtures/mocks"
	"github.com/amirasaad/paylink/internal/testdb"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/service/reconciliation"
	webhooksvc "github.com/amirasaad/paylink/pkg/service/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, adapters ...provider.Adapter) (*fiber.App, repository.UnitOfWork) {
	t.Helper()
	uow, _ := testdb.New(t)
	set := provider.NewSet(adapters...)
	bus := infraeventbus.NewWithMemory(slog.Default())
	recon := reconciliation.New(uow, set, bus, slog.Default())
	app := fiber.New()
	Routes(app, webhooksvc.New(uow, set, recon, slog.Default()))
	return app, uow
}

func post(t *testing.T, app *fiber.App, target string, body []byte, header map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWebhook_Applied(t *testing.T) {
	adapter := mocks.NewAdapter(provider.Paystack)
	app, uow := setup(t, adapter)
	m := testdb.Merchant(t, uow, "ng@example.com", "NG", decimal.Zero)
	testdb.ProviderConfig(t, uow, "paystack", "NG", "whsec")
	testdb.PendingTransaction(t, uow, m, transaction.TypePayment, decimal.NewFromInt(500), "NGN", "paystack", "ps-1")

	body := []byte(`{"event":"charge.success","data":{"reference":"ps-1"}}`)
	adapter.On("Verify", body, mock.MatchedBy(func(h http.Header) bool {
		return h.Get("X-Paystack-Signature") == "abc"
	}), "whsec").Return(true)
	adapter.On("ParseNotification", body).Return(&provider.Notification{
		Reference: "ps-1",
		Status:    transaction.StatusCompleted,
		RawStatus: "success",
		HasStatus: true,
	}, nil)

	resp := post(t, app, "/api/v1/webhooks/paystack/ng", body, map[string]string{"x-paystack-signature": "abc"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, Response{Received: true, Reference: "ps-1", Status: "completed", Applied: true}, got)
	assert.True(t, testdb.Balance(t, uow, m.ID).Equal(decimal.NewFromInt(500)))
}

func TestWebhook_BadSignature(t *testing.T) {
	adapter := mocks.NewAdapter(provider.Flutterwave)
	app, uow := setup(t, adapter)
	m := testdb.Merchant(t, uow, "gh@example.com", "GH", decimal.Zero)
	testdb.ProviderConfig(t, uow, "flutterwave", "GH", "hash")
	tx := testdb.PendingTransaction(t, uow, m, transaction.TypePayment, decimal.NewFromInt(20), "GHS", "flutterwave", "flw-1")

	body := []byte(`{"event":"charge.completed"}`)
	adapter.On("Verify", body, mock.Anything, "hash").Return(false)

	resp := post(t, app, "/api/v1/webhooks/flutterwave/GH", body, map[string]string{"verif-hash": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, transaction.StatusPending, testdb.Transaction(t, uow, tx.ID).Status)
	assert.True(t, testdb.Balance(t, uow, m.ID).IsZero())
	adapter.AssertNotCalled(t, "ParseNotification", mock.Anything)
}

func TestWebhook_PesapalTokenFromQuery(t *testing.T) {
	adapter := mocks.NewAdapter(provider.Pesapal)
	app, uow := setup(t, adapter)
	m := testdb.Merchant(t, uow, "ke@example.com", "KE", decimal.Zero)
	testdb.ProviderConfig(t, uow, "pesapal", "KE", "ipn-token")
	testdb.PendingTransaction(t, uow, m, transaction.TypePayment, decimal.NewFromInt(10), "KES", "pesapal", "ORD-1")

	body := []byte(`{"OrderTrackingId":"ORD-1","OrderNotificationType":"IPNCHANGE"}`)
	adapter.On("Verify", body, mock.MatchedBy(func(h http.Header) bool {
		return h.Get(pesapal.TokenHeader) == "ipn-token"
	}), "ipn-token").Return(true)
	adapter.On("ParseNotification", body).Return(&provider.Notification{
		Reference: "ORD-1",
		Status:    transaction.StatusFailed,
		RawStatus: "2",
		HasStatus: true,
	}, nil)

	resp := post(t, app, "/api/v1/webhooks/pesapal/KE?token=ipn-token", body, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	adapter.AssertExpectations(t)
}

func TestWebhook_Errors(t *testing.T) {
	adapter := mocks.NewAdapter(provider.Paystack)
	app, uow := setup(t, adapter)
	testdb.ProviderConfig(t, uow, "paystack", "NG", "whsec")

	malformed := []byte(`not json`)
	adapter.On("Verify", malformed, mock.Anything, "whsec").Return(true)
	adapter.On("ParseNotification", malformed).Return(nil, errors.New("unexpected token"))

	unknownRef := []byte(`{"data":{"reference":"missing"}}`)
	adapter.On("Verify", unknownRef, mock.Anything, "whsec").Return(true)
	adapter.On("ParseNotification", unknownRef).Return(&provider.Notification{
		Reference: "missing",
		Status:    transaction.StatusCompleted,
		HasStatus: true,
	}, nil)

	tests := []struct {
		name   string
		target string
		body   []byte
		status int
	}{
		{"malformed body", "/api/v1/webhooks/paystack/NG", malformed, fiber.StatusBadRequest},
		{"unknown reference", "/api/v1/webhooks/paystack/NG", unknownRef, fiber.StatusNotFound},
		{"unknown provider", "/api/v1/webhooks/mpesa/KE", []byte(`{}`), fiber.StatusNotFound},
		{"no config for country", "/api/v1/webhooks/paystack/GH", []byte(`{}`), fiber.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, app, tc.target, tc.body, nil)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
		})
	}

	t.Run("malformed detail is generic", func(t *testing.T) {
		resp := post(t, app, "/api/v1/webhooks/paystack/NG", malformed, nil)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "malformed notification")
		assert.NotContains(t, string(raw), "unexpected token")
	})
}

func TestWebhook_IgnoredEventReturnsOK(t *testing.T) {
	adapter := mocks.NewAdapter(provider.Stripe)
	app, uow := setup(t, adapter)
	testdb.ProviderConfig(t, uow, "stripe", "US", "whsec_1")

	body := []byte(`{"id":"evt_1","type":"payment_intent.created"}`)
	adapter.On("Verify", body, mock.Anything, "whsec_1").Return(true)
	adapter.On("ParseNotification", body).Return(&provider.Notification{Ignored: true}, nil)

	resp := post(t, app, "/api/v1/webhooks/stripe/us", body, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, Response{Received: true}, got)
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	app, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/paystack/NG", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, fiber.MethodPost, resp.Header.Get(fiber.HeaderAllow))
}
