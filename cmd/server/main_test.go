package main_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/paylink/internal/fixtures/mocks"
	"github.com/amirasaad/paylink/internal/testdb"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/webapi/admin"
	"github.com/amirasaad/paylink/webapi/payment"
	"github.com/amirasaad/paylink/webapi/testutils"
	txweb "github.com/amirasaad/paylink/webapi/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// PaymentFlowSuite drives a payment from admin setup to credited balance on
// postgres with the real migrations.
type PaymentFlowSuite struct {
	testutils.E2ETestSuite
	pesapal *mocks.Adapter
}

func TestPaymentFlowSuite(t *testing.T) {
	s := &PaymentFlowSuite{pesapal: mocks.NewAdapter(provider.Pesapal)}
	s.Adapters = []provider.Adapter{s.pesapal}
	suite.Run(t, s)
}

func (s *PaymentFlowSuite) TestPaymentCreditedOnceAcrossDuplicateNotifications() {
	t := s.T()
	testdb.Admin(t, s.Uow, "admin@example.com")
	m := testdb.Merchant(t, s.Uow, "ke-shop@example.com", "KE", decimal.Zero)
	adminToken := s.Login(t, "admin@example.com")

	resp := s.Request(http.MethodPost, "/api/v1/admin/provider-configs",
		`{"provider":"pesapal","country_code":"KE","consumer_key":"ck","consumer_secret":"cs","webhook_secret":"ipn-token"}`,
		adminToken)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var cfg admin.ProviderConfigResponse
	testutils.Decode(t, resp, &cfg)
	s.True(cfg.IsActive)

	s.pesapal.On("Initiate", mock.Anything, mock.Anything, mock.Anything).Return(&provider.Initiation{
		Reference:   "ORD-E2E",
		RedirectURL: "https://pay.example.com/ORD-E2E",
		RawStatus:   "PENDING",
		Status:      transaction.StatusPending,
	}, nil).Once()

	resp = s.Request(http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"merchant_id":%q,"amount":"150.00","currency":"USD","payment_method":"card"}`, m.ID), "")
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var initiated payment.InitiateResponse
	testutils.Decode(t, resp, &initiated)
	s.Equal("pending", initiated.Transaction.Status)

	body := []byte(`{"OrderTrackingId":"ORD-E2E","OrderNotificationType":"IPNCHANGE"}`)
	s.pesapal.On("Verify", body, mock.Anything, "ipn-token").Return(true)
	s.pesapal.On("ParseNotification", body).Return(&provider.Notification{
		Reference: "ORD-E2E",
		Status:    transaction.StatusCompleted,
		RawStatus: "1",
		HasStatus: true,
	}, nil)

	for range 2 {
		resp = s.Request(http.MethodPost, "/api/v1/webhooks/pesapal/ke?token=ipn-token", string(body), "")
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	}
	s.True(testdb.Balance(t, s.Uow, m.ID).Equal(decimal.RequireFromString("150.00")))

	resp = s.Request(http.MethodGet, "/api/v1/transactions/"+initiated.Transaction.ID.String(), "",
		s.Login(t, "ke-shop@example.com"))
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var got txweb.Response
	testutils.Decode(t, resp, &got)
	s.Equal("completed", got.Status)
	s.NotNil(got.CompletedAt)

	var completed int
	for _, evt := range s.Bus.Published() {
		if evt.Type() == events.EventTypeTransactionCompleted.String() {
			completed++
		}
	}
	s.Equal(1, completed)
}
