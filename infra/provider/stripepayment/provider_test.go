package stripepayment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/paylink/infra/provider/stripepayment"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

func TestInitiateAndFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "1025", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
			assert.Equal(t, "gbp", r.PostForm.Get("line_items[0][price_data][currency]"))
			_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_1","status":"open","payment_status":"unpaid"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_test_1":
			_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","status":"complete","payment_status":"paid","payment_intent":"pi_1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := &providerconfig.ProviderConfig{ConsumerSecret: "sk_test_x", BaseURL: srv.URL}
	a := stripepayment.New(2*time.Second, nil)

	out, err := a.Initiate(context.Background(), &provider.Intent{
		TransactionID: uuid.New(), Flow: provider.FlowPayment, Amount: decimal.RequireFromString("10.25"),
		Currency: "GBP", Country: "GB", RedirectURL: "https://shop.example/done",
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", out.Reference)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", out.RedirectURL)

	res, err := a.FetchStatus(context.Background(), "cs_test_1", cfg)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, res.Status)
	assert.Equal(t, "pi_1", res.Details[transaction.MetaConfirmationCode])

	_, err = a.FetchStatus(context.Background(), "cs_missing", cfg)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestStatusTable(t *testing.T) {
	assert.Equal(t, transaction.StatusCompleted, stripepayment.Statuses.Normalize("paid"))
	assert.Equal(t, transaction.StatusPending, stripepayment.Statuses.Normalize("unpaid"))
	assert.Equal(t, transaction.StatusPending, stripepayment.Statuses.Normalize("open"))
	assert.Equal(t, transaction.StatusFailed, stripepayment.Statuses.Normalize("expired"))
	assert.Equal(t, transaction.StatusPending, stripepayment.Statuses.Normalize("requires_action"))
}

func TestVerifyAndParse(t *testing.T) {
	a := stripepayment.New(time.Second, nil)
	body := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","status":"complete","payment_status":"paid"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: body, Secret: "whsec_1", Timestamp: time.Now()})

	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)
	assert.True(t, a.Verify(body, h, "whsec_1"))
	assert.False(t, a.Verify(body, h, "whsec_2"))

	n, err := a.ParseNotification(body)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", n.Reference)
	assert.Equal(t, transaction.StatusCompleted, n.Status)

	n, err = a.ParseNotification([]byte(`{"id":"evt_2","object":"event","type":"checkout.session.expired","data":{"object":{"id":"cs_test_2","status":"expired","payment_status":"unpaid"}}}`))
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusFailed, n.Status)

	_, err = a.ParseNotification([]byte(`{"id":"evt_4","object":"event","type":"checkout.session.completed"}`))
	require.Error(t, err)
}

func TestParseNotificationIgnoresUnrelatedEvents(t *testing.T) {
	a := stripepayment.New(time.Second, nil)
	for _, typ := range []string{"customer.created", "payment_intent.succeeded", "charge.refunded"} {
		t.Run(typ, func(t *testing.T) {
			n, err := a.ParseNotification([]byte(`{"id":"evt_3","object":"event","type":"` + typ + `","data":{"object":{"id":"obj_1"}}}`))
			require.NoError(t, err)
			assert.True(t, n.Ignored)
			assert.Empty(t, n.Reference)
			assert.Equal(t, typ, n.Details["event"])
		})
	}
}
