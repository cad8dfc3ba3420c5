package cardissuer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/paylink/infra/provider/cardissuer"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/signature"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateAndFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cards", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2550.0, req["amount"])
		_, _ = w.Write([]byte(`{"id":"card_1","reference":"` + req["reference"].(string) + `","status":"processing"}`))
	})
	mux.HandleFunc("/cards/ref-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"card_1","reference":"ref-1","status":"active","last4":"4242","number":"4242424242424242"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := &providerconfig.ProviderConfig{ConsumerSecret: "iss_sk", BaseURL: srv.URL}
	a := cardissuer.New(time.Second, nil)

	id := uuid.New()
	out, err := a.Initiate(context.Background(), &provider.Intent{
		TransactionID: id, Flow: provider.FlowWithdrawal, Amount: decimal.RequireFromString("25.50"), Currency: "USD", Country: "RW",
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, id.String(), out.Reference)
	assert.Equal(t, transaction.StatusPending, out.Status)

	res, err := a.FetchStatus(context.Background(), "ref-1", cfg)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, res.Status)
	assert.Equal(t, "4242", res.Details["card_last4"])
	for _, v := range res.Details {
		assert.NotEqual(t, "4242424242424242", v)
	}
}

func TestMissingBaseURL(t *testing.T) {
	a := cardissuer.New(time.Second, nil)
	_, err := a.FetchStatus(context.Background(), "ref-1", &providerconfig.ProviderConfig{})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.False(t, provider.IsAmbiguous(err))

	id := uuid.New()
	assert.Equal(t, id.String(), a.PlannedReference(&provider.Intent{TransactionID: id, Flow: provider.FlowWithdrawal}))
	assert.EqualValues(t, cardissuer.MinorUnitMultiplier, provider.CardIssuer.MinorUnitMultiplier())
}

func TestStatusTable(t *testing.T) {
	for raw, want := range map[string]transaction.Status{
		"active": transaction.StatusCompleted, "issued": transaction.StatusCompleted, "success": transaction.StatusCompleted,
		"failed": transaction.StatusFailed, "declined": transaction.StatusFailed, "terminated": transaction.StatusFailed,
		"pending": transaction.StatusPending, "processing": transaction.StatusPending, "frozen": transaction.StatusPending,
	} {
		assert.Equal(t, want, cardissuer.Statuses.Normalize(raw), raw)
	}
}

func TestVerifyAndParse(t *testing.T) {
	a := cardissuer.New(time.Second, nil)
	body := []byte(`{"event":"card.declined","data":{"id":"card_1","reference":"ref-1","status":"declined","reason":"kyc"}}`)
	h := http.Header{}
	h.Set(cardissuer.SignatureHeader, signature.SignHex(signature.SHA256, body, "whsec"))
	assert.True(t, a.Verify(body, h, "whsec"))
	assert.False(t, a.Verify(append(body, ' '), h, "whsec"))

	n, err := a.ParseNotification(body)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusFailed, n.Status)
	assert.Equal(t, "kyc", n.Details[transaction.MetaStatusDescription])
}
