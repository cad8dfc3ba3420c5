// Package paystack integrates Paystack bank-transfer collection.
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/paylink/infra/provider/httpclient"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/signature"
)

const (
	defaultURL = "https://api.paystack.co"

	// SignatureHeader carries the hex HMAC-SHA512 of the raw body.
	SignatureHeader = "x-paystack-signature"

	// MinorUnitMultiplier: amounts are in kobo/pesewas/cents.
	MinorUnitMultiplier = 100
)

// Statuses is Paystack's transaction vocabulary.
var Statuses = provider.NewStatusTable(map[string]transaction.Status{
	"success":    transaction.StatusCompleted,
	"failed":     transaction.StatusFailed,
	"abandoned":  transaction.StatusFailed,
	"reversed":   transaction.StatusFailed,
	"ongoing":    transaction.StatusPending,
	"pending":    transaction.StatusPending,
	"processing": transaction.StatusPending,
	"queued":     transaction.StatusPending,
})

// Adapter talks to Paystack.
type Adapter struct {
	client   *httpclient.Client
	verifier signature.Verifier
	logger   *slog.Logger
}

// New builds the adapter.
func New(timeout time.Duration, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:   httpclient.New(provider.Paystack, timeout, logger),
		verifier: signature.HMAC{Header: SignatureHeader, Algorithm: signature.SHA512},
		logger:   logger.With("adapter", "paystack"),
	}
}

// Kind implements provider.Adapter.
func (a *Adapter) Kind() provider.Kind { return provider.Paystack }

type initializeRequest struct {
	Email       string          `json:"email"`
	Amount      json.Number     `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Channels    []string        `json:"channels"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type transactionData struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
	Channel         string `json:"channel"`
}

type verifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    transactionData `json:"data"`
}

type event struct {
	Event string          `json:"event"`
	Data  transactionData `json:"data"`
}

func baseURL(cfg *providerconfig.ProviderConfig) string {
	return strings.TrimRight(httpclient.BaseURL(cfg.BaseURL, defaultURL, defaultURL, cfg.IsProduction()), "/")
}

func auth(cfg *providerconfig.ProviderConfig) map[string]string {
	return map[string]string{"Authorization": "Bearer " + cfg.ConsumerSecret}
}

// Initiate opens a transaction restricted to the bank-transfer channel.
// The transaction id is the Paystack reference.
func (a *Adapter) Initiate(ctx context.Context, intent *provider.Intent, cfg *providerconfig.ProviderConfig) (*provider.Initiation, error) {
	if intent.Flow != provider.FlowPayment {
		return nil, fmt.Errorf("paystack: %s flow not supported", intent.Flow)
	}
	amount, err := httpclient.WireAmount(intent.Amount, MinorUnitMultiplier)
	if err != nil {
		return nil, err
	}
	meta, _ := json.Marshal(map[string]string{"transaction_id": intent.TransactionID.String()})

	var out initializeResponse
	err = a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    baseURL(cfg) + "/transaction/initialize",
		Header: auth(cfg),
		Body: initializeRequest{
			Email:       intent.Customer.Email,
			Amount:      amount,
			Currency:    intent.Currency.String(),
			Reference:   intent.TransactionID.String(),
			CallbackURL: intent.RedirectURL,
			Channels:    []string{"bank_transfer"},
			Metadata:    meta,
		},
		Secrets: cfg.Secrets(),
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Status || out.Data.Reference == "" {
		return nil, provider.NewRejection(provider.Paystack, 0, "initialize rejected: "+out.Message, cfg.Secrets()...)
	}
	a.logger.Info("✅ Paystack transaction initialized", "transaction_id", intent.TransactionID, "reference", out.Data.Reference)
	return &provider.Initiation{
		Reference:   out.Data.Reference,
		RedirectURL: out.Data.AuthorizationURL,
		RawStatus:   out.Message,
		Status:      transaction.StatusPending,
	}, nil
}

// FetchStatus calls /transaction/verify.
func (a *Adapter) FetchStatus(ctx context.Context, reference string, cfg *providerconfig.ProviderConfig) (*provider.StatusResult, error) {
	var out verifyResponse
	err := a.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     baseURL(cfg) + "/transaction/verify/" + url.PathEscape(reference),
		Header:  auth(cfg),
		Secrets: cfg.Secrets(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &provider.StatusResult{
		Status:    Statuses.Normalize(out.Data.Status),
		RawStatus: out.Data.Status,
		Details:   details(out.Data),
	}, nil
}

// Verify implements provider.Adapter.
func (a *Adapter) Verify(body []byte, header http.Header, secret string) bool {
	return a.verifier.Verify(body, header, secret)
}

// ParseNotification reads charge.* events.
func (a *Adapter) ParseNotification(body []byte) (*provider.Notification, error) {
	var e event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("paystack: decode event: %w", err)
	}
	if e.Data.Reference == "" {
		return nil, fmt.Errorf("paystack: event %q without reference", e.Event)
	}
	d := details(e.Data)
	d["event"] = e.Event
	return &provider.Notification{
		Reference: e.Data.Reference,
		Status:    Statuses.Normalize(e.Data.Status),
		RawStatus: e.Data.Status,
		HasStatus: e.Data.Status != "",
		Details:   d,
	}, nil
}

func details(d transactionData) map[string]any {
	out := map[string]any{
		transaction.MetaLastProviderStatus: d.Status,
		transaction.MetaStatusDescription:  d.GatewayResponse,
	}
	if d.ID != 0 {
		out[transaction.MetaConfirmationCode] = fmt.Sprint(d.ID)
	}
	if d.Amount != 0 {
		if amt, err := money.FromMinorUnits(d.Amount, MinorUnitMultiplier); err == nil {
			out["provider_amount"] = amt.String()
		}
	}
	if d.PaidAt != "" {
		out["paid_at"] = d.PaidAt
	}
	return out
}

var _ provider.Adapter = (*Adapter)(nil)
