// Package cardissuer satisfies bank withdrawals by issuing a prefunded
// virtual card. The issuer API shape is provisional: base_url must be set
// on the provider config and the paths below confirmed with the issuer.
package cardissuer

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
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/signature"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Issuer-Signature"

	// MinorUnitMultiplier: card loads are in cents.
	MinorUnitMultiplier = 100
)

// Statuses is the issuer's card lifecycle vocabulary.
var Statuses = provider.NewStatusTable(map[string]transaction.Status{
	"active":     transaction.StatusCompleted,
	"issued":     transaction.StatusCompleted,
	"success":    transaction.StatusCompleted,
	"failed":     transaction.StatusFailed,
	"declined":   transaction.StatusFailed,
	"terminated": transaction.StatusFailed,
	"pending":    transaction.StatusPending,
	"processing": transaction.StatusPending,
})

// Adapter talks to the card issuer.
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
		client:   httpclient.New(provider.CardIssuer, timeout, logger),
		verifier: signature.HMAC{Header: SignatureHeader, Algorithm: signature.SHA256},
		logger:   logger.With("adapter", "cardissuer"),
	}
}

// Kind implements provider.Adapter.
func (a *Adapter) Kind() provider.Kind { return provider.CardIssuer }

type cardholder struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type issueRequest struct {
	Reference   string      `json:"reference"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Country     string      `json:"country"`
	Cardholder  cardholder  `json:"cardholder"`
	CallbackURL string      `json:"callback_url,omitempty"`
}

type card struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Last4     string `json:"last4"`
	Reason    string `json:"reason"`
}

type event struct {
	Event string `json:"event"`
	Data  card   `json:"data"`
}

func baseURL(cfg *providerconfig.ProviderConfig) (string, error) {
	if cfg.BaseURL == "" {
		return "", provider.NewRejection(provider.CardIssuer, 0, "base_url not configured")
	}
	return strings.TrimRight(cfg.BaseURL, "/"), nil
}

func auth(cfg *providerconfig.ProviderConfig) map[string]string {
	return map[string]string{"Authorization": "Bearer " + cfg.ConsumerSecret}
}

// Initiate requests a card loaded with the withdrawal amount. The
// transaction id is the reference.
func (a *Adapter) Initiate(ctx context.Context, intent *provider.Intent, cfg *providerconfig.ProviderConfig) (*provider.Initiation, error) {
	if intent.Flow != provider.FlowWithdrawal {
		return nil, fmt.Errorf("cardissuer: %s flow not supported", intent.Flow)
	}
	base, err := baseURL(cfg)
	if err != nil {
		return nil, err
	}
	amount, err := httpclient.WireAmount(intent.Amount, MinorUnitMultiplier)
	if err != nil {
		return nil, err
	}
	var out card
	err = a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    base + "/cards",
		Header: auth(cfg),
		Body: issueRequest{
			Reference: a.PlannedReference(intent),
			Amount:    amount,
			Currency:  intent.Currency.String(),
			Country:   intent.Country,
			Cardholder: cardholder{
				Name:  intent.Destination.Name,
				Phone: intent.Destination.Phone,
				Email: intent.Customer.Email,
			},
			CallbackURL: intent.CallbackURL,
		},
		Secrets: cfg.Secrets(),
	}, &out)
	if err != nil {
		return nil, err
	}
	ref := out.Reference
	if ref == "" {
		ref = a.PlannedReference(intent)
	}
	a.logger.Info("✅ Virtual card requested", "transaction_id", intent.TransactionID, "card_id", out.ID, "status", out.Status)
	return &provider.Initiation{
		Reference:    ref,
		Instructions: "a virtual card will be issued to the account holder",
		RawStatus:    out.Status,
		Status:       Statuses.Normalize(out.Status),
	}, nil
}

// PlannedReference is the transaction id, sent as the card reference.
func (a *Adapter) PlannedReference(intent *provider.Intent) string {
	return intent.TransactionID.String()
}

// FetchStatus reads the card by reference.
func (a *Adapter) FetchStatus(ctx context.Context, reference string, cfg *providerconfig.ProviderConfig) (*provider.StatusResult, error) {
	base, err := baseURL(cfg)
	if err != nil {
		return nil, err
	}
	var out card
	if err := a.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     base + "/cards/" + url.PathEscape(reference),
		Header:  auth(cfg),
		Secrets: cfg.Secrets(),
	}, &out); err != nil {
		return nil, err
	}
	return &provider.StatusResult{Status: Statuses.Normalize(out.Status), RawStatus: out.Status, Details: details(out)}, nil
}

// Verify implements provider.Adapter.
func (a *Adapter) Verify(body []byte, header http.Header, secret string) bool {
	return a.verifier.Verify(body, header, secret)
}

// ParseNotification reads card.* events.
func (a *Adapter) ParseNotification(body []byte) (*provider.Notification, error) {
	var e event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("cardissuer: decode event: %w", err)
	}
	if e.Data.Reference == "" {
		return nil, fmt.Errorf("cardissuer: event %q without reference", e.Event)
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

// Card numbers never enter metadata; only the id and last4.
func details(c card) map[string]any {
	out := map[string]any{
		transaction.MetaLastProviderStatus: c.Status,
	}
	if c.Reason != "" {
		out[transaction.MetaStatusDescription] = c.Reason
	}
	if c.ID != "" {
		out[transaction.MetaConfirmationCode] = c.ID
	}
	if c.Last4 != "" {
		out["card_last4"] = c.Last4
	}
	return out
}

var (
	_ provider.Adapter          = (*Adapter)(nil)
	_ provider.ReferencePlanner = (*Adapter)(nil)
)
