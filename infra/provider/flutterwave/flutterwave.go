// Package flutterwave integrates Flutterwave mobile money: collection via
// hosted payments and disbursement via transfers.
//
// The transfer endpoints and field names follow the v3 docs at the time of
// writing and are provisional; confirm against current documentation
// before enabling production configs.
package flutterwave

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
	defaultURL = "https://api.flutterwave.com/v3"

	// HashHeader carries the secret hash configured on the dashboard.
	HashHeader = "verif-hash"

	// MinorUnitMultiplier: Flutterwave takes whole units.
	MinorUnitMultiplier = 1

	// TransferPrefix marks references that belong to disbursements.
	TransferPrefix = "wd-"
)

// Statuses covers both charge and transfer vocabularies.
var Statuses = provider.NewStatusTable(map[string]transaction.Status{
	"successful": transaction.StatusCompleted,
	"success":    transaction.StatusCompleted,
	"failed":     transaction.StatusFailed,
	"cancelled":  transaction.StatusFailed,
	"error":      transaction.StatusFailed,
	"pending":    transaction.StatusPending,
	"new":        transaction.StatusPending,
	"processing": transaction.StatusPending,
})

// mobile money payment_options per country.
var paymentOptions = map[string]string{
	"RW": "mobilemoneyrwanda",
	"KE": "mpesa",
	"UG": "mobilemoneyuganda",
	"TZ": "mobilemoneytanzania",
	"GH": "mobilemoneyghana",
	"ZM": "mobilemoneyzambia",
	"CM": "mobilemoneyfranco",
	"CI": "mobilemoneyfranco",
	"SN": "mobilemoneyfranco",
}

// transferOperators is the account_bank code for a mobile money payout
// when the request names none. Countries not listed use MPS.
var transferOperators = map[string]string{
	"GH": "MTN",
	"CM": "FMM",
	"CI": "FMM",
	"SN": "FMM",
}

func operator(intent *provider.Intent) string {
	if code := strings.TrimSpace(intent.Destination.BankCode); code != "" {
		return strings.ToUpper(code)
	}
	if code, ok := transferOperators[intent.Country]; ok {
		return code
	}
	return "MPS"
}

// Adapter talks to Flutterwave.
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
		client:   httpclient.New(provider.Flutterwave, timeout, logger),
		verifier: signature.SharedSecretHeader{Header: HashHeader},
		logger:   logger.With("adapter", "flutterwave"),
	}
}

// Kind implements provider.Adapter.
func (a *Adapter) Kind() provider.Kind { return provider.Flutterwave }

type customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Name        string `json:"name,omitempty"`
}

type paymentRequest struct {
	TxRef          string      `json:"tx_ref"`
	Amount         json.Number `json:"amount"`
	Currency       string      `json:"currency"`
	RedirectURL    string      `json:"redirect_url,omitempty"`
	PaymentOptions string      `json:"payment_options,omitempty"`
	Customer       customer    `json:"customer"`
}

type transferRequest struct {
	AccountBank     string      `json:"account_bank"`
	AccountNumber   string      `json:"account_number"`
	Amount          json.Number `json:"amount"`
	Currency        string      `json:"currency"`
	Reference       string      `json:"reference"`
	Narration       string      `json:"narration,omitempty"`
	BeneficiaryName string      `json:"beneficiary_name,omitempty"`
	CallbackURL     string      `json:"callback_url,omitempty"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type record struct {
	ID              int64  `json:"id"`
	TxRef           string `json:"tx_ref"`
	Reference       string `json:"reference"`
	FlwRef          string `json:"flw_ref"`
	Status          string `json:"status"`
	Link            string `json:"link"`
	CompleteMessage string `json:"complete_message"`
	ProcessorResp   string `json:"processor_response"`
}

func (r record) reference() string {
	if r.TxRef != "" {
		return r.TxRef
	}
	return r.Reference
}

type event struct {
	Event string `json:"event"`
	Data  record `json:"data"`
}

func baseURL(cfg *providerconfig.ProviderConfig) string {
	return strings.TrimRight(httpclient.BaseURL(cfg.BaseURL, defaultURL, defaultURL, cfg.IsProduction()), "/")
}

func auth(cfg *providerconfig.ProviderConfig) map[string]string {
	return map[string]string{"Authorization": "Bearer " + cfg.ConsumerSecret}
}

// Initiate starts a mobile money collection or a mobile money transfer.
func (a *Adapter) Initiate(ctx context.Context, intent *provider.Intent, cfg *providerconfig.ProviderConfig) (*provider.Initiation, error) {
	amount, err := httpclient.WireAmount(intent.Amount, MinorUnitMultiplier)
	if err != nil {
		return nil, err
	}
	if intent.Flow == provider.FlowWithdrawal {
		return a.transfer(ctx, intent, amount, cfg)
	}

	ref := a.PlannedReference(intent)
	var env envelope
	err = a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    baseURL(cfg) + "/payments",
		Header: auth(cfg),
		Body: paymentRequest{
			TxRef:          ref,
			Amount:         amount,
			Currency:       intent.Currency.String(),
			RedirectURL:    intent.RedirectURL,
			PaymentOptions: paymentOptions[intent.Country],
			Customer: customer{
				Email:       intent.Customer.Email,
				PhoneNumber: intent.Customer.Phone,
				Name:        intent.Customer.Name,
			},
		},
		Secrets: cfg.Secrets(),
	}, &env)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := decode(env, &rec, cfg); err != nil {
		return nil, err
	}
	a.logger.Info("✅ Flutterwave payment link created", "transaction_id", intent.TransactionID)
	return &provider.Initiation{
		Reference:   ref,
		RedirectURL: rec.Link,
		RawStatus:   env.Status,
		Status:      transaction.StatusPending,
	}, nil
}

func (a *Adapter) transfer(ctx context.Context, intent *provider.Intent, amount json.Number, cfg *providerconfig.ProviderConfig) (*provider.Initiation, error) {
	ref := a.PlannedReference(intent)
	var env envelope
	err := a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    baseURL(cfg) + "/transfers",
		Header: auth(cfg),
		Body: transferRequest{
			AccountBank:     operator(intent),
			AccountNumber:   intent.Destination.Phone,
			Amount:          amount,
			Currency:        intent.Currency.String(),
			Reference:       ref,
			Narration:       intent.Description,
			BeneficiaryName: intent.Destination.Name,
			CallbackURL:     intent.CallbackURL,
		},
		Secrets: cfg.Secrets(),
	}, &env)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := decode(env, &rec, cfg); err != nil {
		return nil, err
	}
	a.logger.Info("✅ Flutterwave transfer queued", "transaction_id", intent.TransactionID, "reference", ref, "status", rec.Status)
	return &provider.Initiation{
		Reference:    ref,
		Instructions: "funds will arrive on " + intent.Destination.Phone,
		RawStatus:    rec.Status,
		Status:       Statuses.Normalize(rec.Status),
	}, nil
}

// PlannedReference is the tx_ref of a collection, or the prefixed
// reference of a transfer. Both are fixed before the request is sent.
func (a *Adapter) PlannedReference(intent *provider.Intent) string {
	if intent.Flow == provider.FlowWithdrawal {
		return TransferPrefix + intent.TransactionID.String()
	}
	return intent.TransactionID.String()
}

// FetchStatus verifies a charge by tx_ref, or looks up a transfer by reference.
func (a *Adapter) FetchStatus(ctx context.Context, reference string, cfg *providerconfig.ProviderConfig) (*provider.StatusResult, error) {
	endpoint := baseURL(cfg) + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	if strings.HasPrefix(reference, TransferPrefix) {
		endpoint = baseURL(cfg) + "/transfers?reference=" + url.QueryEscape(reference)
	}
	var env envelope
	if err := a.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet, URL: endpoint, Header: auth(cfg), Secrets: cfg.Secrets(),
	}, &env); err != nil {
		return nil, err
	}

	var rec record
	if strings.HasPrefix(reference, TransferPrefix) {
		var list []record
		if err := decode(env, &list, cfg); err != nil {
			return nil, err
		}
		if len(list) > 0 {
			rec = list[0]
		}
	} else if err := decode(env, &rec, cfg); err != nil {
		return nil, err
	}
	return &provider.StatusResult{
		Status:    Statuses.Normalize(rec.Status),
		RawStatus: rec.Status,
		Details:   details(rec),
	}, nil
}

// Verify implements provider.Adapter.
func (a *Adapter) Verify(body []byte, header http.Header, secret string) bool {
	return a.verifier.Verify(body, header, secret)
}

// ParseNotification reads charge.completed and transfer.completed events.
func (a *Adapter) ParseNotification(body []byte) (*provider.Notification, error) {
	var e event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("flutterwave: decode event: %w", err)
	}
	ref := e.Data.reference()
	if ref == "" {
		return nil, fmt.Errorf("flutterwave: event %q without reference", e.Event)
	}
	d := details(e.Data)
	d["event"] = e.Event
	return &provider.Notification{
		Reference: ref,
		Status:    Statuses.Normalize(e.Data.Status),
		RawStatus: e.Data.Status,
		HasStatus: e.Data.Status != "",
		Details:   d,
	}, nil
}

func decode(env envelope, out any, cfg *providerconfig.ProviderConfig) error {
	if !strings.EqualFold(env.Status, "success") {
		return provider.NewRejection(provider.Flutterwave, 0, "request rejected: "+env.Message, cfg.Secrets()...)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return provider.NewError(provider.Flutterwave, 0, "undecodable data", err, cfg.Secrets()...)
	}
	return nil
}

func details(r record) map[string]any {
	out := map[string]any{
		transaction.MetaLastProviderStatus: r.Status,
		transaction.MetaStatusDescription:  firstNonEmpty(r.CompleteMessage, r.ProcessorResp),
	}
	if r.FlwRef != "" {
		out[transaction.MetaConfirmationCode] = r.FlwRef
	}
	if r.ID != 0 {
		out["flutterwave_id"] = r.ID
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	_ provider.Adapter          = (*Adapter)(nil)
	_ provider.ReferencePlanner = (*Adapter)(nil)
)
