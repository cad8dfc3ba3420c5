// Package pesapal integrates Pesapal v3 card collection. Every call
// acquires a fresh bearer token; none is cached between requests.
package pesapal

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
	sandboxURL    = "https://cybqa.pesapal.com/pesapalv3"
	productionURL = "https://pay.pesapal.com/v3"

	// TokenHeader carries the shared secret the IPN URL was registered with.
	TokenHeader = "X-Ipn-Token"

	// MinorUnitMultiplier: Pesapal takes whole units.
	MinorUnitMultiplier = 1
)

// Statuses maps both status_code and payment_status_description.
var Statuses = provider.NewStatusTable(map[string]transaction.Status{
	"0":         transaction.StatusPending,
	"1":         transaction.StatusCompleted,
	"2":         transaction.StatusFailed,
	"3":         transaction.StatusFailed,
	"COMPLETED": transaction.StatusCompleted,
	"FAILED":    transaction.StatusFailed,
	"REVERSED":  transaction.StatusFailed,
	"INVALID":   transaction.StatusPending,
})

// Adapter talks to Pesapal.
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
		client:   httpclient.New(provider.Pesapal, timeout, logger),
		verifier: signature.SharedSecretHeader{Header: TokenHeader},
		logger:   logger.With("adapter", "pesapal"),
	}
}

// Kind implements provider.Adapter.
func (a *Adapter) Kind() provider.Kind { return provider.Pesapal }

type tokenRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tokenResponse struct {
	Token      string    `json:"token"`
	ExpiryDate string    `json:"expiryDate"`
	Status     string    `json:"status"`
	Error      *apiError `json:"error"`
}

type billingAddress struct {
	EmailAddress string `json:"email_address,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
}

type orderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         json.Number    `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress billingAddress `json:"billing_address"`
}

type orderResponse struct {
	OrderTrackingID   string    `json:"order_tracking_id"`
	MerchantReference string    `json:"merchant_reference"`
	RedirectURL       string    `json:"redirect_url"`
	Status            string    `json:"status"`
	Error             *apiError `json:"error"`
}

type statusResponse struct {
	PaymentMethod            string    `json:"payment_method"`
	ConfirmationCode         string    `json:"confirmation_code"`
	PaymentStatusDescription string    `json:"payment_status_description"`
	Description              string    `json:"description"`
	Message                  string    `json:"message"`
	PaymentAccount           string    `json:"payment_account"`
	StatusCode               *int      `json:"status_code"`
	MerchantReference        string    `json:"merchant_reference"`
	Currency                 string    `json:"currency"`
	Error                    *apiError `json:"error"`
}

// ipn is the body Pesapal posts to the registered IPN URL.
type ipn struct {
	OrderTrackingID        string `json:"OrderTrackingId"`
	OrderNotificationType  string `json:"OrderNotificationType"`
	OrderMerchantReference string `json:"OrderMerchantReference"`
}

func baseURL(cfg *providerconfig.ProviderConfig) string {
	return strings.TrimRight(httpclient.BaseURL(cfg.BaseURL, sandboxURL, productionURL, cfg.IsProduction()), "/")
}

func (a *Adapter) token(ctx context.Context, cfg *providerconfig.ProviderConfig) (string, error) {
	var out tokenResponse
	err := a.client.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     baseURL(cfg) + "/api/Auth/RequestToken",
		Body:    tokenRequest{ConsumerKey: cfg.ConsumerKey, ConsumerSecret: cfg.ConsumerSecret},
		Secrets: cfg.Secrets(),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", provider.NewRejection(provider.Pesapal, 0, "token request rejected: "+describe(out.Error), cfg.Secrets()...)
	}
	return out.Token, nil
}

// Initiate submits an order and returns the tracking id as reference.
func (a *Adapter) Initiate(ctx context.Context, intent *provider.Intent, cfg *providerconfig.ProviderConfig) (*provider.Initiation, error) {
	if intent.Flow != provider.FlowPayment {
		return nil, fmt.Errorf("pesapal: %s flow not supported", intent.Flow)
	}
	amount, err := httpclient.WireAmount(intent.Amount, MinorUnitMultiplier)
	if err != nil {
		return nil, err
	}
	tok, err := a.token(ctx, cfg)
	if err != nil {
		return nil, err
	}

	callback := intent.RedirectURL
	if callback == "" {
		callback = intent.CallbackURL
	}
	var out orderResponse
	err = a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    baseURL(cfg) + "/api/Transactions/SubmitOrderRequest",
		Header: map[string]string{"Authorization": "Bearer " + tok},
		Body: orderRequest{
			ID:             intent.TransactionID.String(),
			Currency:       intent.Currency.String(),
			Amount:         amount,
			Description:    truncate(intent.Description, 100),
			CallbackURL:    callback,
			NotificationID: cfg.IPNID,
			BillingAddress: billingAddress{
				EmailAddress: intent.Customer.Email,
				PhoneNumber:  intent.Customer.Phone,
				FirstName:    intent.Customer.Name,
				CountryCode:  intent.Country,
			},
		},
		Secrets: append(cfg.Secrets(), tok),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.OrderTrackingID == "" {
		return nil, provider.NewRejection(provider.Pesapal, 0, "order rejected: "+describe(out.Error), cfg.Secrets()...)
	}

	a.logger.Info("✅ Pesapal order submitted", "transaction_id", intent.TransactionID, "reference", out.OrderTrackingID)
	return &provider.Initiation{
		Reference:   out.OrderTrackingID,
		RedirectURL: out.RedirectURL,
		RawStatus:   out.Status,
		Status:      transaction.StatusPending,
	}, nil
}

// FetchStatus reads GetTransactionStatus. status_code wins over the
// description when both are present.
func (a *Adapter) FetchStatus(ctx context.Context, reference string, cfg *providerconfig.ProviderConfig) (*provider.StatusResult, error) {
	tok, err := a.token(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var out statusResponse
	err = a.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     baseURL(cfg) + "/api/Transactions/GetTransactionStatus?orderTrackingId=" + url.QueryEscape(reference),
		Header:  map[string]string{"Authorization": "Bearer " + tok},
		Secrets: append(cfg.Secrets(), tok),
	}, &out)
	if err != nil {
		return nil, err
	}

	raw := out.PaymentStatusDescription
	status := Statuses.Normalize(raw)
	if out.StatusCode != nil {
		status = Statuses.Normalize(fmt.Sprint(*out.StatusCode))
	}
	details := map[string]any{
		transaction.MetaLastProviderStatus: raw,
		transaction.MetaStatusDescription:  firstNonEmpty(out.Description, out.Message),
	}
	if out.ConfirmationCode != "" {
		details[transaction.MetaConfirmationCode] = out.ConfirmationCode
	}
	if out.PaymentMethod != "" {
		details["payment_method"] = out.PaymentMethod
	}
	return &provider.StatusResult{Status: status, RawStatus: raw, Details: details}, nil
}

// Verify implements provider.Adapter.
func (a *Adapter) Verify(body []byte, header http.Header, secret string) bool {
	return a.verifier.Verify(body, header, secret)
}

// ParseNotification reads an IPN. IPNs carry no status.
func (a *Adapter) ParseNotification(body []byte) (*provider.Notification, error) {
	var n ipn
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("pesapal: decode ipn: %w", err)
	}
	if n.OrderTrackingID == "" {
		return nil, fmt.Errorf("pesapal: ipn without OrderTrackingId")
	}
	return &provider.Notification{
		Reference: n.OrderTrackingID,
		HasStatus: false,
		Details: map[string]any{
			"notification_type":  n.OrderNotificationType,
			"merchant_reference": n.OrderMerchantReference,
		},
	}, nil
}

func describe(e *apiError) string {
	if e == nil {
		return "no detail"
	}
	return strings.TrimSpace(e.Code + " " + e.Message)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ provider.Adapter = (*Adapter)(nil)
