// Package stripepayment integrates Stripe Checkout for card collection in
// Stripe countries.
package stripepayment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/paylink/infra/provider/httpclient"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/signature"
	"github.com/stripe/stripe-go/v82"
)

// MinorUnitMultiplier: Stripe amounts are in cents.
const MinorUnitMultiplier = 100

// Statuses maps session payment_status, session status and webhook event
// types.
var Statuses = provider.NewStatusTable(map[string]transaction.Status{
	"paid":                                     transaction.StatusCompleted,
	"no_payment_required":                      transaction.StatusCompleted,
	"unpaid":                                   transaction.StatusPending,
	"open":                                     transaction.StatusPending,
	"expired":                                  transaction.StatusFailed,
	"checkout.session.async_payment_succeeded": transaction.StatusCompleted,
	"checkout.session.async_payment_failed":    transaction.StatusFailed,
	"checkout.session.expired":                 transaction.StatusFailed,
})

// StripePaymentProvider implements provider.Adapter on Checkout Sessions.
type StripePaymentProvider struct {
	timeout  time.Duration
	http     *http.Client
	verifier signature.Verifier
	logger   *slog.Logger
}

// New creates the adapter. Each call builds a client from the config's
// secret key, so one adapter serves every configured country.
func New(timeout time.Duration, logger *slog.Logger) *StripePaymentProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	return &StripePaymentProvider{
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		verifier: signature.StripeSignature{},
		logger:   logger.With("adapter", "stripe"),
	}
}

// Kind implements provider.Adapter.
func (s *StripePaymentProvider) Kind() provider.Kind { return provider.Stripe }

func (s *StripePaymentProvider) client(cfg *providerconfig.ProviderConfig) *stripe.Client {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        s.http,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}
	return stripe.NewClient(cfg.ConsumerSecret, stripe.WithBackends(stripe.NewBackendsWithConfig(backendCfg)))
}

// Initiate creates a Checkout Session; its id is the reference.
func (s *StripePaymentProvider) Initiate(ctx context.Context, intent *provider.Intent, cfg *providerconfig.ProviderConfig) (*provider.Initiation, error) {
	if intent.Flow != provider.FlowPayment {
		return nil, fmt.Errorf("stripe: %s flow not supported", intent.Flow)
	}
	amount, err := httpclient.WireAmount(intent.Amount, MinorUnitMultiplier)
	if err != nil {
		return nil, err
	}
	unit, err := amount.Int64()
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{
		"transaction_id": intent.TransactionID.String(),
		"country":        intent.Country,
	}
	description := intent.Description
	if description == "" {
		description = "Payment " + intent.TransactionID.String()
	}

	params := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(intent.RedirectURL),
		CancelURL:          stripe.String(intent.RedirectURL),
		ClientReferenceID:  stripe.String(intent.TransactionID.String()),
		Metadata:           metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: metadata,
		},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(intent.Currency.String())),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(description)},
				UnitAmount: stripe.Int64(unit),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if intent.Customer.Email != "" {
		params.CustomerEmail = stripe.String(intent.Customer.Email)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	session, err := s.client(cfg).V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create checkout session", "error", provider.Redact(err.Error(), cfg.Secrets()...))
		return nil, toProviderError(err, cfg)
	}

	s.logger.Info("✅ Created checkout session", "session_id", session.ID, "transaction_id", intent.TransactionID)
	return &provider.Initiation{
		Reference:   session.ID,
		RedirectURL: session.URL,
		RawStatus:   string(session.Status),
		Status:      transaction.StatusPending,
	}, nil
}

// FetchStatus retrieves the session.
func (s *StripePaymentProvider) FetchStatus(ctx context.Context, reference string, cfg *providerconfig.ProviderConfig) (*provider.StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	session, err := s.client(cfg).V1CheckoutSessions.Retrieve(ctx, reference, nil)
	if err != nil {
		return nil, toProviderError(err, cfg)
	}
	status, raw := sessionStatus(session)
	return &provider.StatusResult{Status: status, RawStatus: raw, Details: details(session, raw)}, nil
}

// Verify implements provider.Adapter.
func (s *StripePaymentProvider) Verify(body []byte, header http.Header, secret string) bool {
	return s.verifier.Verify(body, header, secret)
}

// ParseNotification reads checkout.session.* events. Other event types
// are returned as Ignored so the endpoint acknowledges them and Stripe
// stops redelivering.
func (s *StripePaymentProvider) ParseNotification(body []byte) (*provider.Notification, error) {
	var evt stripe.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}
	if !strings.HasPrefix(string(evt.Type), "checkout.session.") {
		return &provider.Notification{
			Ignored: true,
			Details: map[string]any{"event": string(evt.Type), "event_id": evt.ID},
		}, nil
	}
	if evt.Data == nil {
		return nil, fmt.Errorf("stripe: event %q without data", evt.Type)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("stripe: decode session: %w", err)
	}
	if session.ID == "" {
		return nil, errors.New("stripe: event without session id")
	}

	status, raw := sessionStatus(&session)
	if Statuses.Known(string(evt.Type)) {
		raw = string(evt.Type)
		status = Statuses.Normalize(raw)
	}
	d := details(&session, raw)
	d["event"] = string(evt.Type)
	d["event_id"] = evt.ID
	return &provider.Notification{
		Reference: session.ID,
		Status:    status,
		RawStatus: raw,
		HasStatus: true,
		Details:   d,
	}, nil
}

// An expired session is failed whatever its payment_status says.
func sessionStatus(session *stripe.CheckoutSession) (transaction.Status, string) {
	if session.Status == stripe.CheckoutSessionStatusExpired {
		return transaction.StatusFailed, string(session.Status)
	}
	raw := string(session.PaymentStatus)
	return Statuses.Normalize(raw), raw
}

func details(session *stripe.CheckoutSession, raw string) map[string]any {
	out := map[string]any{
		transaction.MetaLastProviderStatus: raw,
		"session_status":                   string(session.Status),
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		out[transaction.MetaConfirmationCode] = session.PaymentIntent.ID
	}
	return out
}

func toProviderError(err error, cfg *providerconfig.ProviderConfig) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return provider.NewError(provider.Stripe, serr.HTTPStatusCode, serr.Msg, err, cfg.Secrets()...)
	}
	return provider.NewError(provider.Stripe, 0, "request failed", err, cfg.Secrets()...)
}

var _ provider.Adapter = (*StripePaymentProvider)(nil)
