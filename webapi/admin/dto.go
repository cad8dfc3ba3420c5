package admin

import (
	"time"

	"github.com/amirasaad/paylink/pkg/domain/audit"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/google/uuid"
)

// CreateProviderConfigInput is the body of POST /api/v1/admin/provider-configs.
type CreateProviderConfigInput struct {
	Provider           string `json:"provider" validate:"required"`
	CountryCode        string `json:"country_code" validate:"required,len=2"`
	Environment        string `json:"environment" validate:"omitempty,oneof=sandbox production"`
	ConsumerKey        string `json:"consumer_key"`
	ConsumerSecret     string `json:"consumer_secret"`
	IPNID              string `json:"ipn_id"`
	WebhookSecret      string `json:"webhook_secret"`
	BaseURL            string `json:"base_url" validate:"omitempty,url"`
	SettlementCurrency string `json:"settlement_currency" validate:"omitempty,len=3"`
}

// UpdateProviderConfigInput is a partial update; absent fields are kept.
type UpdateProviderConfigInput struct {
	Environment        *string `json:"environment" validate:"omitempty,oneof=sandbox production"`
	ConsumerKey        *string `json:"consumer_key"`
	ConsumerSecret     *string `json:"consumer_secret"`
	IPNID              *string `json:"ipn_id"`
	WebhookSecret      *string `json:"webhook_secret"`
	BaseURL            *string `json:"base_url" validate:"omitempty,url"`
	SettlementCurrency *string `json:"settlement_currency"`
	IsActive           *bool   `json:"is_active"`
}

// ProviderConfigResponse never carries secret values.
type ProviderConfigResponse struct {
	ID                 uuid.UUID `json:"id"`
	Provider           string    `json:"provider"`
	CountryCode        string    `json:"country_code"`
	Environment        string    `json:"environment"`
	ConsumerKey        string    `json:"consumer_key,omitempty"`
	HasConsumerSecret  bool      `json:"has_consumer_secret"`
	HasWebhookSecret   bool      `json:"has_webhook_secret"`
	IPNID              string    `json:"ipn_id,omitempty"`
	BaseURL            string    `json:"base_url,omitempty"`
	SettlementCurrency string    `json:"settlement_currency,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToProviderConfigResponse maps a config to its secret-free view.
func ToProviderConfigResponse(cfg *providerconfig.ProviderConfig) ProviderConfigResponse {
	return ProviderConfigResponse{
		ID:                 cfg.ID,
		Provider:           cfg.Provider,
		CountryCode:        cfg.CountryCode,
		Environment:        string(cfg.Environment),
		ConsumerKey:        maskKey(cfg.ConsumerKey),
		HasConsumerSecret:  cfg.ConsumerSecret != "",
		HasWebhookSecret:   cfg.WebhookSecret != "",
		IPNID:              cfg.IPNID,
		BaseURL:            cfg.BaseURL,
		SettlementCurrency: cfg.SettlementCurrency,
		IsActive:           cfg.IsActive,
		CreatedAt:          cfg.CreatedAt,
		UpdatedAt:          cfg.UpdatedAt,
	}
}

// maskKey keeps the last four characters so operators can tell keys apart.
func maskKey(k string) string {
	if len(k) <= 4 {
		if k == "" {
			return ""
		}
		return "****"
	}
	return "****" + k[len(k)-4:]
}

// AuditLogResponse is one audit entry.
type AuditLogResponse struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ToAuditLogResponses maps a page of audit entries.
func ToAuditLogResponses(logs []*audit.Log) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditLogResponse{
			ID:         l.ID,
			ActorID:    l.ActorID,
			Action:     string(l.Action),
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}
