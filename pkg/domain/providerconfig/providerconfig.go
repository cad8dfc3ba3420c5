// Package providerconfig models per-country credentials for a provider.
package providerconfig

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Environment selects the provider's sandbox or live endpoints.
type Environment string

// Environments.
const (
	EnvSandbox    Environment = "sandbox"
	EnvProduction Environment = "production"
)

// ProviderConfig holds credentials for one provider in one country. Only the
// most recently updated active row per (Provider, CountryCode) is consulted.
type ProviderConfig struct {
	ID                 uuid.UUID
	Provider           string
	CountryCode        string
	Environment        Environment
	ConsumerKey        string
	ConsumerSecret     string
	IPNID              string
	WebhookSecret      string
	BaseURL            string
	SettlementCurrency string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New validates and builds an active config.
func New(provider, country string, env Environment) (*ProviderConfig, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	country = strings.ToUpper(strings.TrimSpace(country))
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	if len(country) != 2 {
		return nil, errors.New("country_code must be ISO 3166 alpha-2")
	}
	if env == "" {
		env = EnvSandbox
	}
	if env != EnvSandbox && env != EnvProduction {
		return nil, errors.New("environment must be sandbox or production")
	}
	now := time.Now().UTC()
	return &ProviderConfig{
		ID:          uuid.New(),
		Provider:    provider,
		CountryCode: country,
		Environment: env,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Secrets lists the non-empty credential values, for redaction.
func (c *ProviderConfig) Secrets() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, s := range []string{c.ConsumerKey, c.ConsumerSecret, c.WebhookSecret} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsProduction reports whether live endpoints should be used.
func (c *ProviderConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}
