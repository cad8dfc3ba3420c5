package providerconfig

import (
	"context"

	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/google/uuid"
)

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Provider    string
	CountryCode string
	ActiveOnly  bool
}

// Repository persists provider configs.
type Repository interface {
	Create(ctx context.Context, cfg *providerconfig.ProviderConfig) error
	Update(ctx context.Context, cfg *providerconfig.ProviderConfig) error
	Get(ctx context.Context, id uuid.UUID) (*providerconfig.ProviderConfig, error)
	List(ctx context.Context, filter Filter) ([]*providerconfig.ProviderConfig, error)

	// FindActive returns the most recently updated active config for the
	// pair, or a not-found error.
	FindActive(ctx context.Context, provider, country string) (*providerconfig.ProviderConfig, error)

	// DeactivateOthers clears is_active on every other row for the pair.
	DeactivateOthers(ctx context.Context, keep uuid.UUID, provider, country string) error
}
