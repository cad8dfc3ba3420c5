package repository

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/audit"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	pcrepo "github.com/amirasaad/paylink/pkg/repository/providerconfig"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderConfigRepository_FindActive(t *testing.T) {
	repo := NewProviderConfigRepository(newSQLiteDB(t))
	ctx := context.Background()

	_, err := repo.FindActive(ctx, "pesapal", "KE")
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)

	older, err := providerconfig.New("pesapal", "KE", providerconfig.EnvSandbox)
	require.NoError(t, err)
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	newer, err := providerconfig.New("pesapal", "ke", providerconfig.EnvProduction)
	require.NoError(t, err)
	inactive, err := providerconfig.New("pesapal", "KE", providerconfig.EnvSandbox)
	require.NoError(t, err)
	inactive.IsActive = false

	for _, c := range []*providerconfig.ProviderConfig{older, newer, inactive} {
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.FindActive(ctx, "PESAPAL", "ke")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	require.NoError(t, repo.DeactivateOthers(ctx, older.ID, "pesapal", "KE"))
	got, err = repo.FindActive(ctx, "pesapal", "KE")
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	all, err := repo.List(ctx, pcrepo.Filter{Provider: "pesapal"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	active, err := repo.List(ctx, pcrepo.Filter{CountryCode: "KE", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestProviderConfigRepository_Update(t *testing.T) {
	repo := NewProviderConfigRepository(newSQLiteDB(t))
	ctx := context.Background()
	cfg, err := providerconfig.New("flutterwave", "RW", providerconfig.EnvSandbox)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, cfg))

	cfg.WebhookSecret = "hash"
	cfg.IsActive = false
	require.NoError(t, repo.Update(ctx, cfg))

	got, err := repo.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.WebhookSecret)
	assert.False(t, got.IsActive)

	missing := *cfg
	missing.ID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrProviderNotConfigured)
}

func TestAuditRepository_AppendAndList(t *testing.T) {
	repo := NewAuditRepository(newSQLiteDB(t))
	ctx := context.Background()
	actor := uuid.New()
	entry := audit.New(actor, audit.ActionProviderConfigCreate, audit.EntityProviderConfig, uuid.New(),
		map[string]any{"provider": "pesapal"})
	require.NoError(t, repo.Append(ctx, entry))

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, audit.ActionProviderConfigCreate, list[0].Action)
	assert.Equal(t, actor, list[0].ActorID)
	assert.Equal(t, "pesapal", list[0].Details["provider"])
}
