package admin_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/amirasaad/paylink/internal/fixtures/mocks"
	"github.com/amirasaad/paylink/internal/testdb"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/webapi/admin"
	"github.com/amirasaad/paylink/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testutils.Harness, string) {
	t.Helper()
	h := testutils.NewHarness(t, mocks.NewAdapter(provider.Pesapal), mocks.NewAdapter(provider.Paystack))
	testdb.Admin(t, h.Uow, "admin@example.com")
	return h, h.Login(t, "admin@example.com")
}

func TestProviderConfigs_Lifecycle(t *testing.T) {
	h, token := setup(t)

	resp := h.Request(t, http.MethodPost, "/api/v1/admin/provider-configs", `{
		"provider":"pesapal","country_code":"ke","environment":"sandbox",
		"consumer_key":"ck_abcdef1234","consumer_secret":"cs_topsecret","ipn_id":"ipn-1","webhook_secret":"whsec_hidden"
	}`, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "cs_topsecret")
	assert.NotContains(t, string(raw), "whsec_hidden")
	assert.NotContains(t, string(raw), "ck_abcdef1234")

	list := h.Request(t, http.MethodGet, "/api/v1/admin/provider-configs?provider=pesapal", "", token)
	require.Equal(t, fiber.StatusOK, list.StatusCode)
	var cfgs []admin.ProviderConfigResponse
	testutils.Decode(t, list, &cfgs)
	require.Len(t, cfgs, 1)
	first := cfgs[0]
	assert.Equal(t, "KE", first.CountryCode)
	assert.True(t, first.HasConsumerSecret)
	assert.True(t, first.HasWebhookSecret)
	assert.Equal(t, "****1234", first.ConsumerKey)
	assert.True(t, first.IsActive)

	// A second config for the same pair takes over.
	resp = h.Request(t, http.MethodPost, "/api/v1/admin/provider-configs",
		`{"provider":"pesapal","country_code":"KE","consumer_secret":"cs2"}`, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var second admin.ProviderConfigResponse
	testutils.Decode(t, resp, &second)
	assert.False(t, second.HasWebhookSecret)

	got := h.Request(t, http.MethodGet, "/api/v1/admin/provider-configs/"+first.ID.String(), "", token)
	require.Equal(t, fiber.StatusOK, got.StatusCode)
	var firstNow admin.ProviderConfigResponse
	testutils.Decode(t, got, &firstNow)
	assert.False(t, firstNow.IsActive)

	upd := h.Request(t, http.MethodPut, "/api/v1/admin/provider-configs/"+first.ID.String(),
		`{"is_active":true,"base_url":"https://cybqa.pesapal.com/pesapalv3"}`, token)
	require.Equal(t, fiber.StatusOK, upd.StatusCode)
	var updated admin.ProviderConfigResponse
	testutils.Decode(t, upd, &updated)
	assert.True(t, updated.IsActive)
	assert.Equal(t, "https://cybqa.pesapal.com/pesapalv3", updated.BaseURL)

	del := h.Request(t, http.MethodDelete, "/api/v1/admin/provider-configs/"+first.ID.String(), "", token)
	require.Equal(t, fiber.StatusOK, del.StatusCode)
	var deactivated admin.ProviderConfigResponse
	testutils.Decode(t, del, &deactivated)
	assert.False(t, deactivated.IsActive)

	logs := h.Request(t, http.MethodGet, "/api/v1/admin/audit-logs?limit=10", "", token)
	require.Equal(t, fiber.StatusOK, logs.StatusCode)
	var entries []admin.AuditLogResponse
	testutils.Decode(t, logs, &entries)
	require.Len(t, entries, 4)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.ElementsMatch(t, []string{
		"provider_config.create", "provider_config.create",
		"provider_config.update", "provider_config.deactivate",
	}, actions)

	raw, err = io.ReadAll(h.Request(t, http.MethodGet, "/api/v1/admin/audit-logs", "", token).Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "consumer_secret")
	assert.NotContains(t, string(raw), "cs_topsecret")
	assert.NotContains(t, string(raw), "whsec_hidden")
}

func TestProviderConfigs_Rejected(t *testing.T) {
	h, token := setup(t)
	testdb.Merchant(t, h.Uow, "shop@example.com", "KE", decimal.Zero)
	merchantToken := h.Login(t, "shop@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
	}{
		{"no token", http.MethodGet, "/api/v1/admin/provider-configs", "", "", fiber.StatusUnauthorized},
		{"merchant role", http.MethodGet, "/api/v1/admin/provider-configs", "", merchantToken, fiber.StatusForbidden},
		{"merchant cannot read audit", http.MethodGet, "/api/v1/admin/audit-logs", "", merchantToken, fiber.StatusForbidden},
		{"unknown provider", http.MethodPost, "/api/v1/admin/provider-configs",
			`{"provider":"mpesa","country_code":"KE"}`, token, fiber.StatusBadRequest},
		{"bad country", http.MethodPost, "/api/v1/admin/provider-configs",
			`{"provider":"pesapal","country_code":"KEN"}`, token, fiber.StatusBadRequest},
		{"bad environment", http.MethodPost, "/api/v1/admin/provider-configs",
			`{"provider":"pesapal","country_code":"KE","environment":"staging"}`, token, fiber.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/admin/provider-configs/abc", "", token, fiber.StatusBadRequest},
		{"missing config", http.MethodDelete, "/api/v1/admin/provider-configs/7d1f5c4e-3c55-4a5e-9b61-0b8f2f1f3e11", "", token, fiber.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.Request(t, tc.method, tc.path, tc.body, tc.token)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
