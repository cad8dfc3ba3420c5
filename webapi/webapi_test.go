package webapi_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/amirasaad/paylink/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupApp_HealthCheck(t *testing.T) {
	h := testutils.NewHarness(t)
	resp := h.Request(t, http.MethodGet, "/", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Paylink API is running")
}

func TestSetupApp_SwaggerDoc(t *testing.T) {
	h := testutils.NewHarness(t)
	resp := h.Request(t, http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/api/v1/webhooks/{provider}/{country}")
}

func TestSetupApp_UnknownRouteIsProblemJSON(t *testing.T) {
	h := testutils.NewHarness(t)
	resp := h.Request(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
}

func TestSetupApp_GlobalRateLimitSparesWebhooks(t *testing.T) {
	cfg := testutils.Config()
	cfg.RateLimit.MaxRequests = 2
	h := testutils.NewHarnessWithConfig(t, cfg)

	for range 2 {
		assert.Equal(t, fiber.StatusOK, h.Request(t, http.MethodGet, "/", "", "").StatusCode)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, h.Request(t, http.MethodGet, "/", "", "").StatusCode)

	// Unknown provider answers 404 rather than 429.
	resp := h.Request(t, http.MethodPost, "/api/v1/webhooks/mpesa/KE", `{}`, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
