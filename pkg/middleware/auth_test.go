package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain/merchant"
	authsvc "github.com/amirasaad/paylink/pkg/service/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtCfg = &config.Jwt{Secret: "secret", Expiry: time.Hour}

func newApp(t *testing.T) (*fiber.App, *authsvc.JWTStrategy) {
	t.Helper()
	strategy := authsvc.NewJWTStrategy(nil, jwtCfg, slog.Default())
	auth := authsvc.New(strategy, slog.Default())

	app := fiber.New()
	app.Get("/me", append(Authenticated(jwtCfg, auth), func(c *fiber.Ctx) error {
		p, _ := PrincipalFrom(c)
		return c.SendString(p.UserID.String())
	})...)
	app.Get("/admin", append(Authenticated(jwtCfg, auth), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})...)
	return app, strategy
}

func token(t *testing.T, s *authsvc.JWTStrategy, role merchant.Role) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	raw, err := s.GenerateToken(context.Background(), &merchant.Merchant{ID: id, Role: role})
	require.NoError(t, err)
	return raw, id
}

func do(t *testing.T, app *fiber.App, path, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthenticated(t *testing.T) {
	app, strategy := newApp(t)

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "/me", "").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "/me", "not.a.token").StatusCode)

	raw, _ := token(t, authsvc.NewJWTStrategy(nil, &config.Jwt{Secret: "other", Expiry: time.Hour}, slog.Default()), merchant.RoleMerchant)
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "/me", raw).StatusCode)

	raw, id := token(t, strategy, merchant.RoleMerchant)
	resp := do(t, app, "/me", raw)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(body))
}

func TestAdminOnly(t *testing.T) {
	app, strategy := newApp(t)

	raw, _ := token(t, strategy, merchant.RoleMerchant)
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "/admin", raw).StatusCode)

	raw, _ = token(t, strategy, merchant.RoleAdmin)
	assert.Equal(t, fiber.StatusOK, do(t, app, "/admin", raw).StatusCode)
}
