// Package webapi wires the HTTP surface. Each sub-package owns one area:
//   - auth: merchant login
//   - payment: public payment initiation
//   - withdrawal: merchant payouts
//   - transaction: merchant transaction reads and status polling
//   - webhook: provider notifications
//   - routing: country capability lookup
//   - admin: provider configs and the audit log
package webapi

import (
	"fmt"
	"strings"

	"github.com/amirasaad/paylink/docs"
	"github.com/amirasaad/paylink/pkg/app"
	"github.com/amirasaad/paylink/webapi/admin"
	authweb "github.com/amirasaad/paylink/webapi/auth"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/amirasaad/paylink/webapi/payment"
	"github.com/amirasaad/paylink/webapi/routing"
	"github.com/amirasaad/paylink/webapi/transaction"
	"github.com/amirasaad/paylink/webapi/webhook"
	"github.com/amirasaad/paylink/webapi/withdrawal"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return common.ProblemDetailsJSON(c, e.Message, nil, e.Message, e.Code)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	if cfg.Server != nil {
		docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	fiberApp.Use(limiter.New(limiter.Config{
		Max:          cfg.RateLimit.MaxRequests,
		Expiration:   cfg.RateLimit.Window,
		KeyGenerator: common.ClientIP,
		LimitReached: common.TooManyRequests,
		// Providers retry in bursts; their notifications are verified instead.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/v1/webhooks/")
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Paylink API is running! 🚀")
	})

	authweb.Routes(fiberApp, a.AuthService)
	routing.Routes(fiberApp)
	payment.Routes(fiberApp, a.PaymentService, cfg)
	withdrawal.Routes(fiberApp, a.WithdrawalService, a.AuthService, cfg)
	transaction.Routes(fiberApp, a.TransactionService, a.ReconciliationService, a.AuthService, cfg)
	webhook.Routes(fiberApp, a.WebhookService)
	admin.Routes(fiberApp, a.ProviderConfigService, a.AuthService, cfg)
	return fiberApp
}
