package transaction

import (
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/middleware"
	authsvc "github.com/amirasaad/paylink/pkg/service/auth"
	"github.com/amirasaad/paylink/pkg/service/reconciliation"
	txsvc "github.com/amirasaad/paylink/pkg/service/transaction"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the merchant transaction endpoints:
//   - GET  /api/v1/transactions
//   - GET  /api/v1/transactions/:id
//   - POST /api/v1/transactions/:id/check-status
func Routes(
	app *fiber.App,
	txSvc *txsvc.Service,
	recon *reconciliation.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	g := app.Group("/api/v1/transactions", middleware.Authenticated(cfg.Auth.Jwt, authSvc)...)
	g.Get("/", List(txSvc))
	g.Get("/:id", Get(txSvc))
	g.Post("/:id/check-status", CheckStatus(recon))
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidInput
	}
	return id, nil
}

// List returns the caller's transactions, newest first.
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param limit query int false "page size (max 100)"
// @Param offset query int false "offset"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /api/v1/transactions [get]
// @Security BearerAuth
func List(svc *txsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, _ := middleware.PrincipalFrom(c)
		txs, err := svc.List(c.Context(), p.UserID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", ToResponses(txs))
	}
}

// Get returns one of the caller's transactions.
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Param id path string true "transaction id"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/v1/transactions/{id} [get]
// @Security BearerAuth
func Get(svc *txsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction id", err, "id must be a UUID")
		}
		p, _ := middleware.PrincipalFrom(c)
		tx, err := svc.Get(c.Context(), p.UserID, id)
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction fetched", ToResponse(tx))
	}
}

// CheckStatus polls the provider for a pending transaction.
// @Summary Poll provider status
// @Description Asks the provider for the current status and reconciles it. Terminal transactions are returned unchanged.
// @Tags transactions
// @Produce json
// @Param id path string true "transaction id"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /api/v1/transactions/{id}/check-status [post]
// @Security BearerAuth
func CheckStatus(recon *reconciliation.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction id", err, "id must be a UUID")
		}
		p, _ := middleware.PrincipalFrom(c)
		res, err := recon.CheckStatus(c.Context(), p.UserID, id)
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Status checked", fiber.Map{
			"transaction": ToResponse(res.Transaction),
			"applied":     res.Applied,
		})
	}
}
