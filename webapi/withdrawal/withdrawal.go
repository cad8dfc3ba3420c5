// Package withdrawal exposes merchant payouts.
package withdrawal

import (
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/middleware"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/rail"
	authsvc "github.com/amirasaad/paylink/pkg/service/auth"
	withdrawalsvc "github.com/amirasaad/paylink/pkg/service/withdrawal"
	"github.com/amirasaad/paylink/webapi/common"
	txweb "github.com/amirasaad/paylink/webapi/transaction"
	"github.com/gofiber/fiber/v2"
)

// Routes registers POST /api/v1/withdrawals for authenticated merchants.
func Routes(app *fiber.App, svc *withdrawalsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Post("/api/v1/withdrawals", append(
		middleware.Authenticated(cfg.Auth.Jwt, authSvc),
		Request(svc),
	)...)
}

// Request debits the caller and starts a payout.
// @Summary Request a withdrawal
// @Description Debits the merchant balance and starts a disbursement on the rail serving the merchant's country. Countries without an automated rail answer 422.
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param request body RequestInput true "Withdrawal"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /api/v1/withdrawals [post]
// @Security BearerAuth
func Request(svc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[RequestInput](c)
		if input == nil {
			return nil
		}
		p, _ := middleware.PrincipalFrom(c)
		res, err := svc.Request(c.Context(), p.UserID, withdrawalsvc.Request{
			Amount:      input.Amount,
			Currency:    input.Currency,
			AccountType: rail.AccountType(input.AccountType),
			Destination: provider.Destination{
				Phone:         input.Destination.Phone,
				AccountNumber: input.Destination.AccountNumber,
				BankCode:      input.Destination.BankCode,
				Name:          input.Destination.Name,
			},
			Description: input.Description,
		})
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Withdrawal requested", RequestResponse{
			Transaction:  txweb.ToResponse(res.Transaction),
			Instructions: res.Instructions,
		})
	}
}
