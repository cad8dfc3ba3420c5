package auth

import (
	"errors"

	"github.com/amirasaad/paylink/pkg/domain"
	authsvc "github.com/amirasaad/paylink/pkg/service/auth"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers POST /auth/login.
func Routes(app *fiber.App, authSvc *authsvc.Service) {
	app.Post("/auth/login", Login(authSvc))
}

// Login authenticates a merchant and returns a JWT token.
// @Summary Merchant login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Failure 500 {object} common.ProblemDetails
// @Router /auth/login [post]
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return nil
		}
		token, m, err := authSvc.Login(c.Context(), input.Email, input.Password)
		if err != nil {
			if errors.Is(err, domain.ErrAuthRequired) {
				return common.ProblemDetailsJSON(c, "Invalid email or password", err,
					"email or password is incorrect")
			}
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", LoginResponse{
			Token: token,
			Role:  string(m.Role),
		})
	}
}
