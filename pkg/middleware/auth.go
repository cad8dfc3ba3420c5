// Package middleware holds the fiber middleware shared by the webapi routes.
package middleware

import (
	"errors"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain"
	authsvc "github.com/amirasaad/paylink/pkg/service/auth"
	"github.com/amirasaad/paylink/webapi/common"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey     = "user"
	principalKey = "principal"
)

// JwtProtected validates an HS256 bearer token and stores it in locals.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ContextKey:   tokenKey,
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return common.ProblemDetailsJSON(c, "Unauthorized", domain.ErrAuthRequired, "missing or malformed token")
	}
	return common.ProblemDetailsJSON(c, "Unauthorized", domain.ErrAuthRequired, "invalid or expired token")
}

// Authenticated is JwtProtected followed by principal extraction.
func Authenticated(cfg *config.Jwt, auth *authsvc.Service) []fiber.Handler {
	return []fiber.Handler{JwtProtected(cfg), withPrincipal(auth)}
}

func withPrincipal(auth *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := c.Locals(tokenKey).(*jwt.Token)
		p, err := auth.Principal(token)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		c.Locals(principalKey, p)
		return c.Next()
	}
}

// AdminOnly rejects principals without the admin role. It must run after
// Authenticated.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", domain.ErrAuthRequired)
		}
		if !p.IsAdmin() {
			return common.ProblemDetailsJSON(c, "Forbidden", domain.ErrAccessDenied, "admin role required")
		}
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by Authenticated.
func PrincipalFrom(c *fiber.Ctx) (authsvc.Principal, bool) {
	p, ok := c.Locals(principalKey).(authsvc.Principal)
	return p, ok
}
