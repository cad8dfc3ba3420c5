// Package auth logs merchants in and turns bearer tokens back into
// principals.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/merchant"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for any failed login. It does not say
// which half was wrong.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrAuthRequired)

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   merchant.Role
}

// IsAdmin reports whether the principal may use admin routes.
func (p Principal) IsAdmin() bool { return p.Role == merchant.RoleAdmin }

// Strategy is how credentials become tokens and tokens become principals.
type Strategy interface {
	Login(ctx context.Context, email, password string) (*merchant.Merchant, error)
	GenerateToken(ctx context.Context, m *merchant.Merchant) (string, error)
	Principal(token *jwt.Token) (Principal, error)
}

// Service fronts a Strategy with logging.
type Service struct {
	strategy Strategy
	logger   *slog.Logger
}

// New creates a Service over strategy.
func New(strategy Strategy, logger *slog.Logger) *Service {
	return &Service{strategy: strategy, logger: logger.With("service", "auth")}
}

// NewWithJWT creates a Service issuing HS256 tokens.
func NewWithJWT(uow repository.UnitOfWork, cfg *config.Jwt, logger *slog.Logger) *Service {
	return New(NewJWTStrategy(uow, cfg, logger), logger)
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *merchant.Merchant, error) {
	log := s.logger.With("email", email)
	m, err := s.strategy.Login(ctx, email, password)
	if err != nil {
		log.Warn("login failed", "error", err)
		return "", nil, err
	}
	token, err := s.strategy.GenerateToken(ctx, m)
	if err != nil {
		log.Error("token generation failed", "user_id", m.ID, "error", err)
		return "", nil, err
	}
	log.Info("login successful", "user_id", m.ID)
	return token, m, nil
}

// Principal extracts the caller from a validated token.
func (s *Service) Principal(token *jwt.Token) (Principal, error) {
	p, err := s.strategy.Principal(token)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
	}
	return p, err
}

// JWTStrategy implements Strategy with HS256 tokens carrying user_id,
// email and role claims.
type JWTStrategy struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

// NewJWTStrategy creates a JWTStrategy.
func NewJWTStrategy(uow repository.UnitOfWork, cfg *config.Jwt, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{uow: uow, cfg: cfg, logger: logger, now: time.Now}
}

// Login looks the merchant up by email and checks the bcrypt hash.
func (s *JWTStrategy) Login(ctx context.Context, email, password string) (*merchant.Merchant, error) {
	email = strings.TrimSpace(email)
	if !utils.IsEmail(email) || password == "" {
		return nil, ErrInvalidCredentials
	}
	repo, err := repository.Merchants(s.uow)
	if err != nil {
		return nil, err
	}
	m, err := repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = utils.CheckPasswordHash(password, dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, m.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

// GenerateToken signs a token for m that expires after the configured expiry.
func (s *JWTStrategy) GenerateToken(_ context.Context, m *merchant.Merchant) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": m.ID.String(),
		"email":   m.Email,
		"role":    string(m.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.Expiry).Unix(),
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

// Principal reads the claims GenerateToken wrote. The token must already
// have been validated by the middleware.
func (s *JWTStrategy) Principal(token *jwt.Token) (Principal, error) {
	if token == nil || !token.Valid {
		return Principal{}, domain.ErrAuthRequired
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, domain.ErrAuthRequired
	}
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad user_id claim", domain.ErrAuthRequired)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return Principal{UserID: id, Email: email, Role: merchant.Role(role)}, nil
}
