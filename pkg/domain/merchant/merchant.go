package merchant

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/paylink/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role gates access to admin endpoints.
type Role string

// Merchant roles.
const (
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

// Merchant is the profile whose balance reconciliation credits and refunds.
type Merchant struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Country      string
	Balance      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New creates a merchant with a hashed password and a zero balance.
func New(email, name, password, country string, role Role) (*Merchant, error) {
	if !utils.IsEmail(email) {
		return nil, errors.New("email is invalid")
	}
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	if role == "" {
		role = RoleMerchant
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Merchant{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Country:      strings.ToUpper(strings.TrimSpace(country)),
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsAdmin reports whether the merchant may manage provider configs.
func (m *Merchant) IsAdmin() bool {
	return m.Role == RoleAdmin
}
