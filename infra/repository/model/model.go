// Package model holds the gorm persistence models.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction is the persisted payment or withdrawal. Reference is null
// until the provider assigns one.
type Transaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Type          string            `gorm:"type:varchar(16);not null"`
	Amount        decimal.Decimal   `gorm:"type:numeric(20,8);not null"`
	Currency      string            `gorm:"type:varchar(3);not null"`
	Status        string            `gorm:"type:varchar(16);not null;default:'pending';index"`
	PaymentMethod string            `gorm:"type:varchar(32)"`
	Provider      string            `gorm:"type:varchar(32);not null;uniqueIndex:idx_transactions_provider_reference"`
	CountryCode   string            `gorm:"type:varchar(2)"`
	Reference     *string           `gorm:"type:varchar(128);uniqueIndex:idx_transactions_provider_reference"`
	Metadata      datatypes.JSONMap `gorm:"not null;default:'{}'"`
	CompletedAt   *time.Time
	FailedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// Merchant is the persisted merchant profile.
type Merchant struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Email        string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(255)"`
	PasswordHash string          `gorm:"type:varchar(255);not null"`
	Role         string          `gorm:"type:varchar(16);not null;default:'merchant'"`
	Country      string          `gorm:"type:varchar(2);not null"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for the Merchant model.
func (Merchant) TableName() string { return "merchants" }

// ProviderConfig is the persisted provider credential set.
type ProviderConfig struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Provider           string    `gorm:"type:varchar(32);not null;index:idx_provider_configs_lookup"`
	CountryCode        string    `gorm:"type:varchar(2);not null;index:idx_provider_configs_lookup"`
	Environment        string    `gorm:"type:varchar(16);not null;default:'sandbox'"`
	ConsumerKey        string    `gorm:"type:text"`
	ConsumerSecret     string    `gorm:"type:text"`
	IPNID              string    `gorm:"column:ipn_id;type:varchar(128)"`
	WebhookSecret      string    `gorm:"type:text"`
	BaseURL            string    `gorm:"type:varchar(255)"`
	SettlementCurrency string    `gorm:"type:varchar(3)"`
	IsActive           bool      `gorm:"not null;default:true;index:idx_provider_configs_lookup"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for the ProviderConfig model.
func (ProviderConfig) TableName() string { return "provider_configs" }

// AuditLog is an append-only admin action record.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ActorID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Action     string            `gorm:"type:varchar(64);not null"`
	EntityType string            `gorm:"type:varchar(64);not null"`
	EntityID   uuid.UUID         `gorm:"type:uuid;not null"`
	Details    datatypes.JSONMap `gorm:"not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"index"`
}

// TableName specifies the table name for the AuditLog model.
func (AuditLog) TableName() string { return "audit_logs" }

// All lists every model, for AutoMigrate in tests.
func All() []any {
	return []any{&Transaction{}, &Merchant{}, &ProviderConfig{}, &AuditLog{}}
}
