// Package testdb builds sqlite-backed units of work for tests.
package testdb

import (
	"context"
	"testing"

	infrarepo "github.com/amirasaad/paylink/infra/repository"
	"github.com/amirasaad/paylink/infra/repository/model"
	"github.com/amirasaad/paylink/pkg/domain/merchant"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

// New returns a UoW over a fresh in-memory database. The pool is capped at
// one connection so every goroutine sees the same database and writers
// serialize the way row locks would on postgres.
func New(t testing.TB) (*infrarepo.UoW, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return infrarepo.NewUoW(db), db
}

// Merchant seeds a merchant with balance.
func Merchant(t testing.TB, uow repository.UnitOfWork, email, country string, balance decimal.Decimal) *merchant.Merchant {
	t.Helper()
	m, err := merchant.New(email, "Test Shop", "password123", country, merchant.RoleMerchant)
	require.NoError(t, err)
	m.Balance = balance
	repo, err := repository.Merchants(uow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

// Admin seeds an admin account.
func Admin(t testing.TB, uow repository.UnitOfWork, email string) *merchant.Merchant {
	t.Helper()
	m, err := merchant.New(email, "Admin", "password123", "KE", merchant.RoleAdmin)
	require.NoError(t, err)
	repo, err := repository.Merchants(uow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

// ProviderConfig seeds an active config with a webhook secret.
func ProviderConfig(t testing.TB, uow repository.UnitOfWork, kind, country, secret string) *providerconfig.ProviderConfig {
	t.Helper()
	cfg, err := providerconfig.New(kind, country, providerconfig.EnvSandbox)
	require.NoError(t, err)
	cfg.ConsumerKey = "key"
	cfg.ConsumerSecret = "secret"
	cfg.WebhookSecret = secret
	repo, err := repository.ProviderConfigs(uow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), cfg))
	return cfg
}

// PendingTransaction seeds a pending transaction carrying reference.
// An empty currency means USD.
func PendingTransaction(
	t testing.TB,
	uow repository.UnitOfWork,
	owner *merchant.Merchant,
	typ transaction.Type,
	amount decimal.Decimal,
	currency, kind, reference string,
) *transaction.Transaction {
	t.Helper()
	if currency == "" {
		currency = "USD"
	}
	tx, err := transaction.New(owner.ID, typ, amount, money.Code(currency), transaction.MethodCard, kind, owner.Country)
	require.NoError(t, err)
	repo, err := repository.Transactions(uow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx))
	if reference != "" {
		require.NoError(t, repo.AttachReference(context.Background(), tx.ID, reference, nil))
		tx.Reference = reference
	}
	return tx
}

// Balance reads a merchant's current balance.
func Balance(t testing.TB, uow repository.UnitOfWork, id uuid.UUID) decimal.Decimal {
	t.Helper()
	repo, err := repository.Merchants(uow)
	require.NoError(t, err)
	m, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return m.Balance
}

// Transaction reads a transaction by id.
func Transaction(t testing.TB, uow repository.UnitOfWork, id uuid.UUID) *transaction.Transaction {
	t.Helper()
	repo, err := repository.Transactions(uow)
	require.NoError(t, err)
	tx, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return tx
}
