package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/paylink/pkg/repository/audit"
	"github.com/amirasaad/paylink/pkg/repository/merchant"
	"github.com/amirasaad/paylink/pkg/repository/providerconfig"
	"github.com/amirasaad/paylink/pkg/repository/transaction"
)

// UnitOfWork defines the contract for transactional work and type-safe
// repository access. Repositories obtained inside Do share the same DB
// transaction, so a status transition and the balance change it triggers
// commit or roll back together.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an
	// error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type,
	// bound to the current transaction/session.
	GetRepository(repoType reflect.Type) (any, error)
}

// Get resolves a repository interface T from uow.
//
//	repo, err := repository.Get[transaction.Repository](uow)
func Get[T any](uow UnitOfWork) (T, error) {
	var zero T
	repoAny, err := uow.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository %T does not implement %s", repoAny, reflect.TypeOf((*T)(nil)).Elem())
	}
	return repo, nil
}

// Transactions is shorthand for Get[transaction.Repository].
func Transactions(uow UnitOfWork) (transaction.Repository, error) {
	return Get[transaction.Repository](uow)
}

// Merchants is shorthand for Get[merchant.Repository].
func Merchants(uow UnitOfWork) (merchant.Repository, error) {
	return Get[merchant.Repository](uow)
}

// ProviderConfigs is shorthand for Get[providerconfig.Repository].
func ProviderConfigs(uow UnitOfWork) (providerconfig.Repository, error) {
	return Get[providerconfig.Repository](uow)
}

// AuditLogs is shorthand for Get[audit.Repository].
func AuditLogs(uow UnitOfWork) (audit.Repository, error) {
	return Get[audit.Repository](uow)
}
