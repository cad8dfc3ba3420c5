package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/repository/audit"
	"github.com/amirasaad/paylink/pkg/repository/merchant"
	"github.com/amirasaad/paylink/pkg/repository/providerconfig"
	"github.com/amirasaad/paylink/pkg/repository/transaction"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// It is built once at startup and injected; nothing holds the DB globally.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*transaction.Repository)(nil)).Elem():    func(db *gorm.DB) any { return NewTransactionRepository(db) },
			reflect.TypeOf((*merchant.Repository)(nil)).Elem():       func(db *gorm.DB) any { return NewMerchantRepository(db) },
			reflect.TypeOf((*providerconfig.Repository)(nil)).Elem(): func(db *gorm.DB) any { return NewProviderConfigRepository(db) },
			reflect.TypeOf((*audit.Repository)(nil)).Elem():          func(db *gorm.DB) any { return NewAuditRepository(db) },
		},
	}
}

// Do runs fn in a DB transaction, providing a UoW whose repositories share it.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
}

// GetRepository returns a repository bound to the current transaction, or
// to the plain connection outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	session := u.tx
	if session == nil {
		session = u.db
	}
	return constructor(session), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
