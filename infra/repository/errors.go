package repository

import (
	"errors"
	"fmt"

	"github.com/amirasaad/paylink/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts the gorm errors a repository can surface
// into domain sentinels. The DB must be opened with TranslateError so
// constraint violations arrive as gorm errors rather than driver codes.
// Anything unrecognised is returned unchanged.
func MapGormErrorToDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return err
}

// WrapError runs op and maps its error.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(&row).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}

// NotFoundAs replaces a generic not-found with a more specific sentinel.
func NotFoundAs(err, specific error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return specific
	}
	return err
}
