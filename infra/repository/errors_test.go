package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "nil error returns nil", input: nil, expected: nil},
		{name: "duplicate key maps to ErrAlreadyExists", input: gorm.ErrDuplicatedKey, expected: domain.ErrAlreadyExists},
		{name: "record not found maps to ErrNotFound", input: gorm.ErrRecordNotFound, expected: domain.ErrNotFound},
		{name: "joined duplicate key maps", input: errors.Join(errors.New("outer"), gorm.ErrDuplicatedKey), expected: domain.ErrAlreadyExists},
		{name: "wrapped not found maps", input: fmt.Errorf("query: %w", gorm.ErrRecordNotFound), expected: domain.ErrNotFound},
		{name: "foreign key violation is invalid input", input: gorm.ErrForeignKeyViolated, expected: domain.ErrInvalidInput},
		{name: "check constraint violation is invalid input", input: gorm.ErrCheckConstraintViolated, expected: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, result)
				return
			}
			assert.ErrorIs(t, result, tt.expected)
		})
	}

	t.Run("non-gorm error is returned untouched", func(t *testing.T) {
		t.Parallel()
		in := errors.New("connection reset")
		assert.Equal(t, in, MapGormErrorToDomain(in))
	})
}

func TestNotFoundAs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, domain.ErrTransactionNotFound, NotFoundAs(domain.ErrNotFound, domain.ErrTransactionNotFound))
	other := errors.New("boom")
	assert.Equal(t, other, NotFoundAs(other, domain.ErrTransactionNotFound))
	assert.NoError(t, NotFoundAs(nil, domain.ErrTransactionNotFound))
}
