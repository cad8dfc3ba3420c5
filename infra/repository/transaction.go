package repository

import (
	"context"
	"time"

	"github.com/amirasaad/paylink/infra/repository/model"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	repo "github.com/amirasaad/paylink/pkg/repository/transaction"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository on db.
func NewTransactionRepository(db *gorm.DB) repo.Repository {
	return &transactionRepository{db: db}
}

// Create implements transaction.Repository.
func (r *transactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	m := transactionToModel(tx)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Get implements transaction.Repository.
func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var m model.Transaction
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	})
	if err != nil {
		return nil, NotFoundAs(err, domain.ErrTransactionNotFound)
	}
	return transactionFromModel(&m), nil
}

// GetByReference implements transaction.Repository.
func (r *transactionRepository) GetByReference(ctx context.Context, provider, reference string) (*transaction.Transaction, error) {
	var m model.Transaction
	err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("provider = ? AND reference = ?", provider, reference).
			First(&m).Error
	})
	if err != nil {
		return nil, NotFoundAs(err, domain.ErrTransactionNotFound)
	}
	return transactionFromModel(&m), nil
}

// AttachReference implements transaction.Repository.
func (r *transactionRepository) AttachReference(ctx context.Context, id uuid.UUID, reference string, metadata map[string]any) error {
	updates := map[string]any{
		"reference":  reference,
		"updated_at": time.Now().UTC(),
	}
	if metadata != nil {
		updates["metadata"] = jsonMap(metadata)
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, transaction.StatusPending).
		Updates(updates)
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// TransitionFromPending implements transaction.Repository. The WHERE
// clause on status is the compare-and-swap: of two concurrent callers only
// one sees RowsAffected == 1.
func (r *transactionRepository) TransitionFromPending(
	ctx context.Context,
	id uuid.UUID,
	next transaction.Status,
	metadata map[string]any,
	at time.Time,
) (bool, error) {
	updates := map[string]any{
		"status":     string(next),
		"metadata":   jsonMap(metadata),
		"updated_at": at,
	}
	switch next {
	case transaction.StatusCompleted:
		updates["completed_at"] = at
	case transaction.StatusFailed:
		updates["failed_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, transaction.StatusPending).
		Updates(updates)
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return false, err
	}
	return res.RowsAffected == 1, nil
}

// UpdatePendingMetadata implements transaction.Repository.
func (r *transactionRepository) UpdatePendingMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, transaction.StatusPending).
		Updates(map[string]any{
			"metadata":   jsonMap(metadata),
			"updated_at": time.Now().UTC(),
		})
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return false, err
	}
	return res.RowsAffected == 1, nil
}

// ListByUser implements transaction.Repository.
func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []model.Transaction
	err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]*transaction.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, transactionFromModel(&rows[i]))
	}
	return out, nil
}

func transactionToModel(tx *transaction.Transaction) model.Transaction {
	var ref *string
	if tx.Reference != "" {
		r := tx.Reference
		ref = &r
	}
	return model.Transaction{
		ID:            tx.ID,
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency.String(),
		Status:        string(tx.Status),
		PaymentMethod: string(tx.PaymentMethod),
		Provider:      tx.Provider,
		CountryCode:   tx.CountryCode,
		Reference:     ref,
		Metadata:      jsonMap(tx.Metadata),
		CompletedAt:   tx.CompletedAt,
		FailedAt:      tx.FailedAt,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func transactionFromModel(m *model.Transaction) *transaction.Transaction {
	ref := ""
	if m.Reference != nil {
		ref = *m.Reference
	}
	meta := map[string]any(m.Metadata)
	if meta == nil {
		meta = map[string]any{}
	}
	return &transaction.Transaction{
		ID:            m.ID,
		UserID:        m.UserID,
		Type:          transaction.Type(m.Type),
		Amount:        m.Amount,
		Currency:      money.Code(m.Currency),
		Status:        transaction.Status(m.Status),
		PaymentMethod: transaction.Method(m.PaymentMethod),
		Provider:      m.Provider,
		CountryCode:   m.CountryCode,
		Reference:     ref,
		Metadata:      meta,
		CompletedAt:   m.CompletedAt,
		FailedAt:      m.FailedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// jsonMap keeps the NOT NULL metadata column from ever receiving NULL.
func jsonMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
