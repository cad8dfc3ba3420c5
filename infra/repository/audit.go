package repository

import (
	"context"

	"github.com/amirasaad/paylink/infra/repository/model"
	"github.com/amirasaad/paylink/pkg/domain/audit"
	repo "github.com/amirasaad/paylink/pkg/repository/audit"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates an audit log repository on db.
func NewAuditRepository(db *gorm.DB) repo.Repository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *audit.Log) error {
	row := model.AuditLog{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     string(entry.Action),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    jsonMap(entry.Details),
		CreatedAt:  entry.CreatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]*audit.Log, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []model.AuditLog
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*audit.Log, 0, len(rows))
	for _, row := range rows {
		out = append(out, &audit.Log{
			ID:         row.ID,
			ActorID:    row.ActorID,
			Action:     audit.Action(row.Action),
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Details:    map[string]any(row.Details),
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
