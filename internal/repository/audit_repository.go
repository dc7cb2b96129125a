package repository

import (
	"context"

	"gorm.io/gorm"

	"medintake/internal/model"
)

// AuditRepository defines append-only audit log persistence. There is no
// update or delete: the log only grows.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	FindRecent(ctx context.Context, limit int) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) FindRecent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
