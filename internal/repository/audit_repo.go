package repository

import (
	"context"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, tenantID uuid.UUID, entityID string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log must run inside the transition's transaction so the entry commits with it.
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return translate(GetDB(ctx, r.db).Create(entry).Error)
}

func (r *auditRepository) List(ctx context.Context, tenantID uuid.UUID, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	var (
		logs  []model.AuditLog
		total int64
	)
	db := GetDB(ctx, r.db).Model(&model.AuditLog{}).Scopes(forTenant(tenantID))
	if entityID != "" {
		db = db.Where("entity_id = ?", entityID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	err := db.Order("created_at desc, id desc").Scopes(paginate(page, limit)).Find(&logs).Error
	return logs, total, translate(err)
}
