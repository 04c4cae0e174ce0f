package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SequenceRepository interface {
	// Next increments and returns the counter for (tenant, prefix, day).
	// It runs inside the caller's transaction so a rollback releases the number.
	Next(ctx context.Context, tenantID uuid.UUID, prefix, day string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, prefix, day string) (int64, error) {
	var value int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO document_sequences (tenant_id, prefix, day, last_value, updated_at)
		VALUES (?, ?, ?, 1, NOW())
		ON CONFLICT (tenant_id, prefix, day)
		DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`, tenantID, prefix, day).Scan(&value).Error
	return value, err
}
