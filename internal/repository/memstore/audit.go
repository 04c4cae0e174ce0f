package memstore

import (
	"context"
	"slices"

	"erp-backend/internal/model"

	"github.com/google/uuid"
)

type auditRepo struct{ db *DB }

func (r *auditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	return r.db.write(ctx, func(st *state) error {
		r.db.stamp(&entry.ID, &entry.CreatedAt, nil)
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (r *auditRepo) List(ctx context.Context, tenantID uuid.UUID, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	_ = r.db.read(ctx, func(st *state) error {
		for _, entry := range st.audit {
			if entry.TenantID == tenantID && (entityID == "" || entry.EntityID == entityID) {
				all = append(all, entry)
			}
		}
		return nil
	})
	slices.Reverse(all)
	return paginate(all, page, limit), int64(len(all)), nil
}
