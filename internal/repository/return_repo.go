package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *model.Return) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error)
	UpdateStatus(ctx context.Context, ret *model.Return) error
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.Return, int64, error)
	// SumApprovedQuantities totals approved returned quantity per product for one source document.
	SumApprovedQuantities(ctx context.Context, tenantID uuid.UUID, returnType string, sourceDocumentID uuid.UUID) (map[uuid.UUID]int, error)
	// ListApprovedByParty returns approved returns of the party dated on or before to.
	ListApprovedByParty(ctx context.Context, tenantID uuid.UUID, returnType string, partyID uuid.UUID, to *time.Time) ([]model.Return, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *model.Return) error {
	return translate(GetDB(ctx, r.db).Create(ret).Error)
}

func (r *returnRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ret, nil
}

func (r *returnRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ret, nil
}

func (r *returnRepository) UpdateStatus(ctx context.Context, ret *model.Return) error {
	return GetDB(ctx, r.db).Model(ret).
		Scopes(forTenant(ret.TenantID)).
		Select("status", "rejection_reason", "decided_by", "decided_at", "updated_at").
		Updates(ret).Error
}

func (r *returnRepository) List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.Return, int64, error) {
	var returns []model.Return
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Return{}).Scopes(forTenant(tenantID))
	if filter.Type != "" {
		db = db.Where("return_type = ?", filter.Type)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PartyID != uuid.Nil {
		db = db.Where("party_id = ?", filter.PartyID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Items").
		Order("created_at DESC").
		Scopes(paginate(page, limit)).
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}

func (r *returnRepository) SumApprovedQuantities(ctx context.Context, tenantID uuid.UUID, returnType string, sourceDocumentID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     int
	}
	err := GetDB(ctx, r.db).Table("return_items").
		Select("return_items.product_id, SUM(return_items.quantity) AS total").
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("returns.tenant_id = ? AND returns.return_type = ? AND returns.source_document_id = ? AND returns.status = ?",
			tenantID, returnType, sourceDocumentID, model.ReturnStatusApproved).
		Group("return_items.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		sums[row.ProductID] = row.Total
	}
	return sums, nil
}

func (r *returnRepository) ListApprovedByParty(ctx context.Context, tenantID uuid.UUID, returnType string, partyID uuid.UUID, to *time.Time) ([]model.Return, error) {
	var returns []model.Return
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID), until("return_date", to)).
		Where("return_type = ? AND party_id = ? AND status = ?", returnType, partyID, model.ReturnStatusApproved).
		Order("return_date ASC, id ASC").
		Find(&returns).Error
	return returns, err
}
