package repository

import (
	"context"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, order *model.PurchaseOrder) error
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.PurchaseOrder, int64, error)
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return translate(GetDB(ctx, r.db).Create(order).Error)
}

func (r *purchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *purchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *purchaseOrderRepository) UpdateStatus(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Model(order).
		Scopes(forTenant(order.TenantID)).
		Select("status", "submitted_at", "received_at", "cancelled_at", "updated_at").
		Updates(order).Error
}

func (r *purchaseOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).Scopes(forTenant(tenantID))
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PartyID != uuid.Nil {
		db = db.Where("supplier_id = ?", filter.PartyID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Items").
		Order("created_at DESC").
		Scopes(paginate(page, limit)).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
