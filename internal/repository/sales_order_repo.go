package repository

import (
	"context"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesOrderRepository interface {
	Create(ctx context.Context, order *model.SalesOrder) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error)
	UpdateStatus(ctx context.Context, order *model.SalesOrder) error
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.SalesOrder, int64, error)
}

type salesOrderRepository struct {
	db *gorm.DB
}

func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository {
	return &salesOrderRepository{db: db}
}

func (r *salesOrderRepository) Create(ctx context.Context, order *model.SalesOrder) error {
	return translate(GetDB(ctx, r.db).Create(order).Error)
}

func (r *salesOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	var order model.SalesOrder
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *salesOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	var order model.SalesOrder
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *salesOrderRepository) UpdateStatus(ctx context.Context, order *model.SalesOrder) error {
	return GetDB(ctx, r.db).Model(order).
		Scopes(forTenant(order.TenantID)).
		Select("status", "confirmed_at", "delivered_at", "cancelled_at", "updated_at").
		Updates(order).Error
}

func (r *salesOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.SalesOrder, int64, error) {
	var orders []model.SalesOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SalesOrder{}).Scopes(forTenant(tenantID))
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PartyID != uuid.Nil {
		db = db.Where("customer_id = ?", filter.PartyID)
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
