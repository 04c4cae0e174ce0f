package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error)
	FindByPurchaseOrderID(ctx context.Context, tenantID, purchaseOrderID uuid.UUID) (*model.Bill, error)
	UpdatePayment(ctx context.Context, bill *model.Bill) error
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.Bill, int64, error)
	// ListBySupplier returns every bill of the supplier dated on or before to (nil: no bound).
	ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, to *time.Time) ([]model.Bill, error)
}

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *model.Bill) error {
	return translate(GetDB(ctx, r.db).Create(bill).Error)
}

func (r *billRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&bill, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &bill, nil
}

func (r *billRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&bill, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &bill, nil
}

func (r *billRepository) FindByPurchaseOrderID(ctx context.Context, tenantID, purchaseOrderID uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&bill, "purchase_order_id = ?", purchaseOrderID).Error; err != nil {
		return nil, translate(err)
	}
	return &bill, nil
}

func (r *billRepository) UpdatePayment(ctx context.Context, bill *model.Bill) error {
	return GetDB(ctx, r.db).Model(bill).
		Scopes(forTenant(bill.TenantID)).
		Select("paid_amount", "status", "updated_at").
		Updates(bill).Error
}

func (r *billRepository) List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.Bill, int64, error) {
	var bills []model.Bill
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Bill{}).Scopes(forTenant(tenantID))
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
		Order("bill_date DESC, created_at DESC").
		Scopes(paginate(page, limit)).
		Find(&bills).Error; err != nil {
		return nil, 0, err
	}

	return bills, total, nil
}

func (r *billRepository) ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, to *time.Time) ([]model.Bill, error) {
	var bills []model.Bill
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID), until("bill_date", to)).
		Where("supplier_id = ?", supplierID).
		Order("bill_date ASC, id ASC").
		Find(&bills).Error
	return bills, err
}
