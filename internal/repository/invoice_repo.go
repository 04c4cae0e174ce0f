package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error)
	FindBySalesOrderID(ctx context.Context, tenantID, salesOrderID uuid.UUID) (*model.Invoice, error)
	UpdatePayment(ctx context.Context, invoice *model.Invoice) error
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.Invoice, int64, error)
	// ListByCustomer returns every invoice of the customer dated on or before to (nil: no bound).
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, to *time.Time) ([]model.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return translate(GetDB(ctx, r.db).Create(invoice).Error)
}

func (r *invoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindBySalesOrderID(ctx context.Context, tenantID, salesOrderID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Preload("Items").
		First(&invoice, "sales_order_id = ?", salesOrderID).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) UpdatePayment(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Model(invoice).
		Scopes(forTenant(invoice.TenantID)).
		Select("paid_amount", "status", "updated_at").
		Updates(invoice).Error
}

func (r *invoiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Invoice{}).Scopes(forTenant(tenantID))
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
		Order("invoice_date DESC, created_at DESC").
		Scopes(paginate(page, limit)).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, to *time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID), until("invoice_date", to)).
		Where("customer_id = ?", customerID).
		Order("invoice_date ASC, id ASC").
		Find(&invoices).Error
	return invoices, err
}
