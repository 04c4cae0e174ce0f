package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder statuses. Forward-only except to cancelled.
const (
	POStatusDraft     = "draft"
	POStatusPending   = "pending"
	POStatusReceived  = "received"
	POStatusCancelled = "cancelled"
)

// PurchaseOrder is a commitment to buy goods from a supplier.
type PurchaseOrder struct {
	ID           uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_po_tenant_number,priority:1;index" json:"tenant_id"`
	PONumber     string              `gorm:"type:varchar(40);not null;uniqueIndex:idx_po_tenant_number,priority:2" json:"po_number"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Status       string              `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	OrderDate    time.Time           `gorm:"type:date;not null" json:"order_date"`
	ExpectedDate *time.Time          `gorm:"type:date" json:"expected_date"`
	Subtotal     decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	GSTAmount    decimal.Decimal     `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"total_amount"` // subtotal + gst_amount
	Notes        string              `gorm:"type:text" json:"notes"`
	CreatedBy    *uuid.UUID          `gorm:"type:uuid" json:"created_by"`
	SubmittedAt  *time.Time          `json:"submitted_at"`
	ReceivedAt   *time.Time          `json:"received_at"`
	CancelledAt  *time.Time          `json:"cancelled_at"`
	Items        []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// PurchaseOrderItem is a line item of a PurchaseOrder.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	GSTRate         decimal.Decimal `gorm:"column:gst_rate;type:decimal(6,2);not null;default:0" json:"gst_rate"`
	GSTAmount       decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}

// Bill and Invoice statuses derived from paid_amount vs total_amount.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue" // presentation only, never stored
)

// PaymentStatusFor derives the stored status of a payable/receivable.
func PaymentStatusFor(paid, total decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

// Bill is the supplier-side payable generated when a PurchaseOrder is received.
type Bill struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bills_tenant_number,priority:1;index" json:"tenant_id"`
	BillNumber      string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_bills_tenant_number,priority:2" json:"bill_number"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"purchase_order_id"`
	SupplierID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	BillDate        time.Time       `gorm:"type:date;not null;index" json:"bill_date"`
	DueDate         time.Time       `gorm:"type:date;not null" json:"due_date"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	GSTAmount       decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items           []BillItem      `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Outstanding returns the unpaid remainder of the bill.
func (b Bill) Outstanding() decimal.Decimal {
	return b.TotalAmount.Sub(b.PaidAmount)
}

// BillItem is a copy of a received PurchaseOrderItem.
type BillItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"bill_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	GSTRate   decimal.Decimal `gorm:"column:gst_rate;type:decimal(6,2);not null;default:0" json:"gst_rate"`
	GSTAmount decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}
