package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrder statuses
const (
	SOStatusDraft     = "draft"
	SOStatusConfirmed = "confirmed"
	SOStatusDelivered = "delivered"
	SOStatusCancelled = "cancelled"
)

// SalesOrder is a commitment to sell goods to a customer.
type SalesOrder struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_so_tenant_number,priority:1;index" json:"tenant_id"`
	SONumber    string           `gorm:"column:so_number;type:varchar(40);not null;uniqueIndex:idx_so_tenant_number,priority:2" json:"so_number"`
	CustomerID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	Status      string           `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	OrderDate   time.Time        `gorm:"type:date;not null" json:"order_date"`
	Subtotal    decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	GSTAmount   decimal.Decimal  `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	Notes       string           `gorm:"type:text" json:"notes"`
	CreatedBy   *uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	ConfirmedAt *time.Time       `json:"confirmed_at"`
	DeliveredAt *time.Time       `json:"delivered_at"`
	CancelledAt *time.Time       `json:"cancelled_at"`
	Items       []SalesOrderItem `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// SalesOrderItem is a line item of a SalesOrder.
type SalesOrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity     int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	GSTRate      decimal.Decimal `gorm:"column:gst_rate;type:decimal(6,2);not null;default:0" json:"gst_rate"`
	GSTAmount    decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}

// Invoice is the customer-side receivable generated from a confirmed SalesOrder.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_tenant_number,priority:1;index" json:"tenant_id"`
	InvoiceNumber string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoices_tenant_number,priority:2" json:"invoice_number"`
	SalesOrderID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"sales_order_id"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	InvoiceDate   time.Time       `gorm:"type:date;not null;index" json:"invoice_date"`
	DueDate       time.Time       `gorm:"type:date;not null" json:"due_date"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	GSTAmount     decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DisplayStatus string          `gorm:"-" json:"display_status"` // Status, or overdue; filled on read
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Outstanding returns the unpaid remainder of the invoice.
func (i Invoice) Outstanding() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// StatusAt returns the status shown to users at the given instant:
// an unpaid invoice past its due date reads as overdue.
func (i Invoice) StatusAt(now time.Time) string {
	if i.Status != PaymentStatusPaid && now.After(i.DueDate.AddDate(0, 0, 1)) {
		return PaymentStatusOverdue
	}
	return i.Status
}

// InvoiceItem is a copy of an invoiced SalesOrderItem.
type InvoiceItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	GSTRate   decimal.Decimal `gorm:"column:gst_rate;type:decimal(6,2);not null;default:0" json:"gst_rate"`
	GSTAmount decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}
