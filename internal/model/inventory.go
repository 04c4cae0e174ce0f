package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item in the inventory.
// StockQuantity is a cache of the signed sum of the product's StockMovements
// and is only written by the stock gateway.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_sku" json:"tenant_id"`
	SKU           string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_tenant_sku" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit          string          `gorm:"type:varchar(20);not null;default:'pcs'" json:"unit"`
	StockQuantity int             `gorm:"type:int;default:0;not null" json:"stock_quantity"`
	ReorderLevel  int             `gorm:"type:int;default:0;not null" json:"reorder_level"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"selling_price"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"tax_rate"` // GST percent, e.g. 18.00
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsLowStock reports whether the product sits at or below its reorder level.
func (p Product) IsLowStock() bool {
	return p.ReorderLevel > 0 && p.StockQuantity <= p.ReorderLevel
}

// Movement directions
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Movement reference types
const (
	RefTypePurchase   = "purchase"
	RefTypeSale       = "sale"
	RefTypeAdjustment = "adjustment"
	RefTypeReturn     = "return"
)

// ValidReferenceTypes lists every reference a movement may cite.
var ValidReferenceTypes = map[string]bool{
	RefTypePurchase:   true,
	RefTypeSale:       true,
	RefTypeAdjustment: true,
	RefTypeReturn:     true,
}

// StockMovement is an append-only stock log entry. One row per
// (reference_type, reference_id, product_id).
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_movements_reference,priority:1;index:idx_movements_product,priority:1" json:"tenant_id"`
	ReferenceType string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_movements_reference,priority:2" json:"reference_type"`
	ReferenceID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_movements_reference,priority:3" json:"reference_id"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_movements_reference,priority:4;index:idx_movements_product,priority:2" json:"product_id"`
	Direction     string     `gorm:"type:varchar(5);not null" json:"direction"`
	Quantity      int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter    int        `gorm:"type:int;not null" json:"stock_after"`
	Note          string     `gorm:"type:text" json:"note"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Signed returns the movement quantity with its direction applied.
func (m StockMovement) Signed() int {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}
