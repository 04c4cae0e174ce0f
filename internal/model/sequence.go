package model

import (
	"time"

	"github.com/google/uuid"
)

// Document number prefixes
const (
	PrefixPurchaseOrder  = "PO"
	PrefixBill           = "BILL"
	PrefixSalesOrder     = "SO"
	PrefixInvoice        = "INV"
	PrefixPurchaseReturn = "PR"
	PrefixSalesReturn    = "SR"
)

// DocumentSequence holds the last number issued per tenant, prefix and day.
type DocumentSequence struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	Prefix    string    `gorm:"type:varchar(10);primaryKey" json:"prefix"`
	Day       string    `gorm:"type:char(8);primaryKey" json:"day"` // YYYYMMDD
	LastValue int64     `gorm:"type:bigint;not null;default:0" json:"last_value"`
	UpdatedAt time.Time `json:"updated_at"`
}
