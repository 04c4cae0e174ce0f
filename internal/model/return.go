package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return types
const (
	ReturnTypePurchase = "purchase" // goods go back to the supplier
	ReturnTypeSales    = "sales"    // goods come back from the customer
)

// Return statuses
const (
	ReturnStatusPending  = "pending"
	ReturnStatusApproved = "approved"
	ReturnStatusRejected = "rejected"
)

// Return reverses part of a Bill (purchase) or an Invoice (sales).
type Return struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_returns_tenant_number,priority:1;index" json:"tenant_id"`
	ReturnNumber     string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_returns_tenant_number,priority:2" json:"return_number"`
	ReturnType       string          `gorm:"type:varchar(10);not null;index" json:"return_type"`
	SourceDocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"source_document_id"` // bill id or invoice id
	PartyID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"party_id"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReturnDate       time.Time       `gorm:"type:date;not null" json:"return_date"`
	Reason           string          `gorm:"type:text" json:"reason"`
	RejectionReason  string          `gorm:"type:text" json:"rejection_reason"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	CreatedBy        *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	DecidedBy        *uuid.UUID      `gorm:"type:uuid" json:"decided_by"`
	DecidedAt        *time.Time      `json:"decided_at"`
	Items            []ReturnItem    `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ReturnItem is one returned product line, priced from the originating document.
type ReturnItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	GSTRate   decimal.Decimal `gorm:"column:gst_rate;type:decimal(6,2);not null;default:0" json:"gst_rate"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}
