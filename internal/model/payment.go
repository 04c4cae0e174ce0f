package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment document types
const (
	PaymentDocBill    = "bill"    // supplier-side payment
	PaymentDocInvoice = "invoice" // customer-side payment
)

// Payment methods
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheque       = "cheque"
	PaymentMethodUPI          = "upi"
)

// PaymentMethods maps each known method to whether it needs a reference number.
var PaymentMethods = map[string]bool{
	PaymentMethodCash:         false,
	PaymentMethodCard:         false,
	PaymentMethodBankTransfer: true,
	PaymentMethodCheque:       true,
	PaymentMethodUPI:          true,
}

// Payment settles part or all of a Bill or an Invoice.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_document,priority:1;index:idx_payments_party,priority:1" json:"tenant_id"`
	DocumentType    string          `gorm:"type:varchar(10);not null;index:idx_payments_document,priority:2" json:"document_type"`
	DocumentID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_document,priority:3" json:"reference_id"`
	PartyID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_party,priority:2" json:"party_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	ReferenceNumber string          `gorm:"type:varchar(100)" json:"reference_number"`
	PaymentDate     time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}
