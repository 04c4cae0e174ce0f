package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerType enum constants
const (
	PartnerTypeCustomer = "customer"
	PartnerTypeSupplier = "supplier"
	PartnerTypeBoth     = "both"
)

// Partner represents a customer, supplier, or both
type Partner struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Type          string         `gorm:"type:varchar(20);not null;index" json:"type"` // customer, supplier, both
	GSTIN         string         `gorm:"column:gstin;type:varchar(20)" json:"gstin"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string         `gorm:"type:varchar(50)" json:"phone"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	Address       string         `gorm:"type:text" json:"address"`
	PaymentTerms  int            `gorm:"type:int;not null;default:30" json:"payment_terms"` // days
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsSupplier reports whether the partner can be billed on purchase orders.
func (p Partner) IsSupplier() bool {
	return p.Type == PartnerTypeSupplier || p.Type == PartnerTypeBoth
}

// IsCustomer reports whether the partner can be invoiced on sales orders.
func (p Partner) IsCustomer() bool {
	return p.Type == PartnerTypeCustomer || p.Type == PartnerTypeBoth
}
