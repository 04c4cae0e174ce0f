package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentFilter narrows list queries over orders, bills, invoices and returns.
// Zero values match everything.
type DocumentFilter struct {
	Status  string
	PartyID uuid.UUID
	Type    string // returns only: purchase or sales
}

func forTenant(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			return db
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}

func until(column string, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if to == nil {
			return db
		}
		return db.Where(column+" <= ?", *to)
	}
}
