package repository

import (
	"context"
	"time"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	ListByDocument(ctx context.Context, tenantID uuid.UUID, documentType string, documentID uuid.UUID) ([]model.Payment, error)
	// ListByParty returns the party's payments of one document type dated on or before to.
	ListByParty(ctx context.Context, tenantID uuid.UUID, documentType string, partyID uuid.UUID, to *time.Time) ([]model.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return translate(GetDB(ctx, r.db).Create(payment).Error)
}

func (r *paymentRepository) ListByDocument(ctx context.Context, tenantID uuid.UUID, documentType string, documentID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Where("document_type = ? AND document_id = ?", documentType, documentID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListByParty(ctx context.Context, tenantID uuid.UUID, documentType string, partyID uuid.UUID, to *time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID), until("payment_date", to)).
		Where("document_type = ? AND party_id = ?", documentType, partyID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}
