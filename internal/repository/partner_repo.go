package repository

import (
	"context"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	Update(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Partner, error)
	List(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error)
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	return translate(GetDB(ctx, r.db).Create(partner).Error)
}

func (r *partnerRepository) Update(ctx context.Context, partner *model.Partner) error {
	res := GetDB(ctx, r.db).Model(partner).
		Scopes(forTenant(partner.TenantID)).
		Select("name", "type", "gstin", "contact_person", "phone", "email", "address", "payment_terms", "is_active", "updated_at").
		Updates(partner)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *partnerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).First(&partner, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &partner, nil
}

// List filters by partner type. A "supplier" or "customer" filter also matches partners of type "both".
func (r *partnerRepository) List(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Partner{}).Scopes(forTenant(tenantID))
	if partnerType != "" {
		query = query.Where("type IN ?", []string{partnerType, model.PartnerTypeBoth})
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ? OR gstin ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Scopes(paginate(page, limit)).Find(&partners).Error; err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}
