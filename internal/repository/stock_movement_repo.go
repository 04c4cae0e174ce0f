package repository

import (
	"context"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]model.StockMovement, error)
	// SumByProducts returns the signed movement sum per product. An empty ids
	// slice sums every product of the tenant.
	SumByProducts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error)
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return translate(GetDB(ctx, r.db).Create(movement).Error)
}

func (r *stockMovementRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("product_id ASC").
		Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepository) SumByProducts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     int
	}
	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Scopes(forTenant(tenantID))
	if len(ids) > 0 {
		db = db.Where("product_id IN ?", ids)
	}
	err := db.Select("product_id, COALESCE(SUM(CASE WHEN direction = ? THEN -quantity ELSE quantity END), 0) AS total", model.DirectionOut).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		sums[row.ProductID] = row.Total
	}
	return sums, nil
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Scopes(forTenant(tenantID)).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC, id DESC").Scopes(paginate(page, limit)).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
