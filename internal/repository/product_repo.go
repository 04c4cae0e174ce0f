package repository

import (
	"context"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error)
	// FindByIDsForUpdate row-locks the products in ascending id order.
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, tenantID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error)
	ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error)
	ListIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
	UpdateStock(ctx context.Context, tenantID, id uuid.UUID, stock int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return translate(GetDB(ctx, r.db).Create(product).Error)
}

// Update writes metadata and prices. stock_quantity is owned by the stock gateway.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	res := GetDB(ctx, r.db).Model(product).
		Scopes(forTenant(product.TenantID)).
		Select("sku", "name", "unit", "reorder_level", "purchase_price", "selling_price", "tax_rate", "updated_at").
		Updates(product)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(forTenant(tenantID)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) List(ctx context.Context, tenantID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{}).Scopes(forTenant(tenantID))
	if search != "" {
		db = db.Where("name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at desc").Scopes(paginate(page, limit)).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).Scopes(forTenant(tenantID)).
		Where("reorder_level > 0 AND stock_quantity <= reorder_level").
		Order("stock_quantity ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) ListIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Product{}).Scopes(forTenant(tenantID)).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepository) UpdateStock(ctx context.Context, tenantID, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).
		Scopes(forTenant(tenantID)).
		Where("id = ?", id).
		Update("stock_quantity", stock).Error
}
