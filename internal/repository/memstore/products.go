package memstore

import (
	"context"
	"slices"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepo struct{ db *DB }

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.write(ctx, func(st *state) error {
		for _, p := range st.products {
			if p.TenantID == product.TenantID && p.SKU == product.SKU {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&product.ID, &product.CreatedAt, &product.UpdatedAt)
		st.products[product.ID] = *product
		return nil
	})
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.write(ctx, func(st *state) error {
		current, ok := st.products[product.ID]
		if !ok || current.TenantID != product.TenantID || current.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		for _, p := range st.products {
			if p.ID != product.ID && p.TenantID == product.TenantID && p.SKU == product.SKU {
				return repository.ErrDuplicate
			}
		}
		current.SKU = product.SKU
		current.Name = product.Name
		current.Unit = product.Unit
		current.ReorderLevel = product.ReorderLevel
		current.PurchasePrice = product.PurchasePrice
		current.SellingPrice = product.SellingPrice
		current.TaxRate = product.TaxRate
		current.UpdatedAt = r.db.now()
		st.products[product.ID] = current
		product.UpdatedAt = current.UpdatedAt
		return nil
	})
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.TenantID != tenantID || p.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		p.DeletedAt = gorm.DeletedAt{Time: r.db.now(), Valid: true}
		st.products[id] = p
		return nil
	})
}

func (r *productRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	var out *model.Product
	err := r.db.read(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.TenantID != tenantID || p.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *productRepo) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	err := r.db.read(ctx, func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok && p.TenantID == tenantID && !p.DeletedAt.Valid {
				out = append(out, p)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Product) int { return compareID(a.ID, b.ID) })
	out = slices.CompactFunc(out, func(a, b model.Product) bool { return a.ID == b.ID })
	return out, err
}

// FindByIDsForUpdate needs no row locks: transactions are already serialized.
func (r *productRepo) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	return r.FindByIDs(ctx, tenantID, ids)
}

func (r *productRepo) List(ctx context.Context, tenantID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error) {
	var all []model.Product
	_ = r.db.read(ctx, func(st *state) error {
		for _, p := range st.products {
			if p.TenantID != tenantID || p.DeletedAt.Valid {
				continue
			}
			if search != "" && !containsFold(p.Name, search) && !containsFold(p.SKU, search) {
				continue
			}
			all = append(all, p)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.Product) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *productRepo) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	_ = r.db.read(ctx, func(st *state) error {
		for _, p := range st.products {
			if p.TenantID == tenantID && !p.DeletedAt.Valid && p.IsLowStock() {
				out = append(out, p)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Product) int {
		if a.StockQuantity != b.StockQuantity {
			return a.StockQuantity - b.StockQuantity
		}
		return compareID(a.ID, b.ID)
	})
	return out, nil
}

func (r *productRepo) ListIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	_ = r.db.read(ctx, func(st *state) error {
		for id, p := range st.products {
			if p.TenantID == tenantID && !p.DeletedAt.Valid {
				ids = append(ids, id)
			}
		}
		return nil
	})
	slices.SortFunc(ids, compareID)
	return ids, nil
}

func (r *productRepo) UpdateStock(ctx context.Context, tenantID, id uuid.UUID, stock int) error {
	return r.db.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.TenantID != tenantID {
			return repository.ErrNotFound
		}
		if stock < 0 {
			return errNegativeStock
		}
		p.StockQuantity = stock
		p.UpdatedAt = r.db.now()
		st.products[id] = p
		return nil
	})
}
