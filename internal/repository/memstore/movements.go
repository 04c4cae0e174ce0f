package memstore

import (
	"context"
	"errors"
	"slices"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

// errNegativeStock mirrors the products_stock_non_negative check constraint.
var errNegativeStock = errors.New("memstore: stock_quantity must be >= 0")

type movementRepo struct{ db *DB }

func (r *movementRepo) Create(ctx context.Context, movement *model.StockMovement) error {
	return r.db.write(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == movement.TenantID && m.ReferenceType == movement.ReferenceType &&
				m.ReferenceID == movement.ReferenceID && m.ProductID == movement.ProductID {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&movement.ID, &movement.CreatedAt, nil)
		st.movements = append(st.movements, *movement)
		return nil
	})
}

func (r *movementRepo) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	_ = r.db.read(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ReferenceType == referenceType && m.ReferenceID == referenceID {
				out = append(out, m)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.StockMovement) int { return compareID(a.ProductID, b.ProductID) })
	return out, nil
}

func (r *movementRepo) SumByProducts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	sums := make(map[uuid.UUID]int)
	_ = r.db.read(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID != tenantID {
				continue
			}
			if len(ids) > 0 && !slices.Contains(ids, m.ProductID) {
				continue
			}
			sums[m.ProductID] += m.Signed()
		}
		return nil
	})
	return sums, nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var all []model.StockMovement
	_ = r.db.read(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ProductID == productID {
				all = append(all, m)
			}
		}
		return nil
	})
	// Newest first; insertion order breaks timestamp ties.
	slices.Reverse(all)
	slices.SortStableFunc(all, func(a, b model.StockMovement) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}
