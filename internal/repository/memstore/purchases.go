package memstore

import (
	"context"
	"slices"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

type purchaseOrderRepo struct{ db *DB }

func (r *purchaseOrderRepo) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return r.db.write(ctx, func(st *state) error {
		for _, o := range st.purchaseOrders {
			if o.TenantID == order.TenantID && o.PONumber == order.PONumber {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		for i := range order.Items {
			r.db.stamp(&order.Items[i].ID, nil, nil)
			order.Items[i].PurchaseOrderID = order.ID
		}
		stored := *order
		stored.Items = slices.Clone(order.Items)
		st.purchaseOrders[order.ID] = stored
		return nil
	})
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error) {
	var out *model.PurchaseOrder
	err := r.db.read(ctx, func(st *state) error {
		o, ok := st.purchaseOrders[id]
		if !ok || o.TenantID != tenantID {
			return repository.ErrNotFound
		}
		o.Items = slices.Clone(o.Items)
		out = &o
		return nil
	})
	return out, err
}

func (r *purchaseOrderRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, order *model.PurchaseOrder) error {
	return r.db.write(ctx, func(st *state) error {
		o, ok := st.purchaseOrders[order.ID]
		if !ok || o.TenantID != order.TenantID {
			return repository.ErrNotFound
		}
		o.Status = order.Status
		o.SubmittedAt = order.SubmittedAt
		o.ReceivedAt = order.ReceivedAt
		o.CancelledAt = order.CancelledAt
		o.UpdatedAt = r.db.now()
		order.UpdatedAt = o.UpdatedAt
		st.purchaseOrders[order.ID] = o
		return nil
	})
}

func (r *purchaseOrderRepo) List(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.PurchaseOrder, int64, error) {
	var all []model.PurchaseOrder
	_ = r.db.read(ctx, func(st *state) error {
		for _, o := range st.purchaseOrders {
			if o.TenantID != tenantID ||
				(filter.Status != "" && o.Status != filter.Status) ||
				(filter.PartyID != uuid.Nil && o.SupplierID != filter.PartyID) {
				continue
			}
			o.Items = slices.Clone(o.Items)
			all = append(all, o)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.PurchaseOrder) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return paginate(all, page, limit), int64(len(all)), nil
}

type billRepo struct{ db *DB }

func (r *billRepo) Create(ctx context.Context, bill *model.Bill) error {
	return r.db.write(ctx, func(st *state) error {
		for _, b := range st.bills {
			if (b.TenantID == bill.TenantID && b.BillNumber == bill.BillNumber) || b.PurchaseOrderID == bill.PurchaseOrderID {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)
		for i := range bill.Items {
			r.db.stamp(&bill.Items[i].ID, nil, nil)
			bill.Items[i].BillID = bill.ID
		}
		stored := *bill
		stored.Items = slices.Clone(bill.Items)
		st.bills[bill.ID] = stored
		return nil
	})
}

func (r *billRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error) {
	var out *model.Bill
	err := r.db.read(ctx, func(st *state) error {
		b, ok := st.bills[id]
		if !ok || b.TenantID != tenantID {
			return repository.ErrNotFound
		}
		b.Items = slices.Clone(b.Items)
		out = &b
		return nil
	})
	return out, err
}

func (r *billRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *billRepo) FindByPurchaseOrderID(ctx context.Context, tenantID, purchaseOrderID uuid.UUID) (*model.Bill, error) {
	var out *model.Bill
	err := r.db.read(ctx, func(st *state) error {
		for _, b := range st.bills {
			if b.TenantID == tenantID && b.PurchaseOrderID == purchaseOrderID {
				b.Items = slices.Clone(b.Items)
				out = &b
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *billRepo) UpdatePayment(ctx context.Context, bill *model.Bill) error {
	return r.db.write(ctx, func(st *state) error {
		b, ok := st.bills[bill.ID]
		if !ok || b.TenantID != bill.TenantID {
			return repository.ErrNotFound
		}
		b.PaidAmount = bill.PaidAmount
		b.Status = bill.Status
		b.UpdatedAt = r.db.now()
		bill.UpdatedAt = b.UpdatedAt
		st.bills[bill.ID] = b
		return nil
	})
}

func (r *billRepo) List(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Bill, int64, error) {
	var all []model.Bill
	_ = r.db.read(ctx, func(st *state) error {
		for _, b := range st.bills {
			if b.TenantID != tenantID ||
				(filter.Status != "" && b.Status != filter.Status) ||
				(filter.PartyID != uuid.Nil && b.SupplierID != filter.PartyID) {
				continue
			}
			b.Items = slices.Clone(b.Items)
			all = append(all, b)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.Bill) int { return newestFirst(a.BillDate, b.BillDate, a.ID, b.ID) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *billRepo) ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, to *time.Time) ([]model.Bill, error) {
	var out []model.Bill
	_ = r.db.read(ctx, func(st *state) error {
		for _, b := range st.bills {
			if b.TenantID == tenantID && b.SupplierID == supplierID && onOrBefore(b.BillDate, to) {
				out = append(out, b)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Bill) int { return newestFirst(b.BillDate, a.BillDate, b.ID, a.ID) })
	return out, nil
}
