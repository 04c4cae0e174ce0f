package memstore

import (
	"context"
	"slices"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

type salesOrderRepo struct{ db *DB }

func (r *salesOrderRepo) Create(ctx context.Context, order *model.SalesOrder) error {
	return r.db.write(ctx, func(st *state) error {
		for _, o := range st.salesOrders {
			if o.TenantID == order.TenantID && o.SONumber == order.SONumber {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		for i := range order.Items {
			r.db.stamp(&order.Items[i].ID, nil, nil)
			order.Items[i].SalesOrderID = order.ID
		}
		stored := *order
		stored.Items = slices.Clone(order.Items)
		st.salesOrders[order.ID] = stored
		return nil
	})
}

func (r *salesOrderRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	var out *model.SalesOrder
	err := r.db.read(ctx, func(st *state) error {
		o, ok := st.salesOrders[id]
		if !ok || o.TenantID != tenantID {
			return repository.ErrNotFound
		}
		o.Items = slices.Clone(o.Items)
		out = &o
		return nil
	})
	return out, err
}

func (r *salesOrderRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *salesOrderRepo) UpdateStatus(ctx context.Context, order *model.SalesOrder) error {
	return r.db.write(ctx, func(st *state) error {
		o, ok := st.salesOrders[order.ID]
		if !ok || o.TenantID != order.TenantID {
			return repository.ErrNotFound
		}
		o.Status = order.Status
		o.ConfirmedAt = order.ConfirmedAt
		o.DeliveredAt = order.DeliveredAt
		o.CancelledAt = order.CancelledAt
		o.UpdatedAt = r.db.now()
		order.UpdatedAt = o.UpdatedAt
		st.salesOrders[order.ID] = o
		return nil
	})
}

func (r *salesOrderRepo) List(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.SalesOrder, int64, error) {
	var all []model.SalesOrder
	_ = r.db.read(ctx, func(st *state) error {
		for _, o := range st.salesOrders {
			if o.TenantID != tenantID ||
				(filter.Status != "" && o.Status != filter.Status) ||
				(filter.PartyID != uuid.Nil && o.CustomerID != filter.PartyID) {
				continue
			}
			o.Items = slices.Clone(o.Items)
			all = append(all, o)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.SalesOrder) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return paginate(all, page, limit), int64(len(all)), nil
}

type invoiceRepo struct{ db *DB }

func (r *invoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.db.write(ctx, func(st *state) error {
		for _, inv := range st.invoices {
			if (inv.TenantID == invoice.TenantID && inv.InvoiceNumber == invoice.InvoiceNumber) || inv.SalesOrderID == invoice.SalesOrderID {
				return repository.ErrDuplicate
			}
		}
		r.db.stamp(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)
		for i := range invoice.Items {
			r.db.stamp(&invoice.Items[i].ID, nil, nil)
			invoice.Items[i].InvoiceID = invoice.ID
		}
		stored := *invoice
		stored.Items = slices.Clone(invoice.Items)
		st.invoices[invoice.ID] = stored
		return nil
	})
}

func (r *invoiceRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	var out *model.Invoice
	err := r.db.read(ctx, func(st *state) error {
		inv, ok := st.invoices[id]
		if !ok || inv.TenantID != tenantID {
			return repository.ErrNotFound
		}
		inv.Items = slices.Clone(inv.Items)
		out = &inv
		return nil
	})
	return out, err
}

func (r *invoiceRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *invoiceRepo) FindBySalesOrderID(ctx context.Context, tenantID, salesOrderID uuid.UUID) (*model.Invoice, error) {
	var out *model.Invoice
	err := r.db.read(ctx, func(st *state) error {
		for _, inv := range st.invoices {
			if inv.TenantID == tenantID && inv.SalesOrderID == salesOrderID {
				inv.Items = slices.Clone(inv.Items)
				out = &inv
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *invoiceRepo) UpdatePayment(ctx context.Context, invoice *model.Invoice) error {
	return r.db.write(ctx, func(st *state) error {
		inv, ok := st.invoices[invoice.ID]
		if !ok || inv.TenantID != invoice.TenantID {
			return repository.ErrNotFound
		}
		inv.PaidAmount = invoice.PaidAmount
		inv.Status = invoice.Status
		inv.UpdatedAt = r.db.now()
		invoice.UpdatedAt = inv.UpdatedAt
		st.invoices[invoice.ID] = inv
		return nil
	})
}

func (r *invoiceRepo) List(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Invoice, int64, error) {
	var all []model.Invoice
	_ = r.db.read(ctx, func(st *state) error {
		for _, inv := range st.invoices {
			if inv.TenantID != tenantID ||
				(filter.Status != "" && inv.Status != filter.Status) ||
				(filter.PartyID != uuid.Nil && inv.CustomerID != filter.PartyID) {
				continue
			}
			inv.Items = slices.Clone(inv.Items)
			all = append(all, inv)
		}
		return nil
	})
	slices.SortFunc(all, func(a, b model.Invoice) int { return newestFirst(a.InvoiceDate, b.InvoiceDate, a.ID, b.ID) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *invoiceRepo) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, to *time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	_ = r.db.read(ctx, func(st *state) error {
		for _, inv := range st.invoices {
			if inv.TenantID == tenantID && inv.CustomerID == customerID && onOrBefore(inv.InvoiceDate, to) {
				out = append(out, inv)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Invoice) int { return newestFirst(b.InvoiceDate, a.InvoiceDate, b.ID, a.ID) })
	return out, nil
}
