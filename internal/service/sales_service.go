package service

import (
	"context"
	"errors"
	"fmt"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type CreateSalesOrderInput struct {
	CustomerID uuid.UUID   `json:"customer_id" binding:"required"`
	OrderDate  string      `json:"order_date"`
	Notes      string      `json:"notes" binding:"max=2000"`
	Items      []LineInput `json:"items" binding:"dive"`
}

type GenerateInvoiceInput struct {
	InvoiceDate string `json:"invoice_date"`
	// DueDate defaults to invoice date plus the customer's payment terms.
	DueDate string `json:"due_date"`
}

// InvoiceResult is the delivered order together with its invoice.
type InvoiceResult struct {
	Order   *model.SalesOrder `json:"sales_order"`
	Invoice *model.Invoice    `json:"invoice"`
}

type SalesService interface {
	CreateSalesOrder(ctx context.Context, tenantID, userID uuid.UUID, in CreateSalesOrderInput) (*model.SalesOrder, error)
	ConfirmSalesOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.SalesOrder, error)
	GenerateInvoice(ctx context.Context, tenantID, userID, id uuid.UUID, in GenerateInvoiceInput) (*InvoiceResult, error)
	CancelSalesOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.SalesOrder, error)
	GetSalesOrder(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error)
	ListSalesOrders(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.SalesOrder, int64, error)
	GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Invoice, int64, error)
}

type salesService struct {
	deps     Deps
	gateway  *StockGateway
	numberer *DocumentNumberer
}

func NewSalesService(deps Deps, gateway *StockGateway, numberer *DocumentNumberer) SalesService {
	return &salesService{deps: deps.withDefaults(), gateway: gateway, numberer: numberer}
}

func (s *salesService) CreateSalesOrder(ctx context.Context, tenantID, userID uuid.UUID, in CreateSalesOrderInput) (*model.SalesOrder, error) {
	verr := validateInput(in)
	orderDate := parseDate(verr, "order_date", in.OrderDate, dateOnly(s.deps.Now()))
	checkLines(verr, in.Items)
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var order *model.SalesOrder
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := requirePartner(txCtx, s.deps.Store.Partners, tenantID, in.CustomerID, "customer_id", model.PartnerTypeCustomer); err != nil {
			return err
		}
		lines, err := priceItems(txCtx, s.deps.Store.Products, tenantID, in.Items, func(p model.Product) decimal.Decimal { return p.SellingPrice })
		if err != nil {
			return err
		}
		number, err := s.numberer.Next(txCtx, tenantID, model.PrefixSalesOrder)
		if err != nil {
			return err
		}

		subtotal, gst, total := sumLines(lines)
		order = &model.SalesOrder{
			ID:          uuid.New(),
			TenantID:    tenantID,
			SONumber:    number,
			CustomerID:  in.CustomerID,
			Status:      model.SOStatusDraft,
			OrderDate:   orderDate,
			Subtotal:    subtotal,
			GSTAmount:   gst,
			TotalAmount: total,
			Notes:       in.Notes,
			CreatedBy:   userRef(userID),
		}
		for _, l := range lines {
			order.Items = append(order.Items, model.SalesOrderItem{
				ID:           uuid.New(),
				SalesOrderID: order.ID,
				ProductID:    l.ProductID,
				Quantity:     l.Quantity,
				UnitPrice:    l.UnitPrice,
				GSTRate:      l.GSTRate,
				GSTAmount:    l.GSTAmount,
				LineTotal:    l.LineTotal,
			})
		}

		if err := s.deps.Store.SalesOrders.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create sales order: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionCreateSalesOrder, order.ID.String(), order.SONumber,
			map[string]any{"customer_id": order.CustomerID, "total_amount": order.TotalAmount, "items": len(order.Items)})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}
	return order, nil
}

func saleLines(order *model.SalesOrder) []StockLine {
	lines := make([]StockLine, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, StockLine{ProductID: it.ProductID, Delta: -it.Quantity, Note: order.SONumber})
	}
	return lines
}

// ConfirmSalesOrder checks every line against stock on hand without
// reserving anything. The binding check happens again at invoicing.
func (s *salesService) ConfirmSalesOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.SalesOrder, error) {
	return s.transition(ctx, tenantID, userID, id, "confirm", model.ActionConfirmSalesOrder,
		func(txCtx context.Context, order *model.SalesOrder) error {
			if order.Status != model.SOStatusDraft {
				return &InvalidStateError{Entity: "sales_order", ID: order.ID, Status: order.Status, Action: "confirm"}
			}
			if len(order.Items) == 0 {
				return invalid("items", "a sales order needs at least one line to be confirmed")
			}
			if err := s.gateway.CheckAvailability(txCtx, tenantID, order.ID, saleLines(order)); err != nil {
				return err
			}
			order.Status = model.SOStatusConfirmed
			order.ConfirmedAt = timePtr(s.deps.Now())
			return nil
		})
}

func (s *salesService) CancelSalesOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.SalesOrder, error) {
	return s.transition(ctx, tenantID, userID, id, "cancel", model.ActionCancelSalesOrder,
		func(_ context.Context, order *model.SalesOrder) error {
			if order.Status != model.SOStatusDraft && order.Status != model.SOStatusConfirmed {
				return &InvalidStateError{Entity: "sales_order", ID: order.ID, Status: order.Status, Action: "cancel"}
			}
			order.Status = model.SOStatusCancelled
			order.CancelledAt = timePtr(s.deps.Now())
			return nil
		})
}

func (s *salesService) transition(ctx context.Context, tenantID, userID, id uuid.UUID, action, auditAction string, apply func(context.Context, *model.SalesOrder) error) (*model.SalesOrder, error) {
	var (
		order *model.SalesOrder
		from  string
	)
	err := s.deps.withDocumentLock(ctx, lockSalesOrder, tenantID, id, func() error {
		return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			order, err = s.deps.Store.SalesOrders.FindByIDForUpdate(txCtx, tenantID, id)
			if err != nil {
				return notFound(err, "sales_order", id)
			}
			from = order.Status
			if err := apply(txCtx, order); err != nil {
				return err
			}
			if err := s.deps.Store.SalesOrders.UpdateStatus(txCtx, order); err != nil {
				return fmt.Errorf("failed to %s sales order: %w", action, err)
			}
			return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, auditAction, order.ID.String(), order.SONumber,
				map[string]string{"from": from, "to": order.Status})
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.deps.announceTransition(tenantID, TransitionEvent{Document: "sales_order", ID: order.ID, Number: order.SONumber, From: from, To: order.Status})
	return order, nil
}

// GenerateInvoice invoices a confirmed order and ships its goods in one unit.
// Stock is re-checked under row locks, so a shortfall since confirmation
// fails the whole call and leaves the order confirmed.
func (s *salesService) GenerateInvoice(ctx context.Context, tenantID, userID, id uuid.UUID, in GenerateInvoiceInput) (*InvoiceResult, error) {
	verr := &ValidationError{}
	now := s.deps.Now()
	invoiceDate := parseDate(verr, "invoice_date", in.InvoiceDate, dateOnly(now))
	dueDate := parseOptionalDate(verr, "due_date", in.DueDate)
	if dueDate != nil && dueDate.Before(invoiceDate) {
		verr.Add("due_date", "must not be before invoice_date")
	}
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var (
		result  InvoiceResult
		changes []StockChange
	)
	err := s.deps.withDocumentLock(ctx, lockSalesOrder, tenantID, id, func() error {
		return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			order, err := s.deps.Store.SalesOrders.FindByIDForUpdate(txCtx, tenantID, id)
			if err != nil {
				return notFound(err, "sales_order", id)
			}
			if order.Status != model.SOStatusConfirmed {
				return &InvalidStateError{Entity: "sales_order", ID: order.ID, Status: order.Status, Action: "invoice"}
			}

			due := dueDate
			if due == nil {
				customer, err := s.deps.Store.Partners.FindByID(txCtx, tenantID, order.CustomerID)
				if err != nil {
					return notFound(err, "partner", order.CustomerID)
				}
				due = timePtr(invoiceDate.AddDate(0, 0, customer.PaymentTerms))
			}

			number, err := s.numberer.Next(txCtx, tenantID, model.PrefixInvoice)
			if err != nil {
				return err
			}
			invoice := &model.Invoice{
				ID:            uuid.New(),
				TenantID:      tenantID,
				InvoiceNumber: number,
				SalesOrderID:  order.ID,
				CustomerID:    order.CustomerID,
				InvoiceDate:   invoiceDate,
				DueDate:       *due,
				Subtotal:      order.Subtotal,
				GSTAmount:     order.GSTAmount,
				TotalAmount:   order.TotalAmount,
				PaidAmount:    decimal.Zero,
				Status:        model.PaymentStatusFor(decimal.Zero, order.TotalAmount),
				CreatedBy:     userRef(userID),
			}
			for _, it := range order.Items {
				invoice.Items = append(invoice.Items, model.InvoiceItem{
					ID:        uuid.New(),
					InvoiceID: invoice.ID,
					ProductID: it.ProductID,
					Quantity:  it.Quantity,
					UnitPrice: it.UnitPrice,
					GSTRate:   it.GSTRate,
					GSTAmount: it.GSTAmount,
					LineTotal: it.LineTotal,
				})
			}

			if err := s.deps.Store.Invoices.Create(txCtx, invoice); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return &InvalidStateError{Entity: "sales_order", ID: order.ID, Status: order.Status, Action: "invoice"}
				}
				return fmt.Errorf("failed to create invoice: %w", err)
			}
			changes, err = s.gateway.Apply(txCtx, tenantID, userID, model.RefTypeSale, invoice.ID, saleLines(order))
			if err != nil {
				var short *InsufficientStockError
				if errors.As(err, &short) {
					short.DocumentID = order.ID
				}
				return err
			}

			order.Status = model.SOStatusDelivered
			order.DeliveredAt = timePtr(now)
			if err := s.deps.Store.SalesOrders.UpdateStatus(txCtx, order); err != nil {
				return fmt.Errorf("failed to deliver sales order: %w", err)
			}
			if err := writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionGenerateInvoice, order.ID.String(), order.SONumber,
				map[string]any{"invoice_id": invoice.ID, "invoice_number": invoice.InvoiceNumber, "total_amount": invoice.TotalAmount}); err != nil {
				return err
			}

			invoice.DisplayStatus = invoice.StatusAt(now)
			result = InvoiceResult{Order: order, Invoice: invoice}
			return nil
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.gateway.Announce(tenantID, changes)
	s.deps.announceTransition(tenantID, TransitionEvent{
		Document: "sales_order", ID: result.Order.ID, Number: result.Order.SONumber,
		From: model.SOStatusConfirmed, To: model.SOStatusDelivered,
	})
	return &result, nil
}

func (s *salesService) GetSalesOrder(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	order, err := s.deps.Store.SalesOrders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "sales_order", id)
	}
	return order, nil
}

func (s *salesService) ListSalesOrders(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.SalesOrder, int64, error) {
	return s.deps.Store.SalesOrders.List(ctx, tenantID, filter, page, limit)
}

func (s *salesService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.deps.Store.Invoices.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "invoice", id)
	}
	invoice.DisplayStatus = invoice.StatusAt(s.deps.Now())
	return invoice, nil
}

// ListInvoices filters on the stored status, except that "overdue" selects
// unpaid invoices past their due date.
func (s *salesService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Invoice, int64, error) {
	now := s.deps.Now()
	if filter.Status != model.PaymentStatusOverdue {
		invoices, total, err := s.deps.Store.Invoices.List(ctx, tenantID, filter, page, limit)
		if err != nil {
			return nil, 0, err
		}
		for i := range invoices {
			invoices[i].DisplayStatus = invoices[i].StatusAt(now)
		}
		return invoices, total, nil
	}

	filter.Status = ""
	all, _, err := s.deps.Store.Invoices.List(ctx, tenantID, filter, 1, 0)
	if err != nil {
		return nil, 0, err
	}
	overdue := make([]model.Invoice, 0, len(all))
	for _, inv := range all {
		if inv.DisplayStatus = inv.StatusAt(now); inv.DisplayStatus == model.PaymentStatusOverdue {
			overdue = append(overdue, inv)
		}
	}
	return pageOf(overdue, page, limit), int64(len(overdue)), nil
}

func pageOf[T any](items []T, page, limit int) []T {
	if limit < 1 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+limit, len(items))]
}
