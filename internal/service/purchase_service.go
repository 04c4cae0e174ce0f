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
type CreatePurchaseOrderInput struct {
	SupplierID   uuid.UUID   `json:"supplier_id" binding:"required"`
	OrderDate    string      `json:"order_date"`
	ExpectedDate string      `json:"expected_date"`
	Notes        string      `json:"notes" binding:"max=2000"`
	Items        []LineInput `json:"items" binding:"dive"`
}

type ReceivePurchaseOrderInput struct {
	BillDate string `json:"bill_date"`
	// DueDate defaults to bill date plus the supplier's payment terms.
	DueDate string `json:"due_date"`
}

// ReceiveResult is the received order together with the bill it produced.
type ReceiveResult struct {
	Order *model.PurchaseOrder `json:"purchase_order"`
	Bill  *model.Bill          `json:"bill"`
}

type PurchaseService interface {
	CreatePurchaseOrder(ctx context.Context, tenantID, userID uuid.UUID, in CreatePurchaseOrderInput) (*model.PurchaseOrder, error)
	SubmitPurchaseOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, tenantID, userID, id uuid.UUID, in ReceivePurchaseOrderInput) (*ReceiveResult, error)
	CancelPurchaseOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.PurchaseOrder, int64, error)
	GetBill(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error)
	ListBills(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Bill, int64, error)
}

type purchaseService struct {
	deps     Deps
	gateway  *StockGateway
	numberer *DocumentNumberer
}

func NewPurchaseService(deps Deps, gateway *StockGateway, numberer *DocumentNumberer) PurchaseService {
	return &purchaseService{deps: deps.withDefaults(), gateway: gateway, numberer: numberer}
}

func (s *purchaseService) CreatePurchaseOrder(ctx context.Context, tenantID, userID uuid.UUID, in CreatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	verr := validateInput(in)
	now := s.deps.Now()
	orderDate := parseDate(verr, "order_date", in.OrderDate, dateOnly(now))
	expected := parseOptionalDate(verr, "expected_date", in.ExpectedDate)
	if expected != nil && expected.Before(orderDate) {
		verr.Add("expected_date", "must not be before order_date")
	}
	checkLines(verr, in.Items)
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var order *model.PurchaseOrder
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := requirePartner(txCtx, s.deps.Store.Partners, tenantID, in.SupplierID, "supplier_id", model.PartnerTypeSupplier); err != nil {
			return err
		}
		lines, err := priceItems(txCtx, s.deps.Store.Products, tenantID, in.Items, func(p model.Product) decimal.Decimal { return p.PurchasePrice })
		if err != nil {
			return err
		}
		number, err := s.numberer.Next(txCtx, tenantID, model.PrefixPurchaseOrder)
		if err != nil {
			return err
		}

		subtotal, gst, total := sumLines(lines)
		order = &model.PurchaseOrder{
			ID:           uuid.New(),
			TenantID:     tenantID,
			PONumber:     number,
			SupplierID:   in.SupplierID,
			Status:       model.POStatusDraft,
			OrderDate:    orderDate,
			ExpectedDate: expected,
			Subtotal:     subtotal,
			GSTAmount:    gst,
			TotalAmount:  total,
			Notes:        in.Notes,
			CreatedBy:    userRef(userID),
		}
		for _, l := range lines {
			order.Items = append(order.Items, model.PurchaseOrderItem{
				ID:              uuid.New(),
				PurchaseOrderID: order.ID,
				ProductID:       l.ProductID,
				Quantity:        l.Quantity,
				UnitPrice:       l.UnitPrice,
				GSTRate:         l.GSTRate,
				GSTAmount:       l.GSTAmount,
				LineTotal:       l.LineTotal,
			})
		}

		if err := s.deps.Store.PurchaseOrders.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionCreatePurchaseOrder, order.ID.String(), order.PONumber,
			map[string]any{"supplier_id": order.SupplierID, "total_amount": order.TotalAmount, "items": len(order.Items)})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}
	return order, nil
}

func (s *purchaseService) SubmitPurchaseOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.PurchaseOrder, error) {
	return s.transition(ctx, tenantID, userID, id, "submit", model.ActionSubmitPurchaseOrder,
		func(order *model.PurchaseOrder) error {
			if order.Status != model.POStatusDraft {
				return &InvalidStateError{Entity: "purchase_order", ID: order.ID, Status: order.Status, Action: "submit"}
			}
			if len(order.Items) == 0 {
				return invalid("items", "a purchase order needs at least one line to be submitted")
			}
			order.Status = model.POStatusPending
			order.SubmittedAt = timePtr(s.deps.Now())
			return nil
		})
}

func (s *purchaseService) CancelPurchaseOrder(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.PurchaseOrder, error) {
	return s.transition(ctx, tenantID, userID, id, "cancel", model.ActionCancelPurchaseOrder,
		func(order *model.PurchaseOrder) error {
			if order.Status != model.POStatusDraft && order.Status != model.POStatusPending {
				return &InvalidStateError{Entity: "purchase_order", ID: order.ID, Status: order.Status, Action: "cancel"}
			}
			order.Status = model.POStatusCancelled
			order.CancelledAt = timePtr(s.deps.Now())
			return nil
		})
}

// transition runs a status-only change of one order under its lock.
func (s *purchaseService) transition(ctx context.Context, tenantID, userID, id uuid.UUID, action, auditAction string, apply func(*model.PurchaseOrder) error) (*model.PurchaseOrder, error) {
	var (
		order *model.PurchaseOrder
		from  string
	)
	err := s.deps.withDocumentLock(ctx, lockPurchaseOrder, tenantID, id, func() error {
		return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			order, err = s.deps.Store.PurchaseOrders.FindByIDForUpdate(txCtx, tenantID, id)
			if err != nil {
				return notFound(err, "purchase_order", id)
			}
			from = order.Status
			if err := apply(order); err != nil {
				return err
			}
			if err := s.deps.Store.PurchaseOrders.UpdateStatus(txCtx, order); err != nil {
				return fmt.Errorf("failed to %s purchase order: %w", action, err)
			}
			return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, auditAction, order.ID.String(), order.PONumber,
				map[string]string{"from": from, "to": order.Status})
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.deps.announceTransition(tenantID, TransitionEvent{Document: "purchase_order", ID: order.ID, Number: order.PONumber, From: from, To: order.Status})
	return order, nil
}

// ReceivePurchaseOrder books the goods of a pending order in one unit: the
// bill, one purchase movement per product and the received status.
func (s *purchaseService) ReceivePurchaseOrder(ctx context.Context, tenantID, userID, id uuid.UUID, in ReceivePurchaseOrderInput) (*ReceiveResult, error) {
	verr := &ValidationError{}
	now := s.deps.Now()
	billDate := parseDate(verr, "bill_date", in.BillDate, dateOnly(now))
	dueDate := parseOptionalDate(verr, "due_date", in.DueDate)
	if dueDate != nil && dueDate.Before(billDate) {
		verr.Add("due_date", "must not be before bill_date")
	}
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var (
		result  ReceiveResult
		changes []StockChange
	)
	err := s.deps.withDocumentLock(ctx, lockPurchaseOrder, tenantID, id, func() error {
		return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			order, err := s.deps.Store.PurchaseOrders.FindByIDForUpdate(txCtx, tenantID, id)
			if err != nil {
				return notFound(err, "purchase_order", id)
			}
			if order.Status != model.POStatusPending {
				return &InvalidStateError{Entity: "purchase_order", ID: order.ID, Status: order.Status, Action: "receive"}
			}

			due := dueDate
			if due == nil {
				supplier, err := s.deps.Store.Partners.FindByID(txCtx, tenantID, order.SupplierID)
				if err != nil {
					return notFound(err, "partner", order.SupplierID)
				}
				due = timePtr(billDate.AddDate(0, 0, supplier.PaymentTerms))
			}

			number, err := s.numberer.Next(txCtx, tenantID, model.PrefixBill)
			if err != nil {
				return err
			}
			bill := &model.Bill{
				ID:              uuid.New(),
				TenantID:        tenantID,
				BillNumber:      number,
				PurchaseOrderID: order.ID,
				SupplierID:      order.SupplierID,
				BillDate:        billDate,
				DueDate:         *due,
				Subtotal:        order.Subtotal,
				GSTAmount:       order.GSTAmount,
				TotalAmount:     order.TotalAmount,
				PaidAmount:      decimal.Zero,
				Status:          model.PaymentStatusFor(decimal.Zero, order.TotalAmount),
				CreatedBy:       userRef(userID),
			}
			lines := make([]StockLine, 0, len(order.Items))
			for _, it := range order.Items {
				bill.Items = append(bill.Items, model.BillItem{
					ID:        uuid.New(),
					BillID:    bill.ID,
					ProductID: it.ProductID,
					Quantity:  it.Quantity,
					UnitPrice: it.UnitPrice,
					GSTRate:   it.GSTRate,
					GSTAmount: it.GSTAmount,
					LineTotal: it.LineTotal,
				})
				lines = append(lines, StockLine{ProductID: it.ProductID, Delta: it.Quantity, Note: order.PONumber})
			}

			if err := s.deps.Store.Bills.Create(txCtx, bill); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return &InvalidStateError{Entity: "purchase_order", ID: order.ID, Status: order.Status, Action: "receive"}
				}
				return fmt.Errorf("failed to create bill: %w", err)
			}
			changes, err = s.gateway.Apply(txCtx, tenantID, userID, model.RefTypePurchase, order.ID, lines)
			if err != nil {
				return err
			}

			order.Status = model.POStatusReceived
			order.ReceivedAt = timePtr(now)
			if err := s.deps.Store.PurchaseOrders.UpdateStatus(txCtx, order); err != nil {
				return fmt.Errorf("failed to receive purchase order: %w", err)
			}
			if err := writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionReceivePurchaseOrder, order.ID.String(), order.PONumber,
				map[string]any{"bill_id": bill.ID, "bill_number": bill.BillNumber, "total_amount": bill.TotalAmount}); err != nil {
				return err
			}

			result = ReceiveResult{Order: order, Bill: bill}
			return nil
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.gateway.Announce(tenantID, changes)
	s.deps.announceTransition(tenantID, TransitionEvent{
		Document: "purchase_order", ID: result.Order.ID, Number: result.Order.PONumber,
		From: model.POStatusPending, To: model.POStatusReceived,
	})
	return &result, nil
}

func (s *purchaseService) GetPurchaseOrder(ctx context.Context, tenantID, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.deps.Store.PurchaseOrders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "purchase_order", id)
	}
	return order, nil
}

func (s *purchaseService) ListPurchaseOrders(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.PurchaseOrder, int64, error) {
	return s.deps.Store.PurchaseOrders.List(ctx, tenantID, filter, page, limit)
}

func (s *purchaseService) GetBill(ctx context.Context, tenantID, id uuid.UUID) (*model.Bill, error) {
	bill, err := s.deps.Store.Bills.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "bill", id)
	}
	return bill, nil
}

func (s *purchaseService) ListBills(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Bill, int64, error) {
	return s.deps.Store.Bills.List(ctx, tenantID, filter, page, limit)
}
