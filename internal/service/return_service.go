package service

import (
	"context"
	"fmt"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type ReturnLineInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

type CreateReturnInput struct {
	// SourceDocumentID is the bill of a purchase return or the invoice of a sales return.
	SourceDocumentID uuid.UUID         `json:"source_document_id" binding:"required"`
	ReturnDate       string            `json:"return_date"`
	Reason           string            `json:"reason" binding:"max=2000"`
	Items            []ReturnLineInput `json:"items" binding:"required,min=1,dive"`
}

type RejectReturnInput struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

type ReturnService interface {
	CreatePurchaseReturn(ctx context.Context, tenantID, userID uuid.UUID, in CreateReturnInput) (*model.Return, error)
	CreateSalesReturn(ctx context.Context, tenantID, userID uuid.UUID, in CreateReturnInput) (*model.Return, error)
	ApproveReturn(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.Return, error)
	RejectReturn(ctx context.Context, tenantID, userID, id uuid.UUID, in RejectReturnInput) (*model.Return, error)
	GetReturn(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error)
	ListReturns(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Return, int64, error)
}

type returnService struct {
	deps     Deps
	gateway  *StockGateway
	numberer *DocumentNumberer
}

func NewReturnService(deps Deps, gateway *StockGateway, numberer *DocumentNumberer) ReturnService {
	return &returnService{deps: deps.withDefaults(), gateway: gateway, numberer: numberer}
}

// sourceLine is the returnable quantity and price of one product on a bill or invoice.
type sourceLine struct {
	Quantity  int
	UnitPrice decimal.Decimal
	GSTRate   decimal.Decimal
}

type sourceDocument struct {
	ID      uuid.UUID
	PartyID uuid.UUID
	Date    time.Time
	Lines   map[uuid.UUID]sourceLine
}

func newSourceDocument(id, partyID uuid.UUID, date time.Time) *sourceDocument {
	return &sourceDocument{ID: id, PartyID: partyID, Date: date, Lines: make(map[uuid.UUID]sourceLine)}
}

// add sums quantities of repeated products and keeps the first line's price.
func (d *sourceDocument) add(productID uuid.UUID, qty int, unitPrice, gstRate decimal.Decimal) {
	l, ok := d.Lines[productID]
	if !ok {
		l = sourceLine{UnitPrice: unitPrice, GSTRate: gstRate}
	}
	l.Quantity += qty
	d.Lines[productID] = l
}

// loadSource reads the originating document of a return, row-locked when forUpdate.
func (s *returnService) loadSource(ctx context.Context, tenantID uuid.UUID, returnType string, id uuid.UUID, forUpdate bool) (*sourceDocument, error) {
	if returnType == model.ReturnTypePurchase {
		find := s.deps.Store.Bills.FindByID
		if forUpdate {
			find = s.deps.Store.Bills.FindByIDForUpdate
		}
		bill, err := find(ctx, tenantID, id)
		if err != nil {
			return nil, notFound(err, "bill", id)
		}
		doc := newSourceDocument(bill.ID, bill.SupplierID, bill.BillDate)
		for _, it := range bill.Items {
			doc.add(it.ProductID, it.Quantity, it.UnitPrice, it.GSTRate)
		}
		return doc, nil
	}

	find := s.deps.Store.Invoices.FindByID
	if forUpdate {
		find = s.deps.Store.Invoices.FindByIDForUpdate
	}
	invoice, err := find(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "invoice", id)
	}
	doc := newSourceDocument(invoice.ID, invoice.CustomerID, invoice.InvoiceDate)
	for _, it := range invoice.Items {
		doc.add(it.ProductID, it.Quantity, it.UnitPrice, it.GSTRate)
	}
	return doc, nil
}

// checkReturnable reports every line whose quantity, together with what was
// already approved against the same document, exceeds the original quantity.
func checkReturnable(verr *ValidationError, doc *sourceDocument, approved map[uuid.UUID]int, items []model.ReturnItem) {
	for i, it := range items {
		src, ok := doc.Lines[it.ProductID]
		if !ok {
			verr.Add(fmt.Sprintf("items[%d].product_id", i), "product %s is not on document %s", it.ProductID, doc.ID)
			continue
		}
		if left := src.Quantity - approved[it.ProductID]; it.Quantity > left {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "returns %d but only %d of %d remain returnable", it.Quantity, max(left, 0), src.Quantity)
		}
	}
}

func (s *returnService) CreatePurchaseReturn(ctx context.Context, tenantID, userID uuid.UUID, in CreateReturnInput) (*model.Return, error) {
	return s.create(ctx, tenantID, userID, model.ReturnTypePurchase, in)
}

func (s *returnService) CreateSalesReturn(ctx context.Context, tenantID, userID uuid.UUID, in CreateReturnInput) (*model.Return, error) {
	return s.create(ctx, tenantID, userID, model.ReturnTypeSales, in)
}

func (s *returnService) create(ctx context.Context, tenantID, userID uuid.UUID, returnType string, in CreateReturnInput) (*model.Return, error) {
	verr := validateInput(in)
	returnDate := parseDate(verr, "return_date", in.ReturnDate, dateOnly(s.deps.Now()))
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	prefix := model.PrefixPurchaseReturn
	if returnType == model.ReturnTypeSales {
		prefix = model.PrefixSalesReturn
	}

	var ret *model.Return
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.loadSource(txCtx, tenantID, returnType, in.SourceDocumentID, false)
		if err != nil {
			return err
		}

		ret = &model.Return{
			ID:               uuid.New(),
			TenantID:         tenantID,
			ReturnType:       returnType,
			SourceDocumentID: doc.ID,
			PartyID:          doc.PartyID,
			Status:           model.ReturnStatusPending,
			ReturnDate:       returnDate,
			Reason:           in.Reason,
			TotalAmount:      decimal.Zero,
			CreatedBy:        userRef(userID),
		}
		index := make(map[uuid.UUID]int, len(in.Items))
		for _, it := range in.Items {
			if i, ok := index[it.ProductID]; ok {
				ret.Items[i].Quantity += it.Quantity
				continue
			}
			index[it.ProductID] = len(ret.Items)
			ret.Items = append(ret.Items, model.ReturnItem{ID: uuid.New(), ReturnID: ret.ID, ProductID: it.ProductID, Quantity: it.Quantity})
		}

		approved, err := s.deps.Store.Returns.SumApprovedQuantities(txCtx, tenantID, returnType, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to sum approved returns: %w", err)
		}
		verr := &ValidationError{}
		if returnDate.Before(doc.Date) {
			verr.Add("return_date", "must not be before the document date %s", doc.Date.Format(dateLayout))
		}
		checkReturnable(verr, doc, approved, ret.Items)
		if err := verr.OrNil(); err != nil {
			return err
		}

		for i := range ret.Items {
			src := doc.Lines[ret.Items[i].ProductID]
			priced := priceLine(ret.Items[i].ProductID, ret.Items[i].Quantity, src.UnitPrice, src.GSTRate)
			ret.Items[i].UnitPrice = priced.UnitPrice
			ret.Items[i].GSTRate = priced.GSTRate
			ret.Items[i].LineTotal = priced.LineTotal
			ret.TotalAmount = ret.TotalAmount.Add(priced.LineTotal)
		}

		if ret.ReturnNumber, err = s.numberer.Next(txCtx, tenantID, prefix); err != nil {
			return err
		}
		if err := s.deps.Store.Returns.Create(txCtx, ret); err != nil {
			return fmt.Errorf("failed to create return: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionCreateReturn, ret.ID.String(), ret.ReturnNumber,
			map[string]any{"return_type": returnType, "source_document_id": doc.ID, "total_amount": ret.TotalAmount})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}
	return ret, nil
}

// ApproveReturn moves the returned goods: out to the supplier for a purchase
// return, back into stock for a sales return. The originating document is
// locked so concurrent approvals against it cannot over-return.
func (s *returnService) ApproveReturn(ctx context.Context, tenantID, userID, id uuid.UUID) (*model.Return, error) {
	var (
		ret     *model.Return
		changes []StockChange
	)
	err := s.deps.withDocumentLock(ctx, lockReturn, tenantID, id, func() error {
		peek, err := s.deps.Store.Returns.FindByID(ctx, tenantID, id)
		if err != nil {
			return notFound(err, "return", id)
		}
		sourceLock := lockBill
		if peek.ReturnType == model.ReturnTypeSales {
			sourceLock = lockInvoice
		}

		return s.deps.withDocumentLock(ctx, sourceLock, tenantID, peek.SourceDocumentID, func() error {
			return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
				var err error
				ret, err = s.deps.Store.Returns.FindByIDForUpdate(txCtx, tenantID, id)
				if err != nil {
					return notFound(err, "return", id)
				}
				if ret.Status != model.ReturnStatusPending {
					return &InvalidStateError{Entity: "return", ID: ret.ID, Status: ret.Status, Action: "approve"}
				}

				doc, err := s.loadSource(txCtx, tenantID, ret.ReturnType, ret.SourceDocumentID, true)
				if err != nil {
					return err
				}
				approved, err := s.deps.Store.Returns.SumApprovedQuantities(txCtx, tenantID, ret.ReturnType, doc.ID)
				if err != nil {
					return fmt.Errorf("failed to sum approved returns: %w", err)
				}
				verr := &ValidationError{}
				checkReturnable(verr, doc, approved, ret.Items)
				if err := verr.OrNil(); err != nil {
					return err
				}

				sign := 1
				if ret.ReturnType == model.ReturnTypePurchase {
					sign = -1
				}
				lines := make([]StockLine, 0, len(ret.Items))
				for _, it := range ret.Items {
					lines = append(lines, StockLine{ProductID: it.ProductID, Delta: sign * it.Quantity, Note: ret.ReturnNumber})
				}
				if changes, err = s.gateway.Apply(txCtx, tenantID, userID, model.RefTypeReturn, ret.ID, lines); err != nil {
					return err
				}

				ret.Status = model.ReturnStatusApproved
				ret.DecidedBy = userRef(userID)
				ret.DecidedAt = timePtr(s.deps.Now())
				if err := s.deps.Store.Returns.UpdateStatus(txCtx, ret); err != nil {
					return fmt.Errorf("failed to approve return: %w", err)
				}
				return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionApproveReturn, ret.ID.String(), ret.ReturnNumber,
					map[string]any{"return_type": ret.ReturnType, "total_amount": ret.TotalAmount})
			})
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.gateway.Announce(tenantID, changes)
	s.deps.announceTransition(tenantID, TransitionEvent{
		Document: "return", ID: ret.ID, Number: ret.ReturnNumber,
		From: model.ReturnStatusPending, To: model.ReturnStatusApproved,
	})
	return ret, nil
}

func (s *returnService) RejectReturn(ctx context.Context, tenantID, userID, id uuid.UUID, in RejectReturnInput) (*model.Return, error) {
	if err := validateInput(in).OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var ret *model.Return
	err := s.deps.withDocumentLock(ctx, lockReturn, tenantID, id, func() error {
		return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			ret, err = s.deps.Store.Returns.FindByIDForUpdate(txCtx, tenantID, id)
			if err != nil {
				return notFound(err, "return", id)
			}
			if ret.Status != model.ReturnStatusPending {
				return &InvalidStateError{Entity: "return", ID: ret.ID, Status: ret.Status, Action: "reject"}
			}

			ret.Status = model.ReturnStatusRejected
			ret.RejectionReason = in.Reason
			ret.DecidedBy = userRef(userID)
			ret.DecidedAt = timePtr(s.deps.Now())
			if err := s.deps.Store.Returns.UpdateStatus(txCtx, ret); err != nil {
				return fmt.Errorf("failed to reject return: %w", err)
			}
			return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionRejectReturn, ret.ID.String(), ret.ReturnNumber,
				map[string]any{"reason": in.Reason})
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.deps.announceTransition(tenantID, TransitionEvent{
		Document: "return", ID: ret.ID, Number: ret.ReturnNumber,
		From: model.ReturnStatusPending, To: model.ReturnStatusRejected,
	})
	return ret, nil
}

func (s *returnService) GetReturn(ctx context.Context, tenantID, id uuid.UUID) (*model.Return, error) {
	ret, err := s.deps.Store.Returns.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "return", id)
	}
	return ret, nil
}

func (s *returnService) ListReturns(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, limit int) ([]model.Return, int64, error) {
	if filter.Type != "" && filter.Type != model.ReturnTypePurchase && filter.Type != model.ReturnTypeSales {
		return nil, 0, s.deps.failed(invalid("type", "must be one of: purchase, sales"))
	}
	return s.deps.Store.Returns.List(ctx, tenantID, filter, page, limit)
}
