package service

import (
	"context"
	"fmt"
	"strings"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type RecordPaymentInput struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	ReferenceNumber string          `json:"reference_number" binding:"max=100"`
	PaymentDate     string          `json:"payment_date"`
	Notes           string          `json:"notes" binding:"max=2000"`
}

// PaymentResult is a recorded payment and the settled document's state after it.
type PaymentResult struct {
	Payment     *model.Payment  `json:"payment"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Status      string          `json:"status"`
}

type PaymentService interface {
	RecordBillPayment(ctx context.Context, tenantID, userID, billID uuid.UUID, in RecordPaymentInput) (*PaymentResult, error)
	RecordInvoicePayment(ctx context.Context, tenantID, userID, invoiceID uuid.UUID, in RecordPaymentInput) (*PaymentResult, error)
	ListPayments(ctx context.Context, tenantID uuid.UUID, documentType string, documentID uuid.UUID) ([]model.Payment, error)
}

type paymentService struct {
	deps Deps
}

func NewPaymentService(deps Deps) PaymentService {
	return &paymentService{deps: deps.withDefaults()}
}

// payable is the part of a bill or invoice a payment touches.
type payable struct {
	ID      uuid.UUID
	Number  string
	PartyID uuid.UUID
	Total   decimal.Decimal
	Paid    decimal.Decimal
	Status  string
}

func (s *paymentService) checkInput(in RecordPaymentInput) (*model.Payment, error) {
	verr := validateInput(in)
	if !in.Amount.IsPositive() {
		verr.Add("amount", "must be greater than 0")
	} else if !isCents(in.Amount) {
		verr.Add("amount", "must have at most 2 decimal places")
	}
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	needsRef, known := model.PaymentMethods[method]
	switch {
	case in.PaymentMethod == "":
	case !known:
		verr.Add("payment_method", "must be one of: cash, card, bank_transfer, cheque, upi")
	case needsRef && strings.TrimSpace(in.ReferenceNumber) == "":
		verr.Add("reference_number", "is required for %s payments", method)
	}
	paymentDate := parseDate(verr, "payment_date", in.PaymentDate, dateOnly(s.deps.Now()))
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &model.Payment{
		ID:              uuid.New(),
		Amount:          in.Amount,
		PaymentMethod:   method,
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		PaymentDate:     paymentDate,
		Notes:           in.Notes,
	}, nil
}

// record locks the document, checks the amount against the outstanding
// balance read under that lock and books the payment in one transaction.
func (s *paymentService) record(ctx context.Context, tenantID, userID, docID uuid.UUID, docType, lockKind string, in RecordPaymentInput,
	load func(context.Context) (*payable, error), save func(context.Context, decimal.Decimal, string) error) (*PaymentResult, error) {
	payment, err := s.checkInput(in)
	if err != nil {
		return nil, s.deps.failed(err)
	}

	var (
		doc    *payable
		result PaymentResult
	)
	err = s.deps.withDocumentLock(ctx, lockKind, tenantID, docID, func() error {
		return s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			if doc, err = load(txCtx); err != nil {
				return err
			}
			outstanding := doc.Total.Sub(doc.Paid)
			if payment.Amount.GreaterThan(outstanding) {
				return &OverpaymentError{DocumentID: doc.ID, Amount: payment.Amount, Outstanding: outstanding}
			}

			payment.TenantID = tenantID
			payment.DocumentType = docType
			payment.DocumentID = doc.ID
			payment.PartyID = doc.PartyID
			payment.CreatedBy = userRef(userID)
			if err := s.deps.Store.Payments.Create(txCtx, payment); err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}

			paid := doc.Paid.Add(payment.Amount)
			status := model.PaymentStatusFor(paid, doc.Total)
			if err := save(txCtx, paid, status); err != nil {
				return fmt.Errorf("failed to update %s: %w", docType, err)
			}
			if err := writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionRecordPayment, doc.ID.String(), doc.Number,
				map[string]any{"payment_id": payment.ID, "amount": payment.Amount, "method": payment.PaymentMethod, "status": status}); err != nil {
				return err
			}

			result = PaymentResult{Payment: payment, PaidAmount: paid, Outstanding: doc.Total.Sub(paid), Status: status}
			return nil
		})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	if result.Status != doc.Status {
		s.deps.announceTransition(tenantID, TransitionEvent{Document: docType, ID: doc.ID, Number: doc.Number, From: doc.Status, To: result.Status})
	}
	return &result, nil
}

func (s *paymentService) RecordBillPayment(ctx context.Context, tenantID, userID, billID uuid.UUID, in RecordPaymentInput) (*PaymentResult, error) {
	var bill *model.Bill
	return s.record(ctx, tenantID, userID, billID, model.PaymentDocBill, lockBill, in,
		func(txCtx context.Context) (*payable, error) {
			var err error
			if bill, err = s.deps.Store.Bills.FindByIDForUpdate(txCtx, tenantID, billID); err != nil {
				return nil, notFound(err, "bill", billID)
			}
			return &payable{ID: bill.ID, Number: bill.BillNumber, PartyID: bill.SupplierID, Total: bill.TotalAmount, Paid: bill.PaidAmount, Status: bill.Status}, nil
		},
		func(txCtx context.Context, paid decimal.Decimal, status string) error {
			bill.PaidAmount, bill.Status = paid, status
			return s.deps.Store.Bills.UpdatePayment(txCtx, bill)
		})
}

func (s *paymentService) RecordInvoicePayment(ctx context.Context, tenantID, userID, invoiceID uuid.UUID, in RecordPaymentInput) (*PaymentResult, error) {
	var invoice *model.Invoice
	return s.record(ctx, tenantID, userID, invoiceID, model.PaymentDocInvoice, lockInvoice, in,
		func(txCtx context.Context) (*payable, error) {
			var err error
			if invoice, err = s.deps.Store.Invoices.FindByIDForUpdate(txCtx, tenantID, invoiceID); err != nil {
				return nil, notFound(err, "invoice", invoiceID)
			}
			return &payable{ID: invoice.ID, Number: invoice.InvoiceNumber, PartyID: invoice.CustomerID, Total: invoice.TotalAmount, Paid: invoice.PaidAmount, Status: invoice.Status}, nil
		},
		func(txCtx context.Context, paid decimal.Decimal, status string) error {
			invoice.PaidAmount, invoice.Status = paid, status
			return s.deps.Store.Invoices.UpdatePayment(txCtx, invoice)
		})
}

func (s *paymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, documentType string, documentID uuid.UUID) ([]model.Payment, error) {
	if documentType != model.PaymentDocBill && documentType != model.PaymentDocInvoice {
		return nil, s.deps.failed(invalid("document_type", "must be one of: bill, invoice"))
	}
	payments, err := s.deps.Store.Payments.ListByDocument(ctx, tenantID, documentType, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
