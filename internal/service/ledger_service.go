package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"erp-backend/internal/ledger"
	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerQuery struct {
	From string `form:"from" json:"from"`
	To   string `form:"to" json:"to"`
}

// Statement is a party ledger over an optional date range.
type Statement struct {
	PartyID     uuid.UUID       `json:"party_id"`
	PartyName   string          `json:"party_name"`
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	Entries     []ledger.Entry  `json:"entries"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Closing     decimal.Decimal `json:"closing_balance"`
}

type LedgerService interface {
	SupplierLedger(ctx context.Context, tenantID, supplierID uuid.UUID, q LedgerQuery) (*Statement, error)
	CustomerLedger(ctx context.Context, tenantID, customerID uuid.UUID, q LedgerQuery) (*Statement, error)
}

type ledgerService struct {
	deps Deps
}

func NewLedgerService(deps Deps) LedgerService {
	return &ledgerService{deps: deps.withDefaults()}
}

func (s *ledgerService) window(q LedgerQuery) (from, to *time.Time, err error) {
	verr := &ValidationError{}
	from = parseOptionalDate(verr, "from", q.From)
	to = parseOptionalDate(verr, "to", q.To)
	if from != nil && to != nil && to.Before(*from) {
		verr.Add("to", "must not be before from")
	}
	return from, to, verr.OrNil()
}

func (s *ledgerService) party(ctx context.Context, tenantID, id uuid.UUID, role string) (*model.Partner, error) {
	partner, err := s.deps.Store.Partners.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "partner", id)
	}
	if (role == model.PartnerTypeSupplier && !partner.IsSupplier()) || (role == model.PartnerTypeCustomer && !partner.IsCustomer()) {
		return nil, invalid("party_id", "partner %s is not a %s", id, role)
	}
	return partner, nil
}

// SupplierLedger debits bills and credits payments and approved purchase returns.
func (s *ledgerService) SupplierLedger(ctx context.Context, tenantID, supplierID uuid.UUID, q LedgerQuery) (*Statement, error) {
	from, to, err := s.window(q)
	if err != nil {
		return nil, s.deps.failed(err)
	}
	partner, err := s.party(ctx, tenantID, supplierID, model.PartnerTypeSupplier)
	if err != nil {
		return nil, s.deps.failed(err)
	}

	bills, err := s.deps.Store.Bills.ListBySupplier(ctx, tenantID, supplierID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	events := make([]ledger.Event, 0, len(bills))
	for _, b := range bills {
		events = append(events, ledger.Event{
			Date: b.BillDate, DocumentID: b.ID, Type: ledger.TypeBill, Reference: b.BillNumber,
			Debit: b.TotalAmount, Credit: decimal.Zero,
		})
	}

	credits, err := s.credits(ctx, tenantID, supplierID, model.PaymentDocBill, model.ReturnTypePurchase, ledger.TypePurchaseReturn, to)
	if err != nil {
		return nil, err
	}
	return statementOf(partner, append(events, credits...), from, to), nil
}

// CustomerLedger debits invoices and credits payments and approved sales returns.
func (s *ledgerService) CustomerLedger(ctx context.Context, tenantID, customerID uuid.UUID, q LedgerQuery) (*Statement, error) {
	from, to, err := s.window(q)
	if err != nil {
		return nil, s.deps.failed(err)
	}
	partner, err := s.party(ctx, tenantID, customerID, model.PartnerTypeCustomer)
	if err != nil {
		return nil, s.deps.failed(err)
	}

	invoices, err := s.deps.Store.Invoices.ListByCustomer(ctx, tenantID, customerID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	events := make([]ledger.Event, 0, len(invoices))
	for _, inv := range invoices {
		events = append(events, ledger.Event{
			Date: inv.InvoiceDate, DocumentID: inv.ID, Type: ledger.TypeInvoice, Reference: inv.InvoiceNumber,
			Debit: inv.TotalAmount, Credit: decimal.Zero,
		})
	}

	credits, err := s.credits(ctx, tenantID, customerID, model.PaymentDocInvoice, model.ReturnTypeSales, ledger.TypeSalesReturn, to)
	if err != nil {
		return nil, err
	}
	return statementOf(partner, append(events, credits...), from, to), nil
}

func (s *ledgerService) credits(ctx context.Context, tenantID, partyID uuid.UUID, docType, returnType, rowType string, to *time.Time) ([]ledger.Event, error) {
	payments, err := s.deps.Store.Payments.ListByParty(ctx, tenantID, docType, partyID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	returns, err := s.deps.Store.Returns.ListApprovedByParty(ctx, tenantID, returnType, partyID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}

	events := make([]ledger.Event, 0, len(payments)+len(returns))
	for _, p := range payments {
		ref := p.ReferenceNumber
		if ref == "" {
			ref = p.PaymentMethod
		}
		events = append(events, ledger.Event{
			Date: p.PaymentDate, DocumentID: p.ID, Type: ledger.TypePayment, Reference: ref,
			Debit: decimal.Zero, Credit: p.Amount,
		})
	}
	for _, r := range returns {
		events = append(events, ledger.Event{
			Date: r.ReturnDate, DocumentID: r.ID, Type: rowType, Reference: r.ReturnNumber,
			Debit: decimal.Zero, Credit: r.TotalAmount,
		})
	}
	return events, nil
}

func statementOf(partner *model.Partner, events []ledger.Event, from, to *time.Time) *Statement {
	entries := slices.Collect(ledger.Statement(events, from, to))
	if entries == nil {
		entries = []ledger.Entry{}
	}
	debit, credit, closing := ledger.Totals(entries)
	return &Statement{
		PartyID:     partner.ID,
		PartyName:   partner.Name,
		From:        from,
		To:          to,
		Entries:     entries,
		TotalDebit:  debit,
		TotalCredit: credit,
		Closing:     closing,
	}
}
