package service

import (
	"testing"

	"erp-backend/internal/ledger"
	"erp-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplierLedger(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	supplier := f.supplier()

	bill := f.receivedBill(supplier, line(p.ID, 10)) // 800
	_, err := f.svc.Payments.RecordBillPayment(f.ctx, f.tenant, f.user, bill.ID, RecordPaymentInput{
		Amount: dec("300"), PaymentMethod: model.PaymentMethodBankTransfer, ReferenceNumber: "NEFT-1",
	})
	require.NoError(t, err)
	ret, err := f.svc.Returns.CreatePurchaseReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: bill.ID, Items: []ReturnLineInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	require.NoError(t, err)

	// Pending returns are not on the ledger.
	_, err = f.svc.Returns.CreatePurchaseReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: bill.ID, Items: []ReturnLineInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	st, err := f.svc.Ledgers.SupplierLedger(f.ctx, f.tenant, supplier.ID, LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, st.Entries, 3)
	assert.True(t, st.TotalDebit.Equal(dec("800")))
	assert.True(t, st.TotalCredit.Equal(dec("460")))
	assert.True(t, st.Closing.Equal(dec("340")))

	types := map[string]int{}
	for _, e := range st.Entries {
		types[e.Type]++
	}
	assert.Equal(t, map[string]int{ledger.TypeBill: 1, ledger.TypePayment: 1, ledger.TypePurchaseReturn: 1}, types)
	assert.True(t, st.Entries[len(st.Entries)-1].RunningBalance.Equal(st.Closing))
}

func TestCustomerLedgerWindow(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 100)
	customer := f.customer()

	so := f.confirmedSO(customer, line(p.ID, 2)) // 200
	res, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{InvoiceDate: "2026-01-05"})
	require.NoError(t, err)
	_, err = f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, res.Invoice.ID, RecordPaymentInput{
		Amount: dec("50"), PaymentMethod: model.PaymentMethodCash, PaymentDate: "2026-02-10",
	})
	require.NoError(t, err)
	f.invoice(customer, line(p.ID, 1)) // 100 on 2026-03-10

	st, err := f.svc.Ledgers.CustomerLedger(f.ctx, f.tenant, customer.ID, LedgerQuery{From: "2026-02-01", To: "2026-02-28"})
	require.NoError(t, err)
	require.Len(t, st.Entries, 2)
	assert.Equal(t, ledger.TypeOpening, st.Entries[0].Type)
	assert.True(t, st.Entries[0].RunningBalance.Equal(dec("200")))
	assert.Equal(t, ledger.TypePayment, st.Entries[1].Type)
	assert.True(t, st.Closing.Equal(dec("150")))

	st, err = f.svc.Ledgers.CustomerLedger(f.ctx, f.tenant, customer.ID, LedgerQuery{})
	require.NoError(t, err)
	assert.Len(t, st.Entries, 3)
	assert.True(t, st.Closing.Equal(dec("250")))
}

func TestLedgerRejectsWrongPartyAndRange(t *testing.T) {
	f := newFixture(t)
	customer := f.customer()

	_, err := f.svc.Ledgers.SupplierLedger(f.ctx, f.tenant, customer.ID, LedgerQuery{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Ledgers.CustomerLedger(f.ctx, f.tenant, customer.ID, LedgerQuery{From: "2026-03-01", To: "2026-02-01"})
	assert.ErrorIs(t, err, ErrValidation)

	st, err := f.svc.Ledgers.CustomerLedger(f.ctx, f.tenant, customer.ID, LedgerQuery{})
	require.NoError(t, err)
	assert.Empty(t, st.Entries)
	assert.True(t, st.Closing.IsZero())
}

// A sales return is a credit on the party ledger. It does not shrink the
// invoice payable, so paying the invoice in full leaves the customer in credit.
func TestSalesReturnCreditsLedgerNotInvoice(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	customer := f.customer()

	inv := f.invoice(customer, line(p.ID, 2)) // 200
	ret, err := f.svc.Returns.CreateSalesReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: inv.ID, Items: []ReturnLineInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	require.NoError(t, err)

	res, err := f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, inv.ID, RecordPaymentInput{
		Amount: dec("200"), PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, res.Status)
	assert.True(t, res.Outstanding.IsZero())

	st, err := f.svc.Ledgers.CustomerLedger(f.ctx, f.tenant, customer.ID, LedgerQuery{})
	require.NoError(t, err)
	assert.True(t, st.TotalDebit.Equal(dec("200")))
	assert.True(t, st.TotalCredit.Equal(dec("300")))
	assert.True(t, st.Closing.Equal(dec("-100")), st.Closing.String())
}
