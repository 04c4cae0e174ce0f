package service

import (
	"testing"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stock 150, SO for 30 confirmed and invoiced: stock 120, pending invoice, one -30 sale movement.
func TestGenerateInvoiceRemovesStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 150)
	customer := f.customer()

	so, err := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: customer.ID,
		Items:      []LineInput{line(p.ID, 30)},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SOStatusDraft, so.Status)

	so, err = f.svc.Sales.ConfirmSalesOrder(f.ctx, f.tenant, f.user, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SOStatusConfirmed, so.Status)
	assert.Equal(t, 150, f.stock(p.ID))

	res, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	require.NoError(t, err)
	assert.Equal(t, model.SOStatusDelivered, res.Order.Status)
	assert.Equal(t, 120, f.stock(p.ID))

	inv := res.Invoice
	assert.Equal(t, model.PaymentStatusPending, inv.Status)
	assert.Equal(t, so.ID, inv.SalesOrderID)
	assert.True(t, inv.TotalAmount.Equal(dec("3000")))
	assert.Equal(t, "INV-20260310-00001", inv.InvoiceNumber)

	moves := f.movementsOf(model.RefTypeSale, inv.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, -30, moves[0].Signed())
	assert.Equal(t, 120, moves[0].StockAfter)
	f.requireConsistent()
}

// Invoicing 200 units of a product holding 10 fails and writes nothing.
func TestGenerateInvoiceIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 200)
	q := f.product("Q", 40)
	so := f.confirmedSO(f.customer(), line(p.ID, 200), line(q.ID, 5))

	_, err := f.svc.Inventory.AdjustStock(f.ctx, f.tenant, f.user, p.ID, AdjustStockInput{Delta: -190, Note: "damaged"})
	require.NoError(t, err)
	require.Equal(t, 10, f.stock(p.ID))

	_, err = f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, so.ID, short.DocumentID)
	require.Len(t, short.Lines, 1)
	assert.Equal(t, 200, short.Lines[0].Requested)
	assert.Equal(t, 10, short.Lines[0].Available)

	invoices, total, err := f.svc.Sales.ListInvoices(f.ctx, f.tenant, repository.DocumentFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, invoices)
	assert.Equal(t, 10, f.stock(p.ID))
	assert.Equal(t, 40, f.stock(q.ID))
	assert.Len(t, f.movements(q.ID), 1)

	order, err := f.svc.Sales.GetSalesOrder(f.ctx, f.tenant, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SOStatusConfirmed, order.Status)
	f.requireConsistent()

	// A failed invoice consumes no number.
	_, err = f.svc.Inventory.AdjustStock(f.ctx, f.tenant, f.user, p.ID, AdjustStockInput{Delta: 190})
	require.NoError(t, err)
	res, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	require.NoError(t, err)
	assert.Equal(t, "INV-20260310-00001", res.Invoice.InvoiceNumber)
}

func TestConfirmSalesOrderReportsEveryShortLine(t *testing.T) {
	f := newFixture(t)
	a := f.product("A", 10)
	b := f.product("B", 2)
	c := f.product("C", 100)
	so, err := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: f.customer().ID,
		Items:      []LineInput{line(a.ID, 200), line(b.ID, 3), line(c.ID, 1)},
	})
	require.NoError(t, err)

	_, err = f.svc.Sales.ConfirmSalesOrder(f.ctx, f.tenant, f.user, so.ID)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Len(t, short.Lines, 2)

	order, err := f.svc.Sales.GetSalesOrder(f.ctx, f.tenant, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SOStatusDraft, order.Status)
}

func TestGenerateInvoiceTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	so := f.confirmedSO(f.customer(), line(p.ID, 4))

	_, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	require.NoError(t, err)
	_, err = f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Equal(t, 6, f.stock(p.ID))
	_, total, err := f.svc.Sales.ListInvoices(f.ctx, f.tenant, repository.DocumentFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestGenerateInvoiceFromDraftIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	so, err := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: f.customer().ID, Items: []LineInput{line(p.ID, 1)},
	})
	require.NoError(t, err)

	_, err = f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 10, f.stock(p.ID))
}

func TestCancelSalesOrder(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	so := f.confirmedSO(f.customer(), line(p.ID, 1))

	so, err := f.svc.Sales.CancelSalesOrder(f.ctx, f.tenant, f.user, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SOStatusCancelled, so.Status)

	_, err = f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.Sales.ConfirmSalesOrder(f.ctx, f.tenant, f.user, so.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSalesOrderRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)

	_, err := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: f.supplier().ID, Items: []LineInput{line(p.ID, 1)},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInvoiceOverdueIsDisplayOnly(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	customer := f.customer()

	so := f.confirmedSO(customer, line(p.ID, 1))
	res, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{InvoiceDate: "2026-01-01", DueDate: "2026-01-31"})
	require.NoError(t, err)
	late := res.Invoice
	current := f.invoice(customer, line(p.ID, 1))

	got, err := f.svc.Sales.GetInvoice(f.ctx, f.tenant, late.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, got.Status)
	assert.Equal(t, model.PaymentStatusOverdue, got.DisplayStatus)

	got, err = f.svc.Sales.GetInvoice(f.ctx, f.tenant, current.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, got.DisplayStatus)

	overdue, total, err := f.svc.Sales.ListInvoices(f.ctx, f.tenant, repository.DocumentFilter{Status: model.PaymentStatusOverdue}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	_, err = f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, late.ID, RecordPaymentInput{Amount: late.TotalAmount, PaymentMethod: model.PaymentMethodCash})
	require.NoError(t, err)
	got, err = f.svc.Sales.GetInvoice(f.ctx, f.tenant, late.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, got.DisplayStatus)
}
