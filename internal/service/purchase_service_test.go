package service

import (
	"testing"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Product at 100, PO for 50 received: stock 150 with one +50 purchase movement.
func TestReceivePurchaseOrderAddsStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 100)
	supplier := f.supplier()

	po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Items:      []LineInput{line(p.ID, 50)},
	})
	require.NoError(t, err)
	assert.Equal(t, model.POStatusDraft, po.Status)

	po, err = f.svc.Purchases.SubmitPurchaseOrder(f.ctx, f.tenant, f.user, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusPending, po.Status)
	assert.Equal(t, 100, f.stock(p.ID))

	res, err := f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, model.POStatusReceived, res.Order.Status)
	require.NotNil(t, res.Order.ReceivedAt)
	assert.Equal(t, 150, f.stock(p.ID))

	moves := f.movementsOf(model.RefTypePurchase, po.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, 50, moves[0].Signed())
	assert.Equal(t, 150, moves[0].StockAfter)

	bill := res.Bill
	assert.Equal(t, po.ID, bill.PurchaseOrderID)
	assert.Equal(t, supplier.ID, bill.SupplierID)
	assert.Equal(t, model.PaymentStatusPending, bill.Status)
	assert.True(t, bill.PaidAmount.IsZero())
	assert.True(t, bill.TotalAmount.Equal(dec("4000")))
	require.Len(t, bill.Items, 1)
	assert.Equal(t, 50, bill.Items[0].Quantity)
	f.requireConsistent()
}

func TestReceivePurchaseOrderTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	po := f.pendingPO(f.supplier(), line(p.ID, 20))

	_, err := f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{})
	require.NoError(t, err)

	_, err = f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{})
	var state *InvalidStateError
	require.ErrorAs(t, err, &state)
	assert.Equal(t, model.POStatusReceived, state.Status)

	assert.Equal(t, 20, f.stock(p.ID))
	assert.Len(t, f.movementsOf(model.RefTypePurchase, po.ID), 1)
	bills, total, err := f.svc.Purchases.ListBills(f.ctx, f.tenant, repository.DocumentFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, bills, 1)
}

func TestReceivePurchaseOrderFromDraftIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
		SupplierID: f.supplier().ID,
		Items:      []LineInput{line(p.ID, 5)},
	})
	require.NoError(t, err)

	_, err = f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, f.stock(p.ID))
}

func TestPurchaseOrderTotals(t *testing.T) {
	f := newFixture(t)
	a := f.product("A", 0)
	b := f.product("B", 0)

	po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
		SupplierID: f.supplier().ID,
		Items: []LineInput{
			{ProductID: a.ID, Quantity: 10, UnitPrice: decPtr("100.00"), GSTRate: decPtr("18")},
			{ProductID: b.ID, Quantity: 3, UnitPrice: decPtr("33.33"), GSTRate: decPtr("5")},
		},
	})
	require.NoError(t, err)

	// 1000 + 180 gst, 99.99 + 5.00 gst
	assert.True(t, po.Subtotal.Equal(dec("1099.99")), po.Subtotal.String())
	assert.True(t, po.GSTAmount.Equal(dec("185.00")), po.GSTAmount.String())
	assert.True(t, po.TotalAmount.Equal(dec("1284.99")), po.TotalAmount.String())
	assert.True(t, po.Items[0].LineTotal.Equal(dec("1180")))
	assert.True(t, po.Items[1].GSTAmount.Equal(dec("5.00")))
}

func TestPurchaseOrderNumbering(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	supplier := f.supplier()

	var numbers []string
	for range 3 {
		po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
			SupplierID: supplier.ID, Items: []LineInput{line(p.ID, 1)},
		})
		require.NoError(t, err)
		numbers = append(numbers, po.PONumber)
	}
	assert.Equal(t, []string{"PO-20260310-00001", "PO-20260310-00002", "PO-20260310-00003"}, numbers)

	f.now = f.now.Add(24 * time.Hour)
	po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
		SupplierID: supplier.ID, Items: []LineInput{line(p.ID, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "PO-20260311-00001", po.PONumber)
}

func TestSubmitEmptyPurchaseOrder(t *testing.T) {
	f := newFixture(t)
	po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{SupplierID: f.supplier().ID})
	require.NoError(t, err)

	_, err = f.svc.Purchases.SubmitPurchaseOrder(f.ctx, f.tenant, f.user, po.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Fields[0].Field)
}

func TestCancelPurchaseOrder(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	po := f.pendingPO(f.supplier(), line(p.ID, 5))

	po, err := f.svc.Purchases.CancelPurchaseOrder(f.ctx, f.tenant, f.user, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusCancelled, po.Status)

	_, err = f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.Purchases.CancelPurchaseOrder(f.ctx, f.tenant, f.user, po.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, f.stock(p.ID))
}

func TestReceivedPurchaseOrderCannotBeCancelled(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	bill := f.receivedBill(f.supplier(), line(p.ID, 5))

	_, err := f.svc.Purchases.CancelPurchaseOrder(f.ctx, f.tenant, f.user, bill.PurchaseOrderID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPurchaseOrderRequiresSupplier(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)

	_, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
		SupplierID: f.customer().ID,
		Items:      []LineInput{line(p.ID, 1)},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "supplier_id", verr.Fields[0].Field)
}

func TestBillDueDate(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	terms := 15
	supplier, err := f.svc.Partners.CreatePartner(f.ctx, f.tenant, f.user, CreatePartnerInput{
		Name: "Acme", Type: model.PartnerTypeSupplier, PaymentTerms: &terms,
	})
	require.NoError(t, err)

	po := f.pendingPO(supplier, line(p.ID, 1))
	res, err := f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{BillDate: "2026-03-01"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-16", res.Bill.DueDate.Format(dateLayout))

	po = f.pendingPO(supplier, line(p.ID, 1))
	_, err = f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{BillDate: "2026-03-01", DueDate: "2026-02-01"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due_date", verr.Fields[0].Field)
	assert.Equal(t, 1, f.stock(p.ID))
}
