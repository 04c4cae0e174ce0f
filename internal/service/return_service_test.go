package service

import (
	"testing"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesReturn(f *fixture, invoiceID uuid.UUID, items ...ReturnLineInput) *model.Return {
	f.t.Helper()
	ret, err := f.svc.Returns.CreateSalesReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: invoiceID, Reason: "damaged in transit", Items: items,
	})
	require.NoError(f.t, err)
	return ret
}

// 5 units back from a 30-unit invoice: stock 120 -> 125 with one +5 return movement.
func TestApproveSalesReturnRestocks(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 150)
	inv := f.invoice(f.customer(), line(p.ID, 30))
	require.Equal(t, 120, f.stock(p.ID))

	ret := salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 5})
	assert.Equal(t, model.ReturnStatusPending, ret.Status)
	assert.Equal(t, "SR-20260310-00001", ret.ReturnNumber)
	assert.Equal(t, inv.CustomerID, ret.PartyID)
	assert.True(t, ret.TotalAmount.Equal(dec("500")))
	assert.Equal(t, 120, f.stock(p.ID))

	ret, err := f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusApproved, ret.Status)
	require.NotNil(t, ret.DecidedAt)
	assert.Equal(t, 125, f.stock(p.ID))

	moves := f.movementsOf(model.RefTypeReturn, ret.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, 5, moves[0].Signed())

	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 125, f.stock(p.ID))
	f.requireConsistent()
}

func TestRejectReturnLeavesStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 150)
	inv := f.invoice(f.customer(), line(p.ID, 30))
	ret := salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 5})

	_, err := f.svc.Returns.RejectReturn(f.ctx, f.tenant, f.user, ret.ID, RejectReturnInput{})
	assert.ErrorIs(t, err, ErrValidation)

	ret, err = f.svc.Returns.RejectReturn(f.ctx, f.tenant, f.user, ret.ID, RejectReturnInput{Reason: "not our goods"})
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusRejected, ret.Status)
	assert.Equal(t, "not our goods", ret.RejectionReason)
	assert.Equal(t, 120, f.stock(p.ID))
	assert.Empty(t, f.movementsOf(model.RefTypeReturn, ret.ID))

	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 120, f.stock(p.ID))
}

func TestReturnCannotExceedDocumentQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 100)
	other := f.product("O", 100)
	inv := f.invoice(f.customer(), line(p.ID, 10))

	_, err := f.svc.Returns.CreateSalesReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: inv.ID,
		Items:            []ReturnLineInput{{ProductID: p.ID, Quantity: 6}, {ProductID: p.ID, Quantity: 5}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].quantity", verr.Fields[0].Field)

	_, err = f.svc.Returns.CreateSalesReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: inv.ID,
		Items:            []ReturnLineInput{{ProductID: other.ID, Quantity: 1}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].product_id", verr.Fields[0].Field)

	// Two pending returns each fit, but only the first can be approved.
	first := salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 7})
	second := salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 4})
	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, first.ID)
	require.NoError(t, err)
	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, second.ID)
	require.ErrorAs(t, err, &verr)

	got, err := f.svc.Returns.GetReturn(f.ctx, f.tenant, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusPending, got.Status)
	assert.Equal(t, 97, f.stock(p.ID))

	third := salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 3})
	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, third.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, f.stock(p.ID))
	f.requireConsistent()
}

func TestPurchaseReturnRemovesStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	bill := f.receivedBill(f.supplier(), line(p.ID, 20))

	ret, err := f.svc.Returns.CreatePurchaseReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: bill.ID,
		Items:            []ReturnLineInput{{ProductID: p.ID, Quantity: 8}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PR-20260310-00001", ret.ReturnNumber)
	assert.True(t, ret.TotalAmount.Equal(dec("640")))

	// Sell most of the goods before the return is approved.
	f.invoice(f.customer(), line(p.ID, 15))

	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 8, short.Lines[0].Requested)
	assert.Equal(t, 5, short.Lines[0].Available)
	assert.Equal(t, 5, f.stock(p.ID))

	_, err = f.svc.Inventory.AdjustStock(f.ctx, f.tenant, f.user, p.ID, AdjustStockInput{Delta: 10, Note: "found in back room"})
	require.NoError(t, err)
	ret, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(p.ID))

	moves := f.movementsOf(model.RefTypeReturn, ret.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, -8, moves[0].Signed())
	f.requireConsistent()
}

func TestReturnSourceRules(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	inv := f.invoice(f.customer(), line(p.ID, 2))

	// An invoice id is not a bill.
	_, err := f.svc.Returns.CreatePurchaseReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: inv.ID, Items: []ReturnLineInput{{ProductID: p.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Returns.CreateSalesReturn(f.ctx, f.tenant, f.user, CreateReturnInput{
		SourceDocumentID: inv.ID, ReturnDate: "2026-03-01", Items: []ReturnLineInput{{ProductID: p.ID, Quantity: 1}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "return_date", verr.Fields[0].Field)

	_, err = f.svc.Returns.CreateSalesReturn(f.ctx, f.tenant, f.user, CreateReturnInput{SourceDocumentID: inv.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListReturns(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 10)
	inv := f.invoice(f.customer(), line(p.ID, 4))
	salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 1})
	approved := salesReturn(f, inv.ID, ReturnLineInput{ProductID: p.ID, Quantity: 1})
	_, err := f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, approved.ID)
	require.NoError(t, err)

	list, total, err := f.svc.Returns.ListReturns(f.ctx, f.tenant, repository.DocumentFilter{Type: model.ReturnTypeSales}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, _, err = f.svc.Returns.ListReturns(f.ctx, f.tenant, repository.DocumentFilter{Status: model.ReturnStatusApproved}, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)

	_, _, err = f.svc.Returns.ListReturns(f.ctx, f.tenant, repository.DocumentFilter{Type: "exchange"}, 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}
