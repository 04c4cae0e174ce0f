package service

import (
	"testing"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePartner(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Partners.CreatePartner(f.ctx, f.tenant, f.user, CreatePartnerInput{
		Name: "  Nova Traders ", Type: model.PartnerTypeBoth, GSTIN: "27aapfu0939f1zv", Email: "ap@nova.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nova Traders", p.Name)
	assert.Equal(t, "27AAPFU0939F1ZV", p.GSTIN)
	assert.Equal(t, 30, p.PaymentTerms)
	assert.True(t, p.IsActive)
	assert.True(t, p.IsSupplier())
	assert.True(t, p.IsCustomer())

	_, err = f.svc.Partners.CreatePartner(f.ctx, f.tenant, f.user, CreatePartnerInput{Name: "X", Type: "vendor", Email: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestInactivePartnerCannotTrade(t *testing.T) {
	f := newFixture(t)
	product := f.product("P", 10)
	customer := f.customer()
	inactive := false

	_, err := f.svc.Partners.UpdatePartner(f.ctx, f.tenant, f.user, customer.ID, UpdatePartnerInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: customer.ID, Items: []LineInput{line(product.ID, 1)},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListPartners(t *testing.T) {
	f := newFixture(t)
	f.supplier()
	f.supplier()
	f.customer()

	list, total, err := f.svc.Partners.ListPartners(f.ctx, f.tenant, model.PartnerTypeSupplier, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, err = f.svc.Partners.GetPartner(f.ctx, uuid.New(), list[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionsAreAudited(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	bill := f.receivedBill(f.supplier(), line(p.ID, 3))

	logs, total, err := f.svc.Audit.ListAuditLogs(f.ctx, f.tenant, bill.PurchaseOrderID.String(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	actions := map[string]bool{}
	for _, l := range logs {
		actions[l.Action] = true
		assert.Equal(t, f.user.String(), l.UserID)
	}
	assert.True(t, actions[model.ActionCreatePurchaseOrder])
	assert.True(t, actions[model.ActionSubmitPurchaseOrder])
	assert.True(t, actions[model.ActionReceivePurchaseOrder])
}
