package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"erp-backend/internal/logger"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/repository/memstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type published struct {
	TenantID uuid.UUID
	Event    string
	Data     any
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(tenantID uuid.UUID, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{TenantID: tenantID, Event: event, Data: data})
}

func (r *recorder) named(event string) []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []published
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *repository.Store
	svc    *Services
	events *recorder
	tenant uuid.UUID
	user   uuid.UUID
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  memstore.NewStore(),
		events: &recorder{},
		tenant: uuid.New(),
		user:   uuid.New(),
		now:    testNow,
	}
	f.svc = New(Deps{
		Store:  f.store,
		Events: f.events,
		Log:    logger.Discard(),
		Now:    func() time.Time { return f.now },
	})
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (f *fixture) partner(partnerType string) *model.Partner {
	f.t.Helper()
	p, err := f.svc.Partners.CreatePartner(f.ctx, f.tenant, f.user, CreatePartnerInput{
		Name: partnerType + " " + uuid.NewString()[:8],
		Type: partnerType,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) supplier() *model.Partner { return f.partner(model.PartnerTypeSupplier) }
func (f *fixture) customer() *model.Partner { return f.partner(model.PartnerTypeCustomer) }

// product creates a product with the given opening stock, buying at 80.00
// and selling at 100.00 with no tax.
func (f *fixture) product(sku string, opening int) *model.Product {
	f.t.Helper()
	p, err := f.svc.Inventory.CreateProduct(f.ctx, f.tenant, f.user, CreateProductInput{
		SKU:           sku,
		Name:          "Product " + sku,
		PurchasePrice: dec("80.00"),
		SellingPrice:  dec("100.00"),
		OpeningStock:  opening,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) stock(productID uuid.UUID) int {
	f.t.Helper()
	p, err := f.store.Products.FindByID(f.ctx, f.tenant, productID)
	require.NoError(f.t, err)
	return p.StockQuantity
}

func (f *fixture) movements(productID uuid.UUID) []model.StockMovement {
	f.t.Helper()
	list, _, err := f.store.Movements.ListByProduct(f.ctx, f.tenant, productID, 1, 0)
	require.NoError(f.t, err)
	return list
}

func (f *fixture) movementsOf(referenceType string, referenceID uuid.UUID) []model.StockMovement {
	f.t.Helper()
	list, err := f.store.Movements.FindByReference(f.ctx, f.tenant, referenceType, referenceID)
	require.NoError(f.t, err)
	return list
}

// requireConsistent asserts that every counter equals its movement sum and
// never went below zero.
func (f *fixture) requireConsistent() {
	f.t.Helper()
	audit, err := f.svc.Inventory.VerifyAllStock(f.ctx, f.tenant)
	require.NoError(f.t, err)
	require.Empty(f.t, audit.Drifts)

	ids, err := f.store.Products.ListIDs(f.ctx, f.tenant)
	require.NoError(f.t, err)
	for _, id := range ids {
		require.GreaterOrEqual(f.t, f.stock(id), 0)
		for _, m := range f.movements(id) {
			require.GreaterOrEqual(f.t, m.StockAfter, 0)
		}
	}
}

func (f *fixture) pendingPO(supplier *model.Partner, lines ...LineInput) *model.PurchaseOrder {
	f.t.Helper()
	po, err := f.svc.Purchases.CreatePurchaseOrder(f.ctx, f.tenant, f.user, CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Items:      lines,
	})
	require.NoError(f.t, err)
	po, err = f.svc.Purchases.SubmitPurchaseOrder(f.ctx, f.tenant, f.user, po.ID)
	require.NoError(f.t, err)
	return po
}

func (f *fixture) receivedBill(supplier *model.Partner, lines ...LineInput) *model.Bill {
	f.t.Helper()
	po := f.pendingPO(supplier, lines...)
	res, err := f.svc.Purchases.ReceivePurchaseOrder(f.ctx, f.tenant, f.user, po.ID, ReceivePurchaseOrderInput{})
	require.NoError(f.t, err)
	return res.Bill
}

func (f *fixture) confirmedSO(customer *model.Partner, lines ...LineInput) *model.SalesOrder {
	f.t.Helper()
	so, err := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: customer.ID,
		Items:      lines,
	})
	require.NoError(f.t, err)
	so, err = f.svc.Sales.ConfirmSalesOrder(f.ctx, f.tenant, f.user, so.ID)
	require.NoError(f.t, err)
	return so
}

func (f *fixture) invoice(customer *model.Partner, lines ...LineInput) *model.Invoice {
	f.t.Helper()
	so := f.confirmedSO(customer, lines...)
	res, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
	require.NoError(f.t, err)
	return res.Invoice
}

func line(productID uuid.UUID, qty int) LineInput {
	return LineInput{ProductID: productID, Quantity: qty}
}
