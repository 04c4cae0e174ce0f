package service

import (
	"errors"
	"testing"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyWritesOneMovementPerProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product("A-1", 10)
	ref := uuid.New()

	changes, err := f.svc.Stock.Apply(f.ctx, f.tenant, f.user, model.RefTypeAdjustment, ref, []StockLine{
		{ProductID: p.ID, Delta: 5},
		{ProductID: p.ID, Delta: -2},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)

	m := changes[0].Movement
	assert.Equal(t, model.DirectionIn, m.Direction)
	assert.Equal(t, 3, m.Quantity)
	assert.Equal(t, 13, m.StockAfter)
	assert.Equal(t, 13, f.stock(p.ID))
	assert.Len(t, f.movementsOf(model.RefTypeAdjustment, ref), 1)
	f.requireConsistent()
}

func TestApplyRejectsDuplicateReference(t *testing.T) {
	f := newFixture(t)
	p := f.product("A-1", 10)
	ref := uuid.New()

	_, err := f.svc.Stock.ApplyOne(f.ctx, f.tenant, f.user, model.RefTypePurchase, ref, p.ID, 4)
	require.NoError(t, err)

	_, err = f.svc.Stock.ApplyOne(f.ctx, f.tenant, f.user, model.RefTypePurchase, ref, p.ID, 4)
	var cerr *ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonDuplicateReference, cerr.Reason)
	assert.Equal(t, 14, f.stock(p.ID))
	assert.Len(t, f.movementsOf(model.RefTypePurchase, ref), 1)
}

func TestApplyReportsEveryShortLineAndWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.product("A-1", 5)
	b := f.product("B-1", 1)
	c := f.product("C-1", 50)
	ref := uuid.New()

	_, err := f.svc.Stock.Apply(f.ctx, f.tenant, f.user, model.RefTypeSale, ref, []StockLine{
		{ProductID: a.ID, Delta: -6},
		{ProductID: b.ID, Delta: -3},
		{ProductID: c.ID, Delta: -10},
	})
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Lines, 2)

	byProduct := map[uuid.UUID]StockShortfall{}
	for _, l := range short.Lines {
		byProduct[l.ProductID] = l
	}
	assert.Equal(t, StockShortfall{ProductID: a.ID, ProductName: a.Name, Requested: 6, Available: 5}, byProduct[a.ID])
	assert.Equal(t, StockShortfall{ProductID: b.ID, ProductName: b.Name, Requested: 3, Available: 1}, byProduct[b.ID])

	assert.Equal(t, 5, f.stock(a.ID))
	assert.Equal(t, 1, f.stock(b.ID))
	assert.Equal(t, 50, f.stock(c.ID))
	assert.Empty(t, f.movementsOf(model.RefTypeSale, ref))
}

func TestApplyAllowsStockToReachZero(t *testing.T) {
	f := newFixture(t)
	p := f.product("A-1", 7)

	m, err := f.svc.Stock.ApplyOne(f.ctx, f.tenant, f.user, model.RefTypeSale, uuid.New(), p.ID, -7)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionOut, m.Direction)
	assert.Equal(t, 7, m.Quantity)
	assert.Equal(t, 0, m.StockAfter)
	assert.Equal(t, -7, m.Signed())
}

func TestApplyDetectsCounterDrift(t *testing.T) {
	f := newFixture(t)
	p := f.product("A-1", 10)
	require.NoError(t, f.store.Products.UpdateStock(f.ctx, f.tenant, p.ID, 25))

	_, err := f.svc.Stock.ApplyOne(f.ctx, f.tenant, f.user, model.RefTypeAdjustment, uuid.New(), p.ID, 1)
	var cerr *ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonCounterDrift, cerr.Reason)
	assert.Equal(t, 25, cerr.Cached)
	assert.Equal(t, 10, cerr.Ledger)
	assert.Len(t, f.movements(p.ID), 1)
}

func TestApplyValidatesInput(t *testing.T) {
	f := newFixture(t)
	p := f.product("A-1", 10)

	tests := []struct {
		name    string
		refType string
		refID   uuid.UUID
		lines   []StockLine
		field   string
	}{
		{"zero delta", model.RefTypeAdjustment, uuid.New(), []StockLine{{ProductID: p.ID}}, "lines[0].delta"},
		{"unknown reference type", "transfer", uuid.New(), []StockLine{{ProductID: p.ID, Delta: 1}}, "reference_type"},
		{"missing reference", model.RefTypeAdjustment, uuid.Nil, []StockLine{{ProductID: p.ID, Delta: 1}}, "reference_id"},
		{"no lines", model.RefTypeAdjustment, uuid.New(), nil, "lines"},
		{"lines cancel out", model.RefTypeAdjustment, uuid.New(), []StockLine{{ProductID: p.ID, Delta: 2}, {ProductID: p.ID, Delta: -2}}, "lines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Stock.Apply(f.ctx, f.tenant, f.user, tt.refType, tt.refID, tt.lines)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
	assert.Equal(t, 10, f.stock(p.ID))
}

func TestApplyUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Stock.ApplyOne(f.ctx, f.tenant, f.user, model.RefTypeAdjustment, uuid.New(), uuid.New(), 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplyIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	p := f.product("A-1", 10)

	_, err := f.svc.Stock.ApplyOne(f.ctx, uuid.New(), f.user, model.RefTypeAdjustment, uuid.New(), p.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 10, f.stock(p.ID))
}

func TestAnnouncePublishesLowStock(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Inventory.CreateProduct(f.ctx, f.tenant, f.user, CreateProductInput{
		SKU: "LOW-1", Name: "Low", ReorderLevel: 5, OpeningStock: 8,
	})
	require.NoError(t, err)
	require.Empty(t, f.events.named(EventStockLow))

	_, err = f.svc.Inventory.AdjustStock(f.ctx, f.tenant, f.user, p.ID, AdjustStockInput{Delta: -4})
	require.NoError(t, err)

	low := f.events.named(EventStockLow)
	require.Len(t, low, 1)
	ev := low[0].Data.(StockChangedEvent)
	assert.Equal(t, 4, ev.StockQuantity)
	assert.Equal(t, -4, ev.Delta)
	assert.Equal(t, f.tenant, low[0].TenantID)
	assert.Len(t, f.events.named(EventStockChanged), 2)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	a := f.product("A-1", 3)
	b := f.product("B-1", 10)
	doc := uuid.New()

	require.NoError(t, f.svc.Stock.CheckAvailability(f.ctx, f.tenant, doc, []StockLine{
		{ProductID: a.ID, Delta: -3}, {ProductID: b.ID, Delta: -10},
	}))

	err := f.svc.Stock.CheckAvailability(f.ctx, f.tenant, doc, []StockLine{
		{ProductID: a.ID, Delta: -2}, {ProductID: a.ID, Delta: -2}, {ProductID: b.ID, Delta: -1},
	})
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, doc, short.DocumentID)
	require.Len(t, short.Lines, 1)
	assert.Equal(t, 4, short.Lines[0].Requested)
	assert.Equal(t, 3, short.Lines[0].Available)
	assert.Empty(t, f.movementsOf(model.RefTypeSale, doc))
}
