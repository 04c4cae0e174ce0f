package service

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStockInvariantUnderRandomOperations drives random receipts, invoices,
// adjustments and returns and checks after every step that each counter
// equals its movement sum and never goes negative.
func TestStockInvariantUnderRandomOperations(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 2026} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			f := newFixture(t)
			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			supplier := f.supplier()
			customer := f.customer()

			products := make([]*model.Product, 4)
			for i := range products {
				products[i] = f.product(uuid.NewString()[:8], rng.IntN(20))
			}
			pick := func() uuid.UUID { return products[rng.IntN(len(products))].ID }

			var bills, invoices []uuid.UUID
			for step := 0; step < 120; step++ {
				var err error
				switch rng.IntN(5) {
				case 0:
					bill := f.receivedBill(supplier, line(pick(), 1+rng.IntN(15)))
					bills = append(bills, bill.ID)
				case 1:
					so, cerr := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
						CustomerID: customer.ID,
						Items:      []LineInput{line(pick(), 1+rng.IntN(12)), line(pick(), 1+rng.IntN(12))},
					})
					require.NoError(t, cerr)
					if _, err = f.svc.Sales.ConfirmSalesOrder(f.ctx, f.tenant, f.user, so.ID); err == nil {
						var res *InvoiceResult
						if res, err = f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{}); err == nil {
							invoices = append(invoices, res.Invoice.ID)
						}
					}
				case 2:
					delta := 1 + rng.IntN(10)
					if rng.IntN(2) == 0 {
						delta = -delta
					}
					_, err = f.svc.Inventory.AdjustStock(f.ctx, f.tenant, f.user, pick(), AdjustStockInput{Delta: delta})
				case 3:
					if len(invoices) > 0 {
						err = f.randomReturn(rng, model.ReturnTypeSales, invoices[rng.IntN(len(invoices))])
					}
				case 4:
					if len(bills) > 0 {
						err = f.randomReturn(rng, model.ReturnTypePurchase, bills[rng.IntN(len(bills))])
					}
				}
				if err != nil {
					require.True(t, errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrValidation), "step %d: %v", step, err)
				}
				f.requireConsistent()
			}
		})
	}
}

func (f *fixture) randomReturn(rng *rand.Rand, returnType string, sourceID uuid.UUID) error {
	var productID uuid.UUID
	if returnType == model.ReturnTypePurchase {
		bill, err := f.svc.Purchases.GetBill(f.ctx, f.tenant, sourceID)
		require.NoError(f.t, err)
		productID = bill.Items[0].ProductID
	} else {
		inv, err := f.svc.Sales.GetInvoice(f.ctx, f.tenant, sourceID)
		require.NoError(f.t, err)
		productID = inv.Items[0].ProductID
	}

	in := CreateReturnInput{SourceDocumentID: sourceID, Items: []ReturnLineInput{{ProductID: productID, Quantity: 1 + rng.IntN(4)}}}
	create := f.svc.Returns.CreateSalesReturn
	if returnType == model.ReturnTypePurchase {
		create = f.svc.Returns.CreatePurchaseReturn
	}
	ret, err := create(f.ctx, f.tenant, f.user, in)
	if err != nil {
		return err
	}
	if rng.IntN(4) == 0 {
		_, err = f.svc.Returns.RejectReturn(f.ctx, f.tenant, f.user, ret.ID, RejectReturnInput{Reason: "random"})
		return err
	}
	_, err = f.svc.Returns.ApproveReturn(f.ctx, f.tenant, f.user, ret.ID)
	return err
}

// Concurrent invoices against one product may only succeed while stock lasts.
func TestConcurrentInvoicesNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product("HOT", 10)
	customer := f.customer()

	orders := make([]*model.SalesOrder, 8)
	for i := range orders {
		orders[i] = f.confirmedSO(customer, line(p.ID, 3))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		invoiced int
	)
	for _, so := range orders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Sales.GenerateInvoice(f.ctx, f.tenant, f.user, so.ID, GenerateInvoiceInput{})
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientStock)
				return
			}
			mu.Lock()
			invoiced++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 3, invoiced)
	require.Equal(t, 1, f.stock(p.ID))
	f.requireConsistent()
}
