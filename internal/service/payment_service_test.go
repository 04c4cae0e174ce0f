package service

import (
	"sync"
	"testing"

	"erp-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two half payments take an invoice from pending through partial to paid.
func TestInvoicePaymentsSettleInvoice(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 50)
	inv := f.invoice(f.customer(), line(p.ID, 30))
	half := inv.TotalAmount.Div(decimal.NewFromInt(2))

	res, err := f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, inv.ID, RecordPaymentInput{
		Amount: half, PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPartial, res.Status)
	assert.True(t, res.PaidAmount.Equal(half))
	assert.True(t, res.Outstanding.Equal(half))

	res, err = f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, inv.ID, RecordPaymentInput{
		Amount: half, PaymentMethod: model.PaymentMethodUPI, ReferenceNumber: "UPI-991",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, res.Status)
	assert.True(t, res.Outstanding.IsZero())

	got, err := f.svc.Sales.GetInvoice(f.ctx, f.tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, got.Status)
	assert.True(t, got.PaidAmount.Equal(got.TotalAmount))

	payments, err := f.svc.Payments.ListPayments(f.ctx, f.tenant, model.PaymentDocInvoice, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	sum := decimal.Zero
	for _, pay := range payments {
		sum = sum.Add(pay.Amount)
		assert.Equal(t, inv.CustomerID, pay.PartyID)
	}
	assert.True(t, sum.Equal(got.PaidAmount))

	transitions := f.events.named(EventDocumentTransitioned)
	last := transitions[len(transitions)-1].Data.(TransitionEvent)
	assert.Equal(t, model.PaymentStatusPartial, last.From)
	assert.Equal(t, model.PaymentStatusPaid, last.To)
}

func TestOverpaymentIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	bill := f.receivedBill(f.supplier(), line(p.ID, 10)) // 800.00

	_, err := f.svc.Payments.RecordBillPayment(f.ctx, f.tenant, f.user, bill.ID, RecordPaymentInput{
		Amount: dec("500"), PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = f.svc.Payments.RecordBillPayment(f.ctx, f.tenant, f.user, bill.ID, RecordPaymentInput{
		Amount: dec("300.01"), PaymentMethod: model.PaymentMethodCash,
	})
	var over *OverpaymentError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, bill.ID, over.DocumentID)
	assert.True(t, over.Outstanding.Equal(dec("300")))

	got, err := f.svc.Purchases.GetBill(f.ctx, f.tenant, bill.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(dec("500")))
	assert.Equal(t, model.PaymentStatusPartial, got.Status)

	payments, err := f.svc.Payments.ListPayments(f.ctx, f.tenant, model.PaymentDocBill, bill.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPaymentInputValidation(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	bill := f.receivedBill(f.supplier(), line(p.ID, 10))

	tests := []struct {
		name  string
		in    RecordPaymentInput
		field string
	}{
		{"zero amount", RecordPaymentInput{Amount: decimal.Zero, PaymentMethod: model.PaymentMethodCash}, "amount"},
		{"negative amount", RecordPaymentInput{Amount: dec("-5"), PaymentMethod: model.PaymentMethodCash}, "amount"},
		{"sub-cent amount", RecordPaymentInput{Amount: dec("1.005"), PaymentMethod: model.PaymentMethodCash}, "amount"},
		{"unknown method", RecordPaymentInput{Amount: dec("1"), PaymentMethod: "barter"}, "payment_method"},
		{"missing method", RecordPaymentInput{Amount: dec("1")}, "payment_method"},
		{"cheque without reference", RecordPaymentInput{Amount: dec("1"), PaymentMethod: model.PaymentMethodCheque}, "reference_number"},
		{"transfer without reference", RecordPaymentInput{Amount: dec("1"), PaymentMethod: model.PaymentMethodBankTransfer, ReferenceNumber: "  "}, "reference_number"},
		{"bad date", RecordPaymentInput{Amount: dec("1"), PaymentMethod: model.PaymentMethodCash, PaymentDate: "10/03/2026"}, "payment_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Payments.RecordBillPayment(f.ctx, f.tenant, f.user, bill.ID, tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Fields))
			for _, fe := range verr.Fields {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}

	got, err := f.svc.Purchases.GetBill(f.ctx, f.tenant, bill.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestPaymentOnUnknownDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, uuid.New(), RecordPaymentInput{
		Amount: dec("1"), PaymentMethod: model.PaymentMethodCard,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Payments.ListPayments(f.ctx, f.tenant, "receipt", uuid.New())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 0)
	bill := f.receivedBill(f.supplier(), line(p.ID, 10)) // 800.00

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Payments.RecordBillPayment(f.ctx, f.tenant, f.user, bill.ID, RecordPaymentInput{
				Amount: dec("100"), PaymentMethod: model.PaymentMethodCash,
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrOverpayment)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, accepted)
	got, err := f.svc.Purchases.GetBill(f.ctx, f.tenant, bill.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(got.TotalAmount))
	assert.Equal(t, model.PaymentStatusPaid, got.Status)
}

func TestZeroTotalDocumentsAreSettled(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 5)
	free := LineInput{ProductID: p.ID, Quantity: 1, UnitPrice: decPtr("0")}

	bill := f.receivedBill(f.supplier(), free)
	assert.True(t, bill.TotalAmount.IsZero())
	assert.Equal(t, model.PaymentStatusPaid, bill.Status)

	inv := f.invoice(f.customer(), free)
	assert.True(t, inv.TotalAmount.IsZero())
	assert.Equal(t, model.PaymentStatusPaid, inv.Status)

	f.now = f.now.AddDate(0, 3, 0)
	got, err := f.svc.Sales.GetInvoice(f.ctx, f.tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, got.DisplayStatus)

	_, err = f.svc.Payments.RecordInvoicePayment(f.ctx, f.tenant, f.user, inv.ID, RecordPaymentInput{
		Amount: dec("0.01"), PaymentMethod: model.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrOverpayment)
}

func TestSubCentPricesAreRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 5)

	_, err := f.svc.Sales.CreateSalesOrder(f.ctx, f.tenant, f.user, CreateSalesOrderInput{
		CustomerID: f.customer().ID,
		Items:      []LineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: decPtr("0.125")}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "items[0].unit_price", verr.Fields[0].Field)

	_, err = f.svc.Inventory.CreateProduct(f.ctx, f.tenant, f.user, CreateProductInput{
		SKU: "Q", Name: "Quarter", SellingPrice: dec("10.005"),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "selling_price", verr.Fields[0].Field)
}

func TestLineTotalsAreWholeCents(t *testing.T) {
	l := priceLine(uuid.New(), 1, dec("0.125"), dec("18"))
	assert.True(t, l.LineTotal.Sub(l.GSTAmount).Equal(dec("0.13")))
	assert.True(t, l.GSTAmount.Equal(dec("0.02")))

	subtotal, gst, total := sumLines([]pricedLine{l, l})
	assert.True(t, subtotal.Equal(dec("0.26")))
	assert.True(t, gst.Equal(dec("0.04")))
	assert.True(t, total.Equal(dec("0.30")))
}

func TestOverpaymentMessageShowsExactOutstanding(t *testing.T) {
	err := &OverpaymentError{DocumentID: uuid.New(), Amount: dec("0.01"), Outstanding: dec("0.005")}
	assert.Contains(t, err.Error(), "amount 0.01, outstanding 0.005")
}
