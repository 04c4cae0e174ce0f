package ledger

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProjectInterleavesByDate(t *testing.T) {
	events := []Event{
		{Date: day(5), DocumentID: uuid.New(), Type: TypePayment, Credit: dec("40")},
		{Date: day(1), DocumentID: uuid.New(), Type: TypeInvoice, Debit: dec("100")},
		{Date: day(9), DocumentID: uuid.New(), Type: TypeInvoice, Debit: dec("25.50")},
		{Date: day(3), DocumentID: uuid.New(), Type: TypeSalesReturn, Credit: dec("10")},
	}

	rows := slices.Collect(Project(decimal.Zero, events))
	require.Len(t, rows, 4)

	assert.Equal(t, []time.Time{day(1), day(3), day(5), day(9)},
		[]time.Time{rows[0].Date, rows[1].Date, rows[2].Date, rows[3].Date})
	assert.True(t, rows[0].RunningBalance.Equal(dec("100")))
	assert.True(t, rows[1].RunningBalance.Equal(dec("90")))
	assert.True(t, rows[2].RunningBalance.Equal(dec("50")))
	assert.True(t, rows[3].RunningBalance.Equal(dec("75.50")))
}

func TestProjectBreaksDateTiesByDocumentID(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	events := []Event{
		{Date: day(2), DocumentID: high, Type: TypePayment, Credit: dec("5")},
		{Date: day(2), DocumentID: low, Type: TypeBill, Debit: dec("20")},
	}

	for range 3 {
		rows := slices.Collect(Project(decimal.Zero, events))
		require.Len(t, rows, 2)
		assert.Equal(t, low, rows[0].DocumentID)
		assert.Equal(t, high, rows[1].DocumentID)
	}
	assert.Equal(t, high, events[0].DocumentID, "input must not be reordered")
}

func TestProjectStopsWhenConsumerBreaks(t *testing.T) {
	events := []Event{
		{Date: day(1), DocumentID: uuid.New(), Debit: dec("1")},
		{Date: day(2), DocumentID: uuid.New(), Debit: dec("1")},
		{Date: day(3), DocumentID: uuid.New(), Debit: dec("1")},
	}

	seen := 0
	for range Project(decimal.Zero, events) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestStatementOpeningBalance(t *testing.T) {
	events := []Event{
		{Date: day(1), DocumentID: uuid.New(), Type: TypeBill, Debit: dec("300")},
		{Date: day(4), DocumentID: uuid.New(), Type: TypePayment, Credit: dec("100")},
		{Date: day(10), DocumentID: uuid.New(), Type: TypeBill, Debit: dec("50")},
		{Date: day(20), DocumentID: uuid.New(), Type: TypePayment, Credit: dec("250")},
	}
	from, to := day(5), day(15)

	rows := slices.Collect(Statement(events, &from, &to))
	require.Len(t, rows, 2)

	assert.Equal(t, TypeOpening, rows[0].Type)
	assert.Equal(t, from, rows[0].Date)
	assert.True(t, rows[0].RunningBalance.Equal(dec("200")))

	assert.Equal(t, TypeBill, rows[1].Type)
	assert.True(t, rows[1].RunningBalance.Equal(dec("250")))

	debit, credit, closing := Totals(rows)
	assert.True(t, debit.Equal(dec("50")))
	assert.True(t, credit.IsZero())
	assert.True(t, closing.Equal(dec("250")))
}

func TestStatementWithoutBounds(t *testing.T) {
	events := []Event{
		{Date: day(1), DocumentID: uuid.New(), Type: TypeInvoice, Debit: dec("10")},
	}

	rows := slices.Collect(Statement(events, nil, nil))
	require.Len(t, rows, 1)
	assert.Equal(t, TypeInvoice, rows[0].Type)
}

func TestTotalsEmpty(t *testing.T) {
	debit, credit, closing := Totals(nil)
	assert.True(t, debit.IsZero())
	assert.True(t, credit.IsZero())
	assert.True(t, closing.IsZero())
}
