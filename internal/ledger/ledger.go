// Package ledger replays a party's documents into running-balance rows.
// Nothing here is stored: every statement is recomputed from its events.
package ledger

import (
	"bytes"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row types
const (
	TypeOpening        = "opening"
	TypeBill           = "bill"
	TypeInvoice        = "invoice"
	TypePayment        = "payment"
	TypePurchaseReturn = "purchase_return"
	TypeSalesReturn    = "sales_return"
)

// Event is one document's effect on a party balance.
type Event struct {
	Date       time.Time
	DocumentID uuid.UUID
	Type       string
	Reference  string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}

// Entry is one ledger row.
type Entry struct {
	Date           time.Time       `json:"date"`
	Type           string          `json:"type"`
	Reference      string          `json:"reference"`
	DocumentID     uuid.UUID       `json:"document_id"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Sort orders events by date, then document id, keeping input order for full ties.
func Sort(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return bytes.Compare(a.DocumentID[:], b.DocumentID[:])
	})
}

// Project sorts a copy of events and yields one entry per event with the
// balance accumulated from opening as running_balance += debit - credit.
func Project(opening decimal.Decimal, events []Event) iter.Seq[Entry] {
	sorted := slices.Clone(events)
	Sort(sorted)

	return func(yield func(Entry) bool) {
		balance := opening
		for _, ev := range sorted {
			balance = balance.Add(ev.Debit).Sub(ev.Credit)
			if !yield(Entry{
				Date:           ev.Date,
				Type:           ev.Type,
				Reference:      ev.Reference,
				DocumentID:     ev.DocumentID,
				Debit:          ev.Debit,
				Credit:         ev.Credit,
				RunningBalance: balance,
			}) {
				return
			}
		}
	}
}

// Window splits events on [from, to]. Events dated before from fold into the
// opening balance; events after to are dropped. Nil bounds are open.
func Window(events []Event, from, to *time.Time) (decimal.Decimal, []Event) {
	opening := decimal.Zero
	inRange := make([]Event, 0, len(events))
	for _, ev := range events {
		switch {
		case from != nil && ev.Date.Before(*from):
			opening = opening.Add(ev.Debit).Sub(ev.Credit)
		case to != nil && ev.Date.After(*to):
		default:
			inRange = append(inRange, ev)
		}
	}
	return opening, inRange
}

// Statement yields the rows of a date-bounded statement. When from is set
// the first row carries the opening balance.
func Statement(events []Event, from, to *time.Time) iter.Seq[Entry] {
	opening, inRange := Window(events, from, to)
	rows := Project(opening, inRange)

	return func(yield func(Entry) bool) {
		if from != nil {
			if !yield(Entry{
				Date:           *from,
				Type:           TypeOpening,
				Debit:          decimal.Zero,
				Credit:         decimal.Zero,
				RunningBalance: opening,
			}) {
				return
			}
		}
		for entry := range rows {
			if !yield(entry) {
				return
			}
		}
	}
}

// Totals sums the debit and credit columns and returns the closing balance.
func Totals(entries []Entry) (debit, credit, closing decimal.Decimal) {
	debit, credit, closing = decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
		closing = e.RunningBalance
	}
	return debit, credit, closing
}
