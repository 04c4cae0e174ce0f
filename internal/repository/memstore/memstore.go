// Package memstore is an in-memory backend for every repository. Transactions
// run one at a time against a private copy of the data that replaces the
// committed copy only when the callback returns nil.
package memstore

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

type txKey struct{}

type sequenceKey struct {
	tenantID uuid.UUID
	prefix   string
	day      string
}

type state struct {
	products       map[uuid.UUID]model.Product
	movements      []model.StockMovement
	purchaseOrders map[uuid.UUID]model.PurchaseOrder
	bills          map[uuid.UUID]model.Bill
	salesOrders    map[uuid.UUID]model.SalesOrder
	invoices       map[uuid.UUID]model.Invoice
	payments       []model.Payment
	returns        map[uuid.UUID]model.Return
	partners       map[uuid.UUID]model.Partner
	audit          []model.AuditLog
	sequences      map[sequenceKey]int64
}

func newState() *state {
	return &state{
		products:       make(map[uuid.UUID]model.Product),
		purchaseOrders: make(map[uuid.UUID]model.PurchaseOrder),
		bills:          make(map[uuid.UUID]model.Bill),
		salesOrders:    make(map[uuid.UUID]model.SalesOrder),
		invoices:       make(map[uuid.UUID]model.Invoice),
		returns:        make(map[uuid.UUID]model.Return),
		partners:       make(map[uuid.UUID]model.Partner),
		sequences:      make(map[sequenceKey]int64),
	}
}

// clone copies the containers. Stored values are never mutated in place,
// so sharing their item slices between copies is safe.
func (s *state) clone() *state {
	return &state{
		products:       maps.Clone(s.products),
		movements:      slices.Clone(s.movements),
		purchaseOrders: maps.Clone(s.purchaseOrders),
		bills:          maps.Clone(s.bills),
		salesOrders:    maps.Clone(s.salesOrders),
		invoices:       maps.Clone(s.invoices),
		payments:       slices.Clone(s.payments),
		returns:        maps.Clone(s.returns),
		partners:       maps.Clone(s.partners),
		audit:          slices.Clone(s.audit),
		sequences:      maps.Clone(s.sequences),
	}
}

// DB holds the committed state.
type DB struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	cur  *state
	now  func() time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{cur: newState(), now: time.Now}
}

// NewStore returns a repository.Store backed by a fresh in-memory database.
func NewStore() *repository.Store {
	return New().Store()
}

// Store wires every repository over db.
func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Tx:             db,
		Products:       &productRepo{db},
		Movements:      &movementRepo{db},
		PurchaseOrders: &purchaseOrderRepo{db},
		Bills:          &billRepo{db},
		SalesOrders:    &salesOrderRepo{db},
		Invoices:       &invoiceRepo{db},
		Payments:       &paymentRepo{db},
		Returns:        &returnRepo{db},
		Partners:       &partnerRepo{db},
		Audit:          &auditRepo{db},
		Sequences:      &sequenceRepo{db},
	}
}

func (db *DB) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	work := db.cur.clone()
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, work)); err != nil {
		return err
	}

	db.mu.Lock()
	db.cur = work
	db.mu.Unlock()
	return nil
}

func (db *DB) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.cur)
}

func (db *DB) write(ctx context.Context, fn func(st *state) error) error {
	return db.RunInTx(ctx, func(txCtx context.Context) error {
		return fn(txCtx.Value(txKey{}).(*state))
	})
}

func (db *DB) stamp(id *uuid.UUID, createdAt, updatedAt *time.Time) {
	now := db.now()
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt != nil {
		*updatedAt = now
	}
}

func compareID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func newestFirst(aAt, bAt time.Time, aID, bID uuid.UUID) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return compareID(bID, aID)
}

func paginate[T any](items []T, page, limit int) []T {
	if limit < 1 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func onOrBefore(at time.Time, to *time.Time) bool {
	return to == nil || !at.After(*to)
}
