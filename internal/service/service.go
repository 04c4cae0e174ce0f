package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"erp-backend/internal/lock"
	"erp-backend/internal/metrics"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event names pushed to connected clients.
const (
	EventStockChanged         = "stock.changed"
	EventStockLow             = "stock.low"
	EventDocumentTransitioned = "document.transitioned"
)

// Lock kinds, one per document type that has transitions.
const (
	lockPurchaseOrder = "purchase_order"
	lockSalesOrder    = "sales_order"
	lockReturn        = "return"
	lockBill          = "bill"
	lockInvoice       = "invoice"
)

// EventPublisher fans out committed changes to the tenant's clients.
type EventPublisher interface {
	Publish(tenantID uuid.UUID, event string, data any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(uuid.UUID, string, any) {}

// Deps carries the collaborators every service shares.
type Deps struct {
	Store   *repository.Store
	Locker  lock.Locker
	Events  EventPublisher
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker()
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Services is the full set of business operations over one backend.
type Services struct {
	Stock     *StockGateway
	Inventory InventoryService
	Purchases PurchaseService
	Sales     SalesService
	Returns   ReturnService
	Payments  PaymentService
	Ledgers   LedgerService
	Partners  PartnerService
	Audit     AuditService
}

func New(deps Deps) *Services {
	deps = deps.withDefaults()
	gateway := NewStockGateway(deps)
	numberer := NewDocumentNumberer(deps.Store.Sequences, deps.Now)
	return &Services{
		Stock:     gateway,
		Inventory: NewInventoryService(deps, gateway),
		Purchases: NewPurchaseService(deps, gateway, numberer),
		Sales:     NewSalesService(deps, gateway, numberer),
		Returns:   NewReturnService(deps, gateway, numberer),
		Payments:  NewPaymentService(deps),
		Ledgers:   NewLedgerService(deps),
		Partners:  NewPartnerService(deps),
		Audit:     NewAuditService(deps),
	}
}

// TransitionEvent is the payload of document.transitioned.
type TransitionEvent struct {
	Document string    `json:"document"`
	ID       uuid.UUID `json:"id"`
	Number   string    `json:"number"`
	From     string    `json:"from"`
	To       string    `json:"to"`
}

func (d Deps) announceTransition(tenantID uuid.UUID, ev TransitionEvent) {
	d.Metrics.ObserveTransition(ev.Document, ev.To)
	d.Events.Publish(tenantID, EventDocumentTransitioned, ev)
}

// withDocumentLock serializes transitions of one document.
func (d Deps) withDocumentLock(ctx context.Context, kind string, tenantID, id uuid.UUID, fn func() error) error {
	release, err := d.Locker.Lock(ctx, lock.Key(kind, tenantID, id))
	if err != nil {
		return fmt.Errorf("lock %s %s: %w", kind, id, err)
	}
	defer release()
	return fn()
}

// failed records the error kind of a rejected operation and returns err.
func (d Deps) failed(err error) error {
	if err != nil {
		d.Metrics.ObserveError(ErrorKind(err))
	}
	return err
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, tenantID, userID uuid.UUID, action, entityID, entityName string, details any) error {
	var uid *uuid.UUID
	if userID != uuid.Nil {
		uid = &userID
	}

	payload := "{}"
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		payload = string(b)
	}

	entry := &model.AuditLog{
		TenantID:   tenantID,
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func userRef(userID uuid.UUID) *uuid.UUID {
	if userID == uuid.Nil {
		return nil
	}
	return &userID
}

// dateOnly drops the clock part of t in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

const dateLayout = "2006-01-02"

// parseDate reads a YYYY-MM-DD field. An empty value yields def.
func parseDate(verr *ValidationError, field, value string, def time.Time) time.Time {
	if value == "" {
		return def
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		verr.Add(field, "must be a date in YYYY-MM-DD form")
		return def
	}
	return t
}

func parseOptionalDate(verr *ValidationError, field, value string) *time.Time {
	if value == "" {
		return nil
	}
	t := parseDate(verr, field, value, time.Time{})
	if t.IsZero() {
		return nil
	}
	return &t
}
