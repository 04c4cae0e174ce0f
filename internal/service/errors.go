package service

import (
	"errors"
	"fmt"
	"strings"

	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrConsistency       = errors.New("stock ledger inconsistency")
	ErrOverpayment       = errors.New("payment exceeds outstanding balance")
	ErrNotFound          = errors.New("not found")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input. Nothing was written.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a field problem and returns e for chaining.
func (e *ValidationError) Add(field, format string, args ...any) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	return e
}

// OrNil returns nil when no field was rejected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, format string, args ...any) error {
	return (&ValidationError{}).Add(field, format, args...)
}

// StockShortfall is one line that cannot be covered by stock on hand.
type StockShortfall struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// InsufficientStockError lists every short line of one document.
type InsufficientStockError struct {
	DocumentID uuid.UUID        `json:"document_id"`
	Lines      []StockShortfall `json:"lines"`
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s requested %d, available %d", l.ProductID, l.Requested, l.Available))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientStock, strings.Join(parts, "; "))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidStateError rejects a transition the document's status does not allow.
type InvalidStateError struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Action string    `json:"action"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s %s %s in status %q", ErrInvalidState, e.Action, e.Entity, e.ID, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// Consistency error reasons
const (
	ReasonDuplicateReference = "duplicate_reference"
	ReasonCounterDrift       = "counter_drift"
)

// ConsistencyError means the movement log and the cached counter disagree,
// or a reference was already applied. The whole operation is aborted.
type ConsistencyError struct {
	Reason        string    `json:"reason"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uuid.UUID `json:"reference_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Cached        int       `json:"cached,omitempty"`
	Ledger        int       `json:"ledger,omitempty"`
}

func (e *ConsistencyError) Error() string {
	if e.Reason == ReasonCounterDrift {
		return fmt.Sprintf("%s: product %s stock_quantity %d but movements sum to %d",
			ErrConsistency, e.ProductID, e.Cached, e.Ledger)
	}
	return fmt.Sprintf("%s: %s %s already applied to product %s",
		ErrConsistency, e.ReferenceType, e.ReferenceID, e.ProductID)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// OverpaymentError rejects a payment larger than the outstanding balance.
type OverpaymentError struct {
	DocumentID  uuid.UUID       `json:"document_id"`
	Amount      decimal.Decimal `json:"amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("%s: amount %s, outstanding %s on %s",
		ErrOverpayment, e.Amount.String(), e.Outstanding.String(), e.DocumentID)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

type NotFoundError struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s %s", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// notFound converts repository.ErrNotFound into a NotFoundError and wraps
// anything else as an infrastructure failure.
func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

// ErrorKind names the error class for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConsistency):
		return "consistency"
	case errors.Is(err, ErrOverpayment):
		return "overpayment"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
