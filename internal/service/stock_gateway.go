package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"erp-backend/internal/logger"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
)

const stockModule = "stock"

// StockLine is one requested change of on-hand quantity.
type StockLine struct {
	ProductID uuid.UUID
	Delta     int
	Note      string
}

// StockChange is an applied movement together with the product state after it.
type StockChange struct {
	Movement model.StockMovement
	Product  model.Product
}

// StockChangedEvent is the payload of stock.changed and stock.low.
type StockChangedEvent struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
	ReorderLevel  int       `json:"reorder_level"`
	Delta         int       `json:"delta"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uuid.UUID `json:"reference_id"`
}

// StockGateway is the only writer of products.stock_quantity. Each applied
// line appends exactly one movement and updates the counter in the same
// transaction.
type StockGateway struct {
	deps Deps
}

func NewStockGateway(deps Deps) *StockGateway {
	return &StockGateway{deps: deps.withDefaults()}
}

// Apply writes one movement per product of lines under (referenceType,
// referenceID). Lines of the same product are merged first. Products are
// locked in ascending id order. If any negative line would leave stock below
// zero, every short line is reported and nothing is written. Apply joins the
// caller's transaction when ctx carries one.
func (g *StockGateway) Apply(ctx context.Context, tenantID, userID uuid.UUID, referenceType string, referenceID uuid.UUID, lines []StockLine) ([]StockChange, error) {
	merged, err := mergeLines(referenceType, referenceID, lines)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(merged))
	for i, l := range merged {
		ids[i] = l.ProductID
	}

	store := g.deps.Store
	var changes []StockChange
	err = store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		products, err := g.lockProducts(txCtx, tenantID, ids)
		if err != nil {
			return err
		}

		if err := g.checkReference(txCtx, tenantID, referenceType, referenceID, ids); err != nil {
			return err
		}
		if err := g.checkDrift(txCtx, tenantID, referenceType, referenceID, products); err != nil {
			return err
		}
		byID := make(map[uuid.UUID]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		var short []StockShortfall
		for _, l := range merged {
			p := byID[l.ProductID]
			if l.Delta < 0 && p.StockQuantity+l.Delta < 0 {
				short = append(short, StockShortfall{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   -l.Delta,
					Available:   p.StockQuantity,
				})
			}
		}
		if len(short) > 0 {
			return &InsufficientStockError{DocumentID: referenceID, Lines: short}
		}

		changes = make([]StockChange, 0, len(merged))
		for _, l := range merged {
			p := byID[l.ProductID]
			movement := model.StockMovement{
				TenantID:      tenantID,
				ReferenceType: referenceType,
				ReferenceID:   referenceID,
				ProductID:     p.ID,
				Direction:     model.DirectionIn,
				Quantity:      l.Delta,
				StockAfter:    p.StockQuantity + l.Delta,
				Note:          l.Note,
				CreatedBy:     userRef(userID),
			}
			if l.Delta < 0 {
				movement.Direction = model.DirectionOut
				movement.Quantity = -l.Delta
			}

			if err := store.Movements.Create(txCtx, &movement); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return g.consistency(&ConsistencyError{
						Reason:        ReasonDuplicateReference,
						ReferenceType: referenceType,
						ReferenceID:   referenceID,
						ProductID:     p.ID,
					})
				}
				return fmt.Errorf("failed to append stock movement: %w", err)
			}
			if err := store.Products.UpdateStock(txCtx, tenantID, p.ID, movement.StockAfter); err != nil {
				return fmt.Errorf("failed to update stock of %s: %w", p.ID, err)
			}

			p.StockQuantity = movement.StockAfter
			changes = append(changes, StockChange{Movement: movement, Product: p})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// ApplyOne is Apply for a single product.
func (g *StockGateway) ApplyOne(ctx context.Context, tenantID, userID uuid.UUID, referenceType string, referenceID, productID uuid.UUID, delta int) (model.StockMovement, error) {
	changes, err := g.Apply(ctx, tenantID, userID, referenceType, referenceID, []StockLine{{ProductID: productID, Delta: delta}})
	if err != nil {
		return model.StockMovement{}, err
	}
	return changes[0].Movement, nil
}

// CheckAvailability reports every line whose outbound quantity exceeds stock
// on hand. It takes no locks and writes nothing.
func (g *StockGateway) CheckAvailability(ctx context.Context, tenantID, documentID uuid.UUID, lines []StockLine) error {
	need := make(map[uuid.UUID]int)
	var ids []uuid.UUID
	for _, l := range lines {
		if l.Delta >= 0 {
			continue
		}
		if _, seen := need[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		need[l.ProductID] -= l.Delta
	}
	if len(ids) == 0 {
		return nil
	}
	slices.SortFunc(ids, compareUUID)

	products, err := g.deps.Store.Products.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if missing := missingID(ids, products); missing != uuid.Nil {
		return &NotFoundError{Entity: "product", ID: missing}
	}

	var short []StockShortfall
	for _, p := range products {
		if need[p.ID] > p.StockQuantity {
			short = append(short, StockShortfall{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   need[p.ID],
				Available:   p.StockQuantity,
			})
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{DocumentID: documentID, Lines: short}
	}
	return nil
}

// Announce publishes committed changes. Call it only after the enclosing
// transaction returned nil.
func (g *StockGateway) Announce(tenantID uuid.UUID, changes []StockChange) {
	for _, c := range changes {
		g.deps.Metrics.ObserveMovement(c.Movement.ReferenceType, c.Movement.Direction)
		ev := StockChangedEvent{
			ProductID:     c.Product.ID,
			SKU:           c.Product.SKU,
			Name:          c.Product.Name,
			StockQuantity: c.Product.StockQuantity,
			ReorderLevel:  c.Product.ReorderLevel,
			Delta:         c.Movement.Signed(),
			ReferenceType: c.Movement.ReferenceType,
			ReferenceID:   c.Movement.ReferenceID,
		}
		g.deps.Events.Publish(tenantID, EventStockChanged, ev)
		if c.Product.IsLowStock() {
			g.deps.Events.Publish(tenantID, EventStockLow, ev)
		}
	}
}

// lockProducts row-locks the products of ids, which must be sorted ascending.
func (g *StockGateway) lockProducts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	products, err := g.deps.Store.Products.FindByIDsForUpdate(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	if missing := missingID(ids, products); missing != uuid.Nil {
		return nil, &NotFoundError{Entity: "product", ID: missing}
	}
	return products, nil
}

func (g *StockGateway) checkReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID, ids []uuid.UUID) error {
	existing, err := g.deps.Store.Movements.FindByReference(ctx, tenantID, referenceType, referenceID)
	if err != nil {
		return fmt.Errorf("failed to read movements of %s %s: %w", referenceType, referenceID, err)
	}
	for _, m := range existing {
		if slices.Contains(ids, m.ProductID) {
			return g.consistency(&ConsistencyError{
				Reason:        ReasonDuplicateReference,
				ReferenceType: referenceType,
				ReferenceID:   referenceID,
				ProductID:     m.ProductID,
			})
		}
	}
	return nil
}

func (g *StockGateway) checkDrift(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID, products []model.Product) error {
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	sums, err := g.deps.Store.Movements.SumByProducts(ctx, tenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to sum movements: %w", err)
	}
	for _, p := range products {
		if sums[p.ID] != p.StockQuantity {
			return g.consistency(&ConsistencyError{
				Reason:        ReasonCounterDrift,
				ReferenceType: referenceType,
				ReferenceID:   referenceID,
				ProductID:     p.ID,
				Cached:        p.StockQuantity,
				Ledger:        sums[p.ID],
			})
		}
	}
	return nil
}

// consistency logs err for operators before it aborts the transaction.
func (g *StockGateway) consistency(err *ConsistencyError) error {
	logger.LogError(g.deps.Log, stockModule, "Apply", err.Reason, err, err)
	return err
}

// mergeLines validates lines and folds them into one signed delta per
// product, sorted by product id.
func mergeLines(referenceType string, referenceID uuid.UUID, lines []StockLine) ([]StockLine, error) {
	verr := &ValidationError{}
	if !model.ValidReferenceTypes[referenceType] {
		verr.Add("reference_type", "must be one of: purchase, sale, adjustment, return")
	}
	if referenceID == uuid.Nil {
		verr.Add("reference_id", "is required")
	}
	if len(lines) == 0 {
		verr.Add("lines", "at least one line is required")
	}

	byProduct := make(map[uuid.UUID]*StockLine)
	var order []uuid.UUID
	for i, l := range lines {
		if l.ProductID == uuid.Nil {
			verr.Add(fmt.Sprintf("lines[%d].product_id", i), "is required")
			continue
		}
		if l.Delta == 0 {
			verr.Add(fmt.Sprintf("lines[%d].delta", i), "must not be zero")
			continue
		}
		if m, ok := byProduct[l.ProductID]; ok {
			m.Delta += l.Delta
			if m.Note == "" {
				m.Note = l.Note
			}
			continue
		}
		line := l
		byProduct[l.ProductID] = &line
		order = append(order, l.ProductID)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	slices.SortFunc(order, compareUUID)
	merged := make([]StockLine, 0, len(order))
	for _, id := range order {
		l := byProduct[id]
		if l.Delta == 0 {
			verr.Add("lines", "changes for product %s cancel out", id)
			continue
		}
		merged = append(merged, *l)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return merged, nil
}

// compareUUID orders ids the way postgres orders uuid columns.
func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// missingID returns the first id with no matching product, or uuid.Nil.
func missingID(ids []uuid.UUID, products []model.Product) uuid.UUID {
	found := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return id
		}
	}
	return uuid.Nil
}
