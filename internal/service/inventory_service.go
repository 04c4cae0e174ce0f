package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type CreateProductInput struct {
	SKU           string          `json:"sku" binding:"required,max=100"`
	Name          string          `json:"name" binding:"required,max=255"`
	Unit          string          `json:"unit" binding:"max=20"`
	ReorderLevel  int             `json:"reorder_level" binding:"gte=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	OpeningStock  int             `json:"opening_stock" binding:"gte=0"`
}

type UpdateProductInput struct {
	SKU           *string          `json:"sku" binding:"omitempty,min=1,max=100"`
	Name          *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Unit          *string          `json:"unit" binding:"omitempty,max=20"`
	ReorderLevel  *int             `json:"reorder_level" binding:"omitempty,gte=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
}

type AdjustStockInput struct {
	Delta int    `json:"delta" binding:"required"`
	Note  string `json:"note" binding:"max=500"`
	// AdjustmentID makes a retried adjustment idempotent. A fresh id is used when nil.
	AdjustmentID *uuid.UUID `json:"adjustment_id"`
}

// StockDrift compares a product's cached counter with its movement log.
type StockDrift struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Cached    int       `json:"cached"`
	Ledger    int       `json:"ledger"`
	Drift     int       `json:"drift"`
}

type StockAudit struct {
	Checked int          `json:"checked"`
	Drifts  []StockDrift `json:"drifts"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, tenantID, userID uuid.UUID, in CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, tenantID, userID, id uuid.UUID, in UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, tenantID, userID, id uuid.UUID) error
	GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error)
	ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error)
	AdjustStock(ctx context.Context, tenantID, userID, productID uuid.UUID, in AdjustStockInput) (*model.StockMovement, error)
	ListMovements(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
	VerifyStock(ctx context.Context, tenantID, productID uuid.UUID) (StockDrift, error)
	VerifyAllStock(ctx context.Context, tenantID uuid.UUID) (StockAudit, error)
}

type inventoryService struct {
	deps    Deps
	gateway *StockGateway
}

func NewInventoryService(deps Deps, gateway *StockGateway) InventoryService {
	return &inventoryService{deps: deps.withDefaults(), gateway: gateway}
}

func (s *inventoryService) CreateProduct(ctx context.Context, tenantID, userID uuid.UUID, in CreateProductInput) (*model.Product, error) {
	verr := validateInput(in)
	checkAmount(verr, "purchase_price", in.PurchasePrice)
	checkAmount(verr, "selling_price", in.SellingPrice)
	checkRate(verr, "tax_rate", in.TaxRate)
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	unit := in.Unit
	if unit == "" {
		unit = "pcs"
	}
	product := model.Product{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SKU:           strings.TrimSpace(in.SKU),
		Name:          strings.TrimSpace(in.Name),
		Unit:          unit,
		ReorderLevel:  in.ReorderLevel,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		TaxRate:       in.TaxRate,
	}

	var changes []StockChange
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.deps.Store.Products.Create(txCtx, &product); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalid("sku", "%q is already in use", product.SKU)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}

		if in.OpeningStock > 0 {
			var err error
			changes, err = s.gateway.Apply(txCtx, tenantID, userID, model.RefTypeAdjustment, product.ID, []StockLine{
				{ProductID: product.ID, Delta: in.OpeningStock, Note: "opening stock"},
			})
			if err != nil {
				return err
			}
			product.StockQuantity = in.OpeningStock
		}

		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionCreateProduct, product.ID.String(), product.Name, in)
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.gateway.Announce(tenantID, changes)
	return &product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, tenantID, userID, id uuid.UUID, in UpdateProductInput) (*model.Product, error) {
	verr := validateInput(in)
	if in.PurchasePrice != nil {
		checkAmount(verr, "purchase_price", *in.PurchasePrice)
	}
	if in.SellingPrice != nil {
		checkAmount(verr, "selling_price", *in.SellingPrice)
	}
	if in.TaxRate != nil {
		checkRate(verr, "tax_rate", *in.TaxRate)
	}
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	var product *model.Product
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.deps.Store.Products.FindByID(txCtx, tenantID, id)
		if err != nil {
			return notFound(err, "product", id)
		}

		if in.SKU != nil {
			product.SKU = strings.TrimSpace(*in.SKU)
		}
		if in.Name != nil {
			product.Name = strings.TrimSpace(*in.Name)
		}
		if in.Unit != nil {
			product.Unit = *in.Unit
		}
		if in.ReorderLevel != nil {
			product.ReorderLevel = *in.ReorderLevel
		}
		if in.PurchasePrice != nil {
			product.PurchasePrice = *in.PurchasePrice
		}
		if in.SellingPrice != nil {
			product.SellingPrice = *in.SellingPrice
		}
		if in.TaxRate != nil {
			product.TaxRate = *in.TaxRate
		}

		if err := s.deps.Store.Products.Update(txCtx, product); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalid("sku", "%q is already in use", product.SKU)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionUpdateProduct, product.ID.String(), product.Name, in)
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}
	return product, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	return s.deps.failed(s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.deps.Store.Products.FindByID(txCtx, tenantID, id)
		if err != nil {
			return notFound(err, "product", id)
		}
		if err := s.deps.Store.Products.Delete(txCtx, tenantID, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionDeleteProduct, product.ID.String(), product.Name,
			map[string]any{"deleted": true, "stock_quantity": product.StockQuantity})
	}))
}

func (s *inventoryService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	product, err := s.deps.Store.Products.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return product, nil
}

func (s *inventoryService) ListProducts(ctx context.Context, tenantID uuid.UUID, search string, page, limit int) ([]model.Product, int64, error) {
	return s.deps.Store.Products.List(ctx, tenantID, strings.TrimSpace(search), page, limit)
}

func (s *inventoryService) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	return s.deps.Store.Products.ListLowStock(ctx, tenantID)
}

func (s *inventoryService) AdjustStock(ctx context.Context, tenantID, userID, productID uuid.UUID, in AdjustStockInput) (*model.StockMovement, error) {
	verr := validateInput(in)
	// Opening stock is booked under the product id.
	if in.AdjustmentID != nil && *in.AdjustmentID == productID {
		verr.Add("adjustment_id", "must not equal the product id")
	}
	if err := verr.OrNil(); err != nil {
		return nil, s.deps.failed(err)
	}

	adjustmentID := uuid.New()
	if in.AdjustmentID != nil && *in.AdjustmentID != uuid.Nil {
		adjustmentID = *in.AdjustmentID
	}

	var changes []StockChange
	err := s.deps.Store.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		changes, err = s.gateway.Apply(txCtx, tenantID, userID, model.RefTypeAdjustment, adjustmentID, []StockLine{
			{ProductID: productID, Delta: in.Delta, Note: in.Note},
		})
		if err != nil {
			return err
		}
		product := changes[0].Product
		return writeAudit(txCtx, s.deps.Store.Audit, tenantID, userID, model.ActionAdjustStock, product.ID.String(), product.Name,
			map[string]any{"adjustment_id": adjustmentID, "delta": in.Delta, "note": in.Note, "stock_after": product.StockQuantity})
	})
	if err != nil {
		return nil, s.deps.failed(err)
	}

	s.gateway.Announce(tenantID, changes)
	movement := changes[0].Movement
	return &movement, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	if _, err := s.deps.Store.Products.FindByID(ctx, tenantID, productID); err != nil {
		return nil, 0, notFound(err, "product", productID)
	}
	return s.deps.Store.Movements.ListByProduct(ctx, tenantID, productID, page, limit)
}

func (s *inventoryService) VerifyStock(ctx context.Context, tenantID, productID uuid.UUID) (StockDrift, error) {
	product, err := s.deps.Store.Products.FindByID(ctx, tenantID, productID)
	if err != nil {
		return StockDrift{}, notFound(err, "product", productID)
	}
	sums, err := s.deps.Store.Movements.SumByProducts(ctx, tenantID, []uuid.UUID{productID})
	if err != nil {
		return StockDrift{}, fmt.Errorf("failed to sum movements: %w", err)
	}
	return driftOf(*product, sums[productID]), nil
}

// VerifyAllStock replays every product's movement log and reports those whose
// counter disagrees with it.
func (s *inventoryService) VerifyAllStock(ctx context.Context, tenantID uuid.UUID) (StockAudit, error) {
	ids, err := s.deps.Store.Products.ListIDs(ctx, tenantID)
	if err != nil {
		return StockAudit{}, fmt.Errorf("failed to list products: %w", err)
	}
	products, err := s.deps.Store.Products.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return StockAudit{}, fmt.Errorf("failed to load products: %w", err)
	}
	sums, err := s.deps.Store.Movements.SumByProducts(ctx, tenantID, nil)
	if err != nil {
		return StockAudit{}, fmt.Errorf("failed to sum movements: %w", err)
	}

	audit := StockAudit{Checked: len(products), Drifts: []StockDrift{}}
	for _, p := range products {
		if d := driftOf(p, sums[p.ID]); d.Drift != 0 {
			audit.Drifts = append(audit.Drifts, d)
		}
	}
	return audit, nil
}

func driftOf(p model.Product, ledger int) StockDrift {
	return StockDrift{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Cached:    p.StockQuantity,
		Ledger:    ledger,
		Drift:     p.StockQuantity - ledger,
	}
}
