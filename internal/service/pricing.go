package service

import (
	"context"
	"fmt"
	"slices"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one requested order line. Nil prices and rates fall back to
// the product's own values.
type LineInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	GSTRate   *decimal.Decimal `json:"gst_rate,omitempty"`
}

type pricedLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	GSTRate   decimal.Decimal
	GSTAmount decimal.Decimal
	LineTotal decimal.Decimal
}

// priceLine computes net = quantity*unit_price and gst = net*rate/100, each
// rounded to cents, and line_total = net + gst.
func priceLine(productID uuid.UUID, quantity int, unitPrice, gstRate decimal.Decimal) pricedLine {
	net := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	gst := net.Mul(gstRate).Div(hundred).Round(2)
	return pricedLine{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		GSTRate:   gstRate,
		GSTAmount: gst,
		LineTotal: net.Add(gst),
	}
}

// sumLines returns subtotal, gst and total (= subtotal + gst).
func sumLines(lines []pricedLine) (subtotal, gst, total decimal.Decimal) {
	subtotal, gst = decimal.Zero, decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal.Sub(l.GSTAmount))
		gst = gst.Add(l.GSTAmount)
	}
	return subtotal, gst, subtotal.Add(gst)
}

// checkPrices validates the optional decimal fields binding tags cannot reach.
func checkPrices(verr *ValidationError, field string, unitPrice, gstRate *decimal.Decimal) {
	if unitPrice != nil {
		checkAmount(verr, field+".unit_price", *unitPrice)
	}
	if gstRate != nil {
		checkRate(verr, field+".gst_rate", *gstRate)
	}
}

// checkAmount accepts a non-negative money value with at most two decimals.
func checkAmount(verr *ValidationError, field string, v decimal.Decimal) {
	switch {
	case v.IsNegative():
		verr.Add(field, "must not be negative")
	case !isCents(v):
		verr.Add(field, "must have at most 2 decimal places")
	}
}

func isCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

func checkRate(verr *ValidationError, field string, rate decimal.Decimal) {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		verr.Add(field, "must be between 0 and 100")
	}
}

// priceItems resolves the products of items and prices every line. fallback
// picks the product's own price when a line carries none.
func priceItems(ctx context.Context, products repository.ProductRepository, tenantID uuid.UUID, items []LineInput, fallback func(model.Product) decimal.Decimal) ([]pricedLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if !slices.Contains(ids, it.ProductID) {
			ids = append(ids, it.ProductID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := products.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if missing := missingID(ids, found); missing != uuid.Nil {
		return nil, &NotFoundError{Entity: "product", ID: missing}
	}
	byID := make(map[uuid.UUID]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	lines := make([]pricedLine, 0, len(items))
	for _, it := range items {
		p := byID[it.ProductID]
		price, rate := fallback(p), p.TaxRate
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		if it.GSTRate != nil {
			rate = *it.GSTRate
		}
		lines = append(lines, priceLine(p.ID, it.Quantity, price, rate))
	}
	return lines, nil
}

func checkLines(verr *ValidationError, items []LineInput) {
	for i, it := range items {
		checkPrices(verr, fmt.Sprintf("items[%d]", i), it.UnitPrice, it.GSTRate)
	}
}
