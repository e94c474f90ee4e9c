package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/money"
)

const (
	MinQuantity = 1
	MaxQuantity = 100
)

type ItemPrice struct {
	Price decimal.Decimal
	// AppliedFeatureIDs lists the requested feature variants that belong to the
	// product, in request order. Each one becomes a persisted selection.
	AppliedFeatureIDs []int64
	Color             *catalog.ColorVariant
}

func validateQuantity(quantity int) *ValidationError {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return NewValidationError("quantity", fmt.Sprintf("Ensure this value is between %d and %d.", MinQuantity, MaxQuantity))
	}
	return nil
}

// PriceItem computes the line price of one order item:
// (Σ feature prices + color price + base price) × quantity, rounded half-even to
// two places. Feature ids that are unknown or belong to another product are
// skipped. A color variant that is unknown or belongs to another product is a
// validation error on "color".
func PriceItem(ctx context.Context, cat catalog.Reader, product *catalog.Product, quantity int, colorID *int64, featureIDs []int64) (ItemPrice, error) {
	if verr := validateQuantity(quantity); verr != nil {
		return ItemPrice{}, verr
	}

	result := ItemPrice{AppliedFeatureIDs: make([]int64, 0, len(featureIDs))}

	featureSum := money.Zero
	for _, id := range featureIDs {
		fv, err := cat.GetFeatureVariant(ctx, id)
		if errors.Is(err, catalog.ErrFeatureVariantNotFound) {
			continue
		}
		if err != nil {
			return ItemPrice{}, fmt.Errorf("pricing: feature variant %d: %w", id, err)
		}
		if fv.ProductID != product.ID {
			continue
		}
		featureSum = featureSum.Add(money.SafeDecimal(fv.Price))
		result.AppliedFeatureIDs = append(result.AppliedFeatureIDs, fv.ID)
	}

	colorPrice := money.Zero
	if colorID != nil {
		cv, err := cat.GetColorVariant(ctx, *colorID)
		if errors.Is(err, catalog.ErrColorVariantNotFound) {
			return ItemPrice{}, NewValidationError("color", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *colorID))
		}
		if err != nil {
			return ItemPrice{}, fmt.Errorf("pricing: color variant %d: %w", *colorID, err)
		}
		if cv.ProductID != product.ID {
			return ItemPrice{}, NewValidationError("color", fmt.Sprintf("Color variant %d does not belong to product %d.", cv.ID, product.ID))
		}
		colorPrice = money.SafeDecimal(cv.Price)
		result.Color = cv
	}

	unit := featureSum.Add(colorPrice).Add(money.SafeDecimal(product.Price))
	result.Price = money.Quantize(unit.Mul(decimal.NewFromInt(int64(quantity))))

	return result, nil
}
