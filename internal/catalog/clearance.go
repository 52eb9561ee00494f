package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingError reports the clearance pricing rule that was violated.
type PricingError struct {
	Rule string
}

func (e *PricingError) Error() string {
	return "invalid pricing: " + e.Rule
}

// Is makes every PricingError match ErrInvalidPricing.
func (e *PricingError) Is(target error) bool {
	return target == ErrInvalidPricing
}

// PriceDecimals is the scale of stored prices (NUMERIC(12,2)).
const PriceDecimals = 2

// ParseClearancePrices validates a clearance price pair. Rules are checked in
// order: both values numeric, both positive, at most PriceDecimals decimal
// places, clearance below original.
func ParseClearancePrices(original, clearance string) (decimal.Decimal, decimal.Decimal, error) {
	orig, err := decimal.NewFromString(original)
	if err != nil {
		return decimal.Zero, decimal.Zero, &PricingError{Rule: fmt.Sprintf("original price %q is not a number", original)}
	}
	clr, err := decimal.NewFromString(clearance)
	if err != nil {
		return decimal.Zero, decimal.Zero, &PricingError{Rule: fmt.Sprintf("clearance price %q is not a number", clearance)}
	}
	if !orig.IsPositive() || !clr.IsPositive() {
		return decimal.Zero, decimal.Zero, &PricingError{Rule: "prices must be greater than zero"}
	}
	if !orig.Equal(orig.Truncate(PriceDecimals)) || !clr.Equal(clr.Truncate(PriceDecimals)) {
		return decimal.Zero, decimal.Zero, &PricingError{Rule: fmt.Sprintf("prices must have at most %d decimal places", PriceDecimals)}
	}
	if clr.GreaterThanOrEqual(orig) {
		return decimal.Zero, decimal.Zero, &PricingError{Rule: "clearance price must be lower than the original price"}
	}
	return orig, clr, nil
}

// SetClearancePricing validates and stores the price pair of product id. The
// clearance flag is left untouched. Nothing is written when validation fails.
func SetClearancePricing(ctx context.Context, s Store, id int64, original, clearance string) error {
	orig, clr, err := ParseClearancePrices(original, clearance)
	if err != nil {
		return err
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("getting product %d: %w", id, err)
	}
	if p == nil {
		return ErrNotFound
	}
	if err := s.SetClearancePrices(ctx, id, orig, clr); err != nil {
		return fmt.Errorf("setting clearance prices of product %d: %w", id, err)
	}
	return nil
}
