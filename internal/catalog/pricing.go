package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/oselwa/storefront-backend/pkg/db/models"
)

var oneHundred = decimal.NewFromInt(100)

// EffectivePriceCents returns the list price reduced by the product's
// discount when the discount is live. Rounds half-up to whole cents.
func EffectivePriceCents(product *models.Product) int {
	if product == nil {
		return 0
	}
	d := product.Discount
	if d == nil || !d.IsActive || d.DeletedAt != nil {
		return product.PriceCents
	}
	price := decimal.NewFromInt(int64(product.PriceCents))
	factor := oneHundred.Sub(d.Percent).Div(oneHundred)
	return int(price.Mul(factor).Round(0).IntPart())
}
