package menu

import "github.com/shopspring/decimal"

var (
	surchargeLarge   = decimal.RequireFromString("1.00")
	surchargeMedium  = decimal.RequireFromString("0.50")
	surchargeTopping = decimal.RequireFromString("0.50")
)

// PriceWithCustomizations returns the unit price of an item with the given selections.
// Pure: large +1.00, medium +0.50, +0.50 per extra topping, rounded to cents.
func PriceWithCustomizations(base decimal.Decimal, sel Selections) decimal.Decimal {
	price := base
	switch sel.Size {
	case "large":
		price = price.Add(surchargeLarge)
	case "medium":
		price = price.Add(surchargeMedium)
	}
	if n := len(sel.ExtraToppings); n > 0 {
		price = price.Add(surchargeTopping.Mul(decimal.NewFromInt(int64(n))))
	}
	return price.Round(2)
}
