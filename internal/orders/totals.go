package orders

import "github.com/shopspring/decimal"

// TaxRate is fixed for every order.
var TaxRate = decimal.RequireFromString("0.08")

// RecomputeTotals rebuilds line totals, subtotal, tax and total from the live lines.
// Never incremental.
func RecomputeTotals(o *Order) {
	subtotal := decimal.Zero
	for i := range o.Lines {
		l := &o.Lines[i]
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		subtotal = subtotal.Add(l.LineTotal)
	}
	o.Subtotal = subtotal.Round(2)
	o.Tax = o.Subtotal.Mul(TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax).Round(2)
}
