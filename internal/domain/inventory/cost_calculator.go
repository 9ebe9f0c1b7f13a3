package inventory

import "github.com/shopspring/decimal"

// WeightedAverage costo promedio ponderado tras una entrada con costo.
// nuevo = (onHand*avg + inQty*inCost) / (onHand + inQty). Un saldo negativo cuenta como cero.
func WeightedAverage(onHand int64, avg decimal.Decimal, inQty int64, inCost decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	total := onHand + inQty
	if total <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(onHand).Mul(avg).
		Add(decimal.NewFromInt(inQty).Mul(inCost))
	return num.Div(decimal.NewFromInt(total))
}
