package inventory

import "github.com/shopspring/decimal"

// costScale escala del costo unitario (más fina que la monetaria).
const costScale int32 = 4

// WeightedCost costo promedio ponderado tras una entrada de compra:
// ((stock × costo) + (entrada × costoEntrada)) / (stock + entrada).
// Un stock negativo no aporta valor: se trata como cero.
func WeightedCost(stock, cost, qtyIn, costIn decimal.Decimal) decimal.Decimal {
	if stock.IsNegative() {
		stock = decimal.Zero
	}
	total := stock.Add(qtyIn)
	if !total.IsPositive() {
		return cost
	}
	num := stock.Mul(cost).Add(qtyIn.Mul(costIn))
	return num.Div(total).Round(costScale)
}
