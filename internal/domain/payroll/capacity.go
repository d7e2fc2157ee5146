// Package payroll contiene las reglas puras del libro de deuda de empleados.
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// Capacity resultado de evaluar un nuevo cargo contra el sueldo base.
type Capacity struct {
	Allowed   bool
	BasePay   decimal.Decimal
	Debt      decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
	Reason    string
}

// CheckCapacity niega si no hay cuenta, si el sueldo base no es positivo, o si
// deuda + propuesto supera el sueldo base. Shortfall es el exceso.
func CheckCapacity(acc *entity.EmployeeAccount, proposed decimal.Decimal) Capacity {
	if acc == nil {
		return Capacity{Reason: "empleado sin ficha de nómina", Shortfall: proposed}
	}
	c := Capacity{
		BasePay:   acc.BasePay,
		Debt:      acc.Debt,
		Available: money.Max(decimal.Zero, acc.BasePay.Sub(acc.Debt)),
	}
	if !acc.BasePay.IsPositive() {
		c.Reason = "empleado sin sueldo base asignado"
		c.Shortfall = proposed
		return c
	}
	projected := acc.Debt.Add(proposed)
	if projected.GreaterThan(acc.BasePay) {
		c.Reason = "la deuda superaría el sueldo base"
		c.Shortfall = projected.Sub(acc.BasePay)
		return c
	}
	c.Allowed = true
	c.Shortfall = decimal.Zero
	return c
}

// LiveDebt suma los asientos pendientes que aumentan la deuda.
func LiveDebt(entries []*entity.DebtEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Status == entity.DebtPending && e.Kind.IncreasesDebt() {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Net sueldo neto a pagar: base − deuda, nunca negativo.
func Net(basePay, debt decimal.Decimal) decimal.Decimal {
	return money.Max(decimal.Zero, basePay.Sub(debt))
}
