package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/pkg/money"
)

// Estados del gasto.
const (
	ExpenseActive   = "active"
	ExpenseReverted = "reverted"
)

// Categorías de gasto usadas por las operaciones compuestas.
const (
	ExpenseCategoryGeneral  = "GASTO_CAJA"
	ExpenseCategoryAdvance  = "ADELANTO_NOMINA"
	ExpenseCategoryPayroll  = "PAGO_NOMINA"
	ExpenseCategorySupplies = "COMPRA_INSUMOS"
)

// Expense egreso de un solo cuadrante. Revertirlo acredita el monto y lo marca, nunca lo borra.
type Expense struct {
	ID         string
	SessionID  string
	Amount     decimal.Decimal
	Currency   money.Currency
	Channel    money.Channel
	Reason     string
	Category   string
	Status     string
	Balances   money.Quadrants // saldos inmediatamente después del egreso
	ActorID    string
	CreatedAt  time.Time
	RevertedAt *time.Time
	RevertedBy string
}

// Quadrant cuadrante debitado.
func (e *Expense) Quadrant() money.Quadrant {
	return money.Quadrant{Currency: e.Currency, Channel: e.Channel}
}
