package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/pkg/money"
)

// Estados de la sesión de caja.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// CashSession turno de caja con los cuatro fondos. Se cumple en todo momento:
// Balances[q] = Opening[q] + Inflows[q] − Outflows[q]. Los contadores de ventas alimentan el cierre Z.
type CashSession struct {
	ID            string
	Status        string
	Opening       money.Quadrants
	Balances      money.Quadrants
	Inflows       money.Quadrants
	Outflows      money.Quadrants
	SalesCount    int
	VoidedCount   int
	SalesTotalUSD decimal.Decimal
	OpenedBy      string
	OpenedAt      time.Time
	ClosedBy      string
	ClosedAt      *time.Time
	UpdatedAt     time.Time
}

// IsOpen indica si la sesión acepta operaciones de dinero.
func (s *CashSession) IsOpen() bool { return s != nil && s.Status == SessionOpen }

// TreasuryEntryKind tipo de asiento de tesorería. Variante cerrada.
type TreasuryEntryKind string

const (
	EntryOpening       TreasuryEntryKind = "opening"
	EntrySale          TreasuryEntryKind = "sale"
	EntryChange        TreasuryEntryKind = "change"
	EntrySaleVoid      TreasuryEntryKind = "sale_void"
	EntryChangeVoid    TreasuryEntryKind = "change_void"
	EntryExpense       TreasuryEntryKind = "expense"
	EntryExpenseRevert TreasuryEntryKind = "expense_revert"
)

// TreasuryEntry asiento inmutable de un cuadrante. Amount es con signo:
// positivo entra a la caja, negativo sale.
type TreasuryEntry struct {
	ID        int64
	SessionID string
	Kind      TreasuryEntryKind
	Quadrant  money.Quadrant
	Amount    decimal.Decimal
	Ref       string
	ActorID   string
	CreatedAt time.Time
}

// Cut cierre Z: fotografía inmutable de una sesión cerrada.
type Cut struct {
	ID                 string
	SessionID          string
	Opening            money.Quadrants
	Final              money.Quadrants
	Inflows            money.Quadrants
	Outflows           money.Quadrants
	SalesCount         int
	VoidedCount        int
	SalesTotalUSD      decimal.Decimal
	ExpensesUSD        decimal.Decimal
	ExpensesVES        decimal.Decimal
	ConsumptionCostUSD decimal.Decimal
	OpenedAt           time.Time
	ClosedBy           string
	ClosedAt           time.Time
}
