package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/pkg/money"
)

// DebtKind tipo de asiento de deuda. Variante cerrada.
type DebtKind string

const (
	DebtAdvance     DebtKind = "advance"
	DebtConsumption DebtKind = "consumption"
	DebtPayment     DebtKind = "payment"
	DebtClose       DebtKind = "close"
)

// IncreasesDebt indica si el tipo suma a la deuda viva.
func (k DebtKind) IncreasesDebt() bool {
	switch k {
	case DebtAdvance, DebtConsumption:
		return true
	case DebtPayment, DebtClose:
		return false
	}
	return false
}

// Estados de un asiento de deuda.
const (
	DebtPending   = "pending"
	DebtVoided    = "voided"
	DebtSettled   = "settled"   // descontado en un pago o cierre
	DebtCompleted = "completed" // asientos de pago y cierre
)

// CrossRef referencia al asiento pareja en tesorería o inventario.
type CrossRef struct {
	ExpenseID        string          `json:"expenseId,omitempty"`
	MovementID       int64           `json:"movementId,omitempty"`
	ProductID        string          `json:"productId,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	PriceSnapshot    decimal.Decimal `json:"priceSnapshot"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	OriginalCurrency money.Currency  `json:"originalCurrency,omitempty"`
	Channel          money.Channel   `json:"channel,omitempty"`
}

// IsZero indica que no hay pareja registrada.
func (c CrossRef) IsZero() bool {
	return c.ExpenseID == "" && c.MovementID == 0
}

// EmployeeAccount cuenta de nómina del empleado con su deuda viva.
type EmployeeAccount struct {
	EmployeeID    string
	Name          string
	BasePay       decimal.Decimal
	Debt          decimal.Decimal
	LastPaymentAt *time.Time
	LastCloseAt   *time.Time
	UpdatedAt     time.Time
}

// DebtEntry asiento inmutable del libro de deuda (solo cambia su Status).
type DebtEntry struct {
	ID         int64
	EmployeeID string
	Kind       DebtKind
	Amount     decimal.Decimal // USD
	Reason     string
	Status     string
	CrossRef   CrossRef
	PeriodID   string
	ActorID    string
	CreatedAt  time.Time
	VoidedAt   *time.Time
}

// PeriodSnapshot fotografía de un empleado al cerrar el periodo.
type PeriodSnapshot struct {
	EmployeeID string          `json:"employeeId"`
	Name       string          `json:"name"`
	BasePay    decimal.Decimal `json:"basePay"`
	Debt       decimal.Decimal `json:"debt"`
	Net        decimal.Decimal `json:"net"`
	EntryIDs   []int64         `json:"entryIds"`
}

// Period periodo de nómina archivado. EmployeeID vacío indica cierre global.
type Period struct {
	ID           string
	EmployeeID   string
	TotalBasePay decimal.Decimal
	TotalDebt    decimal.Decimal
	TotalNet     decimal.Decimal
	Snapshots    []PeriodSnapshot
	ActorID      string
	ClosedAt     time.Time
}
