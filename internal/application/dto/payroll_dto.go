package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	dpayroll "github.com/jhoicas/pos-ledger/internal/domain/payroll"
)

// AccountRequest alta o actualización de ficha de nómina.
type AccountRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required,max=100"`
	Name       string          `json:"name" validate:"required,max=200"`
	BasePay    decimal.Decimal `json:"base_pay"`
}

// AccountResponse ficha con su deuda viva.
type AccountResponse struct {
	EmployeeID    string          `json:"employee_id"`
	Name          string          `json:"name"`
	BasePay       decimal.Decimal `json:"base_pay"`
	Debt          decimal.Decimal `json:"debt"`
	Net           decimal.Decimal `json:"net"`
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"`
	LastCloseAt   *time.Time      `json:"last_close_at,omitempty"`
}

// FromAccount mapea la ficha.
func FromAccount(a *entity.EmployeeAccount) AccountResponse {
	return AccountResponse{
		EmployeeID:    a.EmployeeID,
		Name:          a.Name,
		BasePay:       a.BasePay,
		Debt:          a.Debt,
		Net:           dpayroll.Net(a.BasePay, a.Debt),
		LastPaymentAt: a.LastPaymentAt,
		LastCloseAt:   a.LastCloseAt,
	}
}

// DebtEntryResponse asiento del libro de deuda.
type DebtEntryResponse struct {
	ID         int64           `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	Status     string          `json:"status"`
	CrossRef   entity.CrossRef `json:"cross_ref"`
	PeriodID   string          `json:"period_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	CreatedAt  time.Time       `json:"created_at"`
	VoidedAt   *time.Time      `json:"voided_at,omitempty"`
}

// FromDebtEntry mapea el asiento.
func FromDebtEntry(e *entity.DebtEntry) *DebtEntryResponse {
	if e == nil {
		return nil
	}
	return &DebtEntryResponse{
		ID:         e.ID,
		EmployeeID: e.EmployeeID,
		Kind:       string(e.Kind),
		Amount:     e.Amount,
		Reason:     e.Reason,
		Status:     e.Status,
		CrossRef:   e.CrossRef,
		PeriodID:   e.PeriodID,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt,
		VoidedAt:   e.VoidedAt,
	}
}

// CapacityResponse resultado de la consulta de capacidad de crédito.
type CapacityResponse struct {
	Allowed   bool            `json:"allowed"`
	BasePay   decimal.Decimal `json:"base_pay"`
	Debt      decimal.Decimal `json:"debt"`
	Available decimal.Decimal `json:"available"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Reason    string          `json:"reason,omitempty"`
}

// FromCapacity mapea la evaluación.
func FromCapacity(c dpayroll.Capacity) CapacityResponse {
	return CapacityResponse{
		Allowed:   c.Allowed,
		BasePay:   c.BasePay,
		Debt:      c.Debt,
		Available: c.Available,
		Shortfall: c.Shortfall,
		Reason:    c.Reason,
	}
}

// PeriodResponse periodo archivado.
type PeriodResponse struct {
	ID           string                  `json:"id"`
	EmployeeID   string                  `json:"employee_id,omitempty"`
	TotalBasePay decimal.Decimal         `json:"total_base_pay"`
	TotalDebt    decimal.Decimal         `json:"total_debt"`
	TotalNet     decimal.Decimal         `json:"total_net"`
	Snapshots    []entity.PeriodSnapshot `json:"snapshots"`
	ActorID      string                  `json:"actor_id"`
	ClosedAt     time.Time               `json:"closed_at"`
}

// FromPeriod mapea el periodo.
func FromPeriod(p *entity.Period) *PeriodResponse {
	if p == nil {
		return nil
	}
	snaps := p.Snapshots
	if snaps == nil {
		snaps = []entity.PeriodSnapshot{}
	}
	return &PeriodResponse{
		ID:           p.ID,
		EmployeeID:   p.EmployeeID,
		TotalBasePay: p.TotalBasePay,
		TotalDebt:    p.TotalDebt,
		TotalNet:     p.TotalNet,
		Snapshots:    snaps,
		ActorID:      p.ActorID,
		ClosedAt:     p.ClosedAt,
	}
}

// AdvanceRequest adelanto de nómina pagado desde caja.
type AdvanceRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" validate:"required"`
	Channel    string          `json:"channel" validate:"required,oneof=cash digital"`
	Rate       decimal.Decimal `json:"rate"`
	Reason     string          `json:"reason" validate:"max=500"`
}

// AdvanceResponse piernas del adelanto.
type AdvanceResponse struct {
	Expense *ExpenseResponse   `json:"expense"`
	Entry   *DebtEntryResponse `json:"entry"`
}

// ConsumptionChargeRequest consumo de mercancía cargado al empleado.
type ConsumptionChargeRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	ProductID  string          `json:"product_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit" validate:"omitempty,oneof=unidad paquete bulto"`
	Reason     string          `json:"reason" validate:"max=500"`
}

// ConsumptionChargeResponse piernas del consumo.
type ConsumptionChargeResponse struct {
	Movement MovementResponse   `json:"movement"`
	Entry    *DebtEntryResponse `json:"entry"`
}

// PayrollPaymentRequest cuadrante desde el que se paga la nómina.
type PayrollPaymentRequest struct {
	Currency string          `json:"currency" validate:"required"`
	Channel  string          `json:"channel" validate:"required,oneof=cash digital"`
	Rate     decimal.Decimal `json:"rate"`
}

// PayrollPaymentResponse periodo cerrado y su pago.
type PayrollPaymentResponse struct {
	Period  *PeriodResponse  `json:"period"`
	Expense *ExpenseResponse `json:"expense,omitempty"`
}

// SupplyPurchaseRequest compra de mercancía pagada desde caja.
type SupplyPurchaseRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" validate:"omitempty,oneof=unidad paquete bulto"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Currency  string          `json:"currency" validate:"required"`
	Channel   string          `json:"channel" validate:"required,oneof=cash digital"`
	Rate      decimal.Decimal `json:"rate"`
	Reason    string          `json:"reason" validate:"max=500"`
}

// SupplyPurchaseResponse piernas de la compra.
type SupplyPurchaseResponse struct {
	Expense  *ExpenseResponse `json:"expense"`
	Movement MovementResponse `json:"movement"`
}

// PayrollCloseResponse liquidación individual.
type PayrollCloseResponse struct {
	Payment *DebtEntryResponse `json:"payment"`
	Period  *PeriodResponse    `json:"period"`
}
