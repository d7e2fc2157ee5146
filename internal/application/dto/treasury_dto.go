package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// OpenSessionRequest fondos iniciales de los cuatro cuadrantes.
type OpenSessionRequest struct {
	Opening money.Quadrants `json:"opening"`
}

// SessionResponse sesión de caja con sus saldos.
type SessionResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Opening       money.Quadrants `json:"opening"`
	Balances      money.Quadrants `json:"balances"`
	Inflows       money.Quadrants `json:"inflows"`
	Outflows      money.Quadrants `json:"outflows"`
	SalesCount    int             `json:"sales_count"`
	VoidedCount   int             `json:"voided_count"`
	SalesTotalUSD decimal.Decimal `json:"sales_total_usd"`
	OpenedBy      string          `json:"opened_by"`
	OpenedAt      time.Time       `json:"opened_at"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
}

// FromSession mapea la sesión.
func FromSession(s *entity.CashSession) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		Status:        s.Status,
		Opening:       s.Opening,
		Balances:      s.Balances,
		Inflows:       s.Inflows,
		Outflows:      s.Outflows,
		SalesCount:    s.SalesCount,
		VoidedCount:   s.VoidedCount,
		SalesTotalUSD: s.SalesTotalUSD,
		OpenedBy:      s.OpenedBy,
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
	}
}

// ExpenseRequest egreso de caja.
type ExpenseRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required"`
	Channel  string          `json:"channel" validate:"required,oneof=cash digital"`
	Reason   string          `json:"reason" validate:"required,max=500"`
	Category string          `json:"category" validate:"max=50"`
}

// ExpenseResponse egreso registrado.
type ExpenseResponse struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Channel    string          `json:"channel"`
	Reason     string          `json:"reason"`
	Category   string          `json:"category"`
	Status     string          `json:"status"`
	Balances   money.Quadrants `json:"balances"`
	ActorID    string          `json:"actor_id"`
	CreatedAt  time.Time       `json:"created_at"`
	RevertedAt *time.Time      `json:"reverted_at,omitempty"`
}

// FromExpense mapea el egreso.
func FromExpense(e *entity.Expense) *ExpenseResponse {
	if e == nil {
		return nil
	}
	return &ExpenseResponse{
		ID:         e.ID,
		SessionID:  e.SessionID,
		Amount:     e.Amount,
		Currency:   string(e.Currency),
		Channel:    string(e.Channel),
		Reason:     e.Reason,
		Category:   e.Category,
		Status:     e.Status,
		Balances:   e.Balances,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt,
		RevertedAt: e.RevertedAt,
	}
}

// CutResponse cierre Z.
type CutResponse struct {
	ID                 string          `json:"id"`
	SessionID          string          `json:"session_id"`
	Opening            money.Quadrants `json:"opening"`
	Final              money.Quadrants `json:"final"`
	Inflows            money.Quadrants `json:"inflows"`
	Outflows           money.Quadrants `json:"outflows"`
	SalesCount         int             `json:"sales_count"`
	VoidedCount        int             `json:"voided_count"`
	SalesTotalUSD      decimal.Decimal `json:"sales_total_usd"`
	ExpensesUSD        decimal.Decimal `json:"expenses_usd"`
	ExpensesVES        decimal.Decimal `json:"expenses_ves"`
	ConsumptionCostUSD decimal.Decimal `json:"consumption_cost_usd"`
	OpenedAt           time.Time       `json:"opened_at"`
	ClosedBy           string          `json:"closed_by"`
	ClosedAt           time.Time       `json:"closed_at"`
}

// FromCut mapea el cierre.
func FromCut(c *entity.Cut) CutResponse {
	return CutResponse{
		ID:                 c.ID,
		SessionID:          c.SessionID,
		Opening:            c.Opening,
		Final:              c.Final,
		Inflows:            c.Inflows,
		Outflows:           c.Outflows,
		SalesCount:         c.SalesCount,
		VoidedCount:        c.VoidedCount,
		SalesTotalUSD:      c.SalesTotalUSD,
		ExpensesUSD:        c.ExpensesUSD,
		ExpensesVES:        c.ExpensesVES,
		ConsumptionCostUSD: c.ConsumptionCostUSD,
		OpenedAt:           c.OpenedAt,
		ClosedBy:           c.ClosedBy,
		ClosedAt:           c.ClosedAt,
	}
}

// RateResponse tasa vigente.
type RateResponse struct {
	Value  decimal.Decimal `json:"value"`
	AsOf   time.Time       `json:"as_of"`
	Source string          `json:"source"`
}

// SetRateRequest tasa manual cargada por el encargado.
type SetRateRequest struct {
	Value decimal.Decimal `json:"value"`
}
