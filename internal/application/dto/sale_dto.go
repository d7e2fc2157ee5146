package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// SaleLineRequest línea pedida por la caja.
type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" validate:"omitempty,oneof=unidad paquete bulto"`
}

// TenderDTO monto en un cuadrante.
type TenderDTO struct {
	Currency string          `json:"currency" validate:"required"`
	Channel  string          `json:"channel" validate:"required,oneof=cash digital"`
	Amount   decimal.Decimal `json:"amount"`
}

// CheckoutRequest venta con pagos mixtos. Rate cero toma la tasa vigente.
type CheckoutRequest struct {
	Lines      []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
	Payments   []TenderDTO       `json:"payments" validate:"dive"`
	Change     []TenderDTO       `json:"change" validate:"dive"`
	CreditUSD  decimal.Decimal   `json:"credit_usd"`
	CustomerID string            `json:"customer_id,omitempty"`
	Rate       decimal.Decimal   `json:"rate"`
}

// SaleResponse venta registrada.
type SaleResponse struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	Items      []entity.SaleItem `json:"items"`
	TotalUSD   decimal.Decimal   `json:"total_usd"`
	Payments   []entity.Tender   `json:"payments"`
	Change     []entity.Tender   `json:"change"`
	CreditUSD  decimal.Decimal   `json:"credit_usd"`
	CustomerID string            `json:"customer_id,omitempty"`
	Rate       decimal.Decimal   `json:"rate"`
	Status     string            `json:"status"`
	ActorID    string            `json:"actor_id"`
	CreatedAt  time.Time         `json:"created_at"`
	VoidedAt   *time.Time        `json:"voided_at,omitempty"`
	VoidedBy   string            `json:"voided_by,omitempty"`
}

// FromSale mapea la venta.
func FromSale(s *entity.Sale) SaleResponse {
	return SaleResponse{
		ID:         s.ID,
		SessionID:  s.SessionID,
		Items:      s.Items,
		TotalUSD:   s.TotalUSD,
		Payments:   nonNil(s.Payments),
		Change:     nonNil(s.Change),
		CreditUSD:  s.CreditUSD,
		CustomerID: s.CustomerID,
		Rate:       s.Rate,
		Status:     s.Status,
		ActorID:    s.ActorID,
		CreatedAt:  s.CreatedAt,
		VoidedAt:   s.VoidedAt,
		VoidedBy:   s.VoidedBy,
	}
}

func nonNil(ts []entity.Tender) []entity.Tender {
	if ts == nil {
		return []entity.Tender{}
	}
	return ts
}
