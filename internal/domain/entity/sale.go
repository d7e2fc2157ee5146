package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/pkg/money"
)

// Estados de la venta.
const (
	SaleCompleted = "completed"
	SaleVoided    = "voided"
)

// SaleItem línea de venta. Quantity expresada en Unit; BaseQty ya convertida.
type SaleItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        Unit            `json:"unit"`
	BaseQty     decimal.Decimal `json:"baseQty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	MovementID  int64           `json:"movementId,omitempty"`
}

// Tender monto entregado o devuelto en un cuadrante.
type Tender struct {
	Currency money.Currency  `json:"currency"`
	Channel  money.Channel   `json:"channel"`
	Amount   decimal.Decimal `json:"amount"`
}

// Quadrant cuadrante afectado.
func (t Tender) Quadrant() money.Quadrant {
	return money.Quadrant{Currency: t.Currency, Channel: t.Channel}
}

// Sale venta con pagos mixtos. Se cumple: Σpagos(USD) − Σvuelto(USD) + CreditUSD = TotalUSD,
// valorizados con la tasa congelada Rate.
type Sale struct {
	ID         string
	SessionID  string
	Items      []SaleItem
	TotalUSD   decimal.Decimal
	Payments   []Tender
	Change     []Tender
	CreditUSD  decimal.Decimal
	CustomerID string
	Rate       decimal.Decimal
	Status     string
	ActorID    string
	CreatedAt  time.Time
	VoidedAt   *time.Time
	VoidedBy   string
}
