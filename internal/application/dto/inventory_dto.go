package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// MovementResponse asiento del kardex.
type MovementResponse struct {
	ID             int64           `json:"id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Kind           string          `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	ResultingStock decimal.Decimal `json:"resulting_stock"`
	Reason         string          `json:"reason,omitempty"`
	ActorID        string          `json:"actor_id"`
	Unit           string          `json:"unit,omitempty"`
	OriginalQty    decimal.Decimal `json:"original_qty"`
	PriceSnapshot  decimal.Decimal `json:"price_snapshot"`
	CostSnapshot   decimal.Decimal `json:"cost_snapshot"`
	Inferred       bool            `json:"inferred,omitempty"`
	Ref            string          `json:"ref,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FromMovement mapea el asiento.
func FromMovement(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		ProductName:    m.ProductName,
		Kind:           string(m.Kind),
		Quantity:       m.Quantity,
		ResultingStock: m.ResultingStock,
		Reason:         m.Reason,
		ActorID:        m.ActorID,
		Unit:           string(m.Meta.Unit),
		OriginalQty:    m.Meta.OriginalQty,
		PriceSnapshot:  m.Meta.PriceSnapshot,
		CostSnapshot:   m.Meta.CostSnapshot,
		Inferred:       m.Meta.Inferred,
		Ref:            m.Meta.Ref,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMovements mapea una lista de asientos.
func FromMovements(ms []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromMovement(m))
	}
	return out
}

// AdjustStockRequest ajuste manual con signo, en unidades base.
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

// ConsumptionRequest consumo interno del negocio.
type ConsumptionRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" validate:"omitempty,oneof=unidad paquete bulto"`
	Reason    string          `json:"reason" validate:"required,max=500"`
}

// RestoreRequest motivo de la restitución de un consumo.
type RestoreRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// LowStockResponse producto bajo mínimo con la reposición sugerida.
type LowStockResponse struct {
	Product   ProductResponse `json:"product"`
	Cases     decimal.Decimal `json:"cases"`
	Packs     decimal.Decimal `json:"packs"`
	Units     decimal.Decimal `json:"units"`
	Suggested decimal.Decimal `json:"suggested"`
}

// FromLowStock mapea la sugerencia de reposición.
func FromLowStock(it inventory.LowStockItem) LowStockResponse {
	return LowStockResponse{
		Product:   FromProduct(it.Product),
		Cases:     it.Breakdown.Cases,
		Packs:     it.Breakdown.Packs,
		Units:     it.Breakdown.Units,
		Suggested: it.Suggested,
	}
}
