package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la sesión de auditoría.
const (
	AuditInProgress = "EN_PROCESO"
	AuditClosed     = "CERRADA"
)

// Estados de cada partida auditada.
const (
	AuditItemPending  = "PENDIENTE"
	AuditItemResolved = "RESUELTO"
	AuditItemIgnored  = "IGNORADO"
)

// AuditTemplate lista de productos a contar periódicamente.
type AuditTemplate struct {
	ID         string
	Name       string
	ProductIDs []string
	CreatedAt  time.Time
}

// CountBreakdown conteo físico descompuesto por nivel de empaque.
type CountBreakdown struct {
	Cases decimal.Decimal `json:"cases"`
	Packs decimal.Decimal `json:"packs"`
	Units decimal.Decimal `json:"units"`
}

// AuditItem partida de la sesión. Snapshot* se congelan al iniciar la sesión.
type AuditItem struct {
	ProductID         string           `json:"productId"`
	ProductName       string           `json:"productName"`
	SnapshotStock     decimal.Decimal  `json:"snapshotStock"`
	SnapshotHierarchy Hierarchy        `json:"snapshotHierarchy"`
	Count             *decimal.Decimal `json:"count,omitempty"`
	Breakdown         *CountBreakdown  `json:"breakdown,omitempty"`
	Status            string           `json:"status"`
	Resolution        string           `json:"resolution,omitempty"`
	MovementID        int64            `json:"movementId,omitempty"`
	ResolvedAt        *time.Time       `json:"resolvedAt,omitempty"`
}

// Difference conteo − snapshot; cero si aún no hay conteo.
func (i *AuditItem) Difference() decimal.Decimal {
	if i.Count == nil {
		return decimal.Zero
	}
	return i.Count.Sub(i.SnapshotStock)
}

// AuditSession sesión de conciliación física contra el kardex.
type AuditSession struct {
	ID         string
	TemplateID string
	Name       string
	Status     string
	Items      []AuditItem
	StartedBy  string
	StartedAt  time.Time
	ClosedBy   string
	ClosedAt   *time.Time
}

// Item devuelve el índice de la partida del producto o -1.
func (s *AuditSession) Item(productID string) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
