package audit

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// TxRunner transacción con plantillas, sesiones de auditoría y el kardex.
type TxRunner interface {
	RunAudit(ctx context.Context, fn func(
		templateRepo repository.AuditTemplateRepository,
		sessionRepo repository.AuditSessionRepository,
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// StockAdjuster camino de actualización de stock del kardex.
type StockAdjuster interface {
	AdjustInTx(ctx context.Context, movRepo repository.MovementRepository, productRepo repository.ProductRepository,
		actorID, productID string, delta decimal.Decimal, reason, ref string) (*entity.Movement, error)
}
