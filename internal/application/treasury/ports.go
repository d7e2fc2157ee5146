package treasury

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con los repositorios de caja.
// movRepo solo se lee (costo del consumo interno en el cierre Z).
type TxRunner interface {
	RunTreasury(ctx context.Context, fn func(
		sessionRepo repository.CashSessionRepository,
		entryRepo repository.TreasuryEntryRepository,
		expenseRepo repository.ExpenseRepository,
		cutRepo repository.CutRepository,
		movRepo repository.MovementRepository,
	) error) error
}

// CutRenderer genera el documento imprimible de un cierre Z.
type CutRenderer interface {
	RenderCut(cut *entity.Cut) ([]byte, error)
}
