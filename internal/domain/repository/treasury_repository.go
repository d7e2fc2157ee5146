package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// CashSessionRepository sesiones de caja. A lo sumo una abierta a la vez:
// Create devuelve domain.ErrSessionOpen si ya existe una.
type CashSessionRepository interface {
	Create(ctx context.Context, s *entity.CashSession) error
	GetByID(ctx context.Context, id string) (*entity.CashSession, error)
	// GetOpenForUpdate devuelve la sesión abierta bloqueada, o (nil, nil).
	GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error)
	GetOpen(ctx context.Context) (*entity.CashSession, error)
	Update(ctx context.Context, s *entity.CashSession) error
}

// TreasuryEntryRepository log de asientos por cuadrante.
type TreasuryEntryRepository interface {
	Append(ctx context.Context, e *entity.TreasuryEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]*entity.TreasuryEntry, error)
}

// ExpenseRepository egresos de caja.
type ExpenseRepository interface {
	Create(ctx context.Context, e *entity.Expense) error
	GetByID(ctx context.Context, id string) (*entity.Expense, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Expense, error)
	Update(ctx context.Context, e *entity.Expense) error
	ListBySession(ctx context.Context, sessionID string) ([]*entity.Expense, error)
}

// CutRepository cierres Z (inmutables).
type CutRepository interface {
	Create(ctx context.Context, c *entity.Cut) error
	GetByID(ctx context.Context, id string) (*entity.Cut, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Cut, error)
}
