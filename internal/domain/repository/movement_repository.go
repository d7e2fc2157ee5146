package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// MovementRepository kardex de solo-agregado. El único reescrito permitido es el
// cambio cosmético de nombre (RenameProduct).
type MovementRepository interface {
	// Append asigna ID monotónico y CreatedAt.
	Append(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id int64) (*entity.Movement, error)
	// ListByProduct en orden de confirmación (ID ascendente).
	ListByProduct(ctx context.Context, productID string) ([]*entity.Movement, error)
	ListByKindSince(ctx context.Context, kind entity.MovementKind, since time.Time) ([]*entity.Movement, error)
	// RenameProduct reescribe el nombre en los movimientos del producto y en los
	// legados sin producto que usan oldName. Devuelve filas afectadas.
	RenameProduct(ctx context.Context, productID, oldName, newName string) (int64, error)
}
