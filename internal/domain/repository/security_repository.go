package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// SecurityEventRepository log de seguridad de solo-agregado.
type SecurityEventRepository interface {
	Append(ctx context.Context, e *entity.SecurityEvent) error
	List(ctx context.Context, limit int) ([]*entity.SecurityEvent, error)
}
