package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// AuditTemplateRepository plantillas de auditoría.
type AuditTemplateRepository interface {
	Create(ctx context.Context, t *entity.AuditTemplate) error
	GetByID(ctx context.Context, id string) (*entity.AuditTemplate, error)
	List(ctx context.Context) ([]*entity.AuditTemplate, error)
	Delete(ctx context.Context, id string) error
}

// AuditSessionRepository sesiones de conciliación física.
type AuditSessionRepository interface {
	Create(ctx context.Context, s *entity.AuditSession) error
	GetByID(ctx context.Context, id string) (*entity.AuditSession, error)
	GetForUpdate(ctx context.Context, id string) (*entity.AuditSession, error)
	Update(ctx context.Context, s *entity.AuditSession) error
	List(ctx context.Context, limit, offset int) ([]*entity.AuditSession, error)
}
