package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ repository.AuditTemplateRepository = (*AuditTemplateRepo)(nil)
	_ repository.AuditSessionRepository  = (*AuditSessionRepo)(nil)
)

// AuditTemplateRepo plantillas de conteo.
type AuditTemplateRepo struct {
	q Querier
}

// NewAuditTemplateRepository construye el adaptador. Pasar pool o tx.
func NewAuditTemplateRepository(q Querier) *AuditTemplateRepo {
	return &AuditTemplateRepo{q: q}
}

func scanTemplate(row rowScanner) (*entity.AuditTemplate, error) {
	var t entity.AuditTemplate
	if err := row.Scan(&t.ID, &t.Name, &t.ProductIDs, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste la plantilla.
func (r *AuditTemplateRepo) Create(ctx context.Context, t *entity.AuditTemplate) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO audit_templates (id, name, product_ids, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.ProductIDs, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert audit template: %w", err)
	}
	return nil
}

// GetByID obtiene la plantilla.
func (r *AuditTemplateRepo) GetByID(ctx context.Context, id string) (*entity.AuditTemplate, error) {
	t, err := one(r.q.QueryRow(ctx,
		`SELECT id, name, product_ids, created_at FROM audit_templates WHERE id = $1`, id), scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("get audit template: %w", err)
	}
	return t, nil
}

// List plantillas por nombre.
func (r *AuditTemplateRepo) List(ctx context.Context) ([]*entity.AuditTemplate, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, product_ids, created_at FROM audit_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list audit templates: %w", err)
	}
	return collect(rows, scanTemplate)
}

// Delete elimina la plantilla; las sesiones iniciadas con ella no cambian.
func (r *AuditTemplateRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM audit_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete audit template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AuditSessionRepo sesiones de auditoría con sus partidas en JSONB.
type AuditSessionRepo struct {
	q Querier
}

// NewAuditSessionRepository construye el adaptador. Pasar pool o tx.
func NewAuditSessionRepository(q Querier) *AuditSessionRepo {
	return &AuditSessionRepo{q: q}
}

const auditColumns = `id, template_id, name, status, items, started_by, started_at, closed_by, closed_at`

func scanAudit(row rowScanner) (*entity.AuditSession, error) {
	var s entity.AuditSession
	if err := row.Scan(&s.ID, &s.TemplateID, &s.Name, &s.Status, &s.Items, &s.StartedBy, &s.StartedAt,
		&s.ClosedBy, &s.ClosedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste la sesión.
func (r *AuditSessionRepo) Create(ctx context.Context, s *entity.AuditSession) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_sessions (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.TemplateID, s.Name, s.Status, s.Items, s.StartedBy, s.StartedAt, s.ClosedBy, s.ClosedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert audit session: %w", err)
	}
	return nil
}

// GetByID obtiene la sesión.
func (r *AuditSessionRepo) GetByID(ctx context.Context, id string) (*entity.AuditSession, error) {
	s, err := one(r.q.QueryRow(ctx, `SELECT `+auditColumns+` FROM audit_sessions WHERE id = $1`, id), scanAudit)
	if err != nil {
		return nil, fmt.Errorf("get audit session: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene la sesión y bloquea la fila.
func (r *AuditSessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.AuditSession, error) {
	s, err := one(r.q.QueryRow(ctx, `SELECT `+auditColumns+` FROM audit_sessions WHERE id = $1 FOR UPDATE`, id), scanAudit)
	if err != nil {
		return nil, fmt.Errorf("get audit session for update: %w", err)
	}
	return s, nil
}

// Update reescribe partidas y estado.
func (r *AuditSessionRepo) Update(ctx context.Context, s *entity.AuditSession) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE audit_sessions SET status = $2, items = $3, closed_by = $4, closed_at = $5 WHERE id = $1`,
		s.ID, s.Status, s.Items, s.ClosedBy, s.ClosedAt)
	if err != nil {
		return fmt.Errorf("update audit session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List de la más reciente a la más antigua.
func (r *AuditSessionRepo) List(ctx context.Context, limit, offset int) ([]*entity.AuditSession, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_sessions ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit sessions: %w", err)
	}
	return collect(rows, scanAudit)
}
