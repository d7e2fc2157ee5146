package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas con líneas y pagos en JSONB.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, session_id, items, total_usd, payments, change_tenders, credit_usd, customer_id, rate,
	status, actor_id, created_at, voided_at, voided_by`

func scanSale(row rowScanner) (*entity.Sale, error) {
	var s entity.Sale
	if err := row.Scan(&s.ID, &s.SessionID, &s.Items, &s.TotalUSD, &s.Payments, &s.Change, &s.CreditUSD,
		&s.CustomerID, &s.Rate, &s.Status, &s.ActorID, &s.CreatedAt, &s.VoidedAt, &s.VoidedBy); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.SessionID, s.Items, s.TotalUSD, s.Payments, s.Change, s.CreditUSD,
		s.CustomerID, s.Rate, s.Status, s.ActorID, s.CreatedAt, s.VoidedAt, s.VoidedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// GetByID obtiene una venta.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := one(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id), scanSale)
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene la venta y bloquea la fila.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := one(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id), scanSale)
	if err != nil {
		return nil, fmt.Errorf("get sale for update: %w", err)
	}
	return s, nil
}

// Update cambia estado y líneas (IDs de movimiento de la anulación).
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE sales SET items = $2, status = $3, voided_at = $4, voided_by = $5 WHERE id = $1`,
		s.ID, s.Items, s.Status, s.VoidedAt, s.VoidedBy)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBySession ventas de la sesión por fecha.
func (r *SaleRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return collect(rows, scanSale)
}
