package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

var (
	_ repository.CashSessionRepository   = (*CashSessionRepo)(nil)
	_ repository.TreasuryEntryRepository = (*TreasuryEntryRepo)(nil)
	_ repository.ExpenseRepository       = (*ExpenseRepo)(nil)
	_ repository.CutRepository           = (*CutRepo)(nil)
)

// CashSessionRepo sesiones de caja. El índice único parcial cash_sessions_one_open
// impide dos sesiones abiertas.
type CashSessionRepo struct {
	q Querier
}

// NewCashSessionRepository construye el adaptador. Pasar pool o tx.
func NewCashSessionRepository(q Querier) *CashSessionRepo {
	return &CashSessionRepo{q: q}
}

const sessionColumns = `id, status, opening, balances, inflows, outflows, sales_count, voided_count,
	sales_total_usd, opened_by, opened_at, closed_by, closed_at, updated_at`

func scanSession(row rowScanner) (*entity.CashSession, error) {
	var s entity.CashSession
	if err := row.Scan(&s.ID, &s.Status, &s.Opening, &s.Balances, &s.Inflows, &s.Outflows,
		&s.SalesCount, &s.VoidedCount, &s.SalesTotalUSD, &s.OpenedBy, &s.OpenedAt,
		&s.ClosedBy, &s.ClosedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create abre la sesión; con otra abierta devuelve domain.ErrSessionOpen.
func (r *CashSessionRepo) Create(ctx context.Context, s *entity.CashSession) error {
	query := `
		INSERT INTO cash_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Status, s.Opening, s.Balances, s.Inflows, s.Outflows, s.SalesCount, s.VoidedCount,
		s.SalesTotalUSD, s.OpenedBy, s.OpenedAt, s.ClosedBy, s.ClosedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == "cash_sessions_one_open" {
				return domain.ErrSessionOpen
			}
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cash session: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión.
func (r *CashSessionRepo) GetByID(ctx context.Context, id string) (*entity.CashSession, error) {
	s, err := one(r.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM cash_sessions WHERE id = $1`, id), scanSession)
	if err != nil {
		return nil, fmt.Errorf("get cash session: %w", err)
	}
	return s, nil
}

// GetOpenForUpdate sesión abierta bloqueada hasta el fin de la transacción.
func (r *CashSessionRepo) GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error) {
	s, err := one(r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM cash_sessions WHERE status = $1 FOR UPDATE`, entity.SessionOpen), scanSession)
	if err != nil {
		return nil, fmt.Errorf("get open session for update: %w", err)
	}
	return s, nil
}

// GetOpen sesión abierta sin bloqueo.
func (r *CashSessionRepo) GetOpen(ctx context.Context) (*entity.CashSession, error) {
	s, err := one(r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM cash_sessions WHERE status = $1`, entity.SessionOpen), scanSession)
	if err != nil {
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return s, nil
}

// Update reescribe saldos, contadores y estado.
func (r *CashSessionRepo) Update(ctx context.Context, s *entity.CashSession) error {
	query := `
		UPDATE cash_sessions SET status = $2, balances = $3, inflows = $4, outflows = $5, sales_count = $6,
			voided_count = $7, sales_total_usd = $8, closed_by = $9, closed_at = $10, updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.Status, s.Balances, s.Inflows, s.Outflows, s.SalesCount, s.VoidedCount, s.SalesTotalUSD,
		s.ClosedBy, s.ClosedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update cash session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TreasuryEntryRepo log de asientos por cuadrante.
type TreasuryEntryRepo struct {
	q Querier
}

// NewTreasuryEntryRepository construye el adaptador. Pasar pool o tx.
func NewTreasuryEntryRepository(q Querier) *TreasuryEntryRepo {
	return &TreasuryEntryRepo{q: q}
}

// Append inserta el asiento.
func (r *TreasuryEntryRepo) Append(ctx context.Context, e *entity.TreasuryEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO treasury_entries (session_id, kind, quadrant, amount, ref, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		e.SessionID, string(e.Kind), e.Quadrant.String(), e.Amount, e.Ref, e.ActorID, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert treasury entry: %w", err)
	}
	return nil
}

// ListBySession asientos de la sesión en orden de ID.
func (r *TreasuryEntryRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.TreasuryEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, kind, quadrant, amount, ref, actor_id, created_at
		FROM treasury_entries WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list treasury entries: %w", err)
	}
	return collect(rows, func(row rowScanner) (*entity.TreasuryEntry, error) {
		var (
			e    entity.TreasuryEntry
			quad string
		)
		if err := row.Scan(&e.ID, &e.SessionID, &e.Kind, &quad, &e.Amount, &e.Ref, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		q, err := money.ParseQuadrant(quad)
		if err != nil {
			return nil, fmt.Errorf("asiento %d: %w", e.ID, err)
		}
		e.Quadrant = q
		return &e, nil
	})
}

// ExpenseRepo egresos de caja.
type ExpenseRepo struct {
	q Querier
}

// NewExpenseRepository construye el adaptador. Pasar pool o tx.
func NewExpenseRepository(q Querier) *ExpenseRepo {
	return &ExpenseRepo{q: q}
}

const expenseColumns = `id, session_id, amount, currency, channel, reason, category, status, balances,
	actor_id, created_at, reverted_at, reverted_by`

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var e entity.Expense
	if err := row.Scan(&e.ID, &e.SessionID, &e.Amount, &e.Currency, &e.Channel, &e.Reason, &e.Category,
		&e.Status, &e.Balances, &e.ActorID, &e.CreatedAt, &e.RevertedAt, &e.RevertedBy); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create persiste el gasto.
func (r *ExpenseRepo) Create(ctx context.Context, e *entity.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.SessionID, e.Amount, string(e.Currency), string(e.Channel), e.Reason, e.Category, e.Status,
		e.Balances, e.ActorID, e.CreatedAt, e.RevertedAt, e.RevertedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetByID obtiene un gasto.
func (r *ExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	e, err := one(r.q.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id), scanExpense)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// GetForUpdate obtiene el gasto y bloquea la fila.
func (r *ExpenseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Expense, error) {
	e, err := one(r.q.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id), scanExpense)
	if err != nil {
		return nil, fmt.Errorf("get expense for update: %w", err)
	}
	return e, nil
}

// Update solo cambia el estado de reversión.
func (r *ExpenseRepo) Update(ctx context.Context, e *entity.Expense) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE expenses SET status = $2, reverted_at = $3, reverted_by = $4 WHERE id = $1`,
		e.ID, e.Status, e.RevertedAt, e.RevertedBy)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBySession gastos de la sesión por fecha.
func (r *ExpenseRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.Expense, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collect(rows, scanExpense)
}

// CutRepo cierres Z; no hay UPDATE.
type CutRepo struct {
	q Querier
}

// NewCutRepository construye el adaptador. Pasar pool o tx.
func NewCutRepository(q Querier) *CutRepo {
	return &CutRepo{q: q}
}

const cutColumns = `id, session_id, opening, final, inflows, outflows, sales_count, voided_count, sales_total_usd,
	expenses_usd, expenses_ves, consumption_cost_usd, opened_at, closed_by, closed_at`

func scanCut(row rowScanner) (*entity.Cut, error) {
	var c entity.Cut
	if err := row.Scan(&c.ID, &c.SessionID, &c.Opening, &c.Final, &c.Inflows, &c.Outflows, &c.SalesCount,
		&c.VoidedCount, &c.SalesTotalUSD, &c.ExpensesUSD, &c.ExpensesVES, &c.ConsumptionCostUSD,
		&c.OpenedAt, &c.ClosedBy, &c.ClosedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create archiva el cierre; uno por sesión.
func (r *CutRepo) Create(ctx context.Context, c *entity.Cut) error {
	query := `
		INSERT INTO cuts (` + cutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.SessionID, c.Opening, c.Final, c.Inflows, c.Outflows, c.SalesCount, c.VoidedCount, c.SalesTotalUSD,
		c.ExpensesUSD, c.ExpensesVES, c.ConsumptionCostUSD, c.OpenedAt, c.ClosedBy, c.ClosedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cut: %w", err)
	}
	return nil
}

// GetByID obtiene un cierre.
func (r *CutRepo) GetByID(ctx context.Context, id string) (*entity.Cut, error) {
	c, err := one(r.q.QueryRow(ctx, `SELECT `+cutColumns+` FROM cuts WHERE id = $1`, id), scanCut)
	if err != nil {
		return nil, fmt.Errorf("get cut: %w", err)
	}
	return c, nil
}

// List del más reciente al más antiguo.
func (r *CutRepo) List(ctx context.Context, limit, offset int) ([]*entity.Cut, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+cutColumns+` FROM cuts ORDER BY closed_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cuts: %w", err)
	}
	return collect(rows, scanCut)
}
