package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ repository.EmployeeAccountRepository = (*EmployeeAccountRepo)(nil)
	_ repository.DebtEntryRepository       = (*DebtEntryRepo)(nil)
	_ repository.PeriodRepository          = (*PeriodRepo)(nil)
)

// EmployeeAccountRepo fichas de nómina.
type EmployeeAccountRepo struct {
	q Querier
}

// NewEmployeeAccountRepository construye el adaptador. Pasar pool o tx.
func NewEmployeeAccountRepository(q Querier) *EmployeeAccountRepo {
	return &EmployeeAccountRepo{q: q}
}

const accountColumns = `employee_id, name, base_pay, debt, last_payment_at, last_close_at, updated_at`

func scanAccount(row rowScanner) (*entity.EmployeeAccount, error) {
	var a entity.EmployeeAccount
	if err := row.Scan(&a.EmployeeID, &a.Name, &a.BasePay, &a.Debt, &a.LastPaymentAt, &a.LastCloseAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert crea o reescribe la ficha.
func (r *EmployeeAccountRepo) Upsert(ctx context.Context, a *entity.EmployeeAccount) error {
	query := `
		INSERT INTO employee_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id) DO UPDATE SET
			name = EXCLUDED.name, base_pay = EXCLUDED.base_pay, debt = EXCLUDED.debt,
			last_payment_at = EXCLUDED.last_payment_at, last_close_at = EXCLUDED.last_close_at,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, a.EmployeeID, a.Name, a.BasePay, a.Debt, a.LastPaymentAt, a.LastCloseAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert employee account: %w", err)
	}
	return nil
}

// GetByID obtiene la ficha.
func (r *EmployeeAccountRepo) GetByID(ctx context.Context, employeeID string) (*entity.EmployeeAccount, error) {
	a, err := one(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM employee_accounts WHERE employee_id = $1`, employeeID), scanAccount)
	if err != nil {
		return nil, fmt.Errorf("get employee account: %w", err)
	}
	return a, nil
}

// GetForUpdate obtiene la ficha y bloquea la fila.
func (r *EmployeeAccountRepo) GetForUpdate(ctx context.Context, employeeID string) (*entity.EmployeeAccount, error) {
	a, err := one(r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM employee_accounts WHERE employee_id = $1 FOR UPDATE`, employeeID), scanAccount)
	if err != nil {
		return nil, fmt.Errorf("get employee account for update: %w", err)
	}
	return a, nil
}

// ListForUpdate bloquea todas las fichas en orden de ID.
func (r *EmployeeAccountRepo) ListForUpdate(ctx context.Context) ([]*entity.EmployeeAccount, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM employee_accounts ORDER BY employee_id FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("list employee accounts for update: %w", err)
	}
	return collect(rows, scanAccount)
}

// List fichas por ID.
func (r *EmployeeAccountRepo) List(ctx context.Context) ([]*entity.EmployeeAccount, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM employee_accounts ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("list employee accounts: %w", err)
	}
	return collect(rows, scanAccount)
}

// DebtEntryRepo libro de deuda; solo cambian estado y fecha de anulación.
type DebtEntryRepo struct {
	q Querier
}

// NewDebtEntryRepository construye el adaptador. Pasar pool o tx.
func NewDebtEntryRepository(q Querier) *DebtEntryRepo {
	return &DebtEntryRepo{q: q}
}

const debtColumns = `id, employee_id, kind, amount, reason, status, cross_ref, period_id, actor_id, created_at, voided_at`

func scanDebt(row rowScanner) (*entity.DebtEntry, error) {
	var e entity.DebtEntry
	if err := row.Scan(&e.ID, &e.EmployeeID, &e.Kind, &e.Amount, &e.Reason, &e.Status, &e.CrossRef,
		&e.PeriodID, &e.ActorID, &e.CreatedAt, &e.VoidedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Append inserta el asiento y devuelve su ID.
func (r *DebtEntryRepo) Append(ctx context.Context, e *entity.DebtEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO debt_entries (employee_id, kind, amount, reason, status, cross_ref, period_id, actor_id, created_at, voided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		e.EmployeeID, string(e.Kind), e.Amount, e.Reason, e.Status, e.CrossRef, e.PeriodID, e.ActorID, e.CreatedAt, e.VoidedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert debt entry: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento.
func (r *DebtEntryRepo) GetByID(ctx context.Context, id int64) (*entity.DebtEntry, error) {
	e, err := one(r.q.QueryRow(ctx, `SELECT `+debtColumns+` FROM debt_entries WHERE id = $1`, id), scanDebt)
	if err != nil {
		return nil, fmt.Errorf("get debt entry: %w", err)
	}
	return e, nil
}

// GetForUpdate obtiene el asiento y bloquea la fila.
func (r *DebtEntryRepo) GetForUpdate(ctx context.Context, id int64) (*entity.DebtEntry, error) {
	e, err := one(r.q.QueryRow(ctx, `SELECT `+debtColumns+` FROM debt_entries WHERE id = $1 FOR UPDATE`, id), scanDebt)
	if err != nil {
		return nil, fmt.Errorf("get debt entry for update: %w", err)
	}
	return e, nil
}

// Update cambia estado, periodo y fecha de anulación.
func (r *DebtEntryRepo) Update(ctx context.Context, e *entity.DebtEntry) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE debt_entries SET status = $2, period_id = $3, voided_at = $4 WHERE id = $1`,
		e.ID, e.Status, e.PeriodID, e.VoidedAt)
	if err != nil {
		return fmt.Errorf("update debt entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByEmployee historial del empleado en orden de ID.
func (r *DebtEntryRepo) ListByEmployee(ctx context.Context, employeeID string) ([]*entity.DebtEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+debtColumns+` FROM debt_entries WHERE employee_id = $1 ORDER BY id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list debt entries: %w", err)
	}
	return collect(rows, scanDebt)
}

// ListPending asientos pendientes del empleado en orden de ID.
func (r *DebtEntryRepo) ListPending(ctx context.Context, employeeID string) ([]*entity.DebtEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+debtColumns+` FROM debt_entries WHERE employee_id = $1 AND status = $2 ORDER BY id`,
		employeeID, entity.DebtPending)
	if err != nil {
		return nil, fmt.Errorf("list pending debt entries: %w", err)
	}
	return collect(rows, scanDebt)
}

// PeriodRepo periodos archivados.
type PeriodRepo struct {
	q Querier
}

// NewPeriodRepository construye el adaptador. Pasar pool o tx.
func NewPeriodRepository(q Querier) *PeriodRepo {
	return &PeriodRepo{q: q}
}

// Create archiva el periodo.
func (r *PeriodRepo) Create(ctx context.Context, p *entity.Period) error {
	query := `
		INSERT INTO payroll_periods (id, employee_id, total_base_pay, total_debt, total_net, snapshots, actor_id, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.EmployeeID, p.TotalBasePay, p.TotalDebt, p.TotalNet, p.Snapshots, p.ActorID, p.ClosedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payroll period: %w", err)
	}
	return nil
}

// List del más reciente al más antiguo.
func (r *PeriodRepo) List(ctx context.Context, limit, offset int) ([]*entity.Period, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, employee_id, total_base_pay, total_debt, total_net, snapshots, actor_id, closed_at
		FROM payroll_periods ORDER BY seq DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payroll periods: %w", err)
	}
	return collect(rows, func(row rowScanner) (*entity.Period, error) {
		var p entity.Period
		if err := row.Scan(&p.ID, &p.EmployeeID, &p.TotalBasePay, &p.TotalDebt, &p.TotalNet, &p.Snapshots,
			&p.ActorID, &p.ClosedAt); err != nil {
			return nil, err
		}
		return &p, nil
	})
}
