package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pos-ledger/internal/application/audit"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ treasury.TxRunner  = (*TxRunner)(nil)
	_ payroll.TxRunner   = (*TxRunner)(nil)
	_ sales.TxRunner     = (*TxRunner)(nil)
	_ audit.TxRunner     = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx inicia la transacción, ejecuta fn y hace Commit; ante error Rollback.
// Los fallos del driver salen como *domain.TransactionError.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &domain.TransactionError{Op: "begin transaction", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return txFailure("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.TransactionError{Op: "commit transaction", Err: err}
	}
	return nil
}

// txFailure deja pasar los rechazos del dominio tal cual y envuelve el resto.
func txFailure(op string, err error) error {
	if domain.IsBusiness(err) {
		return err
	}
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) {
		return err
	}
	return &domain.TransactionError{Op: op, Err: err}
}

// Run transacción del kardex.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewMovementRepository(tx), NewProductRepository(tx), NewCategoryRepository(tx))
	})
}

// RunTreasury transacción de caja.
func (r *TxRunner) RunTreasury(ctx context.Context, fn func(
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	expenseRepo repository.ExpenseRepository,
	cutRepo repository.CutRepository,
	movRepo repository.MovementRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCashSessionRepository(tx), NewTreasuryEntryRepository(tx), NewExpenseRepository(tx),
			NewCutRepository(tx), NewMovementRepository(tx))
	})
}

// RunPayroll transacción de nómina.
func (r *TxRunner) RunPayroll(ctx context.Context, fn func(
	accountRepo repository.EmployeeAccountRepository,
	debtRepo repository.DebtEntryRepository,
	periodRepo repository.PeriodRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewEmployeeAccountRepository(tx), NewDebtEntryRepository(tx), NewPeriodRepository(tx))
	})
}

// RunSale una transacción para las piernas de inventario y caja de la venta.
func (r *TxRunner) RunSale(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewMovementRepository(tx), NewProductRepository(tx), NewCashSessionRepository(tx),
			NewTreasuryEntryRepository(tx), NewSaleRepository(tx))
	})
}

// RunAudit transacción de auditoría física.
func (r *TxRunner) RunAudit(ctx context.Context, fn func(
	templateRepo repository.AuditTemplateRepository,
	sessionRepo repository.AuditSessionRepository,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewAuditTemplateRepository(tx), NewAuditSessionRepository(tx), NewMovementRepository(tx),
			NewProductRepository(tx))
	})
}
