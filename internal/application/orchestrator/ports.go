package orchestrator

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	dpayroll "github.com/jhoicas/pos-ledger/internal/domain/payroll"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
)

// Stock operaciones del kardex que componen las acciones cruzadas.
type Stock interface {
	InternalConsumption(ctx context.Context, actor *permission.Actor, in inventory.ConsumptionInput) (*entity.Movement, error)
	RestoreConsumption(ctx context.Context, actor *permission.Actor, movementID int64, reason string) (*entity.Movement, error)
	ReceiveSupply(ctx context.Context, actor *permission.Actor, in inventory.SupplyInput) (*entity.Movement, error)
}

// Cash operaciones de caja.
type Cash interface {
	ApplyExpense(ctx context.Context, actor *permission.Actor, in treasury.ExpenseInput) (*entity.Expense, error)
	RevertExpense(ctx context.Context, actor *permission.Actor, expenseID string) (*entity.Expense, error)
}

// Payroll operaciones del libro de deuda.
type Payroll interface {
	RecordDebt(ctx context.Context, actor *permission.Actor, in payroll.DebtInput) (*entity.DebtEntry, error)
	ReverseDebt(ctx context.Context, actor *permission.Actor, entryID int64) (*entity.DebtEntry, error)
	GetEntry(ctx context.Context, actor *permission.Actor, entryID int64) (*entity.DebtEntry, error)
	CheckCreditCapacity(ctx context.Context, actor *permission.Actor, employeeID string, proposed decimal.Decimal) (dpayroll.Capacity, error)
	Preview(ctx context.Context, actor *permission.Actor) (*entity.Period, error)
	GlobalPeriodClose(ctx context.Context, actor *permission.Actor) (*entity.Period, error)
}

var (
	_ Stock   = (*inventory.StockLedger)(nil)
	_ Cash    = (*treasury.Ledger)(nil)
	_ Payroll = (*payroll.Ledger)(nil)
)
