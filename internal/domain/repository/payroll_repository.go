package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// EmployeeAccountRepository fichas de nómina con la deuda viva.
type EmployeeAccountRepository interface {
	Upsert(ctx context.Context, a *entity.EmployeeAccount) error
	GetByID(ctx context.Context, employeeID string) (*entity.EmployeeAccount, error)
	GetForUpdate(ctx context.Context, employeeID string) (*entity.EmployeeAccount, error)
	// ListForUpdate bloquea todas las fichas (cierre global).
	ListForUpdate(ctx context.Context) ([]*entity.EmployeeAccount, error)
	List(ctx context.Context) ([]*entity.EmployeeAccount, error)
}

// DebtEntryRepository libro de deuda. Los asientos nunca se borran: solo cambia Status.
type DebtEntryRepository interface {
	Append(ctx context.Context, e *entity.DebtEntry) error
	GetByID(ctx context.Context, id int64) (*entity.DebtEntry, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.DebtEntry, error)
	Update(ctx context.Context, e *entity.DebtEntry) error
	ListByEmployee(ctx context.Context, employeeID string) ([]*entity.DebtEntry, error)
	ListPending(ctx context.Context, employeeID string) ([]*entity.DebtEntry, error)
}

// PeriodRepository periodos archivados.
type PeriodRepository interface {
	Create(ctx context.Context, p *entity.Period) error
	List(ctx context.Context, limit, offset int) ([]*entity.Period, error)
}
