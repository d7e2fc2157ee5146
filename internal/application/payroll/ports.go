package payroll

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con los repositorios de nómina.
type TxRunner interface {
	RunPayroll(ctx context.Context, fn func(
		accountRepo repository.EmployeeAccountRepository,
		debtRepo repository.DebtEntryRepository,
		periodRepo repository.PeriodRepository,
	) error) error
}
