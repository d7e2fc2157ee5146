package payroll_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

var owner = &permission.Actor{ID: "dueno", Role: permission.RoleOwner}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newLedger(t *testing.T) *payroll.Ledger {
	t.Helper()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), nil, nil, zerolog.Nop())
	l := payroll.NewLedger(memory.NewStore(), guard, zerolog.Nop())
	_, err := l.UpsertAccount(context.Background(), owner, payroll.AccountInput{EmployeeID: "e1", Name: "Ana", BasePay: d("100")})
	require.NoError(t, err)
	return l
}

func advance(amount string) payroll.DebtInput {
	return payroll.DebtInput{EmployeeID: "e1", Kind: entity.DebtAdvance, Amount: d(amount), Reason: "Adelanto"}
}

func TestCapacidadDeCredito(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	_, err := l.RecordDebt(ctx, owner, advance("40"))
	require.NoError(t, err)
	_, err = l.RecordDebt(ctx, owner, advance("50"))
	require.NoError(t, err)

	_, err = l.RecordDebt(ctx, owner, advance("20"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCreditExceeded)
	var capErr *payroll.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, capErr.Capacity.Shortfall.Equal(d("10")))

	acc, err := l.Account(ctx, owner, "e1")
	require.NoError(t, err)
	assert.True(t, acc.Debt.Equal(d("90")), "el cargo rechazado no toca la deuda")

	c, err := l.CheckCreditCapacity(ctx, owner, "e1", d("10"))
	require.NoError(t, err)
	assert.True(t, c.Allowed)
}

func TestSoloDeudaParaEmpleadoConFicha(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	in := advance("5")
	in.EmployeeID = "desconocido"
	_, err := l.RecordDebt(ctx, owner, in)
	assert.ErrorIs(t, err, domain.ErrCreditExceeded)

	in = advance("5")
	in.Kind = entity.DebtPayment
	_, err = l.RecordDebt(ctx, owner, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReversionDeDeuda(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	e, err := l.RecordDebt(ctx, owner, advance("30"))
	require.NoError(t, err)

	_, err = l.ReverseDebt(ctx, owner, e.ID)
	require.NoError(t, err)
	_, err = l.ReverseDebt(ctx, owner, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotPending)

	acc, err := l.Account(ctx, owner, "e1")
	require.NoError(t, err)
	assert.True(t, acc.Debt.IsZero())
	assert.NoError(t, l.VerifyDebt(ctx, owner, "e1"))
}

func TestCierreIndividualDejaDeudaEnCero(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	_, err := l.RecordDebt(ctx, owner, advance("40"))
	require.NoError(t, err)
	_, err = l.RecordDebt(ctx, owner, payroll.DebtInput{EmployeeID: "e1", Kind: entity.DebtConsumption, Amount: d("5.50"), Reason: "Refresco"})
	require.NoError(t, err)

	res, err := l.PayrollClose(ctx, owner, "e1")
	require.NoError(t, err)
	assert.Equal(t, entity.DebtPayment, res.Payment.Kind)
	assert.True(t, res.Payment.Amount.Equal(d("54.50")))
	assert.True(t, res.Period.TotalDebt.Equal(d("45.50")))
	require.Len(t, res.Period.Snapshots, 1)
	assert.Len(t, res.Period.Snapshots[0].EntryIDs, 2)

	acc, err := l.Account(ctx, owner, "e1")
	require.NoError(t, err)
	assert.True(t, acc.Debt.IsZero())
	assert.NotNil(t, acc.LastPaymentAt)
	assert.NoError(t, l.VerifyDebt(ctx, owner, "e1"))

	history, err := l.History(ctx, owner, "e1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for _, e := range history[:2] {
		assert.Equal(t, entity.DebtSettled, e.Status)
		assert.Equal(t, res.Period.ID, e.PeriodID)
	}
}

func TestCierreGlobal(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	_, err := l.UpsertAccount(ctx, owner, payroll.AccountInput{EmployeeID: "e2", Name: "Luis", BasePay: d("80")})
	require.NoError(t, err)
	_, err = l.RecordDebt(ctx, owner, advance("25"))
	require.NoError(t, err)

	preview, err := l.Preview(ctx, owner)
	require.NoError(t, err)
	assert.True(t, preview.TotalNet.Equal(d("155")))

	p, err := l.GlobalPeriodClose(ctx, owner)
	require.NoError(t, err)
	assert.True(t, p.TotalBasePay.Equal(d("180")))
	assert.True(t, p.TotalDebt.Equal(d("25")))
	assert.True(t, p.TotalNet.Equal(preview.TotalNet))
	assert.Len(t, p.Snapshots, 2)

	accounts, err := l.Accounts(ctx, owner)
	require.NoError(t, err)
	for _, a := range accounts {
		assert.True(t, a.Debt.IsZero())
	}
	periods, err := l.Periods(ctx, owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, p.ID, periods[0].ID)
}

func TestNominaRequierePlanConNomina(t *testing.T) {
	guard := security.NewGuard(permission.NewGate(permission.TierBodega), nil, nil, zerolog.Nop())
	l := payroll.NewLedger(memory.NewStore(), guard, zerolog.Nop())
	_, err := l.UpsertAccount(context.Background(), owner, payroll.AccountInput{EmployeeID: "e1", BasePay: d("1")})
	assert.ErrorIs(t, err, domain.ErrForbidden, "el plan limita incluso al dueño")
}
