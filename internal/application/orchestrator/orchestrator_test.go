package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/orchestrator"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

var owner = &permission.Actor{ID: "dueno", Role: permission.RoleOwner}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type books struct {
	guard   *security.Guard
	stock   *inventory.StockLedger
	cash    *treasury.Ledger
	payroll *payroll.Ledger
}

func newBooks(t *testing.T) books {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), nil, nil, zerolog.Nop())
	b := books{
		guard:   guard,
		stock:   inventory.NewStockLedger(store, guard, inventory.Options{}, zerolog.Nop()),
		cash:    treasury.NewLedger(store, guard, treasury.Options{}, zerolog.Nop()),
		payroll: payroll.NewLedger(store, guard, zerolog.Nop()),
	}
	_, err := b.cash.OpenSession(ctx, owner, money.Quadrants{USDCash: d("100")})
	require.NoError(t, err)
	_, err = b.payroll.UpsertAccount(ctx, owner, payroll.AccountInput{EmployeeID: "e1", Name: "Ana", BasePay: d("100")})
	require.NoError(t, err)
	return b
}

func (b books) orchestrator(cash orchestrator.Cash, pay orchestrator.Payroll) *orchestrator.Orchestrator {
	if cash == nil {
		cash = b.cash
	}
	if pay == nil {
		pay = b.payroll
	}
	return orchestrator.New(b.stock, cash, pay, b.guard, nil, zerolog.Nop())
}

func (b books) balances(t *testing.T) money.Quadrants {
	t.Helper()
	s, err := b.cash.CurrentSession(context.Background(), owner)
	require.NoError(t, err)
	return s.Balances
}

func (b books) debt(t *testing.T) decimal.Decimal {
	t.Helper()
	acc, err := b.payroll.Account(context.Background(), owner, "e1")
	require.NoError(t, err)
	return acc.Debt
}

// payrollCaido rechaza todo cargo de deuda.
type payrollCaido struct{ *payroll.Ledger }

func (payrollCaido) RecordDebt(context.Context, *permission.Actor, payroll.DebtInput) (*entity.DebtEntry, error) {
	return nil, errors.New("base de datos no disponible")
}

// cajaSinReverso no puede compensar egresos.
type cajaSinReverso struct{ *treasury.Ledger }

func (cajaSinReverso) RevertExpense(context.Context, *permission.Actor, string) (*entity.Expense, error) {
	return nil, errors.New("caja bloqueada")
}

func TestAdelantoYReversion(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	o := b.orchestrator(nil, nil)

	res, err := o.AdvancePay(ctx, owner, orchestrator.AdvanceInput{EmployeeID: "e1", Amount: d("30"), Currency: money.USD})
	require.NoError(t, err)
	assert.Equal(t, res.Expense.ID, res.Entry.CrossRef.ExpenseID)
	assert.True(t, b.balances(t).USDCash.Equal(d("70")))
	assert.True(t, b.debt(t).Equal(d("30")))

	reversed, err := o.RevertPairedMovement(ctx, owner, res.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DebtVoided, reversed.Status)
	assert.True(t, b.balances(t).USDCash.Equal(d("100")))
	assert.True(t, b.debt(t).IsZero())

	_, err = o.RevertPairedMovement(ctx, owner, res.Entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestAdelantoEnBolivares(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	_, err := b.cash.ApplySale(ctx, owner, &entity.Sale{
		ID:       "v1",
		TotalUSD: d("20"),
		Payments: []entity.Tender{{Currency: money.VES, Channel: money.Cash, Amount: d("2000")}},
		Rate:     d("100"),
	})
	require.NoError(t, err)
	o := b.orchestrator(nil, nil)

	res, err := o.AdvancePay(ctx, owner, orchestrator.AdvanceInput{EmployeeID: "e1", Amount: d("1500"), Currency: money.VES, Rate: d("100")})
	require.NoError(t, err)
	assert.True(t, res.Entry.Amount.Equal(d("15")), "la deuda se lleva en USD")
	assert.True(t, res.Entry.CrossRef.OriginalAmount.Equal(d("1500")))
	assert.True(t, b.balances(t).VESCash.Equal(d("500")))
}

func TestAdelantoSinCapacidadNoTocaLaCaja(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	o := b.orchestrator(nil, nil)

	_, err := o.AdvancePay(ctx, owner, orchestrator.AdvanceInput{EmployeeID: "e1", Amount: d("120"), Currency: money.USD})
	assert.ErrorIs(t, err, domain.ErrCreditExceeded)
	assert.True(t, b.balances(t).USDCash.Equal(d("100")))

	expenses, err := b.cash.ListExpenses(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestAdelantoCompensaLaCajaSiFallaLaDeuda(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	o := b.orchestrator(nil, payrollCaido{b.payroll})

	_, err := o.AdvancePay(ctx, owner, orchestrator.AdvanceInput{EmployeeID: "e1", Amount: d("30"), Currency: money.USD})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSagaFailed)
	var saga *domain.SagaError
	require.ErrorAs(t, err, &saga)
	assert.True(t, saga.Compensated())
	assert.Equal(t, "record_debt", saga.Step)

	assert.True(t, b.balances(t).USDCash.Equal(d("100")))
	expenses, err := b.cash.ListExpenses(ctx, owner)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, entity.ExpenseReverted, expenses[0].Status)
	assert.NoError(t, b.cash.VerifySession(ctx, owner))
}

func TestCompensacionFallidaConservaReferencia(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	o := b.orchestrator(cajaSinReverso{b.cash}, payrollCaido{b.payroll})

	_, err := o.AdvancePay(ctx, owner, orchestrator.AdvanceInput{EmployeeID: "e1", Amount: d("30"), Currency: money.USD})
	var saga *domain.SagaError
	require.ErrorAs(t, err, &saga)
	assert.False(t, saga.Compensated())
	assert.NotEmpty(t, saga.CrossRef["expense_id"])
	assert.True(t, b.balances(t).USDCash.Equal(d("70")), "el egreso queda sin pareja")
}

func TestConsumoDeEmpleadoYReversion(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	p, err := b.stock.CreateProduct(ctx, owner, inventory.CreateProductInput{
		Name: "Refresco", Price: d("2.50"), Cost: d("1.20"), InitialStock: d("10"),
	})
	require.NoError(t, err)
	o := b.orchestrator(nil, nil)

	res, err := o.ChargeEmployeeConsumption(ctx, owner, orchestrator.ConsumptionChargeInput{EmployeeID: "e1", ProductID: p.ID, Quantity: d("2")})
	require.NoError(t, err)
	assert.True(t, res.Entry.Amount.Equal(d("5")))
	assert.Equal(t, res.Movement.ID, res.Entry.CrossRef.MovementID)
	got, err := b.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("8")))

	_, err = o.RevertPairedMovement(ctx, owner, res.Entry.ID)
	require.NoError(t, err)
	got, err = b.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("10")))
	assert.True(t, b.debt(t).IsZero())
}

func TestCierreDeNominaConPago(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	o := b.orchestrator(nil, nil)
	_, err := o.AdvancePay(ctx, owner, orchestrator.AdvanceInput{EmployeeID: "e1", Amount: d("30"), Currency: money.USD})
	require.NoError(t, err)

	res, err := o.ClosePayrollWithPayment(ctx, owner, orchestrator.PayrollPaymentInput{})
	require.NoError(t, err)
	require.NotNil(t, res.Expense)
	assert.True(t, res.Expense.Amount.Equal(d("70")))
	assert.True(t, res.Period.TotalNet.Equal(d("70")))
	assert.True(t, b.balances(t).USDCash.IsZero())
	assert.True(t, b.debt(t).IsZero())
}

func TestCompraDeInsumos(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	p, err := b.stock.CreateProduct(ctx, owner, inventory.CreateProductInput{
		Name: "Azúcar", Price: d("2"), Cost: d("1"), InitialStock: d("10"),
	})
	require.NoError(t, err)
	o := b.orchestrator(nil, nil)

	res, err := o.RegisterSupplyPurchase(ctx, owner, orchestrator.SupplyPurchaseInput{ProductID: p.ID, Quantity: d("10"), UnitCost: d("2")})
	require.NoError(t, err)
	assert.True(t, res.Expense.Amount.Equal(d("20")))
	assert.True(t, b.balances(t).USDCash.Equal(d("80")))

	got, err := b.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("20")))
	assert.True(t, got.Cost.Equal(d("1.5")))

	_, err = o.RegisterSupplyPurchase(ctx, owner, orchestrator.SupplyPurchaseInput{ProductID: "no-existe", Quantity: d("1"), UnitCost: d("1")})
	assert.ErrorIs(t, err, domain.ErrSagaFailed)
	assert.True(t, b.balances(t).USDCash.Equal(d("80")), "la compra fallida se compensa")
}

// stockConCambioDePrecio edita el precio justo después de confirmar el consumo.
type stockConCambioDePrecio struct {
	*inventory.StockLedger
	precio decimal.Decimal
}

func (s stockConCambioDePrecio) InternalConsumption(ctx context.Context, actor *permission.Actor, in inventory.ConsumptionInput) (*entity.Movement, error) {
	mov, err := s.StockLedger.InternalConsumption(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	_, err = s.StockLedger.UpdateProduct(ctx, owner, in.ProductID, inventory.UpdateProductInput{Price: &s.precio})
	return mov, err
}

func TestConsumoSeValoraConElSnapshotDelMovimiento(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	p, err := b.stock.CreateProduct(ctx, owner, inventory.CreateProductInput{
		Name: "Refresco", Price: d("2.50"), Cost: d("1.20"), InitialStock: d("10"),
	})
	require.NoError(t, err)
	o := orchestrator.New(stockConCambioDePrecio{StockLedger: b.stock, precio: d("9")}, b.cash, b.payroll, b.guard, nil, zerolog.Nop())

	// Sin INVENTORY_VIEW: el cargo no lee el catálogo.
	encargado := &permission.Actor{ID: "enc", Role: permission.RoleCustom, Extra: []permission.Capability{
		permission.InventoryAdjust, permission.PayrollManage,
	}}
	res, err := o.ChargeEmployeeConsumption(ctx, encargado, orchestrator.ConsumptionChargeInput{EmployeeID: "e1", ProductID: p.ID, Quantity: d("2")})
	require.NoError(t, err)
	assert.True(t, res.Movement.Meta.PriceSnapshot.Equal(d("2.50")))
	assert.True(t, res.Entry.Amount.Equal(d("5")), "la deuda coincide con el snapshot del kardex")
	assert.True(t, res.Entry.CrossRef.PriceSnapshot.Equal(d("2.50")))

	got, err := b.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(d("9")))
}

func TestConsumoSinCapacidadRestituyeElStock(t *testing.T) {
	ctx := context.Background()
	b := newBooks(t)
	p, err := b.stock.CreateProduct(ctx, owner, inventory.CreateProductInput{
		Name: "Refresco", Price: d("2.50"), Cost: d("1.20"), InitialStock: d("60"),
	})
	require.NoError(t, err)
	o := b.orchestrator(nil, nil)

	_, err = o.ChargeEmployeeConsumption(ctx, owner, orchestrator.ConsumptionChargeInput{EmployeeID: "e1", ProductID: p.ID, Quantity: d("50")})
	assert.ErrorIs(t, err, domain.ErrCreditExceeded)
	var saga *domain.SagaError
	require.ErrorAs(t, err, &saga)
	assert.True(t, saga.Compensated())

	got, err := b.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("60")))
	assert.NoError(t, b.stock.VerifyStock(ctx, owner, p.ID))
	assert.True(t, b.debt(t).IsZero())
}
