package sales_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

var (
	owner   = &permission.Actor{ID: "dueno", Role: permission.RoleOwner}
	cashier = &permission.Actor{ID: "cajero", Role: permission.RoleCashier}
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	stock *inventory.StockLedger
	cash  *treasury.Ledger
	pos   *sales.UseCase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), nil, nil, zerolog.Nop())
	stock := inventory.NewStockLedger(store, guard, inventory.Options{}, zerolog.Nop())
	cash := treasury.NewLedger(store, guard, treasury.Options{}, zerolog.Nop())
	return fixture{
		stock: stock,
		cash:  cash,
		pos:   sales.NewUseCase(store, stock, cash, guard, nil, zerolog.Nop()),
	}
}

func (f fixture) product(t *testing.T, stock string) *entity.Product {
	t.Helper()
	p, err := f.stock.CreateProduct(context.Background(), owner, inventory.CreateProductInput{
		Name:         "Café 250g",
		Price:        d("2.50"),
		Cost:         d("1.80"),
		InitialStock: d(stock),
	})
	require.NoError(t, err)
	return p
}

func mixedCheckout(productID string) sales.CheckoutInput {
	return sales.CheckoutInput{
		Lines: []inventory.SaleLine{{ProductID: productID, Quantity: d("4"), Unit: entity.UnitBase}},
		Payments: []entity.Tender{
			{Currency: money.USD, Channel: money.Cash, Amount: d("4")},
			{Currency: money.VES, Channel: money.Cash, Amount: d("300")},
		},
		CreditUSD:  d("3"),
		CustomerID: "cliente-1",
		Rate:       d("100"),
	}
}

func TestCheckoutMixtoYAnulacion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "20")
	_, err := f.cash.OpenSession(ctx, cashier, money.Quadrants{USDCash: d("100")})
	require.NoError(t, err)

	sale, err := f.pos.Checkout(ctx, cashier, mixedCheckout(p.ID))
	require.NoError(t, err)
	assert.True(t, sale.TotalUSD.Equal(d("10")))

	got, err := f.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("16")))

	s, err := f.cash.CurrentSession(ctx, owner)
	require.NoError(t, err)
	assert.True(t, s.Balances.USDCash.Equal(d("104")))
	assert.True(t, s.Balances.VESCash.Equal(d("300")))

	current, err := f.pos.ListCurrent(ctx, cashier)
	require.NoError(t, err)
	require.Len(t, current, 1)

	_, err = f.pos.Void(ctx, cashier, sale.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "el cajero no anula tickets")

	voided, err := f.pos.Void(ctx, owner, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleVoided, voided.Status)

	got, err = f.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("20")))

	s, err = f.cash.CurrentSession(ctx, owner)
	require.NoError(t, err)
	assert.True(t, s.Balances.Equal(s.Opening), "la anulación deja la caja como al abrir")
	assert.NoError(t, f.cash.VerifySession(ctx, owner))

	_, err = f.pos.Void(ctx, owner, sale.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyReverted)
}

func TestCheckoutDescuadradoNoDejaRastro(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "20")
	_, err := f.cash.OpenSession(ctx, cashier, money.Quadrants{})
	require.NoError(t, err)

	in := mixedCheckout(p.ID)
	in.CreditUSD = decimal.Zero
	in.CustomerID = ""
	_, err = f.pos.Checkout(ctx, cashier, in)
	assert.ErrorIs(t, err, domain.ErrUnbalancedPayment)

	got, err := f.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("20")))

	kardex, err := f.stock.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Len(t, kardex, 1, "solo el movimiento inicial")

	s, err := f.cash.CurrentSession(ctx, owner)
	require.NoError(t, err)
	assert.True(t, s.Balances.Equal(money.Quadrants{}))
	assert.Zero(t, s.SalesCount)
}

func TestCheckoutSinCajaAbierta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "5")

	_, err := f.pos.Checkout(ctx, cashier, mixedCheckout(p.ID))
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	got, err := f.stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("5")))
}

func TestCheckoutEnVESSinTasa(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "5")
	_, err := f.cash.OpenSession(ctx, cashier, money.Quadrants{})
	require.NoError(t, err)

	in := mixedCheckout(p.ID)
	in.Rate = decimal.Zero
	_, err = f.pos.Checkout(ctx, cashier, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnulacionConProductoEliminado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "20")
	_, err := f.cash.OpenSession(ctx, cashier, money.Quadrants{USDCash: d("100")})
	require.NoError(t, err)
	sale, err := f.pos.Checkout(ctx, cashier, mixedCheckout(p.ID))
	require.NoError(t, err)
	require.NoError(t, f.stock.DeleteProduct(ctx, owner, p.ID, "Descontinuado"))

	_, err = f.pos.Void(ctx, owner, sale.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "Café 250g")

	got, err := f.pos.Get(ctx, owner, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleCompleted, got.Status)

	s, err := f.cash.CurrentSession(ctx, owner)
	require.NoError(t, err)
	assert.True(t, s.Balances.USDCash.Equal(d("104")), "la pierna de caja se deshace con la transacción")
	assert.Zero(t, s.VoidedCount)
	assert.NoError(t, f.cash.VerifySession(ctx, owner))
}
