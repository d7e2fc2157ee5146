package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

var (
	owner   = &permission.Actor{ID: "dueno", Role: permission.RoleOwner}
	cashier = &permission.Actor{ID: "cajero", Role: permission.RoleCashier}
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newLedger(t *testing.T, opts inventory.Options) *inventory.StockLedger {
	t.Helper()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), nil, nil, zerolog.Nop())
	return inventory.NewStockLedger(memory.NewStore(), guard, opts, zerolog.Nop())
}

func createProduct(t *testing.T, l *inventory.StockLedger, name string, stock string, h entity.Hierarchy) *entity.Product {
	t.Helper()
	p, err := l.CreateProduct(context.Background(), owner, inventory.CreateProductInput{
		Name:         name,
		Price:        d("1.50"),
		Cost:         d("1.00"),
		InitialStock: d(stock),
		Hierarchy:    h,
	})
	require.NoError(t, err)
	return p
}

func TestVentaPorBultoYAnulacion(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	h := entity.Hierarchy{Case: entity.UnitLevel{Enabled: true, Contents: d("12")}}
	p := createProduct(t, l, "Harina PAN", "50", h)

	items, err := l.Sell(ctx, cashier, []inventory.SaleLine{{ProductID: p.ID, Quantity: d("3"), Unit: entity.UnitCase}}, "sale:1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].BaseQty.Equal(d("36")))
	assert.True(t, items[0].UnitPrice.Equal(d("18")), "precio por bulto = precio unitario × 12")
	assert.True(t, items[0].Subtotal.Equal(d("54")))

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("14")))

	require.NoError(t, l.VoidSale(ctx, owner, items, "void:1"))
	got, err = l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("50")))

	movs, err := l.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	last := movs[len(movs)-1]
	assert.Equal(t, entity.MovementReversal, last.Kind)
	assert.True(t, last.Quantity.Equal(d("36")))
	assert.Equal(t, entity.UnitCase, last.Meta.Unit)
	assert.NoError(t, l.VerifyStock(ctx, owner, p.ID))
}

func TestCajeroNoPuedeAnular(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	p := createProduct(t, l, "Refresco", "10", entity.Hierarchy{})

	items, err := l.Sell(ctx, cashier, []inventory.SaleLine{{ProductID: p.ID, Quantity: d("1")}}, "sale:x")
	require.NoError(t, err)

	err = l.VoidSale(ctx, cashier, items, "void:x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("9")), "la denegación no escribe nada")
}

func TestVentasConcurrentesSobreUltimaUnidad(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{AllowNegativeStock: false})
	p := createProduct(t, l, "Queso", "1", entity.Hierarchy{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Sell(ctx, cashier, []inventory.SaleLine{{ProductID: p.ID, Quantity: d("1")}}, "sale")
		}(i)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, domain.ErrInsufficientStock) {
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.IsZero())
}

func TestStockNegativoPermitido(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{AllowNegativeStock: true})
	p := createProduct(t, l, "Pan", "1", entity.Hierarchy{})

	_, err := l.Sell(ctx, cashier, []inventory.SaleLine{{ProductID: p.ID, Quantity: d("3")}}, "sale")
	require.NoError(t, err)
	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("-2")))
	assert.NoError(t, l.VerifyStock(ctx, owner, p.ID))
}

func TestReplayTrasSecuenciaMixta(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	h := entity.Hierarchy{
		Pack: entity.UnitLevel{Enabled: true, Contents: d("6")},
		Case: entity.UnitLevel{Enabled: true, Contents: d("4")},
	}
	p := createProduct(t, l, "Malta", "100", h)

	items, err := l.Sell(ctx, cashier, []inventory.SaleLine{{ProductID: p.ID, Quantity: d("2"), Unit: entity.UnitPack}}, "s1")
	require.NoError(t, err)
	_, err = l.AdjustStock(ctx, owner, p.ID, d("24"), "Recepción")
	require.NoError(t, err)
	mov, err := l.InternalConsumption(ctx, owner, inventory.ConsumptionInput{ProductID: p.ID, Quantity: d("5"), Reason: "Merma"})
	require.NoError(t, err)
	require.NoError(t, l.VoidSale(ctx, owner, items, "v1"))
	_, err = l.RestoreConsumption(ctx, owner, mov.ID, "Error de registro")
	require.NoError(t, err)
	_, err = l.AdjustStock(ctx, owner, p.ID, d("-10"), "Rotura")
	require.NoError(t, err)

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("114")))
	assert.NoError(t, l.VerifyStock(ctx, owner, p.ID))

	movs, err := l.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	edit := movs[2]
	assert.Equal(t, entity.MovementEdit, edit.Kind)
	assert.Equal(t, entity.UnitCase, edit.Meta.Unit, "24 divide exacto en bulto y paquete; gana bulto")
	assert.True(t, edit.Meta.Inferred)
}

func TestRestaurarConsumoDosVeces(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	p := createProduct(t, l, "Café", "10", entity.Hierarchy{})

	_, err := l.InternalConsumption(ctx, owner, inventory.ConsumptionInput{ProductID: p.ID, Quantity: d("1")})
	require.Error(t, err, "el motivo es obligatorio")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mov, err := l.InternalConsumption(ctx, owner, inventory.ConsumptionInput{ProductID: p.ID, Quantity: d("2"), Reason: "Consumo"})
	require.NoError(t, err)
	assert.True(t, mov.Meta.CostSnapshot.Equal(d("1.00")))

	_, err = l.RestoreConsumption(ctx, owner, mov.ID, "")
	require.NoError(t, err)
	_, err = l.RestoreConsumption(ctx, owner, mov.ID, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyReverted)

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("10")))
}

func TestRenombrarPropagaAlKardex(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	p := createProduct(t, l, "Aceite", "5", entity.Hierarchy{})
	_, err := l.AdjustStock(ctx, owner, p.ID, d("1"), "Ajuste")
	require.NoError(t, err)

	name := "Aceite de maíz"
	_, err = l.UpdateProduct(ctx, owner, p.ID, inventory.UpdateProductInput{Name: &name})
	require.NoError(t, err)

	movs, err := l.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	for _, m := range movs {
		assert.Equal(t, name, m.ProductName)
	}
	assert.NoError(t, l.VerifyStock(ctx, owner, p.ID), "renombrar no altera cantidades")
}

func TestEdicionDeStockConUnidadExplicita(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	h := entity.Hierarchy{Pack: entity.UnitLevel{Enabled: true, Contents: d("6")}}
	p := createProduct(t, l, "Jugo", "12", h)

	stock := d("6")
	unit := entity.UnitPack
	_, err := l.UpdateProduct(ctx, owner, p.ID, inventory.UpdateProductInput{Stock: &stock, Unit: &unit})
	require.NoError(t, err)

	movs, err := l.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	last := movs[len(movs)-1]
	assert.Equal(t, entity.MovementAdjustment, last.Kind)
	assert.True(t, last.Quantity.Equal(d("6")))
	assert.True(t, last.Meta.OriginalQty.Equal(d("1")))
	assert.False(t, last.Meta.Inferred)
}

func TestCategoriasReasignanAGeneral(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})

	_, err := l.CreateCategory(ctx, owner, "Bebidas")
	require.NoError(t, err)
	_, err = l.CreateCategory(ctx, owner, "Bebidas")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	p, err := l.CreateProduct(ctx, owner, inventory.CreateProductInput{Name: "Agua", Category: "Bebidas", Price: d("1")})
	require.NoError(t, err)

	moved, err := l.DeleteCategory(ctx, owner, "Bebidas")
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCategory, got.Category)

	_, err = l.DeleteCategory(ctx, owner, entity.DefaultCategory)
	assert.Error(t, err)
}

func TestCompraDeInsumosPromediaCosto(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	p := createProduct(t, l, "Azúcar", "10", entity.Hierarchy{})

	_, err := l.ReceiveSupply(ctx, owner, inventory.SupplyInput{ProductID: p.ID, Quantity: d("10"), UnitCost: d("2.00")})
	require.NoError(t, err)

	got, err := l.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("20")))
	assert.True(t, got.Cost.Equal(d("1.5")), "promedio ponderado de 10@1 y 10@2")
}

func TestEliminarProductoDejaMovimientoTerminal(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, inventory.Options{})
	p := createProduct(t, l, "Galletas", "7", entity.Hierarchy{})

	require.NoError(t, l.DeleteProduct(ctx, owner, p.ID, ""))
	_, err := l.GetProduct(ctx, owner, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	movs, err := l.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementDeleted, movs[1].Kind)
}
