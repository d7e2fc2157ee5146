package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func hierarchy(pack, cs int64) entity.Hierarchy {
	return entity.Hierarchy{
		Pack: entity.UnitLevel{Enabled: pack > 0, Contents: d(pack)},
		Case: entity.UnitLevel{Enabled: cs > 0, Contents: d(cs)},
	}
}

func TestFactor(t *testing.T) {
	soloBulto := hierarchy(0, 12)
	f, err := inventory.Factor(soloBulto, entity.UnitCase)
	require.NoError(t, err)
	assert.True(t, f.Equal(d(12)), "bulto de 12 unidades sin paquete")

	completo := hierarchy(6, 4)
	f, err = inventory.Factor(completo, entity.UnitCase)
	require.NoError(t, err)
	assert.True(t, f.Equal(d(24)), "bulto de 4 paquetes de 6")

	f, err = inventory.Factor(completo, entity.UnitBase)
	require.NoError(t, err)
	assert.True(t, f.Equal(d(1)))

	_, err = inventory.Factor(soloBulto, entity.UnitPack)
	assert.True(t, errors.Is(err, domain.ErrInvalidUnit), "paquete inactivo")
}

func TestInferUnit_PrefiereBultoEnEmpate(t *testing.T) {
	h := hierarchy(6, 2) // paquete=6, bulto=12
	u, f, qty := inventory.InferUnit(h, d(-24))
	assert.Equal(t, entity.UnitCase, u, "24 divide exacto por bulto y por paquete: gana el bulto")
	assert.True(t, f.Equal(d(12)))
	assert.True(t, qty.Equal(d(2)))

	u, f, qty = inventory.InferUnit(h, d(18))
	assert.Equal(t, entity.UnitPack, u)
	assert.True(t, f.Equal(d(6)))
	assert.True(t, qty.Equal(d(3)))

	u, _, qty = inventory.InferUnit(h, d(7))
	assert.Equal(t, entity.UnitBase, u)
	assert.True(t, qty.Equal(d(7)))

	u, _, _ = inventory.InferUnit(h, d(4))
	assert.Equal(t, entity.UnitBase, u, "menor que un paquete")
}

func TestDecomposeYCompose(t *testing.T) {
	h := hierarchy(6, 4) // bulto=24
	b := inventory.Decompose(h, d(59))
	assert.True(t, b.Cases.Equal(d(2)))
	assert.True(t, b.Packs.Equal(d(1)))
	assert.True(t, b.Units.Equal(d(5)))

	back := inventory.Compose(h, entity.CountBreakdown{Cases: b.Cases, Packs: b.Packs, Units: b.Units})
	assert.True(t, back.Equal(d(59)))

	sinPaquete := hierarchy(0, 100)
	total := inventory.Compose(sinPaquete, entity.CountBreakdown{Cases: d(1), Packs: d(9), Units: d(2)})
	assert.True(t, total.Equal(d(102)), "un nivel inactivo aporta cero")
}

func TestWeightedCost(t *testing.T) {
	c := inventory.WeightedCost(d(10), d(2), d(10), d(4))
	assert.True(t, c.Equal(d(3)))

	c = inventory.WeightedCost(d(-5), d(2), d(10), d(4))
	assert.True(t, c.Equal(d(4)), "stock negativo no aporta valor")

	c = inventory.WeightedCost(decimal.Zero, d(2), decimal.Zero, d(4))
	assert.True(t, c.Equal(d(2)), "sin cantidad se conserva el costo")
}

func TestReplay(t *testing.T) {
	movs := []*entity.Movement{
		{ID: 1, Kind: entity.MovementInitial, Quantity: d(50)},
		{ID: 2, Kind: entity.MovementSale, Quantity: d(36)},
		{ID: 3, Kind: entity.MovementReversal, Quantity: d(36)},
		{ID: 4, Kind: entity.MovementInternalConsumption, Quantity: d(2)},
		{ID: 5, Kind: entity.MovementEdit, Quantity: d(10)},
		{ID: 6, Kind: entity.MovementAdjustment, Quantity: d(8)},
	}
	stock, err := inventory.Replay(movs)
	require.NoError(t, err)
	assert.True(t, stock.Equal(d(50)))

	p := &entity.Product{ID: "p1", Stock: d(50)}
	require.NoError(t, inventory.Verify(p, movs))

	p.Stock = d(49)
	err = inventory.Verify(p, movs)
	var iv *domain.IntegrityViolation
	require.True(t, errors.As(err, &iv))
	assert.True(t, errors.Is(err, domain.ErrIntegrity))
	assert.Equal(t, "50", iv.Expected)

	_, err = inventory.Replay([]*entity.Movement{{ID: 9, Kind: "teleport", Quantity: d(1)}})
	assert.Error(t, err)
}
