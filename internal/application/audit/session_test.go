package audit_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/audit"
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

func setup(t *testing.T) (*audit.UseCase, *inventory.StockLedger, *entity.Product, *entity.AuditSession) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), nil, nil, zerolog.Nop())
	stock := inventory.NewStockLedger(store, guard, inventory.Options{}, zerolog.Nop())
	uc := audit.NewUseCase(store, stock, guard, zerolog.Nop())

	p, err := stock.CreateProduct(ctx, owner, inventory.CreateProductInput{
		Name:         "Malta",
		Price:        d("1"),
		Cost:         d("0.60"),
		InitialStock: d("120"),
		Hierarchy:    entity.Hierarchy{Case: entity.UnitLevel{Enabled: true, Contents: d("100")}},
	})
	require.NoError(t, err)
	tpl, err := uc.CreateTemplate(ctx, owner, "Bebidas", []string{p.ID, p.ID})
	require.NoError(t, err)
	assert.Len(t, tpl.ProductIDs, 1, "la plantilla no repite productos")
	s, err := uc.StartSession(ctx, owner, tpl.ID, "")
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.True(t, s.Items[0].SnapshotStock.Equal(d("120")))
	return uc, stock, p, s
}

func breakdown(cases, units string) audit.CountInput {
	return audit.CountInput{Breakdown: &entity.CountBreakdown{Cases: d(cases), Units: d(units)}}
}

func TestConteoDesglosadoYAceptar(t *testing.T) {
	ctx := context.Background()
	uc, stock, p, s := setup(t)

	item, err := uc.RecordCount(ctx, owner, s.ID, p.ID, breakdown("1", "2"))
	require.NoError(t, err)
	require.NotNil(t, item.Count)
	assert.True(t, item.Count.Equal(d("102")))
	assert.True(t, item.Difference().Equal(d("-18")))

	item, err = uc.Resolve(ctx, owner, s.ID, p.ID, audit.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditItemResolved, item.Status)
	assert.NotZero(t, item.MovementID)

	got, err := stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("102")))

	kardex, err := stock.Kardex(ctx, owner, p.ID)
	require.NoError(t, err)
	last := kardex[len(kardex)-1]
	assert.Equal(t, item.MovementID, last.ID)
	assert.True(t, last.Quantity.Equal(d("-18")))

	_, err = uc.Resolve(ctx, owner, s.ID, p.ID, audit.ActionAccept)
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestAceptarAplicaDiferenciaSobreStockVivo(t *testing.T) {
	ctx := context.Background()
	uc, stock, p, s := setup(t)

	_, err := stock.Sell(ctx, owner, []inventory.SaleLine{{ProductID: p.ID, Quantity: d("5"), Unit: entity.UnitBase}}, "sale:x")
	require.NoError(t, err)

	_, err = uc.RecordCount(ctx, owner, s.ID, p.ID, breakdown("1", "2"))
	require.NoError(t, err)
	_, err = uc.Resolve(ctx, owner, s.ID, p.ID, audit.ActionAccept)
	require.NoError(t, err)

	got, err := stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("97")), "115 vivo menos 18 de diferencia")
}

func TestRecontarEIgnorar(t *testing.T) {
	ctx := context.Background()
	uc, stock, p, s := setup(t)

	flat := d("130")
	_, err := uc.RecordCount(ctx, owner, s.ID, p.ID, audit.CountInput{Flat: &flat})
	require.NoError(t, err)
	item, err := uc.Resolve(ctx, owner, s.ID, p.ID, audit.ActionRecount)
	require.NoError(t, err)
	assert.Nil(t, item.Count)
	assert.Equal(t, entity.AuditItemPending, item.Status)

	item, err = uc.Resolve(ctx, owner, s.ID, p.ID, audit.ActionIgnore)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditItemIgnored, item.Status)

	closed, err := uc.CloseSession(ctx, owner, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditClosed, closed.Status)

	got, err := stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("120")))
}

func TestCierreAceptaPendientesContados(t *testing.T) {
	ctx := context.Background()
	uc, stock, p, s := setup(t)

	flat := d("110")
	_, err := uc.RecordCount(ctx, owner, s.ID, p.ID, audit.CountInput{Flat: &flat})
	require.NoError(t, err)
	closed, err := uc.CloseSession(ctx, owner, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditItemResolved, closed.Items[0].Status)

	got, err := stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("110")))

	_, err = uc.RecordCount(ctx, owner, s.ID, p.ID, audit.CountInput{Flat: &flat})
	assert.Error(t, err, "la sesión cerrada no admite conteos")
}

func TestConteoInvalido(t *testing.T) {
	ctx := context.Background()
	uc, _, p, s := setup(t)

	_, err := uc.RecordCount(ctx, owner, s.ID, p.ID, audit.CountInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Resolve(ctx, owner, s.ID, p.ID, audit.ActionAccept)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "aceptar sin conteo")

	_, err = uc.RecordCount(ctx, cashier, s.ID, p.ID, breakdown("1", "0"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuditorSinAjusteNoMueveStock(t *testing.T) {
	ctx := context.Background()
	uc, stock, p, s := setup(t)
	auditor := &permission.Actor{ID: "auditor", Role: permission.RoleCustom, Extra: []permission.Capability{permission.AuditManage}}

	flat := d("110")
	_, err := uc.RecordCount(ctx, auditor, s.ID, p.ID, audit.CountInput{Flat: &flat})
	require.NoError(t, err, "contar solo requiere auditoría")

	_, err = uc.Resolve(ctx, auditor, s.ID, p.ID, audit.ActionAccept)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.CloseSession(ctx, auditor, s.ID)
	require.ErrorIs(t, err, domain.ErrForbidden, "el cierre aceptaría la diferencia")

	got, err := uc.GetSession(ctx, auditor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditInProgress, got.Status)
	assert.Equal(t, entity.AuditItemPending, got.Items[0].Status)

	prod, err := stock.GetProduct(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, prod.Stock.Equal(d("120")))

	same := d("120")
	_, err = uc.RecordCount(ctx, auditor, s.ID, p.ID, audit.CountInput{Flat: &same})
	require.NoError(t, err)
	item, err := uc.Resolve(ctx, auditor, s.ID, p.ID, audit.ActionAccept)
	require.NoError(t, err, "sin diferencia no hay ajuste de stock")
	assert.Equal(t, entity.AuditItemResolved, item.Status)
}
