package permission_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
)

func TestAuthorize_SinActorDeniega(t *testing.T) {
	g := permission.NewGate(permission.TierMinimarket)
	for _, c := range permission.All() {
		assert.False(t, g.Authorize(nil, c), "sin actor no se concede %s", c)
	}
}

func TestAuthorize_DuenoTodoDentroDelPlan(t *testing.T) {
	g := permission.NewGate(permission.TierMinimarket)
	owner := &permission.Actor{ID: "u1", Role: permission.RoleOwner}
	for _, c := range permission.All() {
		assert.True(t, g.Authorize(owner, c), "el dueño debe tener %s en minimarket", c)
	}
}

func TestAuthorize_PlanLeGanaAlRol(t *testing.T) {
	g := permission.NewGate(permission.TierBodega)
	owner := &permission.Actor{ID: "u1", Role: permission.RoleOwner, Master: true}

	assert.True(t, g.Authorize(owner, permission.POSAccess))
	assert.False(t, g.Authorize(owner, permission.CashManage), "bodega no incluye gastos aunque sea maestro")
	assert.False(t, g.Authorize(owner, permission.PayrollManage))

	bypass := g.WithTierBypass(true)
	assert.True(t, bypass.Authorize(owner, permission.CashManage), "el bypass de depuración ignora el techo")
	assert.False(t, g.Authorize(owner, permission.CashManage), "WithTierBypass no muta la compuerta original")
}

func TestAuthorize_RolBaseYExtras(t *testing.T) {
	g := permission.NewGate(permission.TierMinimarket)
	cashier := &permission.Actor{ID: "c1", Role: permission.RoleCashier}

	assert.True(t, g.Authorize(cashier, permission.POSAccess))
	assert.False(t, g.Authorize(cashier, permission.POSVoidTicket), "anular es estrictamente más fuerte que vender")
	assert.False(t, g.Authorize(cashier, permission.InventoryAdjust))

	cashier.Extra = []permission.Capability{permission.InventoryAdjust}
	assert.True(t, g.Authorize(cashier, permission.InventoryAdjust))

	custom := &permission.Actor{ID: "x", Role: permission.RoleCustom}
	for _, c := range permission.All() {
		assert.False(t, g.Authorize(custom, c), "ROL_CUSTOM inicia vacío")
	}
}

func TestCheck_DevuelveErrorTipado(t *testing.T) {
	g := permission.NewGate(permission.TierMinimarket)
	manager := &permission.Actor{ID: "m1", Role: permission.RoleManager}

	require.NoError(t, g.Check(manager, permission.InventoryManage, permission.InventoryAdjust))

	err := g.Check(manager, permission.PayrollManage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	var authErr *domain.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "m1", authErr.ActorID)
	assert.Equal(t, "PAYROLL_MANAGE", authErr.Capability)
}

func TestParseCapabilityYRol(t *testing.T) {
	for _, c := range permission.All() {
		got, err := permission.ParseCapability(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := permission.ParseCapability("POS_EVERYTHING")
	assert.Error(t, err)

	r, err := permission.ParseRole("encargado")
	require.NoError(t, err)
	assert.Equal(t, permission.RoleManager, r)

	_, err = permission.ParseTier("enterprise")
	assert.Error(t, err)
}
