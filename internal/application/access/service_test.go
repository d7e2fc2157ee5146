package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/access"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

var owner = &permission.Actor{ID: "dueno", Role: permission.RoleOwner, Master: true}

func newService(t *testing.T) (*access.Service, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	events := memory.NewSecurityEventRepository()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), security.NewRecorder(events, zerolog.Nop()), nil, zerolog.Nop())
	now := time.Now().UTC()
	require.NoError(t, users.Create(context.Background(), &entity.User{
		ID: "u1", Email: "caja@bodega.com", Name: "Caja", Role: string(permission.RoleCashier), Status: "active", CreatedAt: now, UpdatedAt: now,
	}))
	return access.NewService(users, events, guard, zerolog.Nop()), users
}

func has(caps []permission.Capability, c permission.Capability) bool {
	for _, x := range caps {
		if x == c {
			return true
		}
	}
	return false
}

func TestConcederYRetirarCapacidad(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)
	cajero := &permission.Actor{ID: "u1", Role: permission.RoleCashier}

	caps, err := svc.Effective(ctx, cajero, "u1")
	require.NoError(t, err)
	assert.False(t, has(caps, permission.POSVoidTicket))

	_, err = svc.GrantCapability(ctx, cajero, "u1", permission.POSVoidTicket)
	assert.ErrorIs(t, err, domain.ErrForbidden, "nadie se concede permisos a sí mismo")

	u, err := svc.GrantCapability(ctx, owner, "u1", permission.POSVoidTicket)
	require.NoError(t, err)
	assert.Equal(t, []string{"POS_VOID_TICKET"}, u.ExtraCapabilities)
	_, err = svc.GrantCapability(ctx, owner, "u1", permission.POSVoidTicket)
	require.NoError(t, err)
	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored.ExtraCapabilities, 1, "conceder dos veces no duplica")

	caps, err = svc.Effective(ctx, owner, "u1")
	require.NoError(t, err)
	assert.True(t, has(caps, permission.POSVoidTicket))

	_, err = svc.RevokeCapability(ctx, owner, "u1", permission.POSVoidTicket)
	require.NoError(t, err)
	caps, err = svc.Effective(ctx, owner, "u1")
	require.NoError(t, err)
	assert.False(t, has(caps, permission.POSVoidTicket))
	assert.True(t, has(caps, permission.POSAccess), "la base del rol no se toca")

	events, err := svc.SecurityEvents(ctx, owner, 0)
	require.NoError(t, err)
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, security.EventAccessDenied)
	assert.Contains(t, kinds, security.EventCapabilityGrant)
	assert.Contains(t, kinds, security.EventCapabilityRevoke)
}

func TestCambiarRol(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	u, err := svc.SetRole(ctx, owner, "u1", permission.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, string(permission.RoleManager), u.Role)

	_, err = svc.SetRole(ctx, owner, "u1", permission.Role("ROL_INVENTADO"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SetRole(ctx, owner, "nadie", permission.RoleCashier)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestActorDesdeClaims(t *testing.T) {
	a := access.BuildActor("u9", "X", "ROL_QUE_NO_EXISTE", false, []string{"POS_ACCESS", "NO_EXISTE"})
	assert.Equal(t, permission.RoleCustom, a.Role)
	assert.Equal(t, []permission.Capability{permission.POSAccess}, a.Extra)
}
