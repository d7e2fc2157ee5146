package auth_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/access"
	"github.com/jhoicas/pos-ledger/internal/application/auth"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/pkg/jwt"
)

const secret = "secreto-de-prueba"

func newAuth(t *testing.T) (*auth.AuthUseCase, *memory.SecurityEventRepository) {
	t.Helper()
	events := memory.NewSecurityEventRepository()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), security.NewRecorder(events, zerolog.Nop()), nil, zerolog.Nop())
	uc := auth.NewAuthUseCase(memory.NewUserRepository(), guard, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "pos-ledger"}, zerolog.Nop())
	return uc, events
}

func TestPrimerUsuarioEsDuenoMaestro(t *testing.T) {
	ctx := context.Background()
	uc, _ := newAuth(t)

	u, err := uc.RegisterUser(ctx, nil, dto.CreateUserRequest{Email: " Dueno@Bodega.com ", PIN: "1234", Name: "Dueño", Role: "ROL_EMPLEADO"})
	require.NoError(t, err)
	assert.Equal(t, "dueno@bodega.com", u.Email)
	assert.Equal(t, string(permission.RoleOwner), u.Role)
	assert.True(t, u.Master)

	_, err = uc.RegisterUser(ctx, nil, dto.CreateUserRequest{Email: "otro@bodega.com", PIN: "1234", Role: "ROL_EMPLEADO"})
	assert.ErrorIs(t, err, domain.ErrForbidden, "después del primero se requiere actor")
}

func TestRegistroPorDueno(t *testing.T) {
	ctx := context.Background()
	uc, _ := newAuth(t)
	first, err := uc.RegisterUser(ctx, nil, dto.CreateUserRequest{Email: "dueno@bodega.com", PIN: "1234", Role: "ROL_DUENO"})
	require.NoError(t, err)
	owner := &permission.Actor{ID: first.ID, Role: permission.RoleOwner}

	cajero, err := uc.RegisterUser(ctx, owner, dto.CreateUserRequest{Email: "cajero@bodega.com", PIN: "9999", Name: "Caja 1", Role: "ROL_EMPLEADO"})
	require.NoError(t, err)
	assert.Equal(t, string(permission.RoleCashier), cajero.Role)

	_, err = uc.RegisterUser(ctx, owner, dto.CreateUserRequest{Email: "CAJERO@bodega.com", PIN: "9999", Role: "ROL_EMPLEADO"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.RegisterUser(ctx, owner, dto.CreateUserRequest{Email: "socio@bodega.com", PIN: "9999", Role: "ROL_DUENO", Master: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "solo un maestro crea maestros")

	users, err := uc.ListUsers(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestLoginGeneraTokenConRol(t *testing.T) {
	ctx := context.Background()
	uc, events := newAuth(t)
	_, err := uc.RegisterUser(ctx, nil, dto.CreateUserRequest{Email: "dueno@bodega.com", PIN: "1234", Name: "Dueño", Role: "ROL_DUENO"})
	require.NoError(t, err)

	res, err := uc.Login(ctx, dto.LoginRequest{Email: "DUENO@bodega.com", PIN: "1234"})
	require.NoError(t, err)
	claims, err := jwt.Parse(secret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "ROL_DUENO", claims.Role)
	assert.Equal(t, "minimarket", claims.Tier)
	assert.True(t, claims.Master)

	actor := access.BuildActor(claims.UserID, claims.Name, claims.Role, claims.Master, claims.Capabilities)
	assert.Equal(t, permission.RoleOwner, actor.Role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "dueno@bodega.com", PIN: "0000"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	list, err := events.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, security.EventLoginFailed, list[0].Kind)
}
