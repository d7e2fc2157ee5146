package security_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

type deniedCounter struct {
	denied []string
}

func (m *deniedCounter) ObserveOp(string, string, error) {}
func (m *deniedCounter) Denied(capability string)        { m.denied = append(m.denied, capability) }
func (m *deniedCounter) SagaCompensation(string, string) {}

func TestRequire_PermitidoNoRegistraEvento(t *testing.T) {
	ctx := context.Background()
	events := memory.NewSecurityEventRepository()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), security.NewRecorder(events, zerolog.Nop()), nil, zerolog.Nop())

	owner := &permission.Actor{ID: "dueno", Role: permission.RoleOwner}
	require.NoError(t, guard.Require(ctx, owner, "close_session", permission.CashClose))

	list, err := events.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRequire_DenegadoRegistraYCuenta(t *testing.T) {
	ctx := context.Background()
	events := memory.NewSecurityEventRepository()
	metrics := &deniedCounter{}
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), security.NewRecorder(events, zerolog.Nop()), metrics, zerolog.Nop())

	cashier := &permission.Actor{ID: "cajero", Role: permission.RoleCashier}
	err := guard.Require(ctx, cashier, "close_session", permission.CashClose)
	require.ErrorIs(t, err, domain.ErrForbidden)

	var authErr *domain.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "cajero", authErr.ActorID)
	assert.Equal(t, []string{"CASH_CLOSE"}, metrics.denied)

	list, err := events.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, security.EventAccessDenied, list[0].Kind)
	assert.Equal(t, "close_session", list[0].Subject)
	assert.Equal(t, entity.SeverityWarn, list[0].Severity)
}

func TestRequire_SinActorEsDenegado(t *testing.T) {
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), nil, nil, zerolog.Nop())
	assert.ErrorIs(t, guard.Require(context.Background(), nil, "checkout", permission.POSAccess), domain.ErrForbidden)
}

func TestMutation_SujetoCompuesto(t *testing.T) {
	ctx := context.Background()
	events := memory.NewSecurityEventRepository()
	guard := security.NewGuard(permission.NewGate(permission.TierMinimarket), security.NewRecorder(events, zerolog.Nop()), nil, zerolog.Nop())

	guard.Mutation(ctx, &permission.Actor{ID: "dueno"}, "create_product", "p1", map[string]any{"stock": "10"})

	list, err := events.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, security.EventMutation, list[0].Kind)
	assert.Equal(t, "create_product:p1", list[0].Subject)
	assert.Equal(t, "dueno", list[0].ActorID)
	assert.False(t, list[0].Timestamp.IsZero())
}

type brokenRepo struct{}

func (brokenRepo) Append(context.Context, *entity.SecurityEvent) error {
	return errors.New("disco lleno")
}

func (brokenRepo) List(context.Context, int) ([]*entity.SecurityEvent, error) { return nil, nil }

func TestRecorder_FallaDePersistenciaSoloSeLoguea(t *testing.T) {
	var buf bytes.Buffer
	rec := security.NewRecorder(brokenRepo{}, zerolog.New(&buf))

	rec.Record(context.Background(), entity.SecurityEvent{Kind: security.EventIntegrity, Subject: "p1", Severity: entity.SeverityCritical})

	assert.Contains(t, buf.String(), "disco lleno")
	assert.Contains(t, buf.String(), security.EventIntegrity)
}
