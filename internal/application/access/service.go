// Package access administra roles y capacidades extra de los operadores. Es el único
// camino por el que una capacidad denegada puede pasar a concedida.
package access

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// ActorFor construye el actor de un usuario. Un rol desconocido cae en ROL_CUSTOM
// (base vacía) y las capacidades con nombre desconocido se ignoran.
func ActorFor(u *entity.User) *permission.Actor {
	if u == nil {
		return nil
	}
	return BuildActor(u.ID, u.Name, u.Role, u.Master, u.ExtraCapabilities)
}

// BuildActor arma el actor a partir de nombres estables (p. ej. desde los claims del token).
func BuildActor(id, name, role string, master bool, extra []string) *permission.Actor {
	r, err := permission.ParseRole(role)
	if err != nil {
		r = permission.RoleCustom
	}
	caps := make([]permission.Capability, 0, len(extra))
	for _, s := range extra {
		if c, err := permission.ParseCapability(s); err == nil {
			caps = append(caps, c)
		}
	}
	return &permission.Actor{ID: id, Name: name, Role: r, Master: master, Extra: caps}
}

// Service casos de uso de administración de permisos.
type Service struct {
	users  repository.UserRepository
	events repository.SecurityEventRepository
	guard  *security.Guard
	logger zerolog.Logger
}

// NewService construye el servicio.
func NewService(users repository.UserRepository, events repository.SecurityEventRepository, guard *security.Guard, logger zerolog.Logger) *Service {
	return &Service{users: users, events: events, guard: guard, logger: logger.With().Str("component", "access").Logger()}
}

// GrantCapability concede una capacidad extra al usuario.
func (s *Service) GrantCapability(ctx context.Context, actor *permission.Actor, userID string, c permission.Capability) (*entity.User, error) {
	return s.change(ctx, actor, userID, c, true)
}

// RevokeCapability retira una capacidad extra. La base del rol no se toca.
func (s *Service) RevokeCapability(ctx context.Context, actor *permission.Actor, userID string, c permission.Capability) (*entity.User, error) {
	return s.change(ctx, actor, userID, c, false)
}

func (s *Service) change(ctx context.Context, actor *permission.Actor, userID string, c permission.Capability, grant bool) (*entity.User, error) {
	op, kind := "revoke_capability", security.EventCapabilityRevoke
	if grant {
		op, kind = "grant_capability", security.EventCapabilityGrant
	}
	if err := s.guard.Require(ctx, actor, op, permission.SettingsManageUsers); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, domain.NewValidationError("capability", "capacidad desconocida")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	name := c.String()
	kept := make([]string, 0, len(u.ExtraCapabilities)+1)
	for _, x := range u.ExtraCapabilities {
		if x != name {
			kept = append(kept, x)
		}
	}
	if grant {
		kept = append(kept, name)
	}
	u.ExtraCapabilities = kept
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		s.guard.Metrics().ObserveOp("access", op, err)
		return nil, err
	}
	s.guard.Metrics().ObserveOp("access", op, nil)
	s.logger.Info().Str("actor", actor.ID).Str("user_id", userID).Str("capability", name).Bool("grant", grant).Msg("permisos actualizados")
	s.guard.Record(ctx, actor, kind, userID, entity.SeverityWarn, map[string]any{"capability": name})
	return u, nil
}

// SetRole cambia el rol base del usuario.
func (s *Service) SetRole(ctx context.Context, actor *permission.Actor, userID string, role permission.Role) (*entity.User, error) {
	const op = "set_role"
	if err := s.guard.Require(ctx, actor, op, permission.SettingsManageUsers); err != nil {
		return nil, err
	}
	if _, err := permission.ParseRole(string(role)); err != nil {
		return nil, domain.NewValidationError("role", err.Error())
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	prev := u.Role
	u.Role = string(role)
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		s.guard.Metrics().ObserveOp("access", op, err)
		return nil, err
	}
	s.guard.Metrics().ObserveOp("access", op, nil)
	s.guard.Record(ctx, actor, security.EventCapabilityGrant, userID, entity.SeverityWarn, map[string]any{"role_from": prev, "role_to": string(role)})
	return u, nil
}

// Effective capacidades efectivas del usuario bajo la compuerta activa.
func (s *Service) Effective(ctx context.Context, actor *permission.Actor, userID string) ([]permission.Capability, error) {
	if actor == nil || actor.ID != userID {
		if err := s.guard.Require(ctx, actor, "effective_capabilities", permission.SettingsManageUsers); err != nil {
			return nil, err
		}
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	target := ActorFor(u)
	out := make([]permission.Capability, 0)
	for _, c := range permission.All() {
		if s.guard.Gate().Authorize(target, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// TierName plan activo de la compuerta.
func (s *Service) TierName() string { return s.guard.Gate().Tier().Name }

// SecurityEvents últimos eventos del log de seguridad, del más reciente al más antiguo.
func (s *Service) SecurityEvents(ctx context.Context, actor *permission.Actor, limit int) ([]*entity.SecurityEvent, error) {
	if err := s.guard.Require(ctx, actor, "security_events", permission.SettingsManageUsers, permission.ReportsFinancial); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.events.List(ctx, limit)
}
