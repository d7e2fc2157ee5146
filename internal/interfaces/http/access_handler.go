package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/access"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
)

// AccessHandler administración de roles, capacidades extra y log de seguridad.
type AccessHandler struct {
	svc *access.Service
}

// NewAccessHandler construye el handler.
func NewAccessHandler(svc *access.Service) *AccessHandler {
	return &AccessHandler{svc: svc}
}

// Grant godoc
// @Summary      Conceder capacidad extra
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del usuario"
// @Param        body  body  dto.CapabilityRequest   true  "Capacidad"
// @Success      200   {object}  dto.UserResponse
// @Router       /api/users/{id}/capabilities [post]
func (h *AccessHandler) Grant(c *fiber.Ctx) error {
	return h.change(c, true)
}

// Revoke godoc
// @Summary      Retirar capacidad extra
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        id          path  string  true  "ID del usuario"
// @Param        capability  path  string  true  "Nombre estable de la capacidad"
// @Success      200   {object}  dto.UserResponse
// @Router       /api/users/{id}/capabilities/{capability} [delete]
func (h *AccessHandler) Revoke(c *fiber.Ctx) error {
	return h.change(c, false)
}

func (h *AccessHandler) change(c *fiber.Ctx, grant bool) error {
	name := c.Params("capability")
	if grant {
		var in dto.CapabilityRequest
		if ok, err := bind(c, &in); !ok {
			return err
		}
		name = in.Capability
	}
	capability, err := permission.ParseCapability(name)
	if err != nil {
		return writeError(c, domain.NewValidationError("capability", err.Error()))
	}
	change := h.svc.RevokeCapability
	if grant {
		change = h.svc.GrantCapability
	}
	user, err := change(c.UserContext(), ActorFrom(c), c.Params("id"), capability)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromUser(user))
}

// SetRole godoc
// @Summary      Cambiar rol base
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID del usuario"
// @Param        body  body  dto.RoleRequest  true  "Rol"
// @Success      200   {object}  dto.UserResponse
// @Router       /api/users/{id}/role [put]
func (h *AccessHandler) SetRole(c *fiber.Ctx) error {
	var in dto.RoleRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	user, err := h.svc.SetRole(c.UserContext(), ActorFrom(c), c.Params("id"), permission.Role(in.Role))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromUser(user))
}

// Effective godoc
// @Summary      Capacidades efectivas
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.EffectiveResponse
// @Router       /api/users/{id}/capabilities [get]
func (h *AccessHandler) Effective(c *fiber.Ctx) error {
	userID := c.Params("id")
	caps, err := h.svc.Effective(c.UserContext(), ActorFrom(c), userID)
	if err != nil {
		return writeError(c, err)
	}
	names := make([]string, 0, len(caps))
	for _, x := range caps {
		names = append(names, x.String())
	}
	return c.JSON(dto.EffectiveResponse{UserID: userID, Tier: h.svc.TierName(), Capabilities: names})
}

// SecurityEvents godoc
// @Summary      Log de seguridad
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de eventos (por defecto 100)"
// @Success      200  {array}  dto.SecurityEventResponse
// @Router       /api/security/events [get]
func (h *AccessHandler) SecurityEvents(c *fiber.Ctx) error {
	events, err := h.svc.SecurityEvents(c.UserContext(), ActorFrom(c), c.QueryInt("limit", 100))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SecurityEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.FromSecurityEvent(e))
	}
	return c.JSON(out)
}
