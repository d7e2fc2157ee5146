package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/audit"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
)

// AuditHandler plantillas y sesiones de conteo físico.
type AuditHandler struct {
	uc *audit.UseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.UseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// CreateTemplate godoc
// @Summary      Crear plantilla de auditoría
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AuditTemplateRequest  true  "Nombre y productos"
// @Success      201   {object}  dto.AuditTemplateResponse
// @Router       /api/audit/templates [post]
func (h *AuditHandler) CreateTemplate(c *fiber.Ctx) error {
	var in dto.AuditTemplateRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	t, err := h.uc.CreateTemplate(c.UserContext(), ActorFrom(c), in.Name, in.ProductIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromAuditTemplate(t))
}

// ListTemplates godoc
// @Summary      Plantillas de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AuditTemplateResponse
// @Router       /api/audit/templates [get]
func (h *AuditHandler) ListTemplates(c *fiber.Ctx) error {
	list, err := h.uc.ListTemplates(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AuditTemplateResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.FromAuditTemplate(t))
	}
	return c.JSON(out)
}

// DeleteTemplate godoc
// @Summary      Eliminar plantilla
// @Tags         audit
// @Security     Bearer
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      204
// @Router       /api/audit/templates/{id} [delete]
func (h *AuditHandler) DeleteTemplate(c *fiber.Ctx) error {
	if err := h.uc.DeleteTemplate(c.UserContext(), ActorFrom(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Start godoc
// @Summary      Iniciar sesión de auditoría
// @Description  Toma una foto del stock esperado de cada producto de la plantilla.
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartAuditRequest  true  "Plantilla"
// @Success      201   {object}  dto.AuditSessionResponse
// @Router       /api/audit/sessions [post]
func (h *AuditHandler) Start(c *fiber.Ctx) error {
	var in dto.StartAuditRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	s, err := h.uc.StartSession(c.UserContext(), ActorFrom(c), in.TemplateID, in.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromAuditSession(s))
}

// Count godoc
// @Summary      Registrar conteo de un producto
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string            true  "ID de la sesión"
// @Param        productID  path  string            true  "ID del producto"
// @Param        body       body  dto.CountRequest  true  "count o breakdown"
// @Success      200  {object}  dto.AuditItemResponse
// @Router       /api/audit/sessions/{id}/items/{productID}/count [put]
func (h *AuditHandler) Count(c *fiber.Ctx) error {
	var in dto.CountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	it, err := h.uc.RecordCount(c.UserContext(), ActorFrom(c), c.Params("id"), c.Params("productID"), audit.CountInput{
		Flat:      in.Count,
		Breakdown: in.Breakdown,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAuditItem(*it))
}

// Resolve godoc
// @Summary      Resolver una partida (ACCEPT, RECOUNT, IGNORE)
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string              true  "ID de la sesión"
// @Param        productID  path  string              true  "ID del producto"
// @Param        body       body  dto.ResolveRequest  true  "Acción"
// @Success      200  {object}  dto.AuditItemResponse
// @Router       /api/audit/sessions/{id}/items/{productID}/resolve [post]
func (h *AuditHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	action, err := audit.ParseAction(in.Action)
	if err != nil {
		return writeError(c, domain.NewValidationError("action", err.Error()))
	}
	it, err := h.uc.Resolve(c.UserContext(), ActorFrom(c), c.Params("id"), c.Params("productID"), action)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAuditItem(*it))
}

// Close godoc
// @Summary      Cerrar sesión de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.AuditSessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/close [post]
func (h *AuditHandler) Close(c *fiber.Ctx) error {
	s, err := h.uc.CloseSession(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAuditSession(s))
}

// Get godoc
// @Summary      Obtener sesión de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.AuditSessionResponse
// @Router       /api/audit/sessions/{id} [get]
func (h *AuditHandler) Get(c *fiber.Ctx) error {
	s, err := h.uc.GetSession(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAuditSession(s))
}

// List godoc
// @Summary      Sesiones de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  dto.AuditSessionResponse
// @Router       /api/audit/sessions [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if ok, err := bindQuery(c, &page); !ok {
		return err
	}
	page.DefaultPage()
	list, err := h.uc.ListSessions(c.UserContext(), ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AuditSessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromAuditSession(s))
	}
	return c.JSON(out)
}
