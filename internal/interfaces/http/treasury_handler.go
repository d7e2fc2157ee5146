package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/rates"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// TreasuryHandler caja de cuatro cuadrantes: sesiones, egresos, cierres Z y tasa.
type TreasuryHandler struct {
	ledger *treasury.Ledger
	rates  *rates.Service
}

// NewTreasuryHandler construye el handler.
func NewTreasuryHandler(ledger *treasury.Ledger, rateSvc *rates.Service) *TreasuryHandler {
	return &TreasuryHandler{ledger: ledger, rates: rateSvc}
}

// Open godoc
// @Summary      Abrir sesión de caja
// @Tags         treasury
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenSessionRequest  true  "Fondos iniciales"
// @Success      201   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/treasury/sessions [post]
func (h *TreasuryHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenSessionRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	s, err := h.ledger.OpenSession(c.UserContext(), ActorFrom(c), in.Opening)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSession(s))
}

// Current godoc
// @Summary      Sesión de caja abierta
// @Tags         treasury
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/treasury/sessions/current [get]
func (h *TreasuryHandler) Current(c *fiber.Ctx) error {
	s, err := h.ledger.CurrentSession(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSession(s))
}

// Verify godoc
// @Summary      Verificar saldos de la sesión abierta
// @Tags         treasury
// @Security     Bearer
// @Success      204
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/treasury/sessions/current/verify [get]
func (h *TreasuryHandler) Verify(c *fiber.Ctx) error {
	if err := h.ledger.VerifySession(c.UserContext(), ActorFrom(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Close godoc
// @Summary      Cerrar caja (corte Z)
// @Tags         treasury
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.CutResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/treasury/sessions/current/close [post]
func (h *TreasuryHandler) Close(c *fiber.Ctx) error {
	cut, err := h.ledger.CloseSession(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCut(cut))
}

// Expense godoc
// @Summary      Registrar egreso
// @Tags         treasury
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ExpenseRequest  true  "Monto, cuadrante y motivo"
// @Success      201   {object}  dto.ExpenseResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/treasury/expenses [post]
func (h *TreasuryHandler) Expense(c *fiber.Ctx) error {
	var in dto.ExpenseRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cur, err := money.ParseCurrency(in.Currency)
	if err != nil {
		return writeError(c, domain.NewValidationError("currency", err.Error()))
	}
	e, err := h.ledger.ApplyExpense(c.UserContext(), ActorFrom(c), treasury.ExpenseInput{
		Amount:   in.Amount,
		Currency: cur,
		Channel:  money.Channel(in.Channel),
		Reason:   in.Reason,
		Category: in.Category,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromExpense(e))
}

// RevertExpense godoc
// @Summary      Revertir egreso
// @Tags         treasury
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del egreso"
// @Success      200  {object}  dto.ExpenseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/treasury/expenses/{id}/revert [post]
func (h *TreasuryHandler) RevertExpense(c *fiber.Ctx) error {
	e, err := h.ledger.RevertExpense(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromExpense(e))
}

// Expenses godoc
// @Summary      Egresos de la sesión abierta
// @Tags         treasury
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ExpenseResponse
// @Router       /api/treasury/expenses [get]
func (h *TreasuryHandler) Expenses(c *fiber.Ctx) error {
	list, err := h.ledger.ListExpenses(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*dto.ExpenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.FromExpense(e))
	}
	return c.JSON(out)
}

// Cuts godoc
// @Summary      Historial de cierres Z
// @Tags         treasury
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  dto.CutResponse
// @Router       /api/treasury/cuts [get]
func (h *TreasuryHandler) Cuts(c *fiber.Ctx) error {
	var page dto.PageRequest
	if ok, err := bindQuery(c, &page); !ok {
		return err
	}
	page.DefaultPage()
	list, err := h.ledger.ListCuts(c.UserContext(), ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CutResponse, 0, len(list))
	for _, cut := range list {
		out = append(out, dto.FromCut(cut))
	}
	return c.JSON(out)
}

// Cut godoc
// @Summary      Obtener cierre Z
// @Tags         treasury
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del cierre"
// @Success      200  {object}  dto.CutResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/treasury/cuts/{id} [get]
func (h *TreasuryHandler) Cut(c *fiber.Ctx) error {
	cut, err := h.ledger.GetCut(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromCut(cut))
}

// CutPDF godoc
// @Summary      Reporte PDF del cierre Z
// @Tags         treasury
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del cierre"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/treasury/cuts/{id}/pdf [get]
func (h *TreasuryHandler) CutPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.ledger.CutReport(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="corte-`+id+`.pdf"`)
	return c.Send(pdf)
}

// Rate godoc
// @Summary      Tasa VES/USD vigente
// @Tags         rates
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RateResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/rates/current [get]
func (h *TreasuryHandler) Rate(c *fiber.Ctx) error {
	r, err := h.rates.Current(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RateResponse{Value: r.Value, AsOf: r.AsOf, Source: r.Source})
}

// SetRate godoc
// @Summary      Cargar tasa manual
// @Tags         rates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetRateRequest  true  "Tasa"
// @Success      200   {object}  dto.RateResponse
// @Router       /api/rates [put]
func (h *TreasuryHandler) SetRate(c *fiber.Ctx) error {
	var in dto.SetRateRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	r, err := h.rates.Set(c.UserContext(), ActorFrom(c), in.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RateResponse{Value: r.Value, AsOf: r.AsOf, Source: r.Source})
}
