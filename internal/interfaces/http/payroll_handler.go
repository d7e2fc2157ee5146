package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/domain"
)

// PayrollHandler fichas de nómina y libro de deuda.
type PayrollHandler struct {
	ledger *payroll.Ledger
}

// NewPayrollHandler construye el handler.
func NewPayrollHandler(ledger *payroll.Ledger) *PayrollHandler {
	return &PayrollHandler{ledger: ledger}
}

// UpsertAccount godoc
// @Summary      Crear o actualizar ficha de nómina
// @Tags         payroll
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AccountRequest  true  "Empleado y sueldo base"
// @Success      200   {object}  dto.AccountResponse
// @Router       /api/payroll/accounts [put]
func (h *PayrollHandler) UpsertAccount(c *fiber.Ctx) error {
	var in dto.AccountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	a, err := h.ledger.UpsertAccount(c.UserContext(), ActorFrom(c), payroll.AccountInput{
		EmployeeID: in.EmployeeID,
		Name:       in.Name,
		BasePay:    in.BasePay,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAccount(a))
}

// Accounts godoc
// @Summary      Fichas de nómina
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AccountResponse
// @Router       /api/payroll/accounts [get]
func (h *PayrollHandler) Accounts(c *fiber.Ctx) error {
	list, err := h.ledger.Accounts(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AccountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.FromAccount(a))
	}
	return c.JSON(out)
}

// Account godoc
// @Summary      Ficha de un empleado
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del empleado"
// @Success      200  {object}  dto.AccountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payroll/accounts/{id} [get]
func (h *PayrollHandler) Account(c *fiber.Ctx) error {
	a, err := h.ledger.Account(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromAccount(a))
}

// History godoc
// @Summary      Asientos de deuda del empleado
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del empleado"
// @Success      200  {array}  dto.DebtEntryResponse
// @Router       /api/payroll/accounts/{id}/history [get]
func (h *PayrollHandler) History(c *fiber.Ctx) error {
	list, err := h.ledger.History(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*dto.DebtEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.FromDebtEntry(e))
	}
	return c.JSON(out)
}

// Capacity godoc
// @Summary      Capacidad de crédito
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true  "ID del empleado"
// @Param        amount  query  string  true  "Cargo propuesto en USD"
// @Success      200  {object}  dto.CapacityResponse
// @Router       /api/payroll/accounts/{id}/capacity [get]
func (h *PayrollHandler) Capacity(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(c.Query("amount", "0"))
	if err != nil {
		return writeError(c, domain.NewValidationError("amount", "debe ser decimal"))
	}
	cp, err := h.ledger.CheckCreditCapacity(c.UserContext(), ActorFrom(c), c.Params("id"), amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromCapacity(cp))
}

// Verify godoc
// @Summary      Verificar deuda del empleado contra su libro
// @Tags         payroll
// @Security     Bearer
// @Param        id   path  string  true  "ID del empleado"
// @Success      204
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/payroll/accounts/{id}/verify [get]
func (h *PayrollHandler) Verify(c *fiber.Ctx) error {
	if err := h.ledger.VerifyDebt(c.UserContext(), ActorFrom(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Close godoc
// @Summary      Liquidar a un empleado
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del empleado"
// @Success      200  {object}  dto.PayrollCloseResponse
// @Router       /api/payroll/accounts/{id}/close [post]
func (h *PayrollHandler) Close(c *fiber.Ctx) error {
	res, err := h.ledger.PayrollClose(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PayrollCloseResponse{Payment: dto.FromDebtEntry(res.Payment), Period: dto.FromPeriod(res.Period)})
}

// Reverse godoc
// @Summary      Anular asiento de deuda
// @Description  Solo asientos pendientes. Para cargos emparejados con caja o inventario usar /api/operations/entries/{id}/revert.
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del asiento"
// @Success      200  {object}  dto.DebtEntryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/payroll/entries/{id}/reverse [post]
func (h *PayrollHandler) Reverse(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return writeError(c, err)
	}
	e, err := h.ledger.ReverseDebt(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDebtEntry(e))
}

// Preview godoc
// @Summary      Vista previa del cierre global
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PeriodResponse
// @Router       /api/payroll/preview [get]
func (h *PayrollHandler) Preview(c *fiber.Ctx) error {
	p, err := h.ledger.Preview(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromPeriod(p))
}

// GlobalClose godoc
// @Summary      Cierre global de nómina sin pago desde caja
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.PeriodResponse
// @Router       /api/payroll/periods [post]
func (h *PayrollHandler) GlobalClose(c *fiber.Ctx) error {
	p, err := h.ledger.GlobalPeriodClose(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPeriod(p))
}

// Periods godoc
// @Summary      Periodos archivados
// @Tags         payroll
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  dto.PeriodResponse
// @Router       /api/payroll/periods [get]
func (h *PayrollHandler) Periods(c *fiber.Ctx) error {
	var page dto.PageRequest
	if ok, err := bindQuery(c, &page); !ok {
		return err
	}
	page.DefaultPage()
	list, err := h.ledger.Periods(c.UserContext(), ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*dto.PeriodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.FromPeriod(p))
	}
	return c.JSON(out)
}

func entryID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "debe ser un entero positivo")
	}
	return id, nil
}
