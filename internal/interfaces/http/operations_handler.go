package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/orchestrator"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// OperationsHandler acciones que cruzan dos libros (caja, inventario y nómina).
type OperationsHandler struct {
	orch *orchestrator.Orchestrator
}

// NewOperationsHandler construye el handler.
func NewOperationsHandler(orch *orchestrator.Orchestrator) *OperationsHandler {
	return &OperationsHandler{orch: orch}
}

// Advance godoc
// @Summary      Adelanto de nómina pagado desde caja
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdvanceRequest  true  "Empleado, monto y cuadrante"
// @Success      201   {object}  dto.AdvanceResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/operations/advances [post]
func (h *OperationsHandler) Advance(c *fiber.Ctx) error {
	var in dto.AdvanceRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cur, err := money.ParseCurrency(in.Currency)
	if err != nil {
		return writeError(c, domain.NewValidationError("currency", err.Error()))
	}
	res, err := h.orch.AdvancePay(c.UserContext(), ActorFrom(c), orchestrator.AdvanceInput{
		EmployeeID: in.EmployeeID,
		Amount:     in.Amount,
		Currency:   cur,
		Channel:    money.Channel(in.Channel),
		Rate:       in.Rate,
		Reason:     in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdvanceResponse{
		Expense: dto.FromExpense(res.Expense),
		Entry:   dto.FromDebtEntry(res.Entry),
	})
}

// Consumption godoc
// @Summary      Consumo de mercancía cargado al empleado
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumptionChargeRequest  true  "Empleado, producto y cantidad"
// @Success      201   {object}  dto.ConsumptionChargeResponse
// @Router       /api/operations/consumptions [post]
func (h *OperationsHandler) Consumption(c *fiber.Ctx) error {
	var in dto.ConsumptionChargeRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	res, err := h.orch.ChargeEmployeeConsumption(c.UserContext(), ActorFrom(c), orchestrator.ConsumptionChargeInput{
		EmployeeID: in.EmployeeID,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		Unit:       entity.Unit(in.Unit),
		Reason:     in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ConsumptionChargeResponse{
		Movement: dto.FromMovement(res.Movement),
		Entry:    dto.FromDebtEntry(res.Entry),
	})
}

// Revert godoc
// @Summary      Revertir un cargo de deuda y su pierna emparejada
// @Description  Devuelve el egreso o restituye el stock antes de anular el asiento. Reintentable.
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del asiento de deuda"
// @Success      200  {object}  dto.DebtEntryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/operations/entries/{id}/revert [post]
func (h *OperationsHandler) Revert(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return writeError(c, err)
	}
	e, err := h.orch.RevertPairedMovement(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDebtEntry(e))
}

// PayrollPayment godoc
// @Summary      Pagar la nómina desde caja y cerrar el periodo
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PayrollPaymentRequest  true  "Cuadrante de pago"
// @Success      201   {object}  dto.PayrollPaymentResponse
// @Router       /api/operations/payroll-payments [post]
func (h *OperationsHandler) PayrollPayment(c *fiber.Ctx) error {
	var in dto.PayrollPaymentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cur, err := money.ParseCurrency(in.Currency)
	if err != nil {
		return writeError(c, domain.NewValidationError("currency", err.Error()))
	}
	res, err := h.orch.ClosePayrollWithPayment(c.UserContext(), ActorFrom(c), orchestrator.PayrollPaymentInput{
		Currency: cur,
		Channel:  money.Channel(in.Channel),
		Rate:     in.Rate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PayrollPaymentResponse{
		Period:  dto.FromPeriod(res.Period),
		Expense: dto.FromExpense(res.Expense),
	})
}

// SupplyPurchase godoc
// @Summary      Compra de mercancía pagada desde caja
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SupplyPurchaseRequest  true  "Producto, cantidad, costo y cuadrante"
// @Success      201   {object}  dto.SupplyPurchaseResponse
// @Router       /api/operations/supply-purchases [post]
func (h *OperationsHandler) SupplyPurchase(c *fiber.Ctx) error {
	var in dto.SupplyPurchaseRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cur, err := money.ParseCurrency(in.Currency)
	if err != nil {
		return writeError(c, domain.NewValidationError("currency", err.Error()))
	}
	res, err := h.orch.RegisterSupplyPurchase(c.UserContext(), ActorFrom(c), orchestrator.SupplyPurchaseInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Unit:      entity.Unit(in.Unit),
		UnitCost:  in.UnitCost,
		Currency:  cur,
		Channel:   money.Channel(in.Channel),
		Rate:      in.Rate,
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SupplyPurchaseResponse{
		Expense:  dto.FromExpense(res.Expense),
		Movement: dto.FromMovement(res.Movement),
	})
}
