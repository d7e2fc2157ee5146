package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// InventoryHandler kardex: ajustes, consumo interno y reportes de stock.
type InventoryHandler struct {
	ledger *inventory.StockLedger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.StockLedger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "Delta con signo y motivo"
// @Success      201   {object}  dto.MovementResponse
// @Router       /api/inventory/products/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	m, err := h.ledger.AdjustStock(c.UserContext(), ActorFrom(c), c.Params("id"), in.Delta, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(m))
}

// Consume godoc
// @Summary      Consumo interno
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumptionRequest  true  "Producto, cantidad, unidad y motivo"
// @Success      201   {object}  dto.MovementResponse
// @Router       /api/inventory/consumptions [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumptionRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	m, err := h.ledger.InternalConsumption(c.UserContext(), ActorFrom(c), inventory.ConsumptionInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Unit:      entity.Unit(in.Unit),
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(m))
}

// Restore godoc
// @Summary      Restituir un consumo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                 true  "ID del movimiento de consumo"
// @Param        body  body  dto.RestoreRequest  false "Motivo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions/{id}/restore [post]
func (h *InventoryHandler) Restore(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return writeError(c, domain.NewValidationError("id", "debe ser numérico"))
	}
	var in dto.RestoreRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &in); !ok {
			return err
		}
	}
	m, err := h.ledger.RestoreConsumption(c.UserContext(), ActorFrom(c), id, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(m))
}

// Kardex godoc
// @Summary      Kardex del producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/products/{id}/kardex [get]
func (h *InventoryHandler) Kardex(c *fiber.Ctx) error {
	list, err := h.ledger.Kardex(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMovements(list))
}

// Verify godoc
// @Summary      Verificar integridad del stock
// @Description  Reproduce el kardex y lo compara con el stock guardado. No corrige nada.
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	if err := h.ledger.VerifyStock(c.UserContext(), ActorFrom(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LowStock godoc
// @Summary      Productos bajo mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.ledger.LowStock(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LowStockResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.FromLowStock(it))
	}
	return c.JSON(out)
}
