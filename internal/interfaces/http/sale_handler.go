package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// SaleHandler checkout y anulación de ventas.
type SaleHandler struct {
	uc *sales.UseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.UseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Checkout godoc
// @Summary      Registrar venta
// @Description  Descuenta stock y acredita la caja en una sola transacción. Pagos mixtos por cuadrante.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "Líneas, pagos y vuelto"
// @Success      201   {object}  dto.SaleResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	lines := make([]inventory.SaleLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.SaleLine{ProductID: l.ProductID, Quantity: l.Quantity, Unit: entity.Unit(l.Unit)})
	}
	payments, err := tenders("payments", in.Payments)
	if err != nil {
		return writeError(c, err)
	}
	change, err := tenders("change", in.Change)
	if err != nil {
		return writeError(c, err)
	}
	sale, err := h.uc.Checkout(c.UserContext(), ActorFrom(c), sales.CheckoutInput{
		Lines:      lines,
		Payments:   payments,
		Change:     change,
		CreditUSD:  in.CreditUSD,
		CustomerID: in.CustomerID,
		Rate:       in.Rate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSale(sale))
}

func tenders(field string, in []dto.TenderDTO) ([]entity.Tender, error) {
	out := make([]entity.Tender, 0, len(in))
	for i, t := range in {
		cur, err := money.ParseCurrency(t.Currency)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("%s[%d].currency", field, i), err.Error())
		}
		out = append(out, entity.Tender{Currency: cur, Channel: money.Channel(t.Channel), Amount: t.Amount})
	}
	return out, nil
}

// Void godoc
// @Summary      Anular venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/void [post]
func (h *SaleHandler) Void(c *fiber.Ctx) error {
	sale, err := h.uc.Void(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSale(sale))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.uc.Get(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSale(sale))
}

// ListCurrent godoc
// @Summary      Ventas de la sesión abierta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) ListCurrent(c *fiber.Ctx) error {
	list, err := h.uc.ListCurrent(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromSale(s))
	}
	return c.JSON(out)
}
