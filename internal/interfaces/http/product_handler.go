package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// ProductHandler catálogo de productos y categorías (protegido).
type ProductHandler struct {
	ledger *inventory.StockLedger
}

// NewProductHandler construye el handler.
func NewProductHandler(ledger *inventory.StockLedger) *ProductHandler {
	return &ProductHandler{ledger: ledger}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	p, err := h.ledger.CreateProduct(c.UserContext(), ActorFrom(c), inventory.CreateProductInput{
		Name:         in.Name,
		Category:     in.Category,
		Price:        in.Price,
		Cost:         in.Cost,
		InitialStock: in.InitialStock,
		Hierarchy:    in.Hierarchy.ToEntity(),
		MinStock:     in.MinStock,
		ExpiresAt:    in.ExpiresAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromProduct(p))
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	p, err := h.ledger.GetProduct(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromProduct(p))
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if ok, err := bindQuery(c, &page); !ok {
		return err
	}
	page.DefaultPage()
	list, err := h.ledger.ListProducts(c.UserContext(), ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.FromProduct(p))
	}
	return c.JSON(dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Update godoc
// @Summary      Actualizar producto
// @Description  Cambios parciales. Un cambio de stock genera un asiento de ajuste en el kardex.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	upd := inventory.UpdateProductInput{
		Name:      in.Name,
		Category:  in.Category,
		Price:     in.Price,
		Cost:      in.Cost,
		MinStock:  in.MinStock,
		ExpiresAt: in.ExpiresAt,
		Stock:     in.Stock,
		Reason:    in.Reason,
	}
	if in.Hierarchy != nil {
		hier := in.Hierarchy.ToEntity()
		upd.Hierarchy = &hier
	}
	if in.Unit != nil {
		u := entity.Unit(*in.Unit)
		upd.Unit = &u
	}
	p, err := h.ledger.UpdateProduct(c.UserContext(), ActorFrom(c), c.Params("id"), upd)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromProduct(p))
}

// Delete godoc
// @Summary      Dar de baja un producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.DeleteProductRequest  true  "Motivo"
// @Success      204
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	var in dto.DeleteProductRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := h.ledger.DeleteProduct(c.UserContext(), ActorFrom(c), c.Params("id"), in.Reason); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateCategory godoc
// @Summary      Crear categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryRequest  true  "Nombre"
// @Success      201   {object}  dto.CategoryResponse
// @Router       /api/categories [post]
func (h *ProductHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	cat, err := h.ledger.CreateCategory(c.UserContext(), ActorFrom(c), in.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CategoryResponse{ID: cat.ID, Name: cat.Name, CreatedAt: cat.CreatedAt})
}

// ListCategories godoc
// @Summary      Listar categorías
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CategoryResponse
// @Router       /api/categories [get]
func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	list, err := h.ledger.ListCategories(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, cat := range list {
		out = append(out, dto.CategoryResponse{ID: cat.ID, Name: cat.Name, CreatedAt: cat.CreatedAt})
	}
	return c.JSON(out)
}

// DeleteCategory godoc
// @Summary      Eliminar categoría
// @Description  Los productos de la categoría pasan a la categoría por defecto.
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre de la categoría"
// @Success      200   {object}  dto.DeleteCategoryResponse
// @Router       /api/categories/{name} [delete]
func (h *ProductHandler) DeleteCategory(c *fiber.Ctx) error {
	n, err := h.ledger.DeleteCategory(c.UserContext(), ActorFrom(c), c.Params("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.DeleteCategoryResponse{Reassigned: n})
}
