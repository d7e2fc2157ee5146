package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// HierarchyDTO jerarquía de empaque (paquete y bulto opcionales).
type HierarchyDTO struct {
	PackEnabled  bool            `json:"pack_enabled"`
	PackContents decimal.Decimal `json:"pack_contents"`
	CaseEnabled  bool            `json:"case_enabled"`
	CaseContents decimal.Decimal `json:"case_contents"`
}

// ToEntity convierte a la jerarquía del dominio.
func (h HierarchyDTO) ToEntity() entity.Hierarchy {
	return entity.Hierarchy{
		Pack: entity.UnitLevel{Enabled: h.PackEnabled, Contents: h.PackContents},
		Case: entity.UnitLevel{Enabled: h.CaseEnabled, Contents: h.CaseContents},
	}
}

// FromHierarchy mapea la jerarquía del dominio.
func FromHierarchy(h entity.Hierarchy) HierarchyDTO {
	return HierarchyDTO{
		PackEnabled:  h.Pack.Enabled,
		PackContents: h.Pack.Contents,
		CaseEnabled:  h.Case.Enabled,
		CaseContents: h.Case.Contents,
	}
}

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Category     string          `json:"category" validate:"max=100"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	InitialStock decimal.Decimal `json:"initial_stock"`
	Hierarchy    HierarchyDTO    `json:"hierarchy"`
	MinStock     decimal.Decimal `json:"min_stock"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
}

// UpdateProductRequest cambios parciales. Si Stock viene, Unit indica en qué nivel se expresó el cambio.
type UpdateProductRequest struct {
	Name      *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Category  *string          `json:"category" validate:"omitempty,max=100"`
	Price     *decimal.Decimal `json:"price"`
	Cost      *decimal.Decimal `json:"cost"`
	Hierarchy *HierarchyDTO    `json:"hierarchy"`
	MinStock  *decimal.Decimal `json:"min_stock"`
	ExpiresAt *time.Time       `json:"expires_at"`
	Stock     *decimal.Decimal `json:"stock"`
	Unit      *string          `json:"unit" validate:"omitempty,oneof=unidad paquete bulto"`
	Reason    string           `json:"reason" validate:"max=500"`
}

// DeleteProductRequest motivo de la baja.
type DeleteProductRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Stock     decimal.Decimal `json:"stock"`
	Hierarchy HierarchyDTO    `json:"hierarchy"`
	MinStock  decimal.Decimal `json:"min_stock"`
	LowStock  bool            `json:"low_stock"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// FromProduct mapea la entidad a la respuesta.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Cost:      p.Cost,
		Stock:     p.Stock,
		Hierarchy: FromHierarchy(p.Hierarchy),
		MinStock:  p.MinStock,
		LowStock:  p.LowStock(),
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CategoryRequest alta de categoría.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteCategoryResponse productos reasignados a la categoría por defecto.
type DeleteCategoryResponse struct {
	Reassigned int64 `json:"reassigned"`
}
