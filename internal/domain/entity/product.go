package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit nivel de la jerarquía en que se expresa una cantidad.
type Unit string

const (
	UnitBase Unit = "unidad"
	UnitPack Unit = "paquete"
	UnitCase Unit = "bulto"
)

// UnitLevel un nivel de empaque: cuántas unidades del nivel inferior contiene.
type UnitLevel struct {
	Enabled  bool            `json:"enabled"`
	Contents decimal.Decimal `json:"contents"`
}

// Hierarchy jerarquía opcional de empaque. El paquete contiene N unidades base;
// el bulto contiene M paquetes (si el paquete está activo) o M unidades base.
type Hierarchy struct {
	Pack UnitLevel `json:"pack"`
	Case UnitLevel `json:"case"`
}

// Product producto del catálogo. Stock siempre en unidades base y puede ser negativo
// si la configuración lo permite. Solo lo mutan las operaciones del kardex.
type Product struct {
	ID        string
	Name      string
	Category  string
	Price     decimal.Decimal // precio de venta en USD
	Cost      decimal.Decimal // costo de reposición en USD
	Stock     decimal.Decimal
	Hierarchy Hierarchy
	MinStock  decimal.Decimal
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LowStock indica si el stock está en o por debajo del mínimo configurado.
func (p *Product) LowStock() bool {
	return p.MinStock.IsPositive() && p.Stock.LessThanOrEqual(p.MinStock)
}
