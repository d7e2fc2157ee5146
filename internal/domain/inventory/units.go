// Package inventory contiene las reglas puras del kardex: conversión entre niveles de
// empaque y reproducción del stock a partir de los movimientos.
package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// Factor unidades base contenidas en una unidad del nivel u.
func Factor(h entity.Hierarchy, u entity.Unit) (decimal.Decimal, error) {
	switch u {
	case entity.UnitBase, "":
		return decimal.NewFromInt(1), nil
	case entity.UnitPack:
		if !h.Pack.Enabled || !h.Pack.Contents.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: paquete", domain.ErrInvalidUnit)
		}
		return h.Pack.Contents, nil
	case entity.UnitCase:
		if !h.Case.Enabled || !h.Case.Contents.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: bulto", domain.ErrInvalidUnit)
		}
		if h.Pack.Enabled && h.Pack.Contents.IsPositive() {
			return h.Case.Contents.Mul(h.Pack.Contents), nil
		}
		return h.Case.Contents, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidUnit, u)
}

// ToBase convierte qty expresada en u a unidades base.
func ToBase(h entity.Hierarchy, qty decimal.Decimal, u entity.Unit) (decimal.Decimal, decimal.Decimal, error) {
	f, err := Factor(h, u)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return qty.Mul(f), f, nil
}

// ValidateHierarchy rechaza niveles activos sin contenido positivo.
func ValidateHierarchy(h entity.Hierarchy) error {
	if h.Pack.Enabled && !h.Pack.Contents.IsPositive() {
		return domain.NewValidationError("hierarchy.pack", "el contenido del paquete debe ser positivo")
	}
	if h.Case.Enabled && !h.Case.Contents.IsPositive() {
		return domain.NewValidationError("hierarchy.case", "el contenido del bulto debe ser positivo")
	}
	return nil
}

// InferUnit deduce en qué nivel se expresó un cambio de stock sin metadatos explícitos.
// Se prueba primero el bulto, luego el paquete; si ninguno divide exacto, unidades base.
// Devuelve el nivel, su factor y la cantidad expresada en ese nivel.
func InferUnit(h entity.Hierarchy, delta decimal.Decimal) (entity.Unit, decimal.Decimal, decimal.Decimal) {
	abs := delta.Abs()
	for _, u := range []entity.Unit{entity.UnitCase, entity.UnitPack} {
		f, err := Factor(h, u)
		if err != nil {
			continue
		}
		if abs.GreaterThanOrEqual(f) && abs.Mod(f).IsZero() {
			return u, f, abs.Div(f)
		}
	}
	return entity.UnitBase, decimal.NewFromInt(1), abs
}

// Breakdown stock desglosado por nivel para mostrar.
type Breakdown struct {
	Cases decimal.Decimal
	Packs decimal.Decimal
	Units decimal.Decimal
}

// Decompose desglosa stock (no negativo) en bultos, paquetes y unidades sueltas.
func Decompose(h entity.Hierarchy, stock decimal.Decimal) Breakdown {
	rest := stock
	if rest.IsNegative() {
		return Breakdown{Units: rest}
	}
	var b Breakdown
	if f, err := Factor(h, entity.UnitCase); err == nil {
		b.Cases = rest.Div(f).Floor()
		rest = rest.Sub(b.Cases.Mul(f))
	}
	if f, err := Factor(h, entity.UnitPack); err == nil {
		b.Packs = rest.Div(f).Floor()
		rest = rest.Sub(b.Packs.Mul(f))
	}
	b.Units = rest
	return b
}

// Compose convierte un conteo descompuesto a unidades base. Un nivel inactivo aporta cero.
func Compose(h entity.Hierarchy, c entity.CountBreakdown) decimal.Decimal {
	total := c.Units
	if f, err := Factor(h, entity.UnitPack); err == nil {
		total = total.Add(c.Packs.Mul(f))
	}
	if f, err := Factor(h, entity.UnitCase); err == nil {
		total = total.Add(c.Cases.Mul(f))
	}
	return total
}
