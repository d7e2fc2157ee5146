package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// SaleLine línea pedida: cantidad en la unidad indicada (vacía = unidad base).
type SaleLine struct {
	ProductID string
	Quantity  decimal.Decimal
	Unit      entity.Unit
}

// Sell descuenta las líneas en una transacción y devuelve los ítems valorizados.
func (l *StockLedger) Sell(ctx context.Context, actor *permission.Actor, lines []SaleLine, ref string) ([]entity.SaleItem, error) {
	const op = "sell"
	if err := l.guard.Require(ctx, actor, op, permission.POSAccess); err != nil {
		return nil, err
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	var items []entity.SaleItem
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		items, err = l.SellInTx(ctx, movRepo, productRepo, actor.ID, lines, ref)
		return err
	})
	if err := l.finish(ctx, actor, op, ref, map[string]any{"lines": len(lines)}, err); err != nil {
		return nil, err
	}
	return items, nil
}

// ValidateLines rechaza líneas vacías o con cantidad no positiva.
func ValidateLines(lines []SaleLine) error {
	if len(lines) == 0 {
		return domain.NewValidationError("items", "la venta no tiene líneas")
	}
	for i, ln := range lines {
		if ln.ProductID == "" {
			return domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "requerido")
		}
		if !ln.Quantity.IsPositive() {
			return domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "debe ser positiva")
		}
	}
	return nil
}

// SellInTx es la pierna de inventario de una venta dentro de una transacción ajena.
// Los productos se bloquean en orden de ID para que dos ventas concurrentes no se crucen.
func (l *StockLedger) SellInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actorID string,
	lines []SaleLine,
	ref string,
) ([]entity.SaleItem, error) {
	items := make([]entity.SaleItem, len(lines))
	for _, idx := range lockOrder(lines) {
		ln := lines[idx]
		p, err := productRepo.GetForUpdate(ctx, ln.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, ln.ProductID)
		}
		unit := ln.Unit
		if unit == "" {
			unit = entity.UnitBase
		}
		base, factor, err := inventory.ToBase(p.Hierarchy, ln.Quantity, unit)
		if err != nil {
			return nil, err
		}
		next := p.Stock.Sub(base)
		if next.IsNegative() && !l.opts.AllowNegativeStock {
			return nil, fmt.Errorf("%w: %s tiene %s, se piden %s", domain.ErrInsufficientStock, p.Name, p.Stock, base)
		}
		p.Stock = next
		if err := productRepo.Update(ctx, p); err != nil {
			return nil, err
		}
		meta := snapshot(p, unit, factor, ln.Quantity, false)
		meta.Ref = ref
		m := &entity.Movement{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Kind:           entity.MovementSale,
			Quantity:       base,
			ResultingStock: next,
			Reason:         "Venta",
			ActorID:        actorID,
			Meta:           meta,
		}
		if err := movRepo.Append(ctx, m); err != nil {
			return nil, err
		}
		unitPrice := p.Price.Mul(factor)
		items[idx] = entity.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    ln.Quantity,
			Unit:        unit,
			BaseQty:     base,
			UnitPrice:   unitPrice,
			Subtotal:    money.Cents(unitPrice.Mul(ln.Quantity)),
			MovementID:  m.ID,
		}
	}
	return items, nil
}

// VoidSale devuelve al stock exactamente lo descontado por los ítems.
func (l *StockLedger) VoidSale(ctx context.Context, actor *permission.Actor, items []entity.SaleItem, ref string) error {
	const op = "void_sale"
	if err := l.guard.Require(ctx, actor, op, permission.POSVoidTicket); err != nil {
		return err
	}
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		return l.VoidInTx(ctx, movRepo, productRepo, actor.ID, items, ref)
	})
	return l.finish(ctx, actor, op, ref, map[string]any{"items": len(items)}, err)
}

// VoidInTx es la pierna de inventario de una anulación: un movimiento reversal por ítem.
// Si un producto de la venta fue eliminado la anulación entera se rechaza con ErrConflict;
// el producto no se recrea desde el kardex.
func (l *StockLedger) VoidInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actorID string,
	items []entity.SaleItem,
	ref string,
) error {
	lines := make([]SaleLine, len(items))
	for i, it := range items {
		lines[i] = SaleLine{ProductID: it.ProductID}
	}
	for _, idx := range lockOrder(lines) {
		it := items[idx]
		p, err := productRepo.GetForUpdate(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: el producto %s (%s) fue eliminado; la venta no puede anularse", domain.ErrConflict, it.ProductName, it.ProductID)
		}
		p.Stock = p.Stock.Add(it.BaseQty)
		if err := productRepo.Update(ctx, p); err != nil {
			return err
		}
		factor := decimal.NewFromInt(1)
		if !it.Quantity.IsZero() {
			factor = it.BaseQty.Div(it.Quantity)
		}
		meta := snapshot(p, it.Unit, factor, it.Quantity, false)
		meta.PriceSnapshot = it.UnitPrice
		meta.Ref = ref
		if err := movRepo.Append(ctx, &entity.Movement{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Kind:           entity.MovementReversal,
			Quantity:       it.BaseQty,
			ResultingStock: p.Stock,
			Reason:         "Anulación de venta",
			ActorID:        actorID,
			Meta:           meta,
		}); err != nil {
			return err
		}
	}
	return nil
}

// lockOrder índices de las líneas ordenados por ProductID.
func lockOrder(lines []SaleLine) []int {
	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return lines[idx[a]].ProductID < lines[idx[b]].ProductID })
	return idx
}
