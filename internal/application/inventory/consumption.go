package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// ConsumptionInput salida de mercancía para uso interno (merma, consumo de empleado).
type ConsumptionInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Unit      entity.Unit
	Reason    string
	Ref       string
}

// RestoreRef referencia con la que un reversal apunta al movimiento que deshace.
func RestoreRef(movementID int64) string {
	return "mov:" + strconv.FormatInt(movementID, 10)
}

// InternalConsumption descuenta stock con snapshot de costo. El motivo es obligatorio.
func (l *StockLedger) InternalConsumption(ctx context.Context, actor *permission.Actor, in ConsumptionInput) (*entity.Movement, error) {
	const op = "internal_consumption"
	if err := l.guard.Require(ctx, actor, op, permission.InventoryAdjust); err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		mov, err = l.ConsumeInTx(ctx, movRepo, productRepo, actor.ID, in)
		return err
	})
	detail := map[string]any{"reason": in.Reason}
	if mov != nil {
		detail["movement_id"] = mov.ID
	}
	if err := l.finish(ctx, actor, op, in.ProductID, detail, err); err != nil {
		return nil, err
	}
	return mov, nil
}

// ConsumeInTx pierna de consumo dentro de una transacción ajena.
func (l *StockLedger) ConsumeInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actorID string,
	in ConsumptionInput,
) (*entity.Movement, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.NewValidationError("reason", "el motivo es requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	p, err := productRepo.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	unit := in.Unit
	if unit == "" {
		unit = entity.UnitBase
	}
	base, factor, err := inventory.ToBase(p.Hierarchy, in.Quantity, unit)
	if err != nil {
		return nil, err
	}
	next := p.Stock.Sub(base)
	if next.IsNegative() && !l.opts.AllowNegativeStock {
		return nil, fmt.Errorf("%w: %s tiene %s, se consumen %s", domain.ErrInsufficientStock, p.Name, p.Stock, base)
	}
	p.Stock = next
	if err := productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	meta := snapshot(p, unit, factor, in.Quantity, false)
	meta.Ref = in.Ref
	m := &entity.Movement{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Kind:           entity.MovementInternalConsumption,
		Quantity:       base,
		ResultingStock: next,
		Reason:         strings.TrimSpace(in.Reason),
		ActorID:        actorID,
		Meta:           meta,
	}
	if err := movRepo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RestoreConsumption deshace un consumo interno con un reversal. Un segundo intento
// devuelve domain.ErrAlreadyReverted.
func (l *StockLedger) RestoreConsumption(ctx context.Context, actor *permission.Actor, movementID int64, reason string) (*entity.Movement, error) {
	const op = "restore_consumption"
	if err := l.guard.Require(ctx, actor, op, permission.InventoryAdjust); err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		mov, err = l.RestoreInTx(ctx, movRepo, productRepo, actor.ID, movementID, reason)
		return err
	})
	if err := l.finish(ctx, actor, op, strconv.FormatInt(movementID, 10), nil, err); err != nil {
		return nil, err
	}
	return mov, nil
}

// RestoreInTx devuelve al stock la cantidad del consumo movementID.
func (l *StockLedger) RestoreInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actorID string,
	movementID int64,
	reason string,
) (*entity.Movement, error) {
	orig, err := movRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, domain.ErrNotFound
	}
	if orig.Kind != entity.MovementInternalConsumption {
		return nil, domain.NewValidationError("movement", "solo se restauran consumos internos")
	}
	p, err := productRepo.GetForUpdate(ctx, orig.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: producto %s ya no existe", domain.ErrNotFound, orig.ProductID)
	}
	ref := RestoreRef(movementID)
	history, err := movRepo.ListByProduct(ctx, orig.ProductID)
	if err != nil {
		return nil, err
	}
	for _, m := range history {
		if m.Kind == entity.MovementReversal && m.Meta.Ref == ref {
			return nil, domain.ErrAlreadyReverted
		}
	}
	if reason == "" {
		reason = "Reversión de consumo interno"
	}
	p.Stock = p.Stock.Add(orig.Quantity)
	if err := productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	meta := orig.Meta
	meta.Ref = ref
	m := &entity.Movement{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Kind:           entity.MovementReversal,
		Quantity:       orig.Quantity,
		ResultingStock: p.Stock,
		Reason:         reason,
		ActorID:        actorID,
		Meta:           meta,
	}
	if err := movRepo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SupplyInput entrada de mercancía comprada.
type SupplyInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Unit      entity.Unit
	UnitCost  decimal.Decimal // costo por unidad indicada
	Ref       string
}

// ReceiveSupply suma la compra al stock y recalcula el costo promedio ponderado.
func (l *StockLedger) ReceiveSupply(ctx context.Context, actor *permission.Actor, in SupplyInput) (*entity.Movement, error) {
	const op = "receive_supply"
	if err := l.guard.Require(ctx, actor, op, permission.InventoryManage, permission.InventoryAdjust); err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		mov, err = l.ReceiveInTx(ctx, movRepo, productRepo, actor.ID, in)
		return err
	})
	if err := l.finish(ctx, actor, op, in.ProductID, map[string]any{"quantity": in.Quantity.String()}, err); err != nil {
		return nil, err
	}
	return mov, nil
}

// ReceiveInTx pierna de entrada de compra dentro de una transacción ajena.
func (l *StockLedger) ReceiveInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actorID string,
	in SupplyInput,
) (*entity.Movement, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unitCost", "no puede ser negativo")
	}
	p, err := productRepo.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	unit := in.Unit
	if unit == "" {
		unit = entity.UnitBase
	}
	base, factor, err := inventory.ToBase(p.Hierarchy, in.Quantity, unit)
	if err != nil {
		return nil, err
	}
	p.Cost = inventory.WeightedCost(p.Stock, p.Cost, base, in.UnitCost.Div(factor))
	p.Stock = p.Stock.Add(base)
	if err := productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	meta := snapshot(p, unit, factor, in.Quantity, false)
	meta.Ref = in.Ref
	m := &entity.Movement{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Kind:           entity.MovementEdit,
		Quantity:       base,
		ResultingStock: p.Stock,
		Reason:         "Compra de insumos",
		ActorID:        actorID,
		Meta:           meta,
	}
	if err := movRepo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// AdjustStock suma delta (con signo) al stock por el camino de actualización.
func (l *StockLedger) AdjustStock(ctx context.Context, actor *permission.Actor, productID string, delta decimal.Decimal, reason string) (*entity.Movement, error) {
	const op = "adjust_stock"
	if err := l.guard.Require(ctx, actor, op, permission.InventoryManage, permission.InventoryAdjust); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "Ajuste de stock"
	}
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		mov, err = l.AdjustInTx(ctx, movRepo, productRepo, actor.ID, productID, delta, reason, "")
		return err
	})
	if err := l.finish(ctx, actor, op, productID, map[string]any{"delta": delta.String()}, err); err != nil {
		return nil, err
	}
	return mov, nil
}
