package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

const ledgerName = "inventory"

// placeholderName nombre por defecto de productos sin nombre; no se propaga a legados.
const placeholderName = "Sin Nombre"

// Options comportamiento configurable del kardex.
type Options struct {
	AllowNegativeStock bool
}

// StockLedger casos de uso del kardex. Toda operación corre en una sola transacción
// con bloqueo de fila (GetForUpdate) sobre los productos que toca.
type StockLedger struct {
	txRunner TxRunner
	guard    *security.Guard
	notifier ports.ChangeNotifier
	opts     Options
	logger   zerolog.Logger
}

// NewStockLedger construye el caso de uso.
func NewStockLedger(txRunner TxRunner, guard *security.Guard, opts Options, logger zerolog.Logger) *StockLedger {
	return &StockLedger{
		txRunner: txRunner,
		guard:    guard,
		notifier: ports.NopNotifier{},
		opts:     opts,
		logger:   logger.With().Str("ledger", ledgerName).Logger(),
	}
}

// WithNotifier registra el receptor de avisos post-commit.
func (l *StockLedger) WithNotifier(n ports.ChangeNotifier) *StockLedger {
	if n != nil {
		l.notifier = n
	}
	return l
}

// Options devuelve la configuración activa.
func (l *StockLedger) Options() Options { return l.opts }

// CreateProductInput datos de alta de producto.
type CreateProductInput struct {
	Name         string
	Category     string
	Price        decimal.Decimal
	Cost         decimal.Decimal
	InitialStock decimal.Decimal
	Hierarchy    entity.Hierarchy
	MinStock     decimal.Decimal
	ExpiresAt    *time.Time
}

// UpdateProductInput cambios parciales; nil significa sin cambio. Unit es la metadata
// explícita del cambio de stock; si es nil se infiere por divisibilidad exacta.
type UpdateProductInput struct {
	Name      *string
	Category  *string
	Price     *decimal.Decimal
	Cost      *decimal.Decimal
	Hierarchy *entity.Hierarchy
	MinStock  *decimal.Decimal
	ExpiresAt *time.Time
	Stock     *decimal.Decimal
	Unit      *entity.Unit
	Reason    string
}

func (in UpdateProductInput) touchesCatalog() bool {
	return in.Name != nil || in.Category != nil || in.Price != nil || in.Cost != nil ||
		in.Hierarchy != nil || in.MinStock != nil || in.ExpiresAt != nil
}

// CreateProduct da de alta el producto y su movimiento inicial.
func (l *StockLedger) CreateProduct(ctx context.Context, actor *permission.Actor, in CreateProductInput) (*entity.Product, error) {
	const op = "create_product"
	if err := l.guard.Require(ctx, actor, op, permission.InventoryManage); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "el nombre es requerido")
	}
	if in.Price.IsNegative() || in.Cost.IsNegative() {
		return nil, domain.NewValidationError("price", "precio y costo no pueden ser negativos")
	}
	if in.InitialStock.IsNegative() {
		return nil, domain.NewValidationError("stock", "el stock inicial no puede ser negativo")
	}
	if err := inventory.ValidateHierarchy(in.Hierarchy); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = entity.DefaultCategory
	}

	now := time.Now().UTC()
	p := &entity.Product{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Category:  in.Category,
		Price:     in.Price,
		Cost:      in.Cost,
		Stock:     in.InitialStock,
		Hierarchy: in.Hierarchy,
		MinStock:  in.MinStock,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		if err := productRepo.Create(ctx, p); err != nil {
			return err
		}
		return movRepo.Append(ctx, &entity.Movement{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Kind:           entity.MovementInitial,
			Quantity:       p.Stock,
			ResultingStock: p.Stock,
			Reason:         "Alta de producto",
			ActorID:        actor.ID,
			Meta:           snapshot(p, entity.UnitBase, decimal.NewFromInt(1), p.Stock, false),
		})
	})
	if err := l.finish(ctx, actor, op, p.ID, map[string]any{"name": p.Name, "stock": p.Stock.String()}, err); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct aplica cambios de catálogo y/o de stock. Un cambio de stock genera un
// movimiento edit (sube) o adjustment (baja); un cambio de nombre se propaga al kardex.
func (l *StockLedger) UpdateProduct(ctx context.Context, actor *permission.Actor, productID string, in UpdateProductInput) (*entity.Product, error) {
	const op = "update_product"
	caps := []permission.Capability{permission.InventoryManage}
	if !in.touchesCatalog() {
		caps = append(caps, permission.InventoryAdjust)
	}
	if err := l.guard.Require(ctx, actor, op, caps...); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.NewValidationError("name", "el nombre no puede quedar vacío")
	}
	if (in.Price != nil && in.Price.IsNegative()) || (in.Cost != nil && in.Cost.IsNegative()) {
		return nil, domain.NewValidationError("price", "precio y costo no pueden ser negativos")
	}
	if in.Hierarchy != nil {
		if err := inventory.ValidateHierarchy(*in.Hierarchy); err != nil {
			return nil, err
		}
	}

	var out *entity.Product
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		p, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		oldName := p.Name
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Category != nil {
			p.Category = *in.Category
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Cost != nil {
			p.Cost = *in.Cost
		}
		if in.Hierarchy != nil {
			p.Hierarchy = *in.Hierarchy
		}
		if in.MinStock != nil {
			p.MinStock = *in.MinStock
		}
		if in.ExpiresAt != nil {
			p.ExpiresAt = in.ExpiresAt
		}
		if in.Stock != nil && !in.Stock.Equal(p.Stock) {
			reason := in.Reason
			if reason == "" {
				reason = "Edición de stock"
			}
			mov, err = l.applyDelta(ctx, movRepo, p, in.Stock.Sub(p.Stock), in.Unit, reason, actor.ID, "")
			if err != nil {
				return err
			}
		}
		p.UpdatedAt = time.Now().UTC()
		if err := productRepo.Update(ctx, p); err != nil {
			return err
		}
		if p.Name != oldName {
			legacy := oldName
			if legacy == placeholderName {
				legacy = ""
			}
			if _, err := movRepo.RenameProduct(ctx, p.ID, legacy, p.Name); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	detail := map[string]any{}
	if mov != nil {
		detail["movement_id"] = mov.ID
		detail["kind"] = string(mov.Kind)
		detail["quantity"] = mov.Quantity.String()
	}
	if err := l.finish(ctx, actor, op, productID, detail, err); err != nil {
		return nil, err
	}
	return out, nil
}

// AdjustInTx suma delta (con signo) al stock del producto dentro de una transacción ajena.
// Es el mismo camino de actualización de UpdateProduct; lo usa la auditoría.
func (l *StockLedger) AdjustInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	actorID, productID string,
	delta decimal.Decimal,
	reason, ref string,
) (*entity.Movement, error) {
	p, err := productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if delta.IsZero() {
		return nil, nil
	}
	mov, err := l.applyDelta(ctx, movRepo, p, delta, nil, reason, actorID, ref)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return mov, nil
}

// applyDelta muta p.Stock y agrega el movimiento edit/adjustment correspondiente.
func (l *StockLedger) applyDelta(
	ctx context.Context,
	movRepo repository.MovementRepository,
	p *entity.Product,
	delta decimal.Decimal,
	unit *entity.Unit,
	reason, actorID, ref string,
) (*entity.Movement, error) {
	next := p.Stock.Add(delta)
	if next.IsNegative() && !l.opts.AllowNegativeStock {
		return nil, fmt.Errorf("%w: %s quedaría en %s", domain.ErrInsufficientStock, p.Name, next)
	}
	var (
		u        entity.Unit
		factor   decimal.Decimal
		original decimal.Decimal
		inferred bool
	)
	if unit != nil {
		f, err := inventory.Factor(p.Hierarchy, *unit)
		if err != nil {
			return nil, err
		}
		u, factor, original = *unit, f, delta.Abs().Div(f)
	} else {
		u, factor, original = inventory.InferUnit(p.Hierarchy, delta)
		inferred = true
	}
	kind := entity.MovementEdit
	if delta.IsNegative() {
		kind = entity.MovementAdjustment
	}
	p.Stock = next
	meta := snapshot(p, u, factor, original, inferred)
	meta.Ref = ref
	m := &entity.Movement{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Kind:           kind,
		Quantity:       delta.Abs(),
		ResultingStock: next,
		Reason:         reason,
		ActorID:        actorID,
		Meta:           meta,
	}
	if err := movRepo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteProduct registra el movimiento terminal y luego elimina el producto.
func (l *StockLedger) DeleteProduct(ctx context.Context, actor *permission.Actor, productID, reason string) error {
	const op = "delete_product"
	if err := l.guard.Require(ctx, actor, op, permission.InventoryManage); err != nil {
		return err
	}
	if reason == "" {
		reason = "Producto eliminado"
	}
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		p, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if err := movRepo.Append(ctx, &entity.Movement{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Kind:           entity.MovementDeleted,
			Quantity:       p.Stock.Abs(),
			ResultingStock: decimal.Zero,
			Reason:         reason,
			ActorID:        actor.ID,
			Meta:           snapshot(p, entity.UnitBase, decimal.NewFromInt(1), p.Stock.Abs(), false),
		}); err != nil {
			return err
		}
		return productRepo.Delete(ctx, p.ID)
	})
	return l.finish(ctx, actor, op, productID, map[string]any{"reason": reason}, err)
}

// GetProduct consulta un producto.
func (l *StockLedger) GetProduct(ctx context.Context, actor *permission.Actor, productID string) (*entity.Product, error) {
	if err := l.guard.Require(ctx, actor, "get_product", permission.InventoryView); err != nil {
		return nil, err
	}
	var p *entity.Product
	err := l.txRunner.Run(ctx, func(_ repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		p, err = productRepo.GetByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// ListProducts lista el catálogo paginado.
func (l *StockLedger) ListProducts(ctx context.Context, actor *permission.Actor, limit, offset int) ([]*entity.Product, error) {
	if err := l.guard.Require(ctx, actor, "list_products", permission.InventoryView); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*entity.Product
	err := l.txRunner.Run(ctx, func(_ repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		out, err = productRepo.List(ctx, limit, offset)
		return err
	})
	return out, err
}

// LowStockItem producto en o bajo el mínimo con la reposición sugerida.
type LowStockItem struct {
	Product   *entity.Product
	Breakdown inventory.Breakdown
	Suggested decimal.Decimal // unidades base para volver a 2 × mínimo
}

// LowStock lista los productos en o bajo su stock mínimo.
func (l *StockLedger) LowStock(ctx context.Context, actor *permission.Actor) ([]LowStockItem, error) {
	products, err := l.ListProducts(ctx, actor, 10000, 0)
	if err != nil {
		return nil, err
	}
	out := make([]LowStockItem, 0)
	for _, p := range products {
		if !p.LowStock() {
			continue
		}
		out = append(out, LowStockItem{
			Product:   p,
			Breakdown: inventory.Decompose(p.Hierarchy, p.Stock),
			Suggested: p.MinStock.Mul(decimal.NewFromInt(2)).Sub(p.Stock),
		})
	}
	return out, nil
}

// Kardex devuelve los movimientos del producto en orden de confirmación.
func (l *StockLedger) Kardex(ctx context.Context, actor *permission.Actor, productID string) ([]*entity.Movement, error) {
	if err := l.guard.Require(ctx, actor, "kardex", permission.InventoryView); err != nil {
		return nil, err
	}
	var out []*entity.Movement
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, _ repository.ProductRepository, _ repository.CategoryRepository) error {
		var err error
		out, err = movRepo.ListByProduct(ctx, productID)
		return err
	})
	return out, err
}

// VerifyStock reproduce el kardex y lo compara con el stock guardado. Una diferencia se
// reporta como evento crítico y se devuelve como *domain.IntegrityViolation, sin corregir.
func (l *StockLedger) VerifyStock(ctx context.Context, actor *permission.Actor, productID string) error {
	if err := l.guard.Require(ctx, actor, "verify_stock", permission.InventoryView); err != nil {
		return err
	}
	var verr error
	err := l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		p, err := productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		movs, err := movRepo.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		verr = inventory.Verify(p, movs)
		return nil
	})
	if err != nil {
		return err
	}
	if verr != nil {
		l.logger.Error().Err(verr).Str("product_id", productID).Msg("kardex no reproduce el stock")
		l.guard.Record(ctx, actor, security.EventIntegrity, productID, entity.SeverityCritical, map[string]any{"error": verr.Error()})
	}
	return verr
}

// finish registra métricas, evento de seguridad y aviso post-commit.
func (l *StockLedger) finish(ctx context.Context, actor *permission.Actor, op, subject string, detail map[string]any, err error) error {
	l.guard.Metrics().ObserveOp(ledgerName, op, err)
	if err != nil {
		l.logger.Debug().Err(err).Str("op", op).Str("subject", subject).Msg("operación rechazada")
		return err
	}
	l.logger.Debug().Str("op", op).Str("subject", subject).Msg("operación confirmada")
	l.guard.Mutation(ctx, actor, op, subject, detail)
	l.notifier.Notify(ports.Change{Ledger: ledgerName, Op: op, Subject: subject, At: time.Now().UTC()})
	return nil
}

func snapshot(p *entity.Product, u entity.Unit, factor, original decimal.Decimal, inferred bool) entity.MovementMeta {
	return entity.MovementMeta{
		Unit:          u,
		Factor:        factor,
		OriginalQty:   original,
		PriceSnapshot: p.Price,
		CostSnapshot:  p.Cost,
		Inferred:      inferred,
	}
}
