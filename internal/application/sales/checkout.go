// Package sales registra ventas y anulaciones en una sola transacción sobre inventario y caja.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	dtreasury "github.com/jhoicas/pos-ledger/internal/domain/treasury"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

const ledgerName = "sales"

// UseCase caso de uso de punto de venta.
type UseCase struct {
	txRunner TxRunner
	stock    StockLeg
	cash     CashLeg
	guard    *security.Guard
	rates    ports.RateSource
	notifier ports.ChangeNotifier
	logger   zerolog.Logger
}

// NewUseCase construye el caso de uso. rates puede ser nil si la tasa siempre llega en la petición.
func NewUseCase(txRunner TxRunner, stock StockLeg, cash CashLeg, guard *security.Guard, rates ports.RateSource, logger zerolog.Logger) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		stock:    stock,
		cash:     cash,
		guard:    guard,
		rates:    rates,
		notifier: ports.NopNotifier{},
		logger:   logger.With().Str("ledger", ledgerName).Logger(),
	}
}

// WithNotifier registra el receptor de avisos post-commit.
func (uc *UseCase) WithNotifier(n ports.ChangeNotifier) *UseCase {
	if n != nil {
		uc.notifier = n
	}
	return uc
}

// CheckoutInput venta pedida por la caja.
type CheckoutInput struct {
	Lines      []inventory.SaleLine
	Payments   []entity.Tender
	Change     []entity.Tender
	CreditUSD  decimal.Decimal
	CustomerID string
	Rate       decimal.Decimal // VES por USD; cero = tasa vigente
}

// Checkout descuenta stock, acredita la caja y guarda la venta en una transacción.
// Si algo falla no queda ningún rastro de la venta.
func (uc *UseCase) Checkout(ctx context.Context, actor *permission.Actor, in CheckoutInput) (*entity.Sale, error) {
	const op = "checkout"
	if err := uc.guard.Require(ctx, actor, op, permission.POSAccess); err != nil {
		return nil, err
	}
	if err := inventory.ValidateLines(in.Lines); err != nil {
		return nil, err
	}
	rate, err := uc.resolveRate(ctx, in)
	if err != nil {
		return nil, err
	}
	sale := &entity.Sale{
		ID:         uuid.New().String(),
		Payments:   in.Payments,
		Change:     in.Change,
		CreditUSD:  in.CreditUSD,
		CustomerID: in.CustomerID,
		Rate:       rate,
		Status:     entity.SaleCompleted,
		ActorID:    actor.ID,
		CreatedAt:  time.Now().UTC(),
	}
	err = uc.txRunner.RunSale(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, saleRepo repository.SaleRepository) error {
		// orden de bloqueo: sesión de caja y luego productos (igual que Void)
		session, err := sessionRepo.GetOpenForUpdate(ctx)
		if err != nil {
			return err
		}
		if !session.IsOpen() {
			return domain.ErrSessionClosed
		}
		items, err := uc.stock.SellInTx(ctx, movRepo, productRepo, actor.ID, in.Lines, "sale:"+sale.ID)
		if err != nil {
			return err
		}
		subtotals := make([]decimal.Decimal, len(items))
		for i, it := range items {
			subtotals[i] = it.Subtotal
		}
		sale.Items = items
		sale.TotalUSD = money.Cents(money.Sum(subtotals...))
		if err := dtreasury.ValidateSale(sale); err != nil {
			return err
		}
		if _, err := uc.cash.ApplySaleInTx(ctx, sessionRepo, entryRepo, actor.ID, sale); err != nil {
			return err
		}
		return saleRepo.Create(ctx, sale)
	})
	if err := uc.finish(ctx, actor, op, sale.ID, map[string]any{"total_usd": sale.TotalUSD.String(), "items": len(sale.Items)}, err); err != nil {
		return nil, err
	}
	return sale, nil
}

func (uc *UseCase) resolveRate(ctx context.Context, in CheckoutInput) (decimal.Decimal, error) {
	if in.Rate.IsPositive() {
		return in.Rate, nil
	}
	if in.Rate.IsNegative() {
		return decimal.Zero, domain.NewValidationError("rate", "la tasa no puede ser negativa")
	}
	needsRate := false
	for _, t := range append(append([]entity.Tender{}, in.Payments...), in.Change...) {
		if t.Currency == money.VES {
			needsRate = true
		}
	}
	if !needsRate {
		return decimal.Zero, nil
	}
	if uc.rates == nil {
		return decimal.Zero, domain.NewValidationError("rate", "se requiere tasa para montos en VES")
	}
	r, err := uc.rates.Current(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tasa vigente: %w", err)
	}
	return r.Value, nil
}

// Void anula la venta: devuelve stock y revierte cada cuadrante, vuelto incluido.
func (uc *UseCase) Void(ctx context.Context, actor *permission.Actor, saleID string) (*entity.Sale, error) {
	const op = "void"
	if err := uc.guard.Require(ctx, actor, op, permission.POSVoidTicket); err != nil {
		return nil, err
	}
	var out *entity.Sale
	err := uc.txRunner.RunSale(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, saleRepo repository.SaleRepository) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if sale.Status == entity.SaleVoided {
			return domain.ErrAlreadyReverted
		}
		if _, err := uc.cash.VoidSaleInTx(ctx, sessionRepo, entryRepo, actor.ID, sale); err != nil {
			return err
		}
		if err := uc.stock.VoidInTx(ctx, movRepo, productRepo, actor.ID, sale.Items, "void:"+sale.ID); err != nil {
			return err
		}
		now := time.Now().UTC()
		sale.Status = entity.SaleVoided
		sale.VoidedAt = &now
		sale.VoidedBy = actor.ID
		if err := saleRepo.Update(ctx, sale); err != nil {
			return err
		}
		out = sale
		return nil
	})
	if err := uc.finish(ctx, actor, op, saleID, nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Get consulta una venta.
func (uc *UseCase) Get(ctx context.Context, actor *permission.Actor, saleID string) (*entity.Sale, error) {
	if err := uc.guard.Require(ctx, actor, "get_sale", permission.POSAccess, permission.ReportsView); err != nil {
		return nil, err
	}
	var sale *entity.Sale
	err := uc.txRunner.RunSale(ctx, func(_ repository.MovementRepository, _ repository.ProductRepository, _ repository.CashSessionRepository, _ repository.TreasuryEntryRepository, saleRepo repository.SaleRepository) error {
		var err error
		sale, err = saleRepo.GetByID(ctx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// ListCurrent ventas de la sesión abierta.
func (uc *UseCase) ListCurrent(ctx context.Context, actor *permission.Actor) ([]*entity.Sale, error) {
	if err := uc.guard.Require(ctx, actor, "list_sales", permission.POSAccess, permission.ReportsView); err != nil {
		return nil, err
	}
	var out []*entity.Sale
	err := uc.txRunner.RunSale(ctx, func(_ repository.MovementRepository, _ repository.ProductRepository, sessionRepo repository.CashSessionRepository, _ repository.TreasuryEntryRepository, saleRepo repository.SaleRepository) error {
		s, err := sessionRepo.GetOpen(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrSessionClosed
		}
		out, err = saleRepo.ListBySession(ctx, s.ID)
		return err
	})
	return out, err
}

func (uc *UseCase) finish(ctx context.Context, actor *permission.Actor, op, subject string, detail map[string]any, err error) error {
	uc.guard.Metrics().ObserveOp(ledgerName, op, err)
	if err != nil {
		uc.logger.Debug().Err(err).Str("op", op).Msg("operación rechazada")
		return err
	}
	uc.logger.Debug().Str("op", op).Str("subject", subject).Msg("operación confirmada")
	uc.guard.Mutation(ctx, actor, op, subject, detail)
	uc.notifier.Notify(ports.Change{Ledger: ledgerName, Op: op, Subject: subject, At: time.Now().UTC()})
	return nil
}
