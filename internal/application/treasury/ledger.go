// Package treasury implementa los casos de uso de la caja de cuatro cuadrantes.
package treasury

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
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	dtreasury "github.com/jhoicas/pos-ledger/internal/domain/treasury"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

const ledgerName = "treasury"

// Options comportamiento configurable de la caja.
type Options struct {
	AllowNegativeCash bool
}

// Ledger casos de uso de tesorería.
type Ledger struct {
	txRunner TxRunner
	guard    *security.Guard
	notifier ports.ChangeNotifier
	renderer CutRenderer
	opts     Options
	logger   zerolog.Logger
}

// NewLedger construye el caso de uso.
func NewLedger(txRunner TxRunner, guard *security.Guard, opts Options, logger zerolog.Logger) *Ledger {
	return &Ledger{
		txRunner: txRunner,
		guard:    guard,
		notifier: ports.NopNotifier{},
		opts:     opts,
		logger:   logger.With().Str("ledger", ledgerName).Logger(),
	}
}

// WithNotifier registra el receptor de avisos post-commit.
func (l *Ledger) WithNotifier(n ports.ChangeNotifier) *Ledger {
	if n != nil {
		l.notifier = n
	}
	return l
}

// WithRenderer registra el generador del reporte Z.
func (l *Ledger) WithRenderer(r CutRenderer) *Ledger {
	l.renderer = r
	return l
}

// Options devuelve la configuración activa.
func (l *Ledger) Options() Options { return l.opts }

// OpenSession abre el turno con los fondos iniciales. Falla con ErrSessionOpen si ya hay uno.
func (l *Ledger) OpenSession(ctx context.Context, actor *permission.Actor, starting money.Quadrants) (*entity.CashSession, error) {
	const op = "open_session"
	if err := l.guard.Require(ctx, actor, op, permission.CashOpen); err != nil {
		return nil, err
	}
	if q, neg := starting.Negative(); neg {
		return nil, domain.NewValidationError(q.String(), "el fondo inicial no puede ser negativo")
	}
	now := time.Now().UTC()
	s := &entity.CashSession{
		ID:            uuid.New().String(),
		Status:        entity.SessionOpen,
		Opening:       starting,
		Balances:      starting,
		SalesTotalUSD: decimal.Zero,
		OpenedBy:      actor.ID,
		OpenedAt:      now,
		UpdatedAt:     now,
	}
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, _ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		if err := sessionRepo.Create(ctx, s); err != nil {
			return err
		}
		for _, q := range money.AllQuadrants {
			amt := starting.Get(q)
			if amt.IsZero() {
				continue
			}
			if err := entryRepo.Append(ctx, &entity.TreasuryEntry{
				SessionID: s.ID,
				Kind:      entity.EntryOpening,
				Quadrant:  q,
				Amount:    amt,
				ActorID:   actor.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err := l.finish(ctx, actor, op, s.ID, nil, err); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplySale registra los pagos y vueltos de una venta en la sesión abierta.
func (l *Ledger) ApplySale(ctx context.Context, actor *permission.Actor, sale *entity.Sale) (*entity.CashSession, error) {
	const op = "apply_sale"
	if err := l.guard.Require(ctx, actor, op, permission.POSAccess); err != nil {
		return nil, err
	}
	if err := dtreasury.ValidateSale(sale); err != nil {
		return nil, err
	}
	var out *entity.CashSession
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, _ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		out, err = l.ApplySaleInTx(ctx, sessionRepo, entryRepo, actor.ID, sale)
		return err
	})
	if err := l.finish(ctx, actor, op, sale.ID, map[string]any{"total_usd": sale.TotalUSD.String()}, err); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplySaleInTx pierna de caja de una venta dentro de una transacción ajena.
// Fija sale.SessionID a la sesión abierta.
func (l *Ledger) ApplySaleInTx(
	ctx context.Context,
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	actorID string,
	sale *entity.Sale,
) (*entity.CashSession, error) {
	s, err := openSession(ctx, sessionRepo)
	if err != nil {
		return nil, err
	}
	sale.SessionID = s.ID
	if err := l.post(ctx, entryRepo, s, dtreasury.SaleEffects(sale), actorID, "sale:"+sale.ID); err != nil {
		return nil, err
	}
	s.SalesCount++
	s.SalesTotalUSD = s.SalesTotalUSD.Add(sale.TotalUSD)
	if err := sessionRepo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// VoidSale revierte en la sesión abierta exactamente los efectos de la venta.
func (l *Ledger) VoidSale(ctx context.Context, actor *permission.Actor, sale *entity.Sale) (*entity.CashSession, error) {
	const op = "void_sale"
	if err := l.guard.Require(ctx, actor, op, permission.POSVoidTicket); err != nil {
		return nil, err
	}
	var out *entity.CashSession
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, _ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		out, err = l.VoidSaleInTx(ctx, sessionRepo, entryRepo, actor.ID, sale)
		return err
	})
	if err := l.finish(ctx, actor, op, sale.ID, nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// VoidSaleInTx pierna de caja de una anulación. El dinero sale de la sesión abierta,
// que puede no ser la de la venta.
func (l *Ledger) VoidSaleInTx(
	ctx context.Context,
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	actorID string,
	sale *entity.Sale,
) (*entity.CashSession, error) {
	s, err := openSession(ctx, sessionRepo)
	if err != nil {
		return nil, err
	}
	if err := l.post(ctx, entryRepo, s, dtreasury.VoidEffects(sale), actorID, "void:"+sale.ID); err != nil {
		return nil, err
	}
	s.VoidedCount++
	if sale.SessionID == s.ID {
		s.SalesTotalUSD = s.SalesTotalUSD.Sub(sale.TotalUSD)
	}
	if err := sessionRepo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ExpenseInput egreso de un cuadrante.
type ExpenseInput struct {
	Amount   decimal.Decimal
	Currency money.Currency
	Channel  money.Channel
	Reason   string
	Category string
}

func (in ExpenseInput) validate() error {
	if !in.Amount.IsPositive() {
		return domain.NewValidationError("amount", "el monto debe ser positivo")
	}
	if err := (money.Quadrant{Currency: in.Currency, Channel: in.Channel}).Validate(); err != nil {
		return domain.NewValidationError("quadrant", err.Error())
	}
	if strings.TrimSpace(in.Reason) == "" {
		return domain.NewValidationError("reason", "el motivo es requerido")
	}
	return nil
}

// ApplyExpense debita el egreso del cuadrante indicado.
func (l *Ledger) ApplyExpense(ctx context.Context, actor *permission.Actor, in ExpenseInput) (*entity.Expense, error) {
	const op = "apply_expense"
	if err := l.guard.Require(ctx, actor, op, permission.CashManage); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *entity.Expense
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, expenseRepo repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		out, err = l.ApplyExpenseInTx(ctx, sessionRepo, entryRepo, expenseRepo, actor.ID, in)
		return err
	})
	subject := ""
	if out != nil {
		subject = out.ID
	}
	if err := l.finish(ctx, actor, op, subject, map[string]any{"amount": in.Amount.String(), "currency": string(in.Currency), "category": in.Category}, err); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyExpenseInTx pierna de egreso dentro de una transacción ajena.
func (l *Ledger) ApplyExpenseInTx(
	ctx context.Context,
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	expenseRepo repository.ExpenseRepository,
	actorID string,
	in ExpenseInput,
) (*entity.Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	s, err := openSession(ctx, sessionRepo)
	if err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = entity.ExpenseCategoryGeneral
	}
	e := &entity.Expense{
		ID:        uuid.New().String(),
		SessionID: s.ID,
		Amount:    in.Amount,
		Currency:  in.Currency,
		Channel:   in.Channel,
		Reason:    strings.TrimSpace(in.Reason),
		Category:  in.Category,
		Status:    entity.ExpenseActive,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	effects := []dtreasury.Effect{{Kind: entity.EntryExpense, Quadrant: e.Quadrant(), Amount: e.Amount.Neg()}}
	if err := l.post(ctx, entryRepo, s, effects, actorID, "expense:"+e.ID); err != nil {
		return nil, err
	}
	if err := sessionRepo.Update(ctx, s); err != nil {
		return nil, err
	}
	e.Balances = s.Balances
	if err := expenseRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// RevertExpense acredita de vuelta el egreso y lo marca revertido; un segundo intento
// devuelve ErrAlreadyReverted.
func (l *Ledger) RevertExpense(ctx context.Context, actor *permission.Actor, expenseID string) (*entity.Expense, error) {
	const op = "revert_expense"
	if err := l.guard.Require(ctx, actor, op, permission.CashManage); err != nil {
		return nil, err
	}
	var out *entity.Expense
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, expenseRepo repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		out, err = l.RevertExpenseInTx(ctx, sessionRepo, entryRepo, expenseRepo, actor.ID, expenseID)
		return err
	})
	if err := l.finish(ctx, actor, op, expenseID, nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// RevertExpenseInTx pierna de reversión dentro de una transacción ajena. El crédito entra
// en la sesión abierta, que puede no ser la del egreso; el cierre Z de aquella no cambia.
func (l *Ledger) RevertExpenseInTx(
	ctx context.Context,
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	expenseRepo repository.ExpenseRepository,
	actorID, expenseID string,
) (*entity.Expense, error) {
	e, err := expenseRepo.GetForUpdate(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	if e.Status == entity.ExpenseReverted {
		return nil, domain.ErrAlreadyReverted
	}
	s, err := openSession(ctx, sessionRepo)
	if err != nil {
		return nil, err
	}
	effects := []dtreasury.Effect{{Kind: entity.EntryExpenseRevert, Quadrant: e.Quadrant(), Amount: e.Amount}}
	if err := l.post(ctx, entryRepo, s, effects, actorID, "expense:"+e.ID); err != nil {
		return nil, err
	}
	if err := sessionRepo.Update(ctx, s); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	e.Status = entity.ExpenseReverted
	e.RevertedAt = &now
	e.RevertedBy = actorID
	if err := expenseRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CloseSession verifica el cuadre y congela el cierre Z.
func (l *Ledger) CloseSession(ctx context.Context, actor *permission.Actor) (*entity.Cut, error) {
	const op = "close_session"
	if err := l.guard.Require(ctx, actor, op, permission.CashClose); err != nil {
		return nil, err
	}
	var cut *entity.Cut
	var integrity error
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, expenseRepo repository.ExpenseRepository, cutRepo repository.CutRepository, movRepo repository.MovementRepository) error {
		s, err := openSession(ctx, sessionRepo)
		if err != nil {
			return err
		}
		if err := l.verify(ctx, entryRepo, s); err != nil {
			integrity = err
			return err
		}
		expenses, err := expenseRepo.ListBySession(ctx, s.ID)
		if err != nil {
			return err
		}
		consumption, err := movRepo.ListByKindSince(ctx, entity.MovementInternalConsumption, s.OpenedAt)
		if err != nil {
			return err
		}
		reversals, err := movRepo.ListByKindSince(ctx, entity.MovementReversal, s.OpenedAt)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		cut = buildCut(s, expenses, consumption, reversals, actor.ID, now)
		if err := cutRepo.Create(ctx, cut); err != nil {
			return err
		}
		s.Status = entity.SessionClosed
		s.ClosedBy = actor.ID
		s.ClosedAt = &now
		s.UpdatedAt = now
		return sessionRepo.Update(ctx, s)
	})
	if integrity != nil {
		l.logger.Error().Err(integrity).Msg("la caja no cuadra al cerrar")
		l.guard.Record(ctx, actor, security.EventIntegrity, "cash_session", entity.SeverityCritical, map[string]any{"error": integrity.Error()})
	}
	subject := ""
	if cut != nil {
		subject = cut.SessionID
	}
	if err := l.finish(ctx, actor, op, subject, nil, err); err != nil {
		return nil, err
	}
	return cut, nil
}

func buildCut(s *entity.CashSession, expenses []*entity.Expense, consumption, reversals []*entity.Movement, actorID string, at time.Time) *entity.Cut {
	expUSD, expVES := decimal.Zero, decimal.Zero
	for _, e := range expenses {
		if e.Status != entity.ExpenseActive {
			continue
		}
		switch e.Currency {
		case money.USD:
			expUSD = expUSD.Add(e.Amount)
		case money.VES:
			expVES = expVES.Add(e.Amount)
		}
	}
	costs := make([]decimal.Decimal, 0, len(consumption))
	for _, m := range consumption {
		costs = append(costs, m.Quantity.Mul(m.Meta.CostSnapshot))
	}
	// reversiones de consumo (Ref "mov:<id>"); las de ventas no tocan este total
	for _, m := range reversals {
		if strings.HasPrefix(m.Meta.Ref, "mov:") {
			costs = append(costs, m.Quantity.Mul(m.Meta.CostSnapshot).Neg())
		}
	}
	return &entity.Cut{
		ID:                 uuid.New().String(),
		SessionID:          s.ID,
		Opening:            s.Opening,
		Final:              s.Balances,
		Inflows:            s.Inflows,
		Outflows:           s.Outflows,
		SalesCount:         s.SalesCount,
		VoidedCount:        s.VoidedCount,
		SalesTotalUSD:      money.Cents(s.SalesTotalUSD),
		ExpensesUSD:        money.Cents(expUSD),
		ExpensesVES:        money.Cents(expVES),
		ConsumptionCostUSD: money.Cents(money.Sum(costs...)),
		OpenedAt:           s.OpenedAt,
		ClosedBy:           actorID,
		ClosedAt:           at,
	}
}

// CurrentSession sesión abierta o ErrSessionClosed.
func (l *Ledger) CurrentSession(ctx context.Context, actor *permission.Actor) (*entity.CashSession, error) {
	if err := l.guard.Require(ctx, actor, "current_session", permission.POSAccess, permission.CashOpen, permission.CashManage); err != nil {
		return nil, err
	}
	var s *entity.CashSession
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, _ repository.TreasuryEntryRepository, _ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		s, err = sessionRepo.GetOpen(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrSessionClosed
	}
	return s, nil
}

// VerifySession reproduce el log de asientos de la sesión abierta contra sus saldos.
func (l *Ledger) VerifySession(ctx context.Context, actor *permission.Actor) error {
	if err := l.guard.Require(ctx, actor, "verify_session", permission.CashClose, permission.ReportsFinancial); err != nil {
		return err
	}
	var integrity error
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository, _ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		s, err := openSession(ctx, sessionRepo)
		if err != nil {
			return err
		}
		integrity = l.verify(ctx, entryRepo, s)
		return nil
	})
	if err != nil {
		return err
	}
	if integrity != nil {
		l.logger.Error().Err(integrity).Msg("el log de caja no reproduce los saldos")
		l.guard.Record(ctx, actor, security.EventIntegrity, "cash_session", entity.SeverityCritical, map[string]any{"error": integrity.Error()})
	}
	return integrity
}

// ListExpenses gastos de la sesión abierta.
func (l *Ledger) ListExpenses(ctx context.Context, actor *permission.Actor) ([]*entity.Expense, error) {
	if err := l.guard.Require(ctx, actor, "list_expenses", permission.CashManage); err != nil {
		return nil, err
	}
	var out []*entity.Expense
	err := l.txRunner.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, _ repository.TreasuryEntryRepository, expenseRepo repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		s, err := openSession(ctx, sessionRepo)
		if err != nil {
			return err
		}
		out, err = expenseRepo.ListBySession(ctx, s.ID)
		return err
	})
	return out, err
}

// ListCuts historial de cierres Z, más reciente primero.
func (l *Ledger) ListCuts(ctx context.Context, actor *permission.Actor, limit, offset int) ([]*entity.Cut, error) {
	if err := l.guard.Require(ctx, actor, "list_cuts", permission.ReportsView, permission.CashClose); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*entity.Cut
	err := l.txRunner.RunTreasury(ctx, func(_ repository.CashSessionRepository, _ repository.TreasuryEntryRepository, _ repository.ExpenseRepository, cutRepo repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		out, err = cutRepo.List(ctx, limit, offset)
		return err
	})
	return out, err
}

// GetCut consulta un cierre.
func (l *Ledger) GetCut(ctx context.Context, actor *permission.Actor, cutID string) (*entity.Cut, error) {
	if err := l.guard.Require(ctx, actor, "get_cut", permission.ReportsView, permission.CashClose); err != nil {
		return nil, err
	}
	var c *entity.Cut
	err := l.txRunner.RunTreasury(ctx, func(_ repository.CashSessionRepository, _ repository.TreasuryEntryRepository, _ repository.ExpenseRepository, cutRepo repository.CutRepository, _ repository.MovementRepository) error {
		var err error
		c, err = cutRepo.GetByID(ctx, cutID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// CutReport genera el PDF del cierre.
func (l *Ledger) CutReport(ctx context.Context, actor *permission.Actor, cutID string) ([]byte, error) {
	c, err := l.GetCut(ctx, actor, cutID)
	if err != nil {
		return nil, err
	}
	if l.renderer == nil {
		return nil, fmt.Errorf("reporte Z: sin generador configurado")
	}
	return l.renderer.RenderCut(c)
}

// post aplica los efectos a la sesión y los deja en el log de asientos.
func (l *Ledger) post(
	ctx context.Context,
	entryRepo repository.TreasuryEntryRepository,
	s *entity.CashSession,
	effects []dtreasury.Effect,
	actorID, ref string,
) error {
	if err := dtreasury.Apply(s, effects, l.opts.AllowNegativeCash); err != nil {
		return err
	}
	for _, e := range effects {
		if e.Amount.IsZero() {
			continue
		}
		if err := entryRepo.Append(ctx, &entity.TreasuryEntry{
			SessionID: s.ID,
			Kind:      e.Kind,
			Quadrant:  e.Quadrant,
			Amount:    e.Amount,
			Ref:       ref,
			ActorID:   actorID,
		}); err != nil {
			return err
		}
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *Ledger) verify(ctx context.Context, entryRepo repository.TreasuryEntryRepository, s *entity.CashSession) error {
	if err := dtreasury.VerifyClosure(s); err != nil {
		return err
	}
	entries, err := entryRepo.ListBySession(ctx, s.ID)
	if err != nil {
		return err
	}
	replayed := dtreasury.ReplayEntries(entries)
	for _, q := range money.AllQuadrants {
		if !replayed.Get(q).Equal(s.Balances.Get(q)) {
			return &domain.IntegrityViolation{
				Subject:  fmt.Sprintf("log de caja %s %s", s.ID, q),
				Expected: replayed.Get(q).String(),
				Actual:   s.Balances.Get(q).String(),
			}
		}
	}
	return nil
}

func openSession(ctx context.Context, sessionRepo repository.CashSessionRepository) (*entity.CashSession, error) {
	s, err := sessionRepo.GetOpenForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if !s.IsOpen() {
		return nil, domain.ErrSessionClosed
	}
	return s, nil
}

func (l *Ledger) finish(ctx context.Context, actor *permission.Actor, op, subject string, detail map[string]any, err error) error {
	l.guard.Metrics().ObserveOp(ledgerName, op, err)
	if err != nil {
		l.logger.Debug().Err(err).Str("op", op).Msg("operación rechazada")
		return err
	}
	l.logger.Debug().Str("op", op).Str("subject", subject).Msg("operación confirmada")
	l.guard.Mutation(ctx, actor, op, subject, detail)
	l.notifier.Notify(ports.Change{Ledger: ledgerName, Op: op, Subject: subject, At: time.Now().UTC()})
	return nil
}
