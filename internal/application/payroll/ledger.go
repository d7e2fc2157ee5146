// Package payroll implementa el libro de deuda de empleados (adelantos y consumos).
package payroll

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	dpayroll "github.com/jhoicas/pos-ledger/internal/domain/payroll"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

const ledgerName = "payroll"

// CapacityError cargo rechazado por superar el sueldo base.
type CapacityError struct {
	EmployeeID string
	Capacity   dpayroll.Capacity
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %s (faltan %s USD)", e.EmployeeID, e.Capacity.Reason, e.Capacity.Shortfall.StringFixed(2))
}

func (e *CapacityError) Unwrap() error { return domain.ErrCreditExceeded }

// Ledger casos de uso de nómina.
type Ledger struct {
	txRunner TxRunner
	guard    *security.Guard
	notifier ports.ChangeNotifier
	logger   zerolog.Logger
}

// NewLedger construye el caso de uso.
func NewLedger(txRunner TxRunner, guard *security.Guard, logger zerolog.Logger) *Ledger {
	return &Ledger{
		txRunner: txRunner,
		guard:    guard,
		notifier: ports.NopNotifier{},
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

// AccountInput ficha de nómina.
type AccountInput struct {
	EmployeeID string
	Name       string
	BasePay    decimal.Decimal
}

// UpsertAccount crea la ficha o actualiza nombre y sueldo base conservando la deuda.
func (l *Ledger) UpsertAccount(ctx context.Context, actor *permission.Actor, in AccountInput) (*entity.EmployeeAccount, error) {
	const op = "upsert_account"
	if err := l.guard.Require(ctx, actor, op, permission.PayrollManage); err != nil {
		return nil, err
	}
	if in.EmployeeID == "" {
		return nil, domain.NewValidationError("employeeId", "requerido")
	}
	if in.BasePay.IsNegative() {
		return nil, domain.NewValidationError("basePay", "no puede ser negativo")
	}
	var out *entity.EmployeeAccount
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, _ repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		acc, err := accountRepo.GetForUpdate(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if acc == nil {
			acc = &entity.EmployeeAccount{EmployeeID: in.EmployeeID, Debt: decimal.Zero}
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			acc.Name = name
		}
		acc.BasePay = money.Cents(in.BasePay)
		acc.UpdatedAt = time.Now().UTC()
		if err := accountRepo.Upsert(ctx, acc); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err := l.finish(ctx, actor, op, in.EmployeeID, map[string]any{"base_pay": in.BasePay.String()}, err); err != nil {
		return nil, err
	}
	return out, nil
}

// DebtInput nuevo cargo a la deuda del empleado.
type DebtInput struct {
	EmployeeID string
	Kind       entity.DebtKind
	Amount     decimal.Decimal // USD
	Reason     string
	CrossRef   entity.CrossRef
}

// RecordDebt suma el cargo a la deuda y agrega el asiento en la misma transacción.
// Rechaza con *CapacityError si la deuda superaría el sueldo base.
func (l *Ledger) RecordDebt(ctx context.Context, actor *permission.Actor, in DebtInput) (*entity.DebtEntry, error) {
	const op = "record_debt"
	if err := l.guard.Require(ctx, actor, op, permission.PayrollManage); err != nil {
		return nil, err
	}
	if !in.Kind.IncreasesDebt() {
		return nil, domain.NewValidationError("kind", "solo adelantos y consumos generan deuda")
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "el monto debe ser positivo")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.NewValidationError("reason", "el motivo es requerido")
	}
	amount := money.Cents(in.Amount)
	var out *entity.DebtEntry
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		acc, err := accountRepo.GetForUpdate(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if c := dpayroll.CheckCapacity(acc, amount); !c.Allowed {
			return &CapacityError{EmployeeID: in.EmployeeID, Capacity: c}
		}
		now := time.Now().UTC()
		acc.Debt = acc.Debt.Add(amount)
		acc.UpdatedAt = now
		if err := accountRepo.Upsert(ctx, acc); err != nil {
			return err
		}
		out = &entity.DebtEntry{
			EmployeeID: in.EmployeeID,
			Kind:       in.Kind,
			Amount:     amount,
			Reason:     strings.TrimSpace(in.Reason),
			Status:     entity.DebtPending,
			CrossRef:   in.CrossRef,
			ActorID:    actor.ID,
			CreatedAt:  now,
		}
		return debtRepo.Append(ctx, out)
	})
	subject := in.EmployeeID
	if out != nil {
		subject = strconv.FormatInt(out.ID, 10)
	}
	if err := l.finish(ctx, actor, op, subject, map[string]any{"employee_id": in.EmployeeID, "kind": string(in.Kind), "amount": amount.String()}, err); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEntry consulta un asiento.
func (l *Ledger) GetEntry(ctx context.Context, actor *permission.Actor, entryID int64) (*entity.DebtEntry, error) {
	if err := l.guard.Require(ctx, actor, "get_debt_entry", permission.PayrollView, permission.PayrollManage); err != nil {
		return nil, err
	}
	var e *entity.DebtEntry
	err := l.txRunner.RunPayroll(ctx, func(_ repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		var err error
		e, err = debtRepo.GetByID(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// ReverseDebt anula un asiento pendiente y descuenta su monto de la deuda.
func (l *Ledger) ReverseDebt(ctx context.Context, actor *permission.Actor, entryID int64) (*entity.DebtEntry, error) {
	const op = "reverse_debt"
	if err := l.guard.Require(ctx, actor, op, permission.PayrollManage); err != nil {
		return nil, err
	}
	var out *entity.DebtEntry
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		e, err := debtRepo.GetForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		if e.Status != entity.DebtPending || !e.Kind.IncreasesDebt() {
			return fmt.Errorf("%w: asiento %d está %s", domain.ErrNotPending, e.ID, e.Status)
		}
		acc, err := accountRepo.GetForUpdate(ctx, e.EmployeeID)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.ErrNotFound
		}
		now := time.Now().UTC()
		acc.Debt = money.Max(decimal.Zero, acc.Debt.Sub(e.Amount))
		acc.UpdatedAt = now
		if err := accountRepo.Upsert(ctx, acc); err != nil {
			return err
		}
		e.Status = entity.DebtVoided
		e.VoidedAt = &now
		if err := debtRepo.Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err := l.finish(ctx, actor, op, strconv.FormatInt(entryID, 10), nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseResult resultado del cierre de nómina de un empleado.
type CloseResult struct {
	Payment *entity.DebtEntry
	Period  *entity.Period
}

// PayrollClose liquida al empleado: paga base − deuda, deja la deuda en cero y archiva el periodo.
func (l *Ledger) PayrollClose(ctx context.Context, actor *permission.Actor, employeeID string) (*CloseResult, error) {
	const op = "payroll_close"
	if err := l.guard.Require(ctx, actor, op, permission.PayrollManage); err != nil {
		return nil, err
	}
	var res CloseResult
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, periodRepo repository.PeriodRepository) error {
		acc, err := accountRepo.GetForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.ErrNotFound
		}
		now := time.Now().UTC()
		period := &entity.Period{ID: uuid.New().String(), EmployeeID: employeeID, ActorID: actor.ID, ClosedAt: now}
		snap, err := settle(ctx, debtRepo, acc, period.ID, entity.DebtPayment, actor.ID, now)
		if err != nil {
			return err
		}
		acc.LastPaymentAt = &now
		if err := accountRepo.Upsert(ctx, acc); err != nil {
			return err
		}
		period.Snapshots = []entity.PeriodSnapshot{snap.PeriodSnapshot}
		period.TotalBasePay, period.TotalDebt, period.TotalNet = snap.BasePay, snap.Debt, snap.Net
		if err := periodRepo.Create(ctx, period); err != nil {
			return err
		}
		res = CloseResult{Payment: snap.entry, Period: period}
		return nil
	})
	if err := l.finish(ctx, actor, op, employeeID, nil, err); err != nil {
		return nil, err
	}
	return &res, nil
}

// GlobalPeriodClose fotografía a todos los empleados en un periodo archivado y pone todas
// las deudas en cero, en una sola transacción.
func (l *Ledger) GlobalPeriodClose(ctx context.Context, actor *permission.Actor) (*entity.Period, error) {
	const op = "global_period_close"
	if err := l.guard.Require(ctx, actor, op, permission.PayrollManage); err != nil {
		return nil, err
	}
	var out *entity.Period
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, periodRepo repository.PeriodRepository) error {
		accounts, err := accountRepo.ListForUpdate(ctx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		period := &entity.Period{
			ID:           uuid.New().String(),
			ActorID:      actor.ID,
			ClosedAt:     now,
			TotalBasePay: decimal.Zero,
			TotalDebt:    decimal.Zero,
			TotalNet:     decimal.Zero,
			Snapshots:    make([]entity.PeriodSnapshot, 0, len(accounts)),
		}
		for _, acc := range accounts {
			snap, err := settle(ctx, debtRepo, acc, period.ID, entity.DebtClose, actor.ID, now)
			if err != nil {
				return err
			}
			acc.LastCloseAt = &now
			if err := accountRepo.Upsert(ctx, acc); err != nil {
				return err
			}
			period.Snapshots = append(period.Snapshots, snap.PeriodSnapshot)
			period.TotalBasePay = period.TotalBasePay.Add(snap.BasePay)
			period.TotalDebt = period.TotalDebt.Add(snap.Debt)
			period.TotalNet = period.TotalNet.Add(snap.Net)
		}
		if err := periodRepo.Create(ctx, period); err != nil {
			return err
		}
		out = period
		return nil
	})
	subject := ""
	if out != nil {
		subject = out.ID
	}
	if err := l.finish(ctx, actor, op, subject, nil, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Preview totales que produciría un cierre global en este momento (solo lectura).
func (l *Ledger) Preview(ctx context.Context, actor *permission.Actor) (*entity.Period, error) {
	if err := l.guard.Require(ctx, actor, "payroll_preview", permission.PayrollView, permission.PayrollManage); err != nil {
		return nil, err
	}
	out := &entity.Period{TotalBasePay: decimal.Zero, TotalDebt: decimal.Zero, TotalNet: decimal.Zero}
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, _ repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		accounts, err := accountRepo.List(ctx)
		if err != nil {
			return err
		}
		for _, acc := range accounts {
			net := dpayroll.Net(acc.BasePay, acc.Debt)
			out.Snapshots = append(out.Snapshots, entity.PeriodSnapshot{
				EmployeeID: acc.EmployeeID, Name: acc.Name, BasePay: acc.BasePay, Debt: acc.Debt, Net: net,
			})
			out.TotalBasePay = out.TotalBasePay.Add(acc.BasePay)
			out.TotalDebt = out.TotalDebt.Add(acc.Debt)
			out.TotalNet = out.TotalNet.Add(net)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type settlement struct {
	entity.PeriodSnapshot
	entry *entity.DebtEntry
}

// settle marca los asientos pendientes como liquidados, agrega el asiento de cierre/pago
// y deja la deuda del empleado en cero. No persiste la ficha.
func settle(
	ctx context.Context,
	debtRepo repository.DebtEntryRepository,
	acc *entity.EmployeeAccount,
	periodID string,
	kind entity.DebtKind,
	actorID string,
	now time.Time,
) (settlement, error) {
	pending, err := debtRepo.ListPending(ctx, acc.EmployeeID)
	if err != nil {
		return settlement{}, err
	}
	ids := make([]int64, 0, len(pending))
	for _, e := range pending {
		e.Status = entity.DebtSettled
		e.PeriodID = periodID
		if err := debtRepo.Update(ctx, e); err != nil {
			return settlement{}, err
		}
		ids = append(ids, e.ID)
	}
	debt := acc.Debt
	net := dpayroll.Net(acc.BasePay, debt)
	amount := net
	reason := "Pago de nómina"
	if kind == entity.DebtClose {
		amount = debt
		reason = "Cierre de periodo"
	}
	entry := &entity.DebtEntry{
		EmployeeID: acc.EmployeeID,
		Kind:       kind,
		Amount:     amount,
		Reason:     reason,
		Status:     entity.DebtCompleted,
		PeriodID:   periodID,
		ActorID:    actorID,
		CreatedAt:  now,
	}
	if err := debtRepo.Append(ctx, entry); err != nil {
		return settlement{}, err
	}
	acc.Debt = decimal.Zero
	acc.UpdatedAt = now
	return settlement{
		PeriodSnapshot: entity.PeriodSnapshot{
			EmployeeID: acc.EmployeeID,
			Name:       acc.Name,
			BasePay:    acc.BasePay,
			Debt:       debt,
			Net:        net,
			EntryIDs:   ids,
		},
		entry: entry,
	}, nil
}

// CheckCreditCapacity evalúa un cargo propuesto sin escribir nada.
func (l *Ledger) CheckCreditCapacity(ctx context.Context, actor *permission.Actor, employeeID string, proposed decimal.Decimal) (dpayroll.Capacity, error) {
	if err := l.guard.Require(ctx, actor, "check_credit_capacity", permission.PayrollView, permission.PayrollManage); err != nil {
		return dpayroll.Capacity{}, err
	}
	var c dpayroll.Capacity
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, _ repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		acc, err := accountRepo.GetByID(ctx, employeeID)
		if err != nil {
			return err
		}
		c = dpayroll.CheckCapacity(acc, money.Cents(proposed))
		return nil
	})
	return c, err
}

// Account ficha de un empleado.
func (l *Ledger) Account(ctx context.Context, actor *permission.Actor, employeeID string) (*entity.EmployeeAccount, error) {
	if err := l.guard.Require(ctx, actor, "get_account", permission.PayrollView, permission.PayrollManage); err != nil {
		return nil, err
	}
	var acc *entity.EmployeeAccount
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, _ repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		var err error
		acc, err = accountRepo.GetByID(ctx, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, domain.ErrNotFound
	}
	return acc, nil
}

// Accounts todas las fichas.
func (l *Ledger) Accounts(ctx context.Context, actor *permission.Actor) ([]*entity.EmployeeAccount, error) {
	if err := l.guard.Require(ctx, actor, "list_accounts", permission.PayrollView, permission.PayrollManage); err != nil {
		return nil, err
	}
	var out []*entity.EmployeeAccount
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, _ repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		var err error
		out, err = accountRepo.List(ctx)
		return err
	})
	return out, err
}

// History asientos del empleado en orden de registro.
func (l *Ledger) History(ctx context.Context, actor *permission.Actor, employeeID string) ([]*entity.DebtEntry, error) {
	if err := l.guard.Require(ctx, actor, "debt_history", permission.PayrollView, permission.PayrollManage); err != nil {
		return nil, err
	}
	var out []*entity.DebtEntry
	err := l.txRunner.RunPayroll(ctx, func(_ repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		var err error
		out, err = debtRepo.ListByEmployee(ctx, employeeID)
		return err
	})
	return out, err
}

// Periods periodos archivados, más reciente primero.
func (l *Ledger) Periods(ctx context.Context, actor *permission.Actor, limit, offset int) ([]*entity.Period, error) {
	if err := l.guard.Require(ctx, actor, "list_periods", permission.PayrollView, permission.PayrollManage); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*entity.Period
	err := l.txRunner.RunPayroll(ctx, func(_ repository.EmployeeAccountRepository, _ repository.DebtEntryRepository, periodRepo repository.PeriodRepository) error {
		var err error
		out, err = periodRepo.List(ctx, limit, offset)
		return err
	})
	return out, err
}

// VerifyDebt compara la deuda guardada con la suma de asientos pendientes.
func (l *Ledger) VerifyDebt(ctx context.Context, actor *permission.Actor, employeeID string) error {
	if err := l.guard.Require(ctx, actor, "verify_debt", permission.PayrollView, permission.PayrollManage); err != nil {
		return err
	}
	var verr error
	err := l.txRunner.RunPayroll(ctx, func(accountRepo repository.EmployeeAccountRepository, debtRepo repository.DebtEntryRepository, _ repository.PeriodRepository) error {
		acc, err := accountRepo.GetByID(ctx, employeeID)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.ErrNotFound
		}
		pending, err := debtRepo.ListPending(ctx, employeeID)
		if err != nil {
			return err
		}
		if live := dpayroll.LiveDebt(pending); !live.Equal(acc.Debt) {
			verr = &domain.IntegrityViolation{Subject: "deuda de " + employeeID, Expected: live.String(), Actual: acc.Debt.String()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if verr != nil {
		l.logger.Error().Err(verr).Str("employee_id", employeeID).Msg("la deuda no coincide con sus asientos")
		l.guard.Record(ctx, actor, security.EventIntegrity, employeeID, entity.SeverityCritical, map[string]any{"error": verr.Error()})
	}
	return verr
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
