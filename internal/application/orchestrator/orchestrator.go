// Package orchestrator compone kardex, caja y nómina en acciones de negocio reversibles.
// Cada pierna confirma en su propia transacción; si una falla, la anterior se compensa.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// errLegAlreadyReverted la pierna pareja ya se deshizo; reintentar completa la reversión.
var errLegAlreadyReverted = errors.New("la pierna pareja ya fue revertida; reintente la reversión")

// Orchestrator acciones cruzadas entre libros.
type Orchestrator struct {
	stock   Stock
	cash    Cash
	payroll Payroll
	guard   *security.Guard
	rates   ports.RateSource
	logger  zerolog.Logger
}

// New construye el orquestador. rates puede ser nil.
func New(stock Stock, cash Cash, payroll Payroll, guard *security.Guard, rates ports.RateSource, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		stock:   stock,
		cash:    cash,
		payroll: payroll,
		guard:   guard,
		rates:   rates,
		logger:  logger.With().Str("component", "orchestrator").Logger(),
	}
}

// requireAll exige cada grupo de capacidades (basta una por grupo) antes de cualquier pierna.
func (o *Orchestrator) requireAll(ctx context.Context, actor *permission.Actor, op string, groups ...[]permission.Capability) error {
	for _, caps := range groups {
		if err := o.guard.Require(ctx, actor, op, caps...); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) rate(ctx context.Context, cur money.Currency, given decimal.Decimal) (decimal.Decimal, error) {
	if cur == money.USD || given.IsPositive() {
		return given, nil
	}
	if o.rates == nil {
		return decimal.Zero, domain.NewValidationError("rate", "se requiere tasa para montos en VES")
	}
	r, err := o.rates.Current(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tasa vigente: %w", err)
	}
	return r.Value, nil
}

// AdvanceInput adelanto de nómina pagado desde caja.
type AdvanceInput struct {
	EmployeeID string
	Amount     decimal.Decimal
	Currency   money.Currency
	Channel    money.Channel
	Rate       decimal.Decimal
	Reason     string
}

// AdvanceResult las dos piernas confirmadas.
type AdvanceResult struct {
	Expense *entity.Expense
	Entry   *entity.DebtEntry
}

// AdvancePay debita la caja en la moneda original y carga la deuda en USD.
func (o *Orchestrator) AdvancePay(ctx context.Context, actor *permission.Actor, in AdvanceInput) (*AdvanceResult, error) {
	const action = "advance_pay"
	if err := o.requireAll(ctx, actor, action,
		[]permission.Capability{permission.PayrollManage},
		[]permission.Capability{permission.CashManage},
	); err != nil {
		return nil, err
	}
	if in.Channel == "" {
		in.Channel = money.Cash
	}
	rate, err := o.rate(ctx, in.Currency, in.Rate)
	if err != nil {
		return nil, err
	}
	amountUSD, err := money.ToUSD(in.Amount, in.Currency, rate)
	if err != nil {
		return nil, domain.NewValidationError("rate", err.Error())
	}
	if err := o.checkCapacity(ctx, actor, in.EmployeeID, amountUSD); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Adelanto de nómina"
	}

	exp, err := o.cash.ApplyExpense(ctx, actor, treasury.ExpenseInput{
		Amount:   in.Amount,
		Currency: in.Currency,
		Channel:  in.Channel,
		Reason:   fmt.Sprintf("%s (%s)", reason, in.EmployeeID),
		Category: entity.ExpenseCategoryAdvance,
	})
	if err != nil {
		return nil, err
	}
	entry, err := o.payroll.RecordDebt(ctx, actor, payroll.DebtInput{
		EmployeeID: in.EmployeeID,
		Kind:       entity.DebtAdvance,
		Amount:     amountUSD,
		Reason:     reason,
		CrossRef: entity.CrossRef{
			ExpenseID:        exp.ID,
			OriginalAmount:   in.Amount,
			OriginalCurrency: in.Currency,
			Channel:          in.Channel,
		},
	})
	if err != nil {
		_, cerr := o.cash.RevertExpense(ctx, actor, exp.ID)
		return nil, o.fail(ctx, actor, action, "record_debt", err, cerr, map[string]string{
			"employee_id": in.EmployeeID,
			"expense_id":  exp.ID,
		})
	}
	return &AdvanceResult{Expense: exp, Entry: entry}, nil
}

// ConsumptionChargeInput consumo de mercancía cargado a la deuda del empleado.
type ConsumptionChargeInput struct {
	EmployeeID string
	ProductID  string
	Quantity   decimal.Decimal
	Unit       entity.Unit
	Reason     string
}

// ConsumptionResult las dos piernas confirmadas.
type ConsumptionResult struct {
	Movement *entity.Movement
	Entry    *entity.DebtEntry
}

// ChargeEmployeeConsumption descuenta el stock y carga la deuda al precio de venta
// registrado en el movimiento.
func (o *Orchestrator) ChargeEmployeeConsumption(ctx context.Context, actor *permission.Actor, in ConsumptionChargeInput) (*ConsumptionResult, error) {
	const action = "charge_employee_consumption"
	if err := o.requireAll(ctx, actor, action,
		[]permission.Capability{permission.InventoryAdjust},
		[]permission.Capability{permission.PayrollManage},
	); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	unit := in.Unit
	if unit == "" {
		unit = entity.UnitBase
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Consumo de empleado"
	}

	// La deuda se valora con el snapshot de precio del propio movimiento; la capacidad
	// de crédito la valida RecordDebt y si no alcanza se restituye el stock.
	mov, err := o.stock.InternalConsumption(ctx, actor, inventory.ConsumptionInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Unit:      unit,
		Reason:    fmt.Sprintf("%s (%s)", reason, in.EmployeeID),
		Ref:       "employee:" + in.EmployeeID,
	})
	if err != nil {
		return nil, err
	}
	amount := money.Cents(mov.Quantity.Mul(mov.Meta.PriceSnapshot))
	entry, err := o.payroll.RecordDebt(ctx, actor, payroll.DebtInput{
		EmployeeID: in.EmployeeID,
		Kind:       entity.DebtConsumption,
		Amount:     amount,
		Reason:     fmt.Sprintf("%s: %s × %s", reason, mov.ProductName, mov.Quantity),
		CrossRef: entity.CrossRef{
			MovementID:    mov.ID,
			ProductID:     mov.ProductID,
			Quantity:      mov.Quantity,
			PriceSnapshot: mov.Meta.PriceSnapshot,
		},
	})
	if err != nil {
		_, cerr := o.stock.RestoreConsumption(ctx, actor, mov.ID, "Compensación de consumo de empleado")
		return nil, o.fail(ctx, actor, action, "record_debt", err, cerr, map[string]string{
			"employee_id": in.EmployeeID,
			"movement_id": strconv.FormatInt(mov.ID, 10),
		})
	}
	return &ConsumptionResult{Movement: mov, Entry: entry}, nil
}

// RevertPairedMovement deshace un adelanto o consumo: primero la pierna de caja o stock,
// luego el asiento de deuda. Reintentarlo tras una falla parcial es seguro.
func (o *Orchestrator) RevertPairedMovement(ctx context.Context, actor *permission.Actor, entryID int64) (*entity.DebtEntry, error) {
	const action = "revert_paired_movement"
	if err := o.guard.Require(ctx, actor, action, permission.PayrollManage); err != nil {
		return nil, err
	}
	entry, err := o.payroll.GetEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != entity.DebtPending {
		return nil, fmt.Errorf("%w: asiento %d está %s", domain.ErrNotPending, entry.ID, entry.Status)
	}
	crossRef := map[string]string{
		"entry_id":    strconv.FormatInt(entry.ID, 10),
		"employee_id": entry.EmployeeID,
	}
	leg := ""
	switch entry.Kind {
	case entity.DebtAdvance:
		if entry.CrossRef.ExpenseID != "" {
			leg = "revert_expense"
			crossRef["expense_id"] = entry.CrossRef.ExpenseID
			if err := o.guard.Require(ctx, actor, action, permission.CashManage); err != nil {
				return nil, err
			}
			if _, err := o.cash.RevertExpense(ctx, actor, entry.CrossRef.ExpenseID); err != nil && !errors.Is(err, domain.ErrAlreadyReverted) {
				return nil, err
			}
		}
	case entity.DebtConsumption:
		if entry.CrossRef.MovementID != 0 {
			leg = "restore_consumption"
			crossRef["movement_id"] = strconv.FormatInt(entry.CrossRef.MovementID, 10)
			if err := o.guard.Require(ctx, actor, action, permission.InventoryAdjust); err != nil {
				return nil, err
			}
			if _, err := o.stock.RestoreConsumption(ctx, actor, entry.CrossRef.MovementID, "Reversión de consumo de empleado"); err != nil && !errors.Is(err, domain.ErrAlreadyReverted) {
				return nil, err
			}
		}
	case entity.DebtPayment, entity.DebtClose:
		return nil, domain.NewValidationError("entry", "los asientos de pago y cierre no se revierten")
	}
	reversed, err := o.payroll.ReverseDebt(ctx, actor, entryID)
	if err != nil {
		if leg == "" {
			return nil, err
		}
		return nil, o.fail(ctx, actor, action, "reverse_debt", err, errLegAlreadyReverted, crossRef)
	}
	return reversed, nil
}

// PayrollPaymentInput moneda y canal con que se paga la nómina.
type PayrollPaymentInput struct {
	Currency money.Currency
	Channel  money.Channel
	Rate     decimal.Decimal
}

// PayrollPaymentResult periodo cerrado y el egreso que lo pagó (nil si el neto es cero).
type PayrollPaymentResult struct {
	Period  *entity.Period
	Expense *entity.Expense
}

// ClosePayrollWithPayment paga el neto total desde caja y luego cierra el periodo global.
func (o *Orchestrator) ClosePayrollWithPayment(ctx context.Context, actor *permission.Actor, in PayrollPaymentInput) (*PayrollPaymentResult, error) {
	const action = "close_payroll_with_payment"
	if err := o.requireAll(ctx, actor, action,
		[]permission.Capability{permission.PayrollManage},
		[]permission.Capability{permission.CashManage},
	); err != nil {
		return nil, err
	}
	if in.Currency == "" {
		in.Currency = money.USD
	}
	if in.Channel == "" {
		in.Channel = money.Cash
	}
	preview, err := o.payroll.Preview(ctx, actor)
	if err != nil {
		return nil, err
	}
	var exp *entity.Expense
	if preview.TotalNet.IsPositive() {
		rate, err := o.rate(ctx, in.Currency, in.Rate)
		if err != nil {
			return nil, err
		}
		amount, err := money.FromUSD(preview.TotalNet, in.Currency, rate)
		if err != nil {
			return nil, domain.NewValidationError("rate", err.Error())
		}
		exp, err = o.cash.ApplyExpense(ctx, actor, treasury.ExpenseInput{
			Amount:   amount,
			Currency: in.Currency,
			Channel:  in.Channel,
			Reason:   "Pago de nómina",
			Category: entity.ExpenseCategoryPayroll,
		})
		if err != nil {
			return nil, err
		}
	}
	period, err := o.payroll.GlobalPeriodClose(ctx, actor)
	if err != nil {
		if exp == nil {
			return nil, err
		}
		_, cerr := o.cash.RevertExpense(ctx, actor, exp.ID)
		return nil, o.fail(ctx, actor, action, "global_period_close", err, cerr, map[string]string{"expense_id": exp.ID})
	}
	if !period.TotalNet.Equal(preview.TotalNet) {
		o.logger.Warn().
			Str("period_id", period.ID).
			Str("paid", preview.TotalNet.String()).
			Str("closed", period.TotalNet.String()).
			Msg("el neto cambió entre el pago y el cierre")
		o.guard.Record(ctx, actor, security.EventSagaFailure, period.ID, entity.SeverityWarn, map[string]any{
			"paid_usd":   preview.TotalNet.String(),
			"closed_usd": period.TotalNet.String(),
		})
	}
	return &PayrollPaymentResult{Period: period, Expense: exp}, nil
}

// SupplyPurchaseInput compra de mercancía pagada desde caja.
type SupplyPurchaseInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Unit      entity.Unit
	UnitCost  decimal.Decimal // USD por unidad indicada
	Currency  money.Currency
	Channel   money.Channel
	Rate      decimal.Decimal
	Reason    string
}

// SupplyPurchaseResult las dos piernas confirmadas.
type SupplyPurchaseResult struct {
	Expense  *entity.Expense
	Movement *entity.Movement
}

// RegisterSupplyPurchase debita la compra de la caja y luego ingresa la mercancía.
func (o *Orchestrator) RegisterSupplyPurchase(ctx context.Context, actor *permission.Actor, in SupplyPurchaseInput) (*SupplyPurchaseResult, error) {
	const action = "register_supply_purchase"
	if err := o.requireAll(ctx, actor, action,
		[]permission.Capability{permission.CashManage},
		[]permission.Capability{permission.InventoryManage, permission.InventoryAdjust},
	); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() || !in.UnitCost.IsPositive() {
		return nil, domain.NewValidationError("quantity", "cantidad y costo deben ser positivos")
	}
	if in.Currency == "" {
		in.Currency = money.USD
	}
	if in.Channel == "" {
		in.Channel = money.Cash
	}
	rate, err := o.rate(ctx, in.Currency, in.Rate)
	if err != nil {
		return nil, err
	}
	amount, err := money.FromUSD(in.UnitCost.Mul(in.Quantity), in.Currency, rate)
	if err != nil {
		return nil, domain.NewValidationError("rate", err.Error())
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Compra de insumos"
	}
	exp, err := o.cash.ApplyExpense(ctx, actor, treasury.ExpenseInput{
		Amount:   amount,
		Currency: in.Currency,
		Channel:  in.Channel,
		Reason:   reason,
		Category: entity.ExpenseCategorySupplies,
	})
	if err != nil {
		return nil, err
	}
	mov, err := o.stock.ReceiveSupply(ctx, actor, inventory.SupplyInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		UnitCost:  in.UnitCost,
		Ref:       "expense:" + exp.ID,
	})
	if err != nil {
		_, cerr := o.cash.RevertExpense(ctx, actor, exp.ID)
		return nil, o.fail(ctx, actor, action, "receive_supply", err, cerr, map[string]string{
			"expense_id": exp.ID,
			"product_id": in.ProductID,
		})
	}
	return &SupplyPurchaseResult{Expense: exp, Movement: mov}, nil
}

func (o *Orchestrator) checkCapacity(ctx context.Context, actor *permission.Actor, employeeID string, amountUSD decimal.Decimal) error {
	c, err := o.payroll.CheckCreditCapacity(ctx, actor, employeeID, amountUSD)
	if err != nil {
		return err
	}
	if !c.Allowed {
		return &payroll.CapacityError{EmployeeID: employeeID, Capacity: c}
	}
	return nil
}

// fail arma el SagaError, cuenta la compensación y la reporta. Con compensación fallida
// el evento es crítico: queda una pierna sin pareja para conciliación manual.
func (o *Orchestrator) fail(ctx context.Context, actor *permission.Actor, action, step string, err, compErr error, crossRef map[string]string) error {
	sagaErr := &domain.SagaError{Action: action, Step: step, Err: err, CompensationErr: compErr, CrossRef: crossRef}
	detail := map[string]any{"step": step, "error": err.Error()}
	for k, v := range crossRef {
		detail[k] = v
	}
	if compErr == nil {
		o.guard.Metrics().SagaCompensation(action, "compensated")
		o.logger.Warn().Err(err).Str("action", action).Str("step", step).Msg("pierna fallida, compensación aplicada")
		o.guard.Record(ctx, actor, security.EventSagaFailure, action, entity.SeverityWarn, detail)
		return sagaErr
	}
	detail["compensation_error"] = compErr.Error()
	o.guard.Metrics().SagaCompensation(action, "failed")
	o.logger.Error().Err(err).AnErr("compensation", compErr).Str("action", action).Str("step", step).
		Interface("cross_ref", crossRef).Msg("operación compuesta sin compensar")
	o.guard.Record(ctx, actor, security.EventSagaFailure, action, entity.SeverityCritical, detail)
	return sagaErr
}
