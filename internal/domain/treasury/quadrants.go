// Package treasury contiene las reglas puras de la caja de cuatro cuadrantes.
package treasury

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// Effect efecto con signo sobre un cuadrante: positivo entra, negativo sale.
type Effect struct {
	Kind     entity.TreasuryEntryKind
	Quadrant money.Quadrant
	Amount   decimal.Decimal
}

// SaleEffects acredita cada pago y debita cada vuelto entregado.
func SaleEffects(s *entity.Sale) []Effect {
	out := make([]Effect, 0, len(s.Payments)+len(s.Change))
	for _, p := range s.Payments {
		out = append(out, Effect{Kind: entity.EntrySale, Quadrant: p.Quadrant(), Amount: p.Amount})
	}
	for _, c := range s.Change {
		out = append(out, Effect{Kind: entity.EntryChange, Quadrant: c.Quadrant(), Amount: c.Amount.Neg()})
	}
	return out
}

// VoidEffects es SaleEffects con el signo invertido, vuelto incluido.
func VoidEffects(s *entity.Sale) []Effect {
	effects := SaleEffects(s)
	for i := range effects {
		effects[i].Amount = effects[i].Amount.Neg()
		effects[i].Kind = invert(effects[i].Kind)
	}
	return effects
}

func invert(k entity.TreasuryEntryKind) entity.TreasuryEntryKind {
	switch k {
	case entity.EntrySale:
		return entity.EntrySaleVoid
	case entity.EntryChange:
		return entity.EntryChangeVoid
	case entity.EntrySaleVoid:
		return entity.EntrySale
	case entity.EntryChangeVoid:
		return entity.EntryChange
	case entity.EntryExpense:
		return entity.EntryExpenseRevert
	case entity.EntryExpenseRevert:
		return entity.EntryExpense
	case entity.EntryOpening:
		return entity.EntryOpening
	}
	return k
}

// Net suma los efectos por cuadrante.
func Net(effects []Effect) money.Quadrants {
	var q money.Quadrants
	for _, e := range effects {
		q = q.AddTo(e.Quadrant, e.Amount)
	}
	return q
}

// Apply aplica los efectos a la sesión manteniendo Inflows/Outflows. Si allowNegative es
// falso y algún cuadrante quedaría bajo cero, no modifica la sesión.
func Apply(s *entity.CashSession, effects []Effect, allowNegative bool) error {
	balances, inflows, outflows := s.Balances, s.Inflows, s.Outflows
	for _, e := range effects {
		balances = balances.AddTo(e.Quadrant, e.Amount)
		if e.Amount.IsPositive() {
			inflows = inflows.AddTo(e.Quadrant, e.Amount)
		} else {
			outflows = outflows.AddTo(e.Quadrant, e.Amount.Neg())
		}
	}
	if !allowNegative {
		for _, e := range effects {
			if e.Amount.IsNegative() && balances.Get(e.Quadrant).IsNegative() {
				return fmt.Errorf("%w: %s quedaría en %s", domain.ErrInsufficientFunds, e.Quadrant, balances.Get(e.Quadrant))
			}
		}
	}
	s.Balances, s.Inflows, s.Outflows = balances, inflows, outflows
	return nil
}

// VerifyClosure comprueba final = apertura + entradas − salidas en los cuatro cuadrantes.
func VerifyClosure(s *entity.CashSession) error {
	want := s.Opening.Add(s.Inflows).Sub(s.Outflows)
	for _, q := range money.AllQuadrants {
		if !want.Get(q).Equal(s.Balances.Get(q)) {
			return &domain.IntegrityViolation{
				Subject:  fmt.Sprintf("sesión %s %s", s.ID, q),
				Expected: want.Get(q).String(),
				Actual:   s.Balances.Get(q).String(),
			}
		}
	}
	return nil
}

// ReplayEntries reconstruye los saldos de una sesión desde su log de asientos.
func ReplayEntries(entries []*entity.TreasuryEntry) money.Quadrants {
	var q money.Quadrants
	for _, e := range entries {
		q = q.AddTo(e.Quadrant, e.Amount)
	}
	return q
}
