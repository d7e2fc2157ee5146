package treasury

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// TenderedUSD valoriza pagos menos vuelto en USD con la tasa congelada de la venta.
func TenderedUSD(s *entity.Sale) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.Payments {
		v, err := money.ToUSD(p.Amount, p.Currency, s.Rate)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	for _, c := range s.Change {
		v, err := money.ToUSD(c.Amount, c.Currency, s.Rate)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Sub(v)
	}
	return total, nil
}

// ValidateSale comprueba montos, cuadrantes y que los pagos cuadren con el total.
func ValidateSale(s *entity.Sale) error {
	if !s.TotalUSD.IsPositive() {
		return domain.NewValidationError("total", "el total debe ser positivo")
	}
	if len(s.Payments) == 0 && !s.CreditUSD.IsPositive() {
		return domain.NewValidationError("payments", "la venta necesita al menos un pago")
	}
	for i, t := range append(append([]entity.Tender{}, s.Payments...), s.Change...) {
		if err := t.Quadrant().Validate(); err != nil {
			return domain.NewValidationError(fmt.Sprintf("tender[%d]", i), err.Error())
		}
		if !t.Amount.IsPositive() {
			return domain.NewValidationError(fmt.Sprintf("tender[%d]", i), "el monto debe ser positivo")
		}
		if t.Currency == money.VES && !s.Rate.IsPositive() {
			return domain.NewValidationError("rate", "se requiere tasa para montos en VES")
		}
	}
	if s.CreditUSD.IsNegative() {
		return domain.NewValidationError("credit", "el crédito no puede ser negativo")
	}
	if s.CreditUSD.IsPositive() && s.CustomerID == "" {
		return domain.NewValidationError("customerId", "una venta a crédito requiere cliente")
	}
	tendered, err := TenderedUSD(s)
	if err != nil {
		return domain.NewValidationError("rate", err.Error())
	}
	if !money.WithinTolerance(tendered.Add(s.CreditUSD), s.TotalUSD) {
		return fmt.Errorf("%w: recibido %s + crédito %s, total %s",
			domain.ErrUnbalancedPayment, tendered.StringFixed(2), s.CreditUSD.StringFixed(2), s.TotalUSD.StringFixed(2))
	}
	return nil
}
