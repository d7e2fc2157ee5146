package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// Apply aplica un movimiento al stock previo y devuelve el stock resultante.
func Apply(stock decimal.Decimal, kind entity.MovementKind, qty decimal.Decimal) (decimal.Decimal, error) {
	switch kind {
	case entity.MovementInitial, entity.MovementEdit, entity.MovementReversal:
		return stock.Add(qty), nil
	case entity.MovementSale, entity.MovementInternalConsumption, entity.MovementAdjustment:
		return stock.Sub(qty), nil
	case entity.MovementDeleted:
		return decimal.Zero, nil
	}
	return stock, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, kind)
}

// Replay reproduce el stock plegando los movimientos en el orden dado (orden de confirmación).
func Replay(movs []*entity.Movement) (decimal.Decimal, error) {
	stock := decimal.Zero
	for _, m := range movs {
		next, err := Apply(stock, m.Kind, m.Quantity)
		if err != nil {
			return decimal.Zero, fmt.Errorf("movimiento %d: %w", m.ID, err)
		}
		stock = next
	}
	return stock, nil
}

// Verify compara la reproducción del kardex contra el stock guardado del producto.
// Devuelve *domain.IntegrityViolation si no coinciden; nunca corrige.
func Verify(p *entity.Product, movs []*entity.Movement) error {
	replayed, err := Replay(movs)
	if err != nil {
		return err
	}
	if !replayed.Equal(p.Stock) {
		return &domain.IntegrityViolation{
			Subject:  "stock de " + p.ID,
			Expected: replayed.String(),
			Actual:   p.Stock.String(),
		}
	}
	for _, m := range movs {
		if m.Quantity.IsNegative() {
			return &domain.IntegrityViolation{
				Subject:  fmt.Sprintf("movimiento %d", m.ID),
				Expected: "cantidad no negativa",
				Actual:   m.Quantity.String(),
			}
		}
	}
	return nil
}
