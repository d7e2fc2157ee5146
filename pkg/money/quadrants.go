package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quadrant identifica uno de los cuatro fondos: {USD, VES} × {efectivo, digital}.
type Quadrant struct {
	Currency Currency
	Channel  Channel
}

// String devuelve la clave estable del cuadrante (ej. "usdCash").
func (q Quadrant) String() string {
	switch q {
	case Quadrant{USD, Cash}:
		return "usdCash"
	case Quadrant{USD, Digital}:
		return "usdDigital"
	case Quadrant{VES, Cash}:
		return "vesCash"
	case Quadrant{VES, Digital}:
		return "vesDigital"
	}
	return fmt.Sprintf("%s/%s", q.Currency, q.Channel)
}

// Validate comprueba moneda y canal.
func (q Quadrant) Validate() error {
	if !q.Currency.Valid() {
		return fmt.Errorf("moneda %q desconocida", q.Currency)
	}
	if !q.Channel.Valid() {
		return fmt.Errorf("canal %q desconocido", q.Channel)
	}
	return nil
}

// AllQuadrants en orden estable.
var AllQuadrants = [4]Quadrant{{USD, Cash}, {USD, Digital}, {VES, Cash}, {VES, Digital}}

// ParseQuadrant interpreta la clave producida por Quadrant.String.
func ParseQuadrant(s string) (Quadrant, error) {
	for _, q := range AllQuadrants {
		if q.String() == s {
			return q, nil
		}
	}
	return Quadrant{}, fmt.Errorf("cuadrante %q desconocido", s)
}

// Quadrants saldos de los cuatro fondos. Es un valor: las operaciones devuelven copias.
type Quadrants struct {
	USDCash    decimal.Decimal `json:"usdCash"`
	USDDigital decimal.Decimal `json:"usdDigital"`
	VESCash    decimal.Decimal `json:"vesCash"`
	VESDigital decimal.Decimal `json:"vesDigital"`
}

// Get devuelve el saldo de q.
func (b Quadrants) Get(q Quadrant) decimal.Decimal {
	switch q {
	case Quadrant{USD, Cash}:
		return b.USDCash
	case Quadrant{USD, Digital}:
		return b.USDDigital
	case Quadrant{VES, Cash}:
		return b.VESCash
	case Quadrant{VES, Digital}:
		return b.VESDigital
	}
	return decimal.Zero
}

// With devuelve una copia con el saldo de q reemplazado.
func (b Quadrants) With(q Quadrant, v decimal.Decimal) Quadrants {
	switch q {
	case Quadrant{USD, Cash}:
		b.USDCash = v
	case Quadrant{USD, Digital}:
		b.USDDigital = v
	case Quadrant{VES, Cash}:
		b.VESCash = v
	case Quadrant{VES, Digital}:
		b.VESDigital = v
	}
	return b
}

// AddTo suma amount al cuadrante q.
func (b Quadrants) AddTo(q Quadrant, amount decimal.Decimal) Quadrants {
	return b.With(q, b.Get(q).Add(amount))
}

// Add suma componente a componente.
func (b Quadrants) Add(o Quadrants) Quadrants {
	return Quadrants{
		USDCash:    b.USDCash.Add(o.USDCash),
		USDDigital: b.USDDigital.Add(o.USDDigital),
		VESCash:    b.VESCash.Add(o.VESCash),
		VESDigital: b.VESDigital.Add(o.VESDigital),
	}
}

// Sub resta componente a componente.
func (b Quadrants) Sub(o Quadrants) Quadrants {
	return b.Add(o.Neg())
}

// Neg invierte el signo de los cuatro saldos.
func (b Quadrants) Neg() Quadrants {
	return Quadrants{
		USDCash:    b.USDCash.Neg(),
		USDDigital: b.USDDigital.Neg(),
		VESCash:    b.VESCash.Neg(),
		VESDigital: b.VESDigital.Neg(),
	}
}

// Equal compara por valor numérico (1.0 == 1).
func (b Quadrants) Equal(o Quadrants) bool {
	for _, q := range AllQuadrants {
		if !b.Get(q).Equal(o.Get(q)) {
			return false
		}
	}
	return true
}

// Negative devuelve el primer cuadrante con saldo negativo, si existe.
func (b Quadrants) Negative() (Quadrant, bool) {
	for _, q := range AllQuadrants {
		if b.Get(q).IsNegative() {
			return q, true
		}
	}
	return Quadrant{}, false
}

// TotalUSD valoriza los cuatro fondos en dólares con la tasa dada.
func (b Quadrants) TotalUSD(rate decimal.Decimal) (decimal.Decimal, error) {
	ves := b.VESCash.Add(b.VESDigital)
	vesUSD, err := ToUSD(ves, VES, rate)
	if err != nil && !ves.IsZero() {
		return decimal.Zero, err
	}
	return b.USDCash.Add(b.USDDigital).Add(vesUSD), nil
}
