// Package money concentra la aritmética decimal exacta del núcleo.
// Ningún monto ni cantidad persistida o comparada pasa por float64.
package money

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate se devuelve cuando la tasa de cambio no es positiva.
var ErrInvalidRate = errors.New("tasa de cambio inválida")

// Scale es la escala monetaria por defecto (centavos).
const Scale int32 = 2

// Tolerance es la diferencia máxima aceptada al cuadrar pagos mixtos.
var Tolerance = decimal.NewFromFloat(0.01)

// RoundMode modo de redondeo.
type RoundMode int

const (
	ModeNearest RoundMode = iota // mitad hacia arriba (alejándose de cero)
	ModeCeil
	ModeFloor
)

// D construye un decimal a partir de cualquier valor. Nulos o entradas inválidas valen cero:
// la validación es responsabilidad de la UI y esta capa nunca bloquea al operador.
func D(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case decimal.NullDecimal:
		if !x.Valid {
			return decimal.Zero
		}
		return x.Decimal
	case int:
		return decimal.NewFromInt(int64(x))
	case int8:
		return decimal.NewFromInt(int64(x))
	case int16:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return fromUint(uint64(x))
	case uint16:
		return fromUint(uint64(x))
	case uint32:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		return parseStrict(string(x))
	case string:
		return parseStrict(x)
	default:
		return decimal.Zero
	}
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func parseStrict(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round redondea d a scale decimales con el modo indicado.
func Round(d decimal.Decimal, scale int32, mode RoundMode) decimal.Decimal {
	switch mode {
	case ModeCeil:
		return d.RoundCeil(scale)
	case ModeFloor:
		return d.RoundFloor(scale)
	default:
		return d.Round(scale)
	}
}

// Cents redondea a la escala monetaria con ModeNearest.
func Cents(d decimal.Decimal) decimal.Decimal {
	return Round(d, Scale, ModeNearest)
}

// Sum suma exacta; el resultado no depende del orden de los sumandos.
func Sum(xs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(x)
	}
	return total
}

// Max devuelve el mayor entre a y b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// WithinTolerance indica si |a-b| <= Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// ToUSD convierte amount expresado en cur a dólares usando rate (VES por USD).
func ToUSD(amount decimal.Decimal, cur Currency, rate decimal.Decimal) (decimal.Decimal, error) {
	if cur == USD {
		return amount, nil
	}
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return Cents(amount.Div(rate)), nil
}

// FromUSD convierte dólares a cur usando rate (VES por USD).
func FromUSD(amountUSD decimal.Decimal, cur Currency, rate decimal.Decimal) (decimal.Decimal, error) {
	if cur == USD {
		return amountUSD, nil
	}
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return Cents(amountUSD.Mul(rate)), nil
}
