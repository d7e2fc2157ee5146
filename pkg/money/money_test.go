package money_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/pkg/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Construcción tolerante
// ──────────────────────────────────────────────────────────────────────────────

func TestD_CoercionACero(t *testing.T) {
	var nilPtr *decimal.Decimal
	casos := []any{nil, "", "abc", "1,2,3", math.NaN(), math.Inf(1), nilPtr, decimal.NullDecimal{}, struct{}{}}
	for _, c := range casos {
		assert.True(t, money.D(c).IsZero(), "entrada %#v debe valer cero", c)
	}
}

func TestD_TiposNumericos(t *testing.T) {
	assert.True(t, money.D(12).Equal(dec("12")))
	assert.True(t, money.D(int64(-3)).Equal(dec("-3")))
	assert.True(t, money.D(uint32(7)).Equal(dec("7")))
	assert.True(t, money.D(0.1).Equal(dec("0.1")))
	assert.True(t, money.D(" 2.50 ").Equal(dec("2.5")))
	assert.True(t, money.D(json.Number("99.99")).Equal(dec("99.99")))
	d := dec("4.2")
	assert.True(t, money.D(&d).Equal(d))
}

// ──────────────────────────────────────────────────────────────────────────────
// Redondeo
// ──────────────────────────────────────────────────────────────────────────────

func TestRound_Modos(t *testing.T) {
	v := dec("2.345")
	assert.Equal(t, "2.35", money.Round(v, 2, money.ModeNearest).StringFixed(2))
	assert.Equal(t, "2.35", money.Round(v, 2, money.ModeCeil).StringFixed(2))
	assert.Equal(t, "2.34", money.Round(v, 2, money.ModeFloor).StringFixed(2))

	neg := dec("-2.345")
	assert.Equal(t, "-2.35", money.Round(neg, 2, money.ModeNearest).StringFixed(2))
	assert.Equal(t, "-2.34", money.Round(neg, 2, money.ModeCeil).StringFixed(2))
	assert.Equal(t, "-2.35", money.Round(neg, 2, money.ModeFloor).StringFixed(2))
}

func TestSum_IndependienteDelOrden(t *testing.T) {
	xs := []decimal.Decimal{dec("0.1"), dec("0.2"), dec("0.3"), dec("1234.005"), dec("-0.015")}
	want := money.Cents(money.Sum(xs...))
	perms := [][]int{{0, 1, 2, 3, 4}, {4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {3, 4, 0, 2, 1}}
	for _, p := range perms {
		ordered := make([]decimal.Decimal, 0, len(p))
		for _, i := range p {
			ordered = append(ordered, xs[i])
		}
		assert.True(t, want.Equal(money.Cents(money.Sum(ordered...))), "permutación %v", p)
	}
	assert.Equal(t, "1234.59", want.StringFixed(2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Texto libre y monedas
// ──────────────────────────────────────────────────────────────────────────────

func TestParseAmount(t *testing.T) {
	casos := map[string]string{
		"Bs 1.234,56":  "1234.56",
		"$1,234.56":    "1234.56",
		"1,5":          "1.5",
		"12.50 USD":    "12.5",
		"1.234.567":    "1234567",
		"-40":          "-40",
		"(12.50)":      "-12.5",
		"Ref: 300 Bs.": "300",
		"":             "0",
		"sin monto":    "0",
	}
	for in, want := range casos {
		assert.True(t, dec(want).Equal(money.ParseAmount(in)), "ParseAmount(%q) = %s, se esperaba %s", in, money.ParseAmount(in), want)
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := money.ParseCurrency("usd")
	require.NoError(t, err)
	assert.Equal(t, money.USD, c)

	c, err = money.ParseCurrency("Bs")
	require.NoError(t, err)
	assert.Equal(t, money.VES, c)

	c, err = money.ParseCurrency("VES")
	require.NoError(t, err)
	assert.Equal(t, money.VES, c)

	_, err = money.ParseCurrency("EUR")
	assert.Error(t, err, "EUR es ISO válido pero no está soportado por la caja")

	_, err = money.ParseCurrency("XYZ1")
	assert.Error(t, err)
}

func TestConversion(t *testing.T) {
	usd, err := money.ToUSD(dec("300"), money.VES, dec("100"))
	require.NoError(t, err)
	assert.True(t, usd.Equal(dec("3")))

	usd, err = money.ToUSD(dec("100"), money.VES, dec("36.5"))
	require.NoError(t, err)
	assert.Equal(t, "2.74", usd.StringFixed(2))

	ves, err := money.FromUSD(dec("2"), money.VES, dec("36.5"))
	require.NoError(t, err)
	assert.True(t, ves.Equal(dec("73")))

	_, err = money.ToUSD(dec("1"), money.VES, decimal.Zero)
	assert.ErrorIs(t, err, money.ErrInvalidRate)

	same, err := money.ToUSD(dec("5"), money.USD, decimal.Zero)
	require.NoError(t, err, "USD no necesita tasa")
	assert.True(t, same.Equal(dec("5")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cuadrantes
// ──────────────────────────────────────────────────────────────────────────────

func TestQuadrants_Aritmetica(t *testing.T) {
	q := money.Quadrants{USDCash: dec("100")}
	q = q.AddTo(money.Quadrant{Currency: money.VES, Channel: money.Cash}, dec("300"))
	q = q.AddTo(money.Quadrant{Currency: money.USD, Channel: money.Cash}, dec("4"))

	assert.True(t, q.USDCash.Equal(dec("104")))
	assert.True(t, q.VESCash.Equal(dec("300")))

	diff := q.Sub(money.Quadrants{USDCash: dec("100")})
	assert.True(t, diff.Equal(money.Quadrants{USDCash: dec("4"), VESCash: dec("300")}))
	assert.True(t, diff.Add(diff.Neg()).Equal(money.Quadrants{}))

	_, neg := q.Negative()
	assert.False(t, neg)
	bad, neg := q.AddTo(money.Quadrant{Currency: money.USD, Channel: money.Digital}, dec("-1")).Negative()
	require.True(t, neg)
	assert.Equal(t, "usdDigital", bad.String())
}

func TestParseQuadrant(t *testing.T) {
	for _, q := range money.AllQuadrants {
		got, err := money.ParseQuadrant(q.String())
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}
	_, err := money.ParseQuadrant("eurCash")
	assert.Error(t, err)
}
