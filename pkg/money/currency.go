package money

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency moneda soportada por la caja.
type Currency string

const (
	USD Currency = "USD"
	VES Currency = "VES"
)

// Valid indica si la moneda es una de las dos soportadas.
func (c Currency) Valid() bool { return c == USD || c == VES }

// Channel canal de liquidación: efectivo (custodia física) o digital.
type Channel string

const (
	Cash    Channel = "cash"
	Digital Channel = "digital"
)

// Valid indica si el canal es conocido.
func (c Channel) Valid() bool { return c == Cash || c == Digital }

var currencyAliases = map[string]Currency{
	"$":         USD,
	"US$":       USD,
	"DOLAR":     USD,
	"DOLARES":   USD,
	"BS":        VES,
	"BS.":       VES,
	"BSS":       VES,
	"BSF":       VES,
	"BOLIVARES": VES,
}

// ParseCurrency reconoce un código ISO 4217 (o un alias local como "Bs" o "$").
func ParseCurrency(s string) (Currency, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if c, ok := currencyAliases[key]; ok {
		return c, nil
	}
	unit, err := currency.ParseISO(key)
	if err != nil {
		return "", fmt.Errorf("moneda %q: %w", s, err)
	}
	c := Currency(unit.String())
	if !c.Valid() {
		return "", fmt.Errorf("moneda %q no soportada", unit.String())
	}
	return c, nil
}

// ParseAmount interpreta texto libre con símbolos, separadores de miles y signo.
// "Bs 1.234,56" → 1234.56; "$1,234.56" → 1234.56; "(12.50)" → -12.50. Texto inválido vale cero.
func ParseAmount(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero
	}
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		}
	}
	digits := b.String()
	if digits == "" {
		return decimal.Zero
	}

	lastDot := strings.LastIndex(digits, ".")
	lastComma := strings.LastIndex(digits, ",")
	decimalSep := -1
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimalSep = max(lastDot, lastComma)
	case lastDot >= 0 || lastComma >= 0:
		sep := max(lastDot, lastComma)
		sepChar := digits[sep]
		tail := len(digits) - sep - 1
		if strings.Count(digits, string(sepChar)) == 1 && tail > 0 && tail <= 2 {
			decimalSep = sep
		} else if sepChar == '.' && strings.Count(digits, ".") == 1 && tail > 0 && tail != 3 {
			decimalSep = sep
		}
	}

	var clean strings.Builder
	for i, r := range digits {
		switch {
		case i == decimalSep:
			clean.WriteByte('.')
		case r == '.' || r == ',':
		default:
			clean.WriteRune(r)
		}
	}
	d := parseStrict(clean.String())
	if negative {
		d = d.Neg()
	}
	return d
}

var printer = message.NewPrinter(language.Spanish)

// Format devuelve el monto listo para mostrar (solo presentación, nunca para cálculos).
func Format(d decimal.Decimal, c Currency) string {
	symbol := "$"
	if c == VES {
		symbol = "Bs"
	}
	return printer.Sprintf("%s %v", symbol, number.Decimal(Cents(d).InexactFloat64(), number.Scale(int(Scale))))
}
