package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ReferenceCurrency is the currency every stored price is denominated in.
// Display currencies are a pure presentation transform over it.
const ReferenceCurrency = "USD"

// minorPerUnit is the number of minor units in one whole reference unit.
const minorPerUnit = 100

// Money is a fixed-point amount in minor units of the reference currency.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// FromUnits builds a Money from whole units and remaining minor units,
// e.g. FromUnits(10, 0) is 10.00 reference units.
func FromUnits(units int64, minor int64) Money {
	return Money{AmountMinor: units*minorPerUnit + minor, Currency: ReferenceCurrency}
}

func FromMinor(minor int64) Money {
	return Money{AmountMinor: minor, Currency: ReferenceCurrency}
}

func (m Money) Add(other Money) Money {
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.AmountMinor == 0
}

// CurrencyRate describes one presentation currency. RateFromReference is the
// multiplier from reference units to target units. WholeUnitOnly currencies
// are rendered without fractional digits.
type CurrencyRate struct {
	Code              string  `json:"code"`
	Symbol            string  `json:"symbol"`
	RateFromReference float64 `json:"rate_from_reference"`
	WholeUnitOnly     bool    `json:"whole_unit_only"`
}

// Identity is the rate that maps the reference currency onto itself.
func Identity() CurrencyRate {
	return CurrencyRate{Code: ReferenceCurrency, Symbol: "$", RateFromReference: 1}
}

// Convert applies a presentation rate. The result is display-only and must
// never be written back into a stored total.
func Convert(m Money, rate CurrencyRate) Money {
	converted := math.Round(float64(m.AmountMinor) * rate.RateFromReference)
	return Money{AmountMinor: int64(converted), Currency: rate.Code}
}

// Format renders a converted amount for display. Whole-unit currencies are
// rounded to the nearest integer, thousands-grouped and symbol-suffixed;
// everything else gets exactly two fractional digits and a symbol prefix.
func Format(m Money, rate CurrencyRate) string {
	converted := Convert(m, rate)
	if rate.WholeUnitOnly {
		units := int64(math.Round(float64(converted.AmountMinor) / minorPerUnit))
		return groupThousands(units) + " " + rate.Symbol
	}

	negative := converted.AmountMinor < 0
	abs := converted.AmountMinor
	if negative {
		abs = -abs
	}
	s := fmt.Sprintf("%s%s%d.%02d", sign(negative), rate.Symbol, abs/minorPerUnit, abs%minorPerUnit)
	return s
}

func sign(negative bool) string {
	if negative {
		return "-"
	}
	return ""
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	out := b.String()
	if neg {
		return "-" + out
	}
	return out
}
