package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_TwoDecimalCurrency(t *testing.T) {
	m := FromUnits(1234, 5)

	got := Format(m, Identity())

	assert.Equal(t, "$1234.05", got)
}

func TestFormat_WholeUnitCurrency(t *testing.T) {
	// 1.00 reference unit at rate 650 renders as a grouped integer.
	rate := CurrencyRate{Code: "XOF", Symbol: "CFA", RateFromReference: 650, WholeUnitOnly: true}
	m := FromUnits(1, 0)

	got := Format(m, rate)

	assert.Equal(t, "650 CFA", got)
}

func TestFormat_WholeUnitGroupsThousands(t *testing.T) {
	rate := CurrencyRate{Code: "XOF", Symbol: "CFA", RateFromReference: 650, WholeUnitOnly: true}
	m := FromUnits(2000, 0)

	got := Format(m, rate)

	assert.Equal(t, "1,300,000 CFA", got)
}

func TestConvert_IdentityRoundTrips(t *testing.T) {
	m := FromUnits(99, 37)

	converted := Convert(m, Identity())

	assert.Equal(t, Format(m, Identity()), Format(converted, Identity()))
	assert.Equal(t, m.AmountMinor, converted.AmountMinor)
}

func TestConvert_DoesNotMutateInput(t *testing.T) {
	m := FromUnits(10, 0)
	rate := CurrencyRate{Code: "EUR", Symbol: "€", RateFromReference: 0.92}

	out := Convert(m, rate)

	assert.Equal(t, int64(1000), m.AmountMinor)
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, int64(920), out.AmountMinor)
}

func TestFormat_NegativeAmount(t *testing.T) {
	m := FromMinor(-150)

	assert.Equal(t, "-$1.50", Format(m, Identity()))
}

func TestDisplayContext_SelectUnknownCurrency(t *testing.T) {
	ctx := NewDisplayContext(DefaultRates())

	err := ctx.Select("ZZZ")

	require.Error(t, err)
	assert.Equal(t, ReferenceCurrency, ctx.Selected().Code)
}

func TestDisplayContext_SelectionChangesFormatting(t *testing.T) {
	ctx := NewDisplayContext(DefaultRates())
	m := FromUnits(1, 0)

	require.NoError(t, ctx.Select("XOF"))

	assert.Equal(t, "650 CFA", ctx.Format(m))

	require.NoError(t, ctx.Select(ReferenceCurrency))
	assert.Equal(t, "$1.00", ctx.Format(m))
}
