package money

import (
	"fmt"
	"sync"
)

// DisplayContext holds the session's currency rate table and the user's
// current display selection. The table is loaded once at session start and is
// read-mostly; only the selection slot is ever written afterwards.
type DisplayContext struct {
	mu       sync.RWMutex
	rates    map[string]CurrencyRate
	selected string
}

func NewDisplayContext(rates []CurrencyRate) *DisplayContext {
	table := make(map[string]CurrencyRate, len(rates)+1)
	table[ReferenceCurrency] = Identity()
	for _, r := range rates {
		table[r.Code] = r
	}
	return &DisplayContext{rates: table, selected: ReferenceCurrency}
}

// Select switches the current display currency. Unknown codes are rejected
// and leave the selection unchanged.
func (d *DisplayContext) Select(code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rates[code]; !ok {
		return fmt.Errorf("unknown currency %q", code)
	}
	d.selected = code
	return nil
}

func (d *DisplayContext) Selected() CurrencyRate {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rates[d.selected]
}

func (d *DisplayContext) Codes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	codes := make([]string, 0, len(d.rates))
	for code := range d.rates {
		codes = append(codes, code)
	}
	return codes
}

// Format renders m in the currently selected display currency.
func (d *DisplayContext) Format(m Money) string {
	return Format(m, d.Selected())
}

// DefaultRates is the built-in rate table used when no external table is
// configured.
func DefaultRates() []CurrencyRate {
	return []CurrencyRate{
		{Code: "EUR", Symbol: "€", RateFromReference: 0.92},
		{Code: "GBP", Symbol: "£", RateFromReference: 0.79},
		{Code: "XOF", Symbol: "CFA", RateFromReference: 650, WholeUnitOnly: true},
		{Code: "NGN", Symbol: "₦", RateFromReference: 1480, WholeUnitOnly: true},
	}
}
