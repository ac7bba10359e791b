package money

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRatesFile reads a currency rate table from a JSON file. The table is
// loaded once at startup; an empty path means the built-in defaults.
func LoadRatesFile(path string) ([]CurrencyRate, error) {
	if path == "" {
		return DefaultRates(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}

	var rates []CurrencyRate
	if err := json.Unmarshal(raw, &rates); err != nil {
		return nil, fmt.Errorf("parse rate table %s: %w", path, err)
	}
	for _, r := range rates {
		if r.Code == "" || r.RateFromReference <= 0 {
			return nil, fmt.Errorf("rate table entry %+v is invalid", r)
		}
	}
	return rates, nil
}
