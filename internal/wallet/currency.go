package wallet

import (
	"errors"
	"strings"
)

// Supported currencies. The wallets table carries the same check constraint.
const (
	CurrencyNGN = "NGN"
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
	CurrencyEUR = "EUR"
)

// ErrUnsupportedCurrency indicates a currency outside the supported set.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

var supported = map[string]struct{}{
	CurrencyNGN: {},
	CurrencyUSD: {},
	CurrencyGBP: {},
	CurrencyEUR: {},
}

// IsSupported reports whether code is a supported currency. Codes are upper case.
func IsSupported(code string) bool {
	_, ok := supported[code]
	return ok
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
