package enums

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Currency is an ISO 4217 code. The storefront settles in the four listed
// below; any other recognized ISO code parses but is not accepted for carts.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
)

var settled = map[Currency]bool{
	CurrencyUSD: true,
	CurrencyEUR: true,
	CurrencyGBP: true,
	CurrencyCAD: true,
}

func (c Currency) String() string { return string(c) }

// IsValid reports whether carts may be priced in c.
func (c Currency) IsValid() bool { return settled[c] }

// Unit returns the x/text currency unit, falling back to USD.
func (c Currency) Unit() currency.Unit {
	if u, err := currency.ParseISO(string(c)); err == nil {
		return u
	}
	return currency.USD
}

// ParseCurrency normalizes case and accepts only settled currencies.
func ParseCurrency(value string) (Currency, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", value, err)
	}
	c := Currency(unit.String())
	if !c.IsValid() {
		return "", fmt.Errorf("currency %s is not settled by this storefront", c)
	}
	return c, nil
}
