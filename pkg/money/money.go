package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

// Scale is the number of minor-unit digits amounts are rounded to.
const Scale int32 = 2

// MinorUnit is the smallest representable currency step (0.01).
var MinorUnit = decimal.New(1, -Scale)

// Round rounds an amount to minor-unit precision, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// WithinMinorUnit reports whether a and b differ by at most one minor unit.
func WithinMinorUnit(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MinorUnit)
}

// Sum adds the provided amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Format renders an amount for display in the given currency, e.g. "$ 12.50".
// Presentation only; never feed the result back into allocation.
func Format(amount decimal.Decimal, code enums.Currency) string {
	return FormatIn(language.AmericanEnglish, amount, code)
}

// FormatIn renders an amount using the conventions of the given locale.
func FormatIn(tag language.Tag, amount decimal.Decimal, code enums.Currency) string {
	unit := code.Unit()
	printer := message.NewPrinter(tag)
	return printer.Sprint(currency.Symbol(unit.Amount(Round(amount).InexactFloat64())))
}
