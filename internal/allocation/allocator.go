package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
)

// MaxInstruments bounds how many instruments one checkout can carry.
const MaxInstruments = 3

// Result is the outcome of a rebalance pass.
type Result struct {
	Instruments []Instrument
	// Changed is false when the pass returned the input as-is.
	Changed bool
	// Clamped is set when at least one amount was floored at zero; the floored
	// shortfall is not moved to the remaining instruments.
	Clamped bool
	// Shortfall is the amount lost to flooring.
	Shortfall decimal.Decimal
	// Inconsistent is set when the active sum still differs from the total
	// by more than one minor unit.
	Inconsistent bool
}

// Rebalance spreads the difference between the active sum and total evenly
// over the active instruments. It never mutates the input slice.
func Rebalance(instruments []Instrument, total decimal.Decimal) Result {
	out := make([]Instrument, len(instruments))
	copy(out, instruments)
	res := Result{Instruments: out, Shortfall: decimal.Zero}

	active := ActiveCount(out)
	if active == 0 {
		return res
	}

	sum := SumActive(out)
	if sum.Equal(total) {
		return res
	}

	delta := sum.Sub(total).Abs().Div(decimal.NewFromInt(int64(active)))
	over := sum.GreaterThan(total)

	for i := range out {
		if !out[i].Active {
			continue
		}
		var next decimal.Decimal
		if over {
			next = out[i].Amount.Sub(delta)
			if next.IsNegative() {
				res.Clamped = true
				res.Shortfall = res.Shortfall.Add(next.Neg())
				next = decimal.Zero
			}
		} else {
			next = out[i].Amount.Add(delta)
		}
		out[i].Amount = money.Round(next)
	}

	res.Changed = true
	res.Inconsistent = !money.WithinMinorUnit(SumActive(out), total)
	return res
}

// Verify checks the pre-submission invariants of an allocation: no negative
// amount and an active sum within one minor unit of total.
func Verify(instruments []Instrument, total decimal.Decimal) error {
	for _, inst := range instruments {
		if inst.Amount.IsNegative() {
			return errors.New(errors.CodeValidation, "instrument amount must not be negative").
				WithDetails(map[string]string{inst.Type.String(): "must be >= 0"})
		}
	}

	sum := SumActive(instruments)
	if !money.WithinMinorUnit(sum, total) {
		return errors.New(errors.CodeAllocationInconsistency,
			fmt.Sprintf("active instruments sum to %s, cart total is %s", sum.StringFixed(money.Scale), total.StringFixed(money.Scale))).
			WithDetails(map[string]string{
				"sum":        sum.StringFixed(money.Scale),
				"total":      total.StringFixed(money.Scale),
				"difference": sum.Sub(total).StringFixed(money.Scale),
			})
	}
	return nil
}
