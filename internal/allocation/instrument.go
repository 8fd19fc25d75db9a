package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
)

// CardDetails carries the identity fields of an instrument. The allocator never reads them.
type CardDetails struct {
	Number         string `json:"number,omitempty"`
	ValidationCode string `json:"validation_code,omitempty"`
	ExpiryMonth    int    `json:"expiry_month,omitempty"`
	ExpiryYear     int    `json:"expiry_year,omitempty"`
	HolderName     string `json:"holder_name,omitempty"`
}

// Instrument is one payment method carrying part of the order total.
type Instrument struct {
	Type   enums.InstrumentType `json:"type"`
	Active bool                 `json:"active"`
	Amount decimal.Decimal      `json:"amount"`
	Card   CardDetails          `json:"card"`
}

// DefaultInstruments returns one inactive, zero-amount instrument per supported type.
func DefaultInstruments() []Instrument {
	types := enums.InstrumentTypes()
	out := make([]Instrument, 0, len(types))
	for _, t := range types {
		out = append(out, Instrument{Type: t, Amount: decimal.Zero})
	}
	return out
}

// Find returns the index of the instrument with the given type, or -1.
func Find(instruments []Instrument, t enums.InstrumentType) int {
	for i := range instruments {
		if instruments[i].Type == t {
			return i
		}
	}
	return -1
}

// ActiveCount reports how many instruments are active.
func ActiveCount(instruments []Instrument) int {
	count := 0
	for _, inst := range instruments {
		if inst.Active {
			count++
		}
	}
	return count
}

// SumActive adds the amounts of the active instruments.
func SumActive(instruments []Instrument) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(instruments))
	for _, inst := range instruments {
		if inst.Active {
			amounts = append(amounts, inst.Amount)
		}
	}
	return money.Sum(amounts...)
}

// ValidateSet rejects instrument sets the allocator cannot reason about:
// more than MaxInstruments, unknown or repeated types, negative amounts.
func ValidateSet(instruments []Instrument) error {
	if len(instruments) > MaxInstruments {
		return errors.New(errors.CodeValidation, fmt.Sprintf("at most %d instruments are supported", MaxInstruments))
	}
	fields := map[string]string{}
	seen := map[enums.InstrumentType]bool{}
	for _, inst := range instruments {
		key := inst.Type.String()
		switch {
		case !inst.Type.IsValid():
			fields[key] = "unknown instrument type"
		case seen[inst.Type]:
			fields[key] = "duplicate instrument"
		case inst.Amount.IsNegative():
			fields[key] = "amount must be >= 0"
		}
		seen[inst.Type] = true
	}
	if len(fields) > 0 {
		return errors.New(errors.CodeValidation, "invalid instruments").WithDetails(fields)
	}
	return nil
}
