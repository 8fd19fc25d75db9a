package enums

import "fmt"

// InstrumentType identifies a payment instrument that can carry part of the order total.
type InstrumentType string

const (
	InstrumentTypeCreditCard  InstrumentType = "credit_card"
	InstrumentTypeGiftCard    InstrumentType = "gift_card"
	InstrumentTypeLoyaltyCard InstrumentType = "loyalty_card"
)

var validInstrumentTypes = []InstrumentType{
	InstrumentTypeCreditCard,
	InstrumentTypeGiftCard,
	InstrumentTypeLoyaltyCard,
}

// InstrumentTypes returns the supported instruments in display order.
func InstrumentTypes() []InstrumentType {
	return append([]InstrumentType{}, validInstrumentTypes...)
}

// String implements fmt.Stringer.
func (i InstrumentType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InstrumentType.
func (i InstrumentType) IsValid() bool {
	for _, candidate := range validInstrumentTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInstrumentType converts raw input into an InstrumentType.
func ParseInstrumentType(value string) (InstrumentType, error) {
	for _, candidate := range validInstrumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid instrument type %q", value)
}
