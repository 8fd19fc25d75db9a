package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// ShippingPreference is the delivery mode chosen for an order or a single line.
// The numeric codes are part of the checkout service contract.
type ShippingPreference int

const (
	ShippingPreferenceNone               ShippingPreference = 0
	ShippingPreferenceShipToAddress      ShippingPreference = 1
	ShippingPreferenceShipToStore        ShippingPreference = 2
	ShippingPreferenceElectronicDelivery ShippingPreference = 3
	ShippingPreferenceSplitPerLine       ShippingPreference = 4

	// ShippingPreferenceUnknown marks input that did not parse as a preference.
	ShippingPreferenceUnknown ShippingPreference = -1
)

var validShippingPreferences = []ShippingPreference{
	ShippingPreferenceShipToAddress,
	ShippingPreferenceShipToStore,
	ShippingPreferenceElectronicDelivery,
	ShippingPreferenceSplitPerLine,
}

var shippingPreferenceNames = map[ShippingPreference]string{
	ShippingPreferenceShipToAddress:      "ship_to_address",
	ShippingPreferenceShipToStore:        "ship_to_store",
	ShippingPreferenceElectronicDelivery: "electronic_delivery",
	ShippingPreferenceSplitPerLine:       "split_per_line",
}

// String implements fmt.Stringer.
func (p ShippingPreference) String() string {
	if name, ok := shippingPreferenceNames[p]; ok {
		return name
	}
	if p == ShippingPreferenceUnknown {
		return "unknown"
	}
	return "none"
}

// IsValid reports whether the value is a known order-level ShippingPreference.
func (p ShippingPreference) IsValid() bool {
	for _, candidate := range validShippingPreferences {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsLineLevel reports whether the preference may be applied to a single order line.
func (p ShippingPreference) IsLineLevel() bool {
	return p.IsValid() && p != ShippingPreferenceSplitPerLine
}

// ParseShippingPreference accepts either the numeric code or the snake_case name.
func ParseShippingPreference(value string) (ShippingPreference, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if code, err := strconv.Atoi(trimmed); err == nil {
		pref := ShippingPreference(code)
		if pref.IsValid() {
			return pref, nil
		}
		return ShippingPreferenceNone, fmt.Errorf("invalid shipping preference %q", value)
	}
	for pref, name := range shippingPreferenceNames {
		if name == trimmed {
			return pref, nil
		}
	}
	return ShippingPreferenceNone, fmt.Errorf("invalid shipping preference %q", value)
}
