package enums

import "fmt"

// CartStatus is active until the cart's order is submitted.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusSubmitted CartStatus = "submitted"
)

func (c CartStatus) String() string { return string(c) }

func (c CartStatus) IsValid() bool {
	return c == CartStatusActive || c == CartStatusSubmitted
}

// AcceptsCheckout reports whether a checkout may still read or close the cart.
func (c CartStatus) AcceptsCheckout() bool {
	return c == CartStatusActive
}

func ParseCartStatus(value string) (CartStatus, error) {
	if s := CartStatus(value); s.IsValid() {
		return s, nil
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
