package enums

import "fmt"

// CheckoutStep is the position of a checkout session in the shipping → billing → review flow.
type CheckoutStep string

const (
	CheckoutStepShipping  CheckoutStep = "shipping"
	CheckoutStepBilling   CheckoutStep = "billing"
	CheckoutStepReview    CheckoutStep = "review"
	CheckoutStepSubmitted CheckoutStep = "submitted"
)

var orderedCheckoutSteps = []CheckoutStep{
	CheckoutStepShipping,
	CheckoutStepBilling,
	CheckoutStepReview,
	CheckoutStepSubmitted,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	return s.index() >= 0
}

// IsTerminal reports whether no further transition is possible.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepSubmitted
}

// Next returns the direct successor of the step.
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	idx := s.index()
	if idx < 0 || idx+1 >= len(orderedCheckoutSteps) {
		return "", false
	}
	return orderedCheckoutSteps[idx+1], true
}

// Before reports whether s comes strictly before other.
func (s CheckoutStep) Before(other CheckoutStep) bool {
	a, b := s.index(), other.index()
	return a >= 0 && b >= 0 && a < b
}

func (s CheckoutStep) index() int {
	for i, candidate := range orderedCheckoutSteps {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range orderedCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
