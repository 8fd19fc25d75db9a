package enums

import "testing"

func TestParseCurrencyNormalizesAndRestricts(t *testing.T) {
	got, err := ParseCurrency(" eur ")
	if err != nil || got != CurrencyEUR {
		t.Fatalf("expected EUR, got %q err=%v", got, err)
	}
	if _, err := ParseCurrency("JPY"); err == nil {
		t.Fatalf("expected JPY to be rejected as unsettled")
	}
	if _, err := ParseCurrency("ZZZ"); err == nil {
		t.Fatalf("expected unknown code error")
	}
	if Currency("nope").Unit().String() != "USD" {
		t.Fatalf("expected USD fallback unit")
	}
}

func TestCheckoutStepOrdering(t *testing.T) {
	next, ok := CheckoutStepShipping.Next()
	if !ok || next != CheckoutStepBilling {
		t.Fatalf("expected billing after shipping, got %q", next)
	}
	if _, ok := CheckoutStepSubmitted.Next(); ok {
		t.Fatalf("submitted has no successor")
	}
	if !CheckoutStepShipping.Before(CheckoutStepReview) || CheckoutStepReview.Before(CheckoutStepBilling) {
		t.Fatalf("unexpected ordering")
	}
	if _, err := ParseCheckoutStep("payment"); err == nil {
		t.Fatalf("expected unknown step error")
	}
}

func TestCartStatusAcceptsCheckout(t *testing.T) {
	if !CartStatusActive.AcceptsCheckout() || CartStatusSubmitted.AcceptsCheckout() {
		t.Fatalf("only active carts accept checkout")
	}
	if _, err := ParseCartStatus("archived"); err == nil {
		t.Fatalf("expected invalid status error")
	}
}
