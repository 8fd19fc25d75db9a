package types

import "testing"

func TestPartyNormalized(t *testing.T) {
	party := Party{
		Name:          "  Jane Shopper ",
		Address1:      " 1 Main St ",
		Country:       "usa",
		City:          " Redmond",
		State:         "wa ",
		ZipPostalCode: " 98052 ",
		ExternalID:    " A-1 ",
	}

	got := party.Normalized()
	if got.Country != "USA" || got.State != "WA" {
		t.Fatalf("expected upper-cased codes, got %q/%q", got.Country, got.State)
	}
	if got.ExternalID != "A-1" {
		t.Fatalf("expected trimmed external id, got %q", got.ExternalID)
	}
	if got.Name != "Jane Shopper" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
}
