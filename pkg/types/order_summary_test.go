package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderSummaryScanRoundTrip(t *testing.T) {
	summary := &OrderSummary{
		OrderNumber: "SO-1",
		ConfirmURL:  "/confirm/SO-1",
		TotalAmount: decimal.RequireFromString("100.00"),
		Payments: []PaymentLine{
			{Instrument: "credit_card", Amount: decimal.RequireFromString("80.00")},
			{Instrument: "gift_card", Amount: decimal.RequireFromString("20.00")},
		},
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	val, err := summary.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var decoded OrderSummary
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if decoded.OrderNumber != "SO-1" || !decoded.TotalAmount.Equal(summary.TotalAmount) {
		t.Fatalf("unexpected summary %+v", decoded)
	}
	if len(decoded.Payments) != 2 || !decoded.Payments[1].Amount.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected payments %+v", decoded.Payments)
	}
	if !decoded.SubmittedAt.Equal(summary.SubmittedAt) {
		t.Fatalf("unexpected submitted at %v", decoded.SubmittedAt)
	}

	if err := decoded.Scan(string(val.([]byte))); err != nil {
		t.Fatalf("Scan(string) error = %v", err)
	}
	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.OrderNumber != "" {
		t.Fatalf("expected zero summary after nil scan, got %+v", decoded)
	}
}

func TestOrderSummaryScanRejectsUnsupportedType(t *testing.T) {
	var summary OrderSummary
	if err := summary.Scan(42); err == nil {
		t.Fatal("expected error for unsupported scan type")
	}
}
