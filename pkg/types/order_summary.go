package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSummary is the outcome of a successful order submission applied back to the cart.
type OrderSummary struct {
	OrderNumber string          `json:"order_number,omitempty"`
	ConfirmURL  string          `json:"confirm_url"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Payments    []PaymentLine   `json:"payments,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// PaymentLine records how much of the order one instrument covered.
type PaymentLine struct {
	Instrument string          `json:"instrument"`
	Amount     decimal.Decimal `json:"amount"`
}

// Value serializes the summary to JSON.
func (s *OrderSummary) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the summary.
func (s *OrderSummary) Scan(value interface{}) error {
	if value == nil {
		*s = OrderSummary{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}
