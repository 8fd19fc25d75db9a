package checkoutdto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/checkoutapi"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// Session is the checkout state exposed to the storefront.
type Session struct {
	ID               string                       `json:"id"`
	CartID           uuid.UUID                    `json:"cart_id"`
	Step             string                       `json:"step"`
	Total            string                       `json:"total"`
	TotalDisplay     string                       `json:"total_display"`
	Currency         string                       `json:"currency"`
	ShippingResolved bool                         `json:"shipping_resolved"`
	Shipping         *Shipping                    `json:"shipping,omitempty"`
	ShippingMethods  []checkoutapi.ShippingMethod `json:"shipping_methods,omitempty"`
	Instruments      []Instrument                 `json:"instruments"`
	AllocatedTotal   string                       `json:"allocated_total"`
	BillingAddress   *types.Party                 `json:"billing_address,omitempty"`
	Warnings         []string                     `json:"warnings,omitempty"`
	OrderNumber      string                       `json:"order_number,omitempty"`
	ConfirmURL       string                       `json:"confirm_url,omitempty"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// Shipping echoes the stored selection and what it resolved to.
type Shipping struct {
	Preference  int                  `json:"preference"`
	Resolved    bool                 `json:"resolved"`
	Assignments []Assignment         `json:"assignments"`
	Parties     []types.Party        `json:"parties"`
	LineErrors  []shipping.LineError `json:"line_errors,omitempty"`
	Error       *ShippingError       `json:"error,omitempty"`
}

// ShippingError is an order-level selection problem.
type ShippingError struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Assignment is a resolved shipping unit.
type Assignment struct {
	ShippingMethodID   string   `json:"shipping_method_id"`
	ShippingMethodName string   `json:"shipping_method_name"`
	Preference         int      `json:"preference"`
	PartyID            string   `json:"party_id,omitempty"`
	LineIDs            []string `json:"line_ids,omitempty"`
	Email              string   `json:"email,omitempty"`
}

// Instrument is a payment instrument with its card number masked.
type Instrument struct {
	Type          string `json:"type"`
	Active        bool   `json:"active"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	CardLast4     string `json:"card_last4,omitempty"`
	HolderName    string `json:"holder_name,omitempty"`
	ExpiryMonth   int    `json:"expiry_month,omitempty"`
	ExpiryYear    int    `json:"expiry_year,omitempty"`
}

// Rebalance is the outcome of a stateless rebalance.
type Rebalance struct {
	Total        string       `json:"total"`
	TotalDisplay string       `json:"total_display"`
	Instruments  []Instrument `json:"instruments"`
	Changed      bool         `json:"changed"`
	Clamped      bool         `json:"clamped"`
	Shortfall    string       `json:"shortfall"`
	Inconsistent bool         `json:"inconsistent"`
}

// Resolution is the outcome of a stateless shipping resolve.
type Resolution struct {
	Valid       bool                 `json:"valid"`
	Assignments []Assignment         `json:"assignments"`
	Parties     []types.Party        `json:"parties"`
	LineErrors  []shipping.LineError `json:"line_errors,omitempty"`
}
