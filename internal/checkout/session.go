package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/internal/allocation"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/checkoutapi"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// Session is the per-shopper checkout context. It is created by Start, owned
// by exactly one shopper and discarded at submission or cancellation.
type Session struct {
	ID     string    `json:"id"`
	CartID uuid.UUID `json:"cart_id"`

	Step enums.CheckoutStep `json:"step"`

	Total    decimal.Decimal `json:"total"`
	Currency enums.Currency  `json:"currency"`

	Shipping         *shipping.Order              `json:"shipping,omitempty"`
	Resolution       *shipping.Resolution         `json:"resolution,omitempty"`
	ShippingResolved bool                         `json:"shipping_resolved"`
	ShippingMethods  []checkoutapi.ShippingMethod `json:"shipping_methods,omitempty"`

	Instruments    []allocation.Instrument `json:"instruments"`
	BillingAddress *types.Party            `json:"billing_address,omitempty"`
	// InstrumentsEdited is set once the shopper changes an amount or toggles an
	// instrument; later shipping passes then leave the amounts alone.
	InstrumentsEdited bool `json:"instruments_edited,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	OrderNumber string `json:"order_number,omitempty"`
	ConfirmURL  string `json:"confirm_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentStep returns the step the session is in.
func (s *Session) CurrentStep() enums.CheckoutStep {
	if s == nil {
		return ""
	}
	return s.Step
}

// IsShippingResolved reports whether the current shipping selection produced a
// complete, valid assignment set.
func (s *Session) IsShippingResolved() bool {
	return s != nil && s.ShippingResolved && s.Resolution.Valid()
}

func (s *Session) clone() *Session {
	out := *s
	out.Instruments = append([]allocation.Instrument(nil), s.Instruments...)
	out.Warnings = append([]string(nil), s.Warnings...)
	out.ShippingMethods = append([]checkoutapi.ShippingMethod(nil), s.ShippingMethods...)
	return &out
}

// InstrumentUpdate is a shopper edit to one instrument. Nil fields are left as-is.
type InstrumentUpdate struct {
	Type   enums.InstrumentType
	Active *bool
	Amount *decimal.Decimal
	Card   *allocation.CardDetails
}
