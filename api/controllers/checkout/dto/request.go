package checkoutdto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// StartSessionRequest opens a checkout session for a cart.
type StartSessionRequest struct {
	CartID string `json:"cart_id" validate:"required,uuid"`
}

// PartyRequest is an address or store as entered by the shopper. Field rules
// are applied by the shipping resolver so per-line problems stay per-line.
type PartyRequest struct {
	Name          string `json:"name"`
	Address1      string `json:"address1"`
	Country       string `json:"country"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	ZipPostalCode string `json:"zip_postal_code"`
	ExternalID    string `json:"external_id"`
}

// Preference is a shipping preference given as its numeric code (2) or its
// name ("ship_to_store").
type Preference string

func (p *Preference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*p = Preference(name)
	default:
		var code json.Number
		if err := json.Unmarshal(data, &code); err != nil {
			return fmt.Errorf("preference must be a number or a name: %w", err)
		}
		*p = Preference(code.String())
	}
	return nil
}

// SelectionRequest is the shipping choice for the order or one line.
type SelectionRequest struct {
	Preference         Preference    `json:"preference"`
	ShippingMethodID   string        `json:"shipping_method_id,omitempty"`
	ShippingMethodName string        `json:"shipping_method_name,omitempty"`
	Address            *PartyRequest `json:"address,omitempty"`
	Store              *PartyRequest `json:"store,omitempty"`
	Email              string        `json:"email,omitempty"`
	EmailContent       string        `json:"email_content,omitempty"`
}

// LineSelectionRequest carries a line's own selection under split shipping.
type LineSelectionRequest struct {
	ID string `json:"id"`
	SelectionRequest
}

// ShippingRequest updates the session's shipping selection.
type ShippingRequest struct {
	SelectionRequest
	Lines []LineSelectionRequest `json:"lines,omitempty" validate:"max=500"`
}

// CardRequest holds the identity fields of an instrument.
type CardRequest struct {
	Number         string `json:"number" validate:"omitempty,max=32"`
	ValidationCode string `json:"validation_code" validate:"omitempty,max=8"`
	ExpiryMonth    int    `json:"expiry_month" validate:"omitempty,min=1,max=12"`
	ExpiryYear     int    `json:"expiry_year" validate:"omitempty,min=2000,max=2200"`
	HolderName     string `json:"holder_name" validate:"omitempty,max=120"`
}

// InstrumentRequest is a shopper edit to one instrument. Omitted fields are unchanged.
type InstrumentRequest struct {
	Active *bool            `json:"active,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,amount"`
	Card   *CardRequest     `json:"card,omitempty"`
}

// BillingAddressRequest sets the billing party sent with payment methods.
type BillingAddressRequest struct {
	Name          string `json:"name" validate:"required"`
	Address1      string `json:"address1" validate:"required"`
	Country       string `json:"country" validate:"required,iso3166_1_alpha2|iso3166_1_alpha3"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state,omitempty"`
	ZipPostalCode string `json:"zip_postal_code" validate:"required"`
	ExternalID    string `json:"external_id"`
}

// BackRequest returns the session to an earlier step.
type BackRequest struct {
	Step string `json:"step" validate:"required,oneof=shipping billing review"`
}

// RebalanceInstrument is one instrument of a stateless rebalance.
type RebalanceInstrument struct {
	Type   string          `json:"type" validate:"required"`
	Active bool            `json:"active"`
	Amount decimal.Decimal `json:"amount" validate:"amount"`
}

// RebalanceRequest distributes total across the given instruments without a session.
type RebalanceRequest struct {
	Total       decimal.Decimal       `json:"total" validate:"amount"`
	Currency    string                `json:"currency,omitempty" validate:"omitempty,currency"`
	Instruments []RebalanceInstrument `json:"instruments" validate:"required,min=1,max=3,dive"`
}
