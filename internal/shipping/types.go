package shipping

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// Selection is what the shopper picked for one scope (the whole order or a single line).
// Only the fields relevant to Preference are read.
type Selection struct {
	Preference         enums.ShippingPreference `json:"preference"`
	ShippingMethodID   string                   `json:"shipping_method_id,omitempty"`
	ShippingMethodName string                   `json:"shipping_method_name,omitempty"`
	Address            *types.Party             `json:"address,omitempty"`
	Store              *types.Party             `json:"store,omitempty"`
	Email              string                   `json:"email,omitempty"`
	EmailContent       string                   `json:"email_content,omitempty"`
}

// Line is an order line carrying its own selection when the order ships per line.
type Line struct {
	ID string `json:"id"`
	Selection
}

// Order is the resolver input: the order-level selection plus its lines.
type Order struct {
	Selection
	Lines []Line `json:"lines,omitempty"`
}

// Assignment is one shipping unit submitted to the checkout service.
type Assignment struct {
	ShippingMethodID   string                   `json:"shipping_method_id"`
	ShippingMethodName string                   `json:"shipping_method_name"`
	Preference         enums.ShippingPreference `json:"preference"`
	PartyID            string                   `json:"party_id,omitempty"`
	LineIDs            []string                 `json:"line_ids,omitempty"`
	Email              string                   `json:"email,omitempty"`
	EmailContent       string                   `json:"email_content,omitempty"`
}

// LineError reports why a single line produced no assignment.
type LineError struct {
	LineID string      `json:"line_id"`
	Fields FieldErrors `json:"fields"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %s: invalid %s", e.LineID, strings.Join(e.Fields.Fields(), ", "))
}

// DeliveryMethods holds the fixed method identities used for store pickup and email delivery.
type DeliveryMethods struct {
	StoreMethodID   string
	StoreMethodName string
	EmailMethodID   string
	EmailMethodName string
}
