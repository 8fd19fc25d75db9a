package checkoutapi

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// ShippingAssignment is one shipping unit in a setShippingMethods call.
type ShippingAssignment struct {
	ShippingMethodID               string                   `json:"ShippingMethodId"`
	ShippingMethodName             string                   `json:"ShippingMethodName"`
	ShippingPreferenceType         enums.ShippingPreference `json:"ShippingPreferenceType"`
	PartyID                        string                   `json:"PartyId,omitempty"`
	LineIDs                        []string                 `json:"LineIds,omitempty"`
	ElectronicDeliveryEmail        string                   `json:"ElectronicDeliveryEmail,omitempty"`
	ElectronicDeliveryEmailContent string                   `json:"ElectronicDeliveryEmailContent,omitempty"`
}

// ShippingRequest is the body of setShippingMethods.
type ShippingRequest struct {
	CartID              string               `json:"cartId"`
	ShippingAssignments []ShippingAssignment `json:"shippingAssignments"`
	Parties             []types.Party        `json:"parties"`
}

// CreditCardPayment carries the credit card share of the order.
type CreditCardPayment struct {
	CreditCardNumber      string          `json:"CreditCardNumber"`
	ValidationCode        string          `json:"ValidationCode"`
	ExpirationMonth       int             `json:"ExpirationMonth"`
	ExpirationYear        int             `json:"ExpirationYear"`
	CustomerNameOnPayment string          `json:"CustomerNameOnPayment"`
	Amount                decimal.Decimal `json:"Amount"`
}

// CardPayment carries a gift or loyalty card share of the order.
type CardPayment struct {
	CardNumber string          `json:"CardNumber"`
	Amount     decimal.Decimal `json:"Amount"`
}

// PaymentRequest is the body of setPaymentMethods. Absent instruments are omitted.
type PaymentRequest struct {
	CartID             string             `json:"cartId"`
	CreditCardPayment  *CreditCardPayment `json:"creditCardPayment,omitempty"`
	GiftCardPayment    *CardPayment       `json:"giftCardPayment,omitempty"`
	LoyaltyCardPayment *CardPayment       `json:"loyaltyCardPayment,omitempty"`
	BillingAddress     *types.Party       `json:"billingAddress,omitempty"`
}

// SubmitRequest is the body of submitOrder.
type SubmitRequest struct {
	CartID string `json:"cartId"`
	// IdempotencyKey is sent as a header so a retried submission is not placed twice.
	IdempotencyKey string `json:"-"`
}

// ShippingMethod is a method the service accepted for the cart.
type ShippingMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ShippingResult is the outcome of setShippingMethods.
type ShippingResult struct {
	Success         bool             `json:"success"`
	ShippingMethods []ShippingMethod `json:"shippingMethods"`
	Messages        []string         `json:"messages,omitempty"`
}

// PaymentResult is the outcome of setPaymentMethods.
type PaymentResult struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages,omitempty"`
}

// SubmitResult is the outcome of submitOrder.
type SubmitResult struct {
	Success     bool     `json:"success"`
	ConfirmURL  string   `json:"confirmUrl"`
	OrderNumber string   `json:"orderNumber,omitempty"`
	Messages    []string `json:"messages,omitempty"`
}
