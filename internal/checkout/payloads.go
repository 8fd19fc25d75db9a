package checkout

import (
	"github.com/angelmondragon/storefront-checkout/internal/allocation"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/checkoutapi"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

func shippingRequest(s *Session) checkoutapi.ShippingRequest {
	req := checkoutapi.ShippingRequest{
		CartID:              s.CartID.String(),
		ShippingAssignments: make([]checkoutapi.ShippingAssignment, 0, len(s.Resolution.Assignments)),
		Parties:             append([]types.Party{}, s.Resolution.Parties...),
	}
	for _, a := range s.Resolution.Assignments {
		req.ShippingAssignments = append(req.ShippingAssignments, toWireAssignment(a))
	}
	return req
}

func toWireAssignment(a shipping.Assignment) checkoutapi.ShippingAssignment {
	return checkoutapi.ShippingAssignment{
		ShippingMethodID:               a.ShippingMethodID,
		ShippingMethodName:             a.ShippingMethodName,
		ShippingPreferenceType:         a.Preference,
		PartyID:                        a.PartyID,
		LineIDs:                        a.LineIDs,
		ElectronicDeliveryEmail:        a.Email,
		ElectronicDeliveryEmailContent: a.EmailContent,
	}
}

// paymentRequest sends the active amounts verbatim.
func paymentRequest(s *Session) checkoutapi.PaymentRequest {
	req := checkoutapi.PaymentRequest{
		CartID:         s.CartID.String(),
		BillingAddress: s.BillingAddress,
	}
	for _, inst := range s.Instruments {
		if !inst.Active {
			continue
		}
		switch inst.Type {
		case enums.InstrumentTypeCreditCard:
			req.CreditCardPayment = &checkoutapi.CreditCardPayment{
				CreditCardNumber:      inst.Card.Number,
				ValidationCode:        inst.Card.ValidationCode,
				ExpirationMonth:       inst.Card.ExpiryMonth,
				ExpirationYear:        inst.Card.ExpiryYear,
				CustomerNameOnPayment: inst.Card.HolderName,
				Amount:                inst.Amount,
			}
		case enums.InstrumentTypeGiftCard:
			req.GiftCardPayment = &checkoutapi.CardPayment{CardNumber: inst.Card.Number, Amount: inst.Amount}
		case enums.InstrumentTypeLoyaltyCard:
			req.LoyaltyCardPayment = &checkoutapi.CardPayment{CardNumber: inst.Card.Number, Amount: inst.Amount}
		}
	}
	return req
}

func paymentLines(instruments []allocation.Instrument) []types.PaymentLine {
	lines := make([]types.PaymentLine, 0, len(instruments))
	for _, inst := range instruments {
		if inst.Active {
			lines = append(lines, types.PaymentLine{Instrument: inst.Type.String(), Amount: inst.Amount})
		}
	}
	return lines
}
