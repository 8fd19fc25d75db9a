package checkout

import (
	"github.com/shopspring/decimal"

	checkoutdto "github.com/angelmondragon/storefront-checkout/api/controllers/checkout/dto"
	"github.com/angelmondragon/storefront-checkout/internal/allocation"
	checkoutsvc "github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

func newSessionResponse(session *checkoutsvc.Session) checkoutdto.Session {
	resp := checkoutdto.Session{
		ID:               session.ID,
		CartID:           session.CartID,
		Step:             session.CurrentStep().String(),
		Total:            money.Round(session.Total).StringFixed(money.Scale),
		TotalDisplay:     money.Format(session.Total, session.Currency),
		Currency:         session.Currency.String(),
		ShippingResolved: session.IsShippingResolved(),
		ShippingMethods:  session.ShippingMethods,
		Instruments:      newInstruments(session.Instruments, session.Currency),
		AllocatedTotal:   allocation.SumActive(session.Instruments).StringFixed(money.Scale),
		BillingAddress:   session.BillingAddress,
		Warnings:         session.Warnings,
		OrderNumber:      session.OrderNumber,
		ConfirmURL:       session.ConfirmURL,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
	if session.Shipping != nil {
		resp.Shipping = &checkoutdto.Shipping{
			Preference:  int(session.Shipping.Preference),
			Resolved:    session.IsShippingResolved(),
			Assignments: []checkoutdto.Assignment{},
			Parties:     []types.Party{},
		}
		if session.Resolution != nil {
			resp.Shipping.Assignments = newAssignments(session.Resolution.Assignments)
			resp.Shipping.Parties = session.Resolution.Parties
			resp.Shipping.LineErrors = session.Resolution.LineErrors
		}
	}
	return resp
}

// withShippingError attaches an order-level selection problem to the response.
func withShippingError(resp checkoutdto.Session, err error) checkoutdto.Session {
	if resp.Shipping == nil || err == nil {
		return resp
	}
	shippingErr := &checkoutdto.ShippingError{Message: err.Error()}
	if typed := pkgerrors.As(err); typed != nil {
		shippingErr.Message = typed.Message()
		shippingErr.Details = typed.Details()
	}
	resp.Shipping.Error = shippingErr
	return resp
}

func newAssignments(assignments []shipping.Assignment) []checkoutdto.Assignment {
	out := make([]checkoutdto.Assignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, checkoutdto.Assignment{
			ShippingMethodID:   a.ShippingMethodID,
			ShippingMethodName: a.ShippingMethodName,
			Preference:         int(a.Preference),
			PartyID:            a.PartyID,
			LineIDs:            a.LineIDs,
			Email:              a.Email,
		})
	}
	return out
}

func newInstruments(instruments []allocation.Instrument, currency enums.Currency) []checkoutdto.Instrument {
	out := make([]checkoutdto.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, checkoutdto.Instrument{
			Type:          inst.Type.String(),
			Active:        inst.Active,
			Amount:        inst.Amount.StringFixed(money.Scale),
			AmountDisplay: money.Format(inst.Amount, currency),
			CardLast4:     last4(inst.Card.Number),
			HolderName:    inst.Card.HolderName,
			ExpiryMonth:   inst.Card.ExpiryMonth,
			ExpiryYear:    inst.Card.ExpiryYear,
		})
	}
	return out
}

func newRebalanceResponse(result allocation.Result, total decimal.Decimal, currency enums.Currency) checkoutdto.Rebalance {
	return checkoutdto.Rebalance{
		Total:        total.StringFixed(money.Scale),
		TotalDisplay: money.Format(total, currency),
		Instruments:  newInstruments(result.Instruments, currency),
		Changed:      result.Changed,
		Clamped:      result.Clamped,
		Shortfall:    result.Shortfall.StringFixed(money.Scale),
		Inconsistent: result.Inconsistent,
	}
}

func newResolutionResponse(res *shipping.Resolution) checkoutdto.Resolution {
	return checkoutdto.Resolution{
		Valid:       res.Valid(),
		Assignments: newAssignments(res.Assignments),
		Parties:     res.Parties,
		LineErrors:  res.LineErrors,
	}
}

func last4(number string) string {
	if len(number) < 4 {
		return ""
	}
	return number[len(number)-4:]
}
