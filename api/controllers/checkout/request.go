package checkout

import (
	"strings"

	checkoutdto "github.com/angelmondragon/storefront-checkout/api/controllers/checkout/dto"
	"github.com/angelmondragon/storefront-checkout/internal/allocation"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

func toShippingOrder(payload checkoutdto.ShippingRequest) shipping.Order {
	lines := make([]shipping.Line, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		lines = append(lines, shipping.Line{
			ID:        line.ID,
			Selection: toSelection(line.SelectionRequest),
		})
	}
	return shipping.Order{
		Selection: toSelection(payload.SelectionRequest),
		Lines:     lines,
	}
}

func toSelection(payload checkoutdto.SelectionRequest) shipping.Selection {
	return shipping.Selection{
		Preference:         parsePreference(payload.Preference),
		ShippingMethodID:   payload.ShippingMethodID,
		ShippingMethodName: payload.ShippingMethodName,
		Address:            toParty(payload.Address),
		Store:              toParty(payload.Store),
		Email:              payload.Email,
		EmailContent:       payload.EmailContent,
	}
}

// parsePreference leaves an absent preference as None and marks unparseable
// input as Unknown so the resolver reports it on the order or the line.
func parsePreference(raw checkoutdto.Preference) enums.ShippingPreference {
	if strings.TrimSpace(string(raw)) == "" {
		return enums.ShippingPreferenceNone
	}
	pref, err := enums.ParseShippingPreference(string(raw))
	if err != nil {
		return enums.ShippingPreferenceUnknown
	}
	return pref
}

func toParty(payload *checkoutdto.PartyRequest) *types.Party {
	if payload == nil {
		return nil
	}
	return &types.Party{
		Name:          payload.Name,
		Address1:      payload.Address1,
		Country:       payload.Country,
		City:          payload.City,
		State:         payload.State,
		ZipPostalCode: payload.ZipPostalCode,
		ExternalID:    payload.ExternalID,
	}
}

func toBillingParty(payload checkoutdto.BillingAddressRequest) types.Party {
	return types.Party{
		Name:          payload.Name,
		Address1:      payload.Address1,
		Country:       payload.Country,
		City:          payload.City,
		State:         payload.State,
		ZipPostalCode: payload.ZipPostalCode,
		ExternalID:    payload.ExternalID,
	}
}

func toCardDetails(payload *checkoutdto.CardRequest) *allocation.CardDetails {
	if payload == nil {
		return nil
	}
	return &allocation.CardDetails{
		Number:         strings.ReplaceAll(strings.TrimSpace(payload.Number), " ", ""),
		ValidationCode: strings.TrimSpace(payload.ValidationCode),
		ExpiryMonth:    payload.ExpiryMonth,
		ExpiryYear:     payload.ExpiryYear,
		HolderName:     strings.TrimSpace(payload.HolderName),
	}
}

func parseInstrumentType(raw string) (enums.InstrumentType, error) {
	t, err := enums.ParseInstrumentType(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown instrument type").
			WithDetails(map[string]string{"type": "must be one of [credit_card gift_card loyalty_card]"})
	}
	return t, nil
}

func toInstruments(payload []checkoutdto.RebalanceInstrument) ([]allocation.Instrument, error) {
	out := make([]allocation.Instrument, 0, len(payload))
	for _, item := range payload {
		t, err := parseInstrumentType(item.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, allocation.Instrument{Type: t, Active: item.Active, Amount: item.Amount})
	}
	return out, nil
}

func parseCurrency(raw string) (enums.Currency, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.CurrencyUSD, nil
	}
	c, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency").
			WithDetails(map[string]string{"currency": "is not supported"})
	}
	return c, nil
}
