package types

import "strings"

// Party is an address-like destination: a shopper address or a physical store.
// The JSON names match the checkout service contract.
type Party struct {
	Name          string `json:"Name" validate:"required"`
	Address1      string `json:"Address1" validate:"required"`
	Country       string `json:"Country" validate:"required,iso3166_1_alpha2|iso3166_1_alpha3"`
	City          string `json:"City" validate:"required"`
	State         string `json:"State,omitempty"`
	ZipPostalCode string `json:"ZipPostalCode" validate:"required"`
	ExternalID    string `json:"ExternalId" validate:"required"`
}

// IsZero reports whether no field of the party was provided.
func (p Party) IsZero() bool {
	return p == Party{}
}

// Normalized returns a copy with surrounding whitespace removed and the
// country/state codes upper-cased.
func (p Party) Normalized() Party {
	return Party{
		Name:          strings.TrimSpace(p.Name),
		Address1:      strings.TrimSpace(p.Address1),
		Country:       strings.ToUpper(strings.TrimSpace(p.Country)),
		City:          strings.TrimSpace(p.City),
		State:         strings.ToUpper(strings.TrimSpace(p.State)),
		ZipPostalCode: strings.TrimSpace(p.ZipPostalCode),
		ExternalID:    strings.TrimSpace(p.ExternalID),
	}
}
