package shipping

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// Resolution is the set of assignments and parties to submit for an order.
type Resolution struct {
	Preference  enums.ShippingPreference `json:"preference"`
	Assignments []Assignment             `json:"assignments"`
	Parties     []types.Party            `json:"parties"`
	LineErrors  []LineError              `json:"line_errors,omitempty"`
}

// Valid reports whether the resolution can be submitted as-is.
func (r *Resolution) Valid() bool {
	return r != nil && len(r.Assignments) > 0 && len(r.LineErrors) == 0
}

// Err returns nil for a valid resolution, otherwise a validation error
// combining every line error.
func (r *Resolution) Err() error {
	if r.Valid() {
		return nil
	}
	if r == nil || len(r.LineErrors) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no shipping assignment resolved")
	}
	var combined error
	for _, lineErr := range r.LineErrors {
		combined = multierr.Append(combined, lineErr)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined,
		fmt.Sprintf("%d line(s) could not be resolved", len(r.LineErrors))).
		WithDetails(map[string]any{"lines": r.LineErrors})
}

// Resolver turns shipping selections into checkout assignments.
type Resolver struct {
	methods   DeliveryMethods
	addresses AddressValidator
	fields    *StructValidator
}

// NewResolver builds a resolver. A nil validator falls back to struct-tag validation.
func NewResolver(methods DeliveryMethods, addresses AddressValidator) (*Resolver, error) {
	if methods.StoreMethodID == "" {
		return nil, fmt.Errorf("store delivery method id required")
	}
	if methods.EmailMethodID == "" {
		return nil, fmt.Errorf("email delivery method id required")
	}
	fields := NewStructValidator()
	if addresses == nil {
		addresses = fields
	}
	return &Resolver{methods: methods, addresses: addresses, fields: fields}, nil
}

// Resolve produces the assignments and parties for order. Order-level problems
// fail the whole call with a validation error; per-line problems under
// SplitPerLine are collected in Resolution.LineErrors while valid lines still resolve.
func (r *Resolver) Resolve(ctx context.Context, order Order) (*Resolution, error) {
	switch {
	case order.Preference == enums.ShippingPreferenceSplitPerLine:
		return r.resolveLines(ctx, order.Lines)
	case order.Preference.IsLineLevel():
		unit, errs := r.resolveScope(order.Selection, "")
		if errs.HasErrors() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid %s", strings.Join(errs.Fields(), ", "))).
				WithDetails(errs.Map())
		}
		res := &Resolution{Preference: order.Preference, Parties: []types.Party{}}
		res.add(unit)
		return res, nil
	case order.Preference == enums.ShippingPreferenceNone:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping preference required").
			WithDetails(map[string]string{"preference": "is required"})
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping preference").
			WithDetails(map[string]string{"preference": "is invalid"})
	}
}

func (r *Resolver) resolveLines(ctx context.Context, lines []Line) (*Resolution, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "split shipping requires order lines").
			WithDetails(map[string]string{"lines": "is required"})
	}

	res := &Resolution{
		Preference:  enums.ShippingPreferenceSplitPerLine,
		Assignments: []Assignment{},
		Parties:     []types.Party{},
	}
	seen := map[string]bool{}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSpace(line.ID)
		switch {
		case id == "":
			res.LineErrors = append(res.LineErrors, LineError{LineID: line.ID, Fields: FieldErrors{{Field: "id", Message: "is required"}}})
			continue
		case seen[id]:
			res.LineErrors = append(res.LineErrors, LineError{LineID: id, Fields: FieldErrors{{Field: "id", Message: "is duplicated"}}})
			continue
		}
		seen[id] = true

		unit, errs := r.resolveScope(line.Selection, id)
		if errs.HasErrors() {
			res.LineErrors = append(res.LineErrors, LineError{LineID: id, Fields: errs})
			continue
		}
		if errs := res.add(unit); errs.HasErrors() {
			res.LineErrors = append(res.LineErrors, LineError{LineID: id, Fields: errs})
		}
	}
	return res, nil
}

// unit is what one scope contributes: an assignment and at most one party.
type unit struct {
	assignment Assignment
	party      *types.Party
	partyField string
}

// add records the unit. A party whose external id is already known must match
// the stored one exactly; otherwise nothing is recorded for the unit.
func (r *Resolution) add(u unit) FieldErrors {
	if u.party == nil {
		r.Assignments = append(r.Assignments, u.assignment)
		return nil
	}
	for _, existing := range r.Parties {
		if existing.ExternalID != u.party.ExternalID {
			continue
		}
		if existing != *u.party {
			return FieldErrors{{Field: u.partyField, Message: "conflicts with another line using the same external id"}}
		}
		r.Assignments = append(r.Assignments, u.assignment)
		return nil
	}
	r.Assignments = append(r.Assignments, u.assignment)
	r.Parties = append(r.Parties, *u.party)
	return nil
}

func (r *Resolver) resolveScope(sel Selection, lineID string) (unit, FieldErrors) {
	var (
		out  unit
		errs FieldErrors
	)

	switch sel.Preference {
	case enums.ShippingPreferenceShipToAddress:
		if sel.ShippingMethodID == "" {
			errs = append(errs, FieldError{Field: "shipping_method_id", Message: "is required"})
		}
		party, partyErrs := r.party("address", sel.Address)
		errs = append(errs, partyErrs...)
		if errs.HasErrors() {
			return out, errs
		}
		out.party, out.partyField = &party, "address"
		out.assignment = Assignment{
			ShippingMethodID:   sel.ShippingMethodID,
			ShippingMethodName: sel.ShippingMethodName,
			PartyID:            party.ExternalID,
		}

	case enums.ShippingPreferenceShipToStore:
		party, partyErrs := r.party("store", sel.Store)
		if partyErrs.HasErrors() {
			return out, partyErrs
		}
		out.party, out.partyField = &party, "store"
		out.assignment = Assignment{
			ShippingMethodID:   r.methods.StoreMethodID,
			ShippingMethodName: r.methods.StoreMethodName,
			PartyID:            party.ExternalID,
		}

	case enums.ShippingPreferenceElectronicDelivery:
		email := strings.TrimSpace(sel.Email)
		if errs = r.fields.email(email); errs.HasErrors() {
			return out, errs
		}
		out.assignment = Assignment{
			ShippingMethodID:   r.methods.EmailMethodID,
			ShippingMethodName: r.methods.EmailMethodName,
			Email:              email,
			EmailContent:       sel.EmailContent,
		}

	case enums.ShippingPreferenceNone:
		return out, FieldErrors{{Field: "preference", Message: "is required"}}
	default:
		return out, FieldErrors{{Field: "preference", Message: "is invalid"}}
	}

	out.assignment.Preference = sel.Preference
	if lineID != "" {
		out.assignment.LineIDs = []string{lineID}
	}
	return out, nil
}

func (r *Resolver) party(field string, selected *types.Party) (types.Party, FieldErrors) {
	if selected == nil || selected.IsZero() {
		return types.Party{}, FieldErrors{{Field: field, Message: "is required"}}
	}
	party := selected.Normalized()
	if errs := r.addresses.Validate(party); errs.HasErrors() {
		return types.Party{}, errs.prefixed(field)
	}
	return party, nil
}
