package shipping

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// FieldError names one invalid field and why.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the per-field error list consulted before resolution.
type FieldErrors []FieldError

// HasErrors reports whether any field is invalid.
func (f FieldErrors) HasErrors() bool {
	return len(f) > 0
}

// Fields lists the invalid field names in order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for _, fe := range f {
		out = append(out, fe.Field)
	}
	return out
}

// Map returns field -> message, suitable for error details.
func (f FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(f))
	for _, fe := range f {
		out[fe.Field] = fe.Message
	}
	return out
}

func (f FieldErrors) prefixed(prefix string) FieldErrors {
	out := make(FieldErrors, 0, len(f))
	for _, fe := range f {
		out = append(out, FieldError{Field: prefix + "." + fe.Field, Message: fe.Message})
	}
	return out
}

// AddressValidator checks a party before it is used as a destination.
type AddressValidator interface {
	Validate(party types.Party) FieldErrors
}

// StructValidator validates parties through their struct tags.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator returns the default AddressValidator.
func NewStructValidator() *StructValidator {
	return &StructValidator{validate: newValidator()}
}

func (s *StructValidator) Validate(party types.Party) FieldErrors {
	return toFieldErrors(s.validate.Struct(party), "")
}

func (s *StructValidator) email(value string) FieldErrors {
	return toFieldErrors(s.validate.Var(value, "required,email"), "email")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func toFieldErrors(err error, field string) FieldErrors {
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{{Field: field, Message: err.Error()}}
	}
	out := make(FieldErrors, 0, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		if name == "" {
			name = field
		}
		out = append(out, FieldError{Field: name, Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "iso3166_1_alpha2|iso3166_1_alpha3":
		return "must be an ISO country code"
	}
	return "is invalid"
}
