package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

const maxParamLen = 128

// PathParam returns a trimmed, required URL parameter.
func PathParam(r *http.Request, name string) (string, error) {
	value := trimParam(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter required").WithDetails(map[string]any{"field": name})
	}
	return value, nil
}

// ParseUUID validates raw as a uuid, reporting field on failure.
func ParseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(trimParam(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}

// trimParam strips surrounding space and cuts the value to maxParamLen bytes
// without splitting a rune.
func trimParam(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) <= maxParamLen {
		return value
	}
	value = value[:maxParamLen]
	for !utf8.ValidString(value) {
		value = value[:len(value)-1]
	}
	return value
}
