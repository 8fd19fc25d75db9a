package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

type lineBody struct {
	ID string `json:"id" validate:"required"`
}

type sampleBody struct {
	CartID string     `json:"cart_id" validate:"required,uuid"`
	Email  string     `json:"email" validate:"omitempty,email"`
	Lines  []lineBody `json:"lines" validate:"dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"cart_id":"nope","email":"x","lines":[{"id":""}]}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	want := map[string]string{
		"cart_id":     "must be a valid uuid",
		"email":       "must be a valid email",
		"lines[0].id": "is required",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("field %s: expected %q got %q (all: %v)", field, msg, details[field], details)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"cart_id":"3f1c3d0e-8f5d-4b7f-9a40-6a7d0c1a2b3c","extra":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPathParam(t *testing.T) {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("sessionId", "  sess-1 ")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := PathParam(req, "sessionId")
	if err != nil || got != "sess-1" {
		t.Fatalf("expected sess-1, got %q (%v)", got, err)
	}
	if _, err := PathParam(req, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing param, got %v", err)
	}
}

func TestParseUUID(t *testing.T) {
	if _, err := ParseUUID("00000000-0000-0000-0000-000000000000", "cart_id"); err == nil {
		t.Fatal("expected nil uuid to be rejected")
	}
	if _, err := ParseUUID(" 3f1c3d0e-8f5d-4b7f-9a40-6a7d0c1a2b3c ", "cart_id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTrimParamKeepsRunesWhole(t *testing.T) {
	raw := "  " + strings.Repeat("a", maxParamLen-1) + "é  "
	got := trimParam(raw)
	if len(got) != maxParamLen-1 {
		t.Fatalf("expected the split rune to be dropped, got len %d", len(got))
	}
	if trimParam(" sess-1 ") != "sess-1" {
		t.Fatalf("expected surrounding space trimmed")
	}
}

type pricedBody struct {
	Total    decimal.Decimal `json:"total" validate:"amount"`
	Currency string          `json:"currency" validate:"omitempty,currency"`
}

func TestDecodeJSONBodyAmountAndCurrencyTags(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"total":"-0.01","currency":"jpy"}`))
	var body pricedBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := typed.Details().(map[string]string)
	if details["total"] != "must be a non-negative amount" || details["currency"] != "is not a supported currency" {
		t.Fatalf("unexpected details %v", details)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"total":"12.50","currency":"cad"}`))
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("expected valid body, got %v", err)
	}
}
