package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	checkoutdto "github.com/angelmondragon/storefront-checkout/api/controllers/checkout/dto"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/checkoutapi"
	"github.com/angelmondragon/storefront-checkout/pkg/config"
	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/metrics"
	"github.com/angelmondragon/storefront-checkout/pkg/migrate"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
	"github.com/angelmondragon/storefront-checkout/pkg/redis/redistest"
)

// fakeCommerce stands in for the external checkout submission service.
type fakeCommerce struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeCommerce) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/checkout/shipping-methods":
		_, _ = io.WriteString(w, `{"success":true,"shippingMethods":[{"id":"PICKUP","name":"Pick up in store"}]}`)
	case "/checkout/payment-methods":
		_, _ = io.WriteString(w, `{"success":true}`)
	case "/checkout/orders":
		_, _ = io.WriteString(w, `{"success":true,"confirmUrl":"/confirm/SO-9","orderNumber":"SO-9"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeCommerce) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type testEnv struct {
	handler  http.Handler
	commerce *fakeCommerce
	carts    *cart.Repository
	cartID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		App:  config.AppConfig{Env: "dev"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	dbClient, err := db.New(ctx, config.DBConfig{SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())}, true, logg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbClient.Close() })
	if err := migrate.AutoMigrate(ctx, dbClient); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	carts := cart.NewRepository(dbClient.DB())
	seeded, err := carts.Create(ctx, &models.Cart{TotalAmount: decimal.RequireFromString("100.00")})
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	commerce := &fakeCommerce{calls: map[string]int{}}
	server := httptest.NewServer(commerce)
	t.Cleanup(server.Close)
	submitter, err := checkoutapi.NewClient(server.URL)
	if err != nil {
		t.Fatalf("checkout api client: %v", err)
	}

	redisClient := redis.NewFromCmdable(redistest.NewMemory())
	sessions, err := checkoutsvc.NewRedisSessionStore(redisClient, 0)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	locker, err := checkoutsvc.NewRedisLocker(redisClient, 0)
	if err != nil {
		t.Fatalf("locker: %v", err)
	}
	resolver, err := shipping.NewResolver(shipping.DeliveryMethods{StoreMethodID: "PICKUP", StoreMethodName: "Pick up in store", EmailMethodID: "EMAIL"}, nil)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	reg := metrics.NewRegistry()
	svc, err := checkoutsvc.NewService(sessions, locker, carts, submitter, resolver, logg, metrics.NewCheckoutMetrics(reg))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	handler := NewRouter(cfg, logg, Dependencies{
		DB:              dbClient,
		Redis:           redisClient,
		Idempotency:     redisClient,
		CheckoutService: svc,
		Resolver:        resolver,
		Metrics:         metrics.Handler(reg),
	})
	return &testEnv{handler: handler, commerce: commerce, carts: carts, cartID: seeded.ID}
}

func (e *testEnv) do(t *testing.T, method, path, body, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func decodeSession(t *testing.T, resp *httptest.ResponseRecorder) checkoutdto.Session {
	t.Helper()
	var envelope struct {
		Data checkoutdto.Session `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode session: %v (%s)", err, resp.Body.String())
	}
	return envelope.Data
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp := env.do(t, http.MethodGet, path, "", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestCheckoutFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/sessions", fmt.Sprintf(`{"cart_id":%q}`, env.cartID), "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("start: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	session := decodeSession(t, resp)
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	base := "/api/v1/checkout/sessions/" + session.ID

	resp = env.do(t, http.MethodPost, base+"/advance", "", "adv-0")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("advance before shipping: expected 422 got %d", resp.Code)
	}

	shippingBody := `{"preference":2,"store":{"name":"Downtown","address1":"5 Elm","country":"US","city":"Springfield","zip_postal_code":"12345","external_id":"store-7"}}`
	resp = env.do(t, http.MethodPut, base+"/shipping", shippingBody, "")
	if got := decodeSession(t, resp); !got.ShippingResolved {
		t.Fatalf("expected shipping resolved, got %+v", got.Shipping)
	}

	resp = env.do(t, http.MethodPost, base+"/advance", "", "adv-1")
	if got := decodeSession(t, resp); got.Step != "billing" || len(got.ShippingMethods) != 1 {
		t.Fatalf("expected billing with methods, got %+v", got)
	}

	resp = env.do(t, http.MethodPut, base+"/instruments/credit_card", `{"active":true,"amount":"40","card":{"number":"4111111111111111","holder_name":"Ada"}}`, "")
	got := decodeSession(t, resp)
	if got.Instruments[0].Amount != "100.00" || got.AllocatedTotal != "100.00" {
		t.Fatalf("expected credit card rebalanced to the total, got %+v", got.Instruments)
	}

	resp = env.do(t, http.MethodPut, base+"/instruments/gift_card", `{"active":true,"amount":"40"}`, "")
	got = decodeSession(t, resp)
	if got.Instruments[0].Amount != "80.00" || got.Instruments[1].Amount != "20.00" {
		t.Fatalf("expected 80/20 split, got %+v", got.Instruments)
	}

	resp = env.do(t, http.MethodPost, base+"/advance", "", "adv-2")
	if got := decodeSession(t, resp); got.Step != "review" {
		t.Fatalf("expected review, got %s", got.Step)
	}

	resp = env.do(t, http.MethodPost, base+"/advance", "", "adv-3")
	if resp.Code != http.StatusOK {
		t.Fatalf("submit: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := decodeSession(t, resp); got.Step != "submitted" || got.ConfirmURL != "/confirm/SO-9" {
		t.Fatalf("unexpected submitted session %+v", got)
	}

	replay := env.do(t, http.MethodPost, base+"/advance", "", "adv-3")
	if replay.Code != http.StatusOK || replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replayed submission, got %d", replay.Code)
	}
	if n := env.commerce.count("/checkout/orders"); n != 1 {
		t.Fatalf("expected one order submission, got %d", n)
	}

	stored, err := env.carts.FindByID(ctx, env.cartID)
	if err != nil {
		t.Fatalf("find cart: %v", err)
	}
	if stored.Status != enums.CartStatusSubmitted || stored.Summary == nil {
		t.Fatalf("expected cart submitted with summary, got %+v", stored)
	}

	resp = env.do(t, http.MethodGet, base, "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected discarded session, got %d", resp.Code)
	}
}

func TestAdvanceRequiresIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/sessions/any/advance", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelSessionRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/sessions", fmt.Sprintf(`{"cart_id":%q}`, env.cartID), "")
	session := decodeSession(t, resp)

	resp = env.do(t, http.MethodDelete, "/api/v1/checkout/sessions/"+session.ID, "", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	resp = env.do(t, http.MethodDelete, "/api/v1/checkout/sessions/"+session.ID, "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after cancel got %d", resp.Code)
	}
}
