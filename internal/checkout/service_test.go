package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-checkout/internal/allocation"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/checkoutapi"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
	"github.com/angelmondragon/storefront-checkout/pkg/redis/redistest"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

type stubCarts struct {
	total   cart.Total
	err     error
	applied []types.OrderSummary
}

func (s *stubCarts) GetCurrentTotal(context.Context, uuid.UUID) (cart.Total, error) {
	return s.total, s.err
}

func (s *stubCarts) ApplySummary(_ context.Context, _ uuid.UUID, summary types.OrderSummary) error {
	s.applied = append(s.applied, summary)
	return nil
}

type stubSubmitter struct {
	shipping []checkoutapi.ShippingRequest
	payments []checkoutapi.PaymentRequest
	submits  []checkoutapi.SubmitRequest

	shippingErr error
	paymentErr  error
	submitErr   error
}

func (s *stubSubmitter) SetShippingMethods(_ context.Context, req checkoutapi.ShippingRequest) (*checkoutapi.ShippingResult, error) {
	s.shipping = append(s.shipping, req)
	if s.shippingErr != nil {
		return nil, s.shippingErr
	}
	return &checkoutapi.ShippingResult{Success: true, ShippingMethods: []checkoutapi.ShippingMethod{{ID: "PICKUP", Name: "Pick up in store"}}}, nil
}

func (s *stubSubmitter) SetPaymentMethods(_ context.Context, req checkoutapi.PaymentRequest) (*checkoutapi.PaymentResult, error) {
	s.payments = append(s.payments, req)
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	return &checkoutapi.PaymentResult{Success: true}, nil
}

func (s *stubSubmitter) SubmitOrder(_ context.Context, req checkoutapi.SubmitRequest) (*checkoutapi.SubmitResult, error) {
	s.submits = append(s.submits, req)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &checkoutapi.SubmitResult{Success: true, ConfirmURL: "/confirm/SO-1", OrderNumber: "SO-1"}, nil
}

type harness struct {
	svc       Service
	carts     *stubCarts
	submitter *stubSubmitter
	redis     *redis.Client
	locker    *RedisLocker
}

func newHarness(t *testing.T, total string) *harness {
	t.Helper()
	client := redis.NewFromCmdable(redistest.NewMemory())
	sessions, err := NewRedisSessionStore(client, 0)
	require.NoError(t, err)
	locker, err := NewRedisLocker(client, 0)
	require.NoError(t, err)
	resolver, err := shipping.NewResolver(shipping.DeliveryMethods{
		StoreMethodID:   "PICKUP",
		StoreMethodName: "Pick up in store",
		EmailMethodID:   "EMAIL",
		EmailMethodName: "Email delivery",
	}, nil)
	require.NoError(t, err)

	carts := &stubCarts{total: cart.Total{Amount: decimal.RequireFromString(total), Currency: enums.CurrencyUSD}}
	submitter := &stubSubmitter{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(sessions, locker, carts, submitter, resolver, logg, nil)
	require.NoError(t, err)
	return &harness{svc: svc, carts: carts, submitter: submitter, redis: client, locker: locker}
}

func storeSelection(id string) shipping.Order {
	return shipping.Order{Selection: shipping.Selection{
		Preference: enums.ShippingPreferenceShipToStore,
		Store: &types.Party{
			Name:          "Downtown Store",
			Address1:      "2 Pike St",
			Country:       "US",
			City:          "Seattle",
			ZipPostalCode: "98101",
			ExternalID:    id,
		},
	}}
}

func activate(t *testing.T, h *harness, id string, typ enums.InstrumentType, amount string) *Session {
	t.Helper()
	active := true
	amt := decimal.RequireFromString(amount)
	session, err := h.svc.UpdateInstrument(context.Background(), id, InstrumentUpdate{
		Type:   typ,
		Active: &active,
		Amount: &amt,
		Card:   &allocation.CardDetails{Number: "4111" + string(typ)},
	})
	require.NoError(t, err)
	return session
}

func amountOf(s *Session, typ enums.InstrumentType) string {
	return s.Instruments[allocation.Find(s.Instruments, typ)].Amount.StringFixed(2)
}

// toBilling starts a session and moves it to billing with store pickup.
func toBilling(t *testing.T, h *harness) *Session {
	t.Helper()
	ctx := context.Background()
	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)
	_, err = h.svc.UpdateShipping(ctx, session.ID, storeSelection("S1"))
	require.NoError(t, err)
	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepBilling, session.CurrentStep())
	return session
}

func TestCheckoutHappyPath(t *testing.T) {
	h := newHarness(t, "100.00")
	ctx := context.Background()

	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, session.CurrentStep())
	assert.False(t, session.IsShippingResolved())
	assert.Len(t, session.Instruments, 3)

	session, err = h.svc.UpdateShipping(ctx, session.ID, storeSelection("S1"))
	require.NoError(t, err)
	assert.True(t, session.IsShippingResolved())

	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepBilling, session.CurrentStep())
	require.Len(t, h.submitter.shipping, 1)
	sent := h.submitter.shipping[0]
	require.Len(t, sent.ShippingAssignments, 1)
	assert.Equal(t, "S1", sent.ShippingAssignments[0].PartyID)
	assert.Equal(t, "PICKUP", sent.ShippingAssignments[0].ShippingMethodID)
	assert.Equal(t, "S1", sent.Parties[0].ExternalID)
	assert.Len(t, session.ShippingMethods, 1)

	session = activate(t, h, session.ID, enums.InstrumentTypeCreditCard, "40")
	assert.Equal(t, "100.00", amountOf(session, enums.InstrumentTypeCreditCard))

	session = activate(t, h, session.ID, enums.InstrumentTypeGiftCard, "40")
	// 140 against 100: both drop by 20
	assert.Equal(t, "80.00", amountOf(session, enums.InstrumentTypeCreditCard))
	assert.Equal(t, "20.00", amountOf(session, enums.InstrumentTypeGiftCard))
	assert.Empty(t, session.Warnings)

	session, err = h.svc.UpdateBillingAddress(ctx, session.ID, types.Party{Name: " Jane ", ExternalID: "B1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", session.BillingAddress.Name)

	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, session.CurrentStep())
	require.Len(t, h.submitter.payments, 1)
	payment := h.submitter.payments[0]
	require.NotNil(t, payment.CreditCardPayment)
	require.NotNil(t, payment.GiftCardPayment)
	assert.Nil(t, payment.LoyaltyCardPayment)
	assert.Equal(t, "80.00", payment.CreditCardPayment.Amount.StringFixed(2))
	assert.Equal(t, "20.00", payment.GiftCardPayment.Amount.StringFixed(2))
	assert.Equal(t, "B1", payment.BillingAddress.ExternalID)

	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepSubmitted, session.CurrentStep())
	assert.Equal(t, "/confirm/SO-1", session.ConfirmURL)
	require.Len(t, h.submitter.submits, 1)
	assert.Equal(t, session.ID, h.submitter.submits[0].IdempotencyKey)

	require.Len(t, h.carts.applied, 1)
	assert.Equal(t, "SO-1", h.carts.applied[0].OrderNumber)
	assert.Len(t, h.carts.applied[0].Payments, 2)

	_, err = h.svc.Get(ctx, session.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "session should be discarded, got %v", err)
}

func TestAdvanceRequiresResolvedShipping(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)

	_, err = h.svc.Advance(ctx, session.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, h.submitter.shipping)
}

func TestUpdateShippingKeepsSelectionOnPartialFailure(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)

	order := shipping.Order{
		Selection: shipping.Selection{Preference: enums.ShippingPreferenceSplitPerLine},
		Lines: []shipping.Line{
			{ID: "L1", Selection: storeSelection("S1").Selection},
			{ID: "L2", Selection: shipping.Selection{Preference: enums.ShippingPreferenceElectronicDelivery, Email: "nope"}},
		},
	}
	updated, err := h.svc.UpdateShipping(ctx, session.ID, order)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.NotNil(t, updated)
	assert.False(t, updated.IsShippingResolved())

	stored, err := h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Shipping)
	assert.Len(t, stored.Shipping.Lines, 2)
	require.NotNil(t, stored.Resolution)
	assert.Len(t, stored.Resolution.Assignments, 1)
	assert.Len(t, stored.Resolution.LineErrors, 1)

	_, err = h.svc.Advance(ctx, session.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestShippingEditAfterShippingStepReturnsToShipping(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session := toBilling(t, h)

	session, err := h.svc.UpdateShipping(ctx, session.ID, shipping.Order{Selection: shipping.Selection{
		Preference: enums.ShippingPreferenceShipToAddress,
	}})
	require.Error(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, session.CurrentStep())
	assert.False(t, session.IsShippingResolved())
	assert.Empty(t, session.ShippingMethods)
}

func TestSubmissionFailureHoldsState(t *testing.T) {
	h := newHarness(t, "100.00")
	ctx := context.Background()
	session := toBilling(t, h)
	session = activate(t, h, session.ID, enums.InstrumentTypeCreditCard, "100")

	h.submitter.paymentErr = pkgerrors.New(pkgerrors.CodeSubmissionFailed, "set payment methods failed").
		WithDetails(map[string]any{"messages": []string{"card declined"}})

	_, err := h.svc.Advance(ctx, session.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSubmissionFailed))

	stored, err := h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepBilling, stored.CurrentStep())
	assert.Equal(t, "100.00", amountOf(stored, enums.InstrumentTypeCreditCard))
	assert.Equal(t, "S1", stored.Resolution.Assignments[0].PartyID)

	// retry with unchanged inputs
	h.submitter.paymentErr = nil
	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, session.CurrentStep())
	assert.Len(t, h.submitter.payments, 2)
	assert.Equal(t, h.submitter.payments[0], h.submitter.payments[1])
}

func TestFailedOrderSubmissionKeepsReviewStep(t *testing.T) {
	h := newHarness(t, "20.00")
	ctx := context.Background()
	session := toBilling(t, h)
	activate(t, h, session.ID, enums.InstrumentTypeGiftCard, "20")
	_, err := h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)

	h.submitter.submitErr = pkgerrors.New(pkgerrors.CodeSubmissionFailed, "submit order failed")
	_, err = h.svc.Advance(ctx, session.ID)
	require.Error(t, err)

	stored, err := h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, stored.CurrentStep())
	assert.Empty(t, h.carts.applied)
}

func TestClampedRebalanceIsWarningNotError(t *testing.T) {
	h := newHarness(t, "50.00")
	ctx := context.Background()
	session := toBilling(t, h)
	session = activate(t, h, session.ID, enums.InstrumentTypeCreditCard, "50")
	session = activate(t, h, session.ID, enums.InstrumentTypeGiftCard, "200")

	// 250 against 50: delta 100, credit floors at zero
	assert.Equal(t, "0.00", amountOf(session, enums.InstrumentTypeCreditCard))
	assert.Equal(t, "100.00", amountOf(session, enums.InstrumentTypeGiftCard))
	require.Len(t, session.Warnings, 1)

	// still submitted; the service's totals decide
	session, err := h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, session.CurrentStep())
	assert.Len(t, session.Warnings, 1)
	assert.Equal(t, "100.00", h.submitter.payments[0].GiftCardPayment.Amount.StringFixed(2))
}

func TestBillingRequiresActiveInstrument(t *testing.T) {
	h := newHarness(t, "10.00")
	session := toBilling(t, h)

	_, err := h.svc.Advance(context.Background(), session.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, h.submitter.payments)
}

func TestUpdateInstrumentOnlyDuringBilling(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)

	active := true
	_, err = h.svc.UpdateInstrument(ctx, session.ID, InstrumentUpdate{Type: enums.InstrumentTypeGiftCard, Active: &active})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	negative := decimal.RequireFromString("-1")
	_, err = h.svc.UpdateInstrument(ctx, session.ID, InstrumentUpdate{Type: enums.InstrumentTypeGiftCard, Amount: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.UpdateInstrument(ctx, session.ID, InstrumentUpdate{Type: "wire"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBusySessionIsConflict(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)

	release, err := h.locker.Acquire(ctx, session.ID)
	require.NoError(t, err)

	_, err = h.svc.UpdateShipping(ctx, session.ID, storeSelection("S1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, release(ctx))
	_, err = h.svc.UpdateShipping(ctx, session.ID, storeSelection("S1"))
	assert.NoError(t, err)
}

func TestBackRecomputesShipping(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session := toBilling(t, h)

	_, err := h.svc.Back(ctx, session.ID, enums.CheckoutStepReview)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Back(ctx, session.ID, enums.CheckoutStepSubmitted)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	session, err = h.svc.Back(ctx, session.ID, enums.CheckoutStepShipping)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, session.CurrentStep())
	assert.Empty(t, session.ShippingMethods)
	assert.True(t, session.IsShippingResolved())

	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepBilling, session.CurrentStep())
	assert.Len(t, h.submitter.shipping, 2)
}

func TestCancelDiscardsSession(t *testing.T) {
	h := newHarness(t, "10.00")
	ctx := context.Background()
	session, err := h.svc.Start(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, h.svc.Cancel(ctx, session.ID))
	_, err = h.svc.Get(ctx, session.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(h.svc.Cancel(ctx, session.ID), pkgerrors.CodeNotFound))
}

func TestStartPropagatesCartErrors(t *testing.T) {
	h := newHarness(t, "10.00")
	h.carts.err = pkgerrors.New(pkgerrors.CodeStateConflict, "cart already submitted")

	_, err := h.svc.Start(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Start(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCardOnlyEditKeepsAmounts(t *testing.T) {
	h := newHarness(t, "50.00")
	ctx := context.Background()
	session := toBilling(t, h)
	session = activate(t, h, session.ID, enums.InstrumentTypeCreditCard, "50")
	session = activate(t, h, session.ID, enums.InstrumentTypeGiftCard, "200")
	require.Equal(t, "100.00", amountOf(session, enums.InstrumentTypeGiftCard))

	session, err := h.svc.UpdateInstrument(ctx, session.ID, InstrumentUpdate{
		Type: enums.InstrumentTypeCreditCard,
		Card: &allocation.CardDetails{Number: "4111111111111111", HolderName: "Ada Shopper"},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", amountOf(session, enums.InstrumentTypeCreditCard))
	assert.Equal(t, "100.00", amountOf(session, enums.InstrumentTypeGiftCard))
	assert.Equal(t, "Ada Shopper", session.Instruments[allocation.Find(session.Instruments, enums.InstrumentTypeCreditCard)].Card.HolderName)
	assert.Len(t, session.Warnings, 1)
}

func TestReturningThroughShippingKeepsEditedAmounts(t *testing.T) {
	h := newHarness(t, "50.00")
	ctx := context.Background()
	session := toBilling(t, h)
	session = activate(t, h, session.ID, enums.InstrumentTypeCreditCard, "50")
	session = activate(t, h, session.ID, enums.InstrumentTypeGiftCard, "200")

	_, err := h.svc.Back(ctx, session.ID, enums.CheckoutStepShipping)
	require.NoError(t, err)
	session, err = h.svc.Advance(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepBilling, session.CurrentStep())

	assert.Equal(t, "0.00", amountOf(session, enums.InstrumentTypeCreditCard))
	assert.Equal(t, "100.00", amountOf(session, enums.InstrumentTypeGiftCard))
	assert.Len(t, session.Warnings, 1)
}
