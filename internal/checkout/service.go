package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-checkout/internal/allocation"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/shipping"
	"github.com/angelmondragon/storefront-checkout/pkg/checkoutapi"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/metrics"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// CartStore is the cart aggregate the engine allocates against.
type CartStore interface {
	GetCurrentTotal(ctx context.Context, cartID uuid.UUID) (cart.Total, error)
	ApplySummary(ctx context.Context, cartID uuid.UUID, summary types.OrderSummary) error
}

// Submitter is the external checkout submission service.
type Submitter interface {
	SetShippingMethods(ctx context.Context, req checkoutapi.ShippingRequest) (*checkoutapi.ShippingResult, error)
	SetPaymentMethods(ctx context.Context, req checkoutapi.PaymentRequest) (*checkoutapi.PaymentResult, error)
	SubmitOrder(ctx context.Context, req checkoutapi.SubmitRequest) (*checkoutapi.SubmitResult, error)
}

// ShippingResolver turns shipping selections into assignments.
type ShippingResolver interface {
	Resolve(ctx context.Context, order shipping.Order) (*shipping.Resolution, error)
}

// Service drives a checkout session through shipping, billing, review and submission.
type Service interface {
	Start(ctx context.Context, cartID uuid.UUID) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	UpdateShipping(ctx context.Context, sessionID string, order shipping.Order) (*Session, error)
	UpdateInstrument(ctx context.Context, sessionID string, update InstrumentUpdate) (*Session, error)
	UpdateBillingAddress(ctx context.Context, sessionID string, address types.Party) (*Session, error)
	Advance(ctx context.Context, sessionID string) (*Session, error)
	Back(ctx context.Context, sessionID string, target enums.CheckoutStep) (*Session, error)
	Cancel(ctx context.Context, sessionID string) error
}

type service struct {
	sessions  SessionStore
	locker    Locker
	carts     CartStore
	submitter Submitter
	resolver  ShippingResolver
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService builds the checkout engine. metrics may be nil.
func NewService(
	sessions SessionStore,
	locker Locker,
	carts CartStore,
	submitter Submitter,
	resolver ShippingResolver,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("session locker required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("checkout submitter required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("shipping resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		sessions:  sessions,
		locker:    locker,
		carts:     carts,
		submitter: submitter,
		resolver:  resolver,
		logg:      logg,
		metrics:   checkoutMetrics,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Start(ctx context.Context, cartID uuid.UUID) (*Session, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	total, err := s.carts.GetCurrentTotal(ctx, cartID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		ID:          uuid.NewString(),
		CartID:      cartID,
		Step:        enums.CheckoutStepShipping,
		Total:       total.Amount,
		Currency:    total.Currency,
		Instruments: allocation.DefaultInstruments(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	ctx = s.logg.WithSession(ctx, session.ID, cartID.String())
	s.logg.Info(ctx, "checkout session started")
	return session, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.sessions.Get(ctx, sessionID)
}

// UpdateShipping stores the selection and re-resolves it. The selection is kept
// even when it does not resolve, in which case the updated session is returned
// together with the validation error. Any change after the shipping step sends
// the session back to shipping so the new assignments get submitted.
func (s *service) UpdateShipping(ctx context.Context, sessionID string, order shipping.Order) (*Session, error) {
	var resolveErr error
	session, err := s.mutate(ctx, sessionID, func(ctx context.Context, session *Session) error {
		if session.Step.IsTerminal() {
			return stepConflict(session.Step, "shipping can no longer change")
		}

		resolution, err := s.resolver.Resolve(ctx, order)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return err
		}
		resolveErr = err
		if err == nil {
			resolveErr = resolution.Err()
		}

		selection := order
		session.Shipping = &selection
		session.Resolution = resolution
		session.ShippingResolved = resolution.Valid()
		session.ShippingMethods = nil

		if session.Step != enums.CheckoutStepShipping {
			s.transition(ctx, session, enums.CheckoutStepShipping)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, resolveErr
}

func (s *service) UpdateInstrument(ctx context.Context, sessionID string, update InstrumentUpdate) (*Session, error) {
	if !update.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown instrument type").
			WithDetails(map[string]string{"type": "is invalid"})
	}
	if update.Amount != nil && update.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative").
			WithDetails(map[string]string{"amount": "must be >= 0"})
	}

	return s.mutate(ctx, sessionID, func(ctx context.Context, session *Session) error {
		if session.Step != enums.CheckoutStepBilling {
			return stepConflict(session.Step, "instruments can only change during billing")
		}

		idx := allocation.Find(session.Instruments, update.Type)
		if idx < 0 {
			session.Instruments = append(session.Instruments, allocation.Instrument{Type: update.Type, Amount: decimal.Zero})
			idx = len(session.Instruments) - 1
		}
		inst := &session.Instruments[idx]
		if update.Active != nil {
			inst.Active = *update.Active
		}
		if update.Amount != nil {
			inst.Amount = *update.Amount
		}
		if update.Card != nil {
			inst.Card = *update.Card
		}

		// card details alone never move amounts
		if update.Amount == nil && update.Active == nil {
			return nil
		}
		session.InstrumentsEdited = true
		return s.rebalance(ctx, session)
	})
}

func (s *service) UpdateBillingAddress(ctx context.Context, sessionID string, address types.Party) (*Session, error) {
	return s.mutate(ctx, sessionID, func(ctx context.Context, session *Session) error {
		if session.Step != enums.CheckoutStepBilling {
			return stepConflict(session.Step, "billing address can only change during billing")
		}
		normalized := address.Normalized()
		session.BillingAddress = &normalized
		return nil
	})
}

func (s *service) Advance(ctx context.Context, sessionID string) (*Session, error) {
	var submitted bool
	session, err := s.mutate(ctx, sessionID, func(ctx context.Context, session *Session) error {
		if !session.IsShippingResolved() {
			return stepConflict(session.Step, "shipping is not resolved")
		}

		switch session.Step {
		case enums.CheckoutStepShipping:
			return s.submitShipping(ctx, session)
		case enums.CheckoutStepBilling:
			return s.submitPayment(ctx, session)
		case enums.CheckoutStepReview:
			if err := s.submitOrder(ctx, session); err != nil {
				return err
			}
			submitted = true
			return nil
		default:
			return stepConflict(session.Step, "no further step")
		}
	})
	if err != nil {
		return nil, err
	}
	if submitted {
		// the session is finished; the stored copy written by mutate is dropped
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logg.Error(s.logg.WithSession(ctx, session.ID, session.CartID.String()), "discard submitted session", err)
		}
	}
	return session, nil
}

func (s *service) Back(ctx context.Context, sessionID string, target enums.CheckoutStep) (*Session, error) {
	if !target.IsValid() || target.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target step").
			WithDetails(map[string]string{"step": "is invalid"})
	}
	return s.mutate(ctx, sessionID, func(ctx context.Context, session *Session) error {
		if !target.Before(session.Step) {
			return stepConflict(session.Step, fmt.Sprintf("cannot go back to %s", target))
		}
		if target == enums.CheckoutStepShipping {
			// derived assignments are recomputed from the stored selection
			session.ShippingMethods = nil
			if session.Shipping != nil {
				resolution, err := s.resolver.Resolve(ctx, *session.Shipping)
				if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
					return err
				}
				session.Resolution = resolution
				session.ShippingResolved = resolution.Valid()
			}
		}
		s.transition(ctx, session, target)
		return nil
	})
}

func (s *service) Cancel(ctx context.Context, sessionID string) error {
	release, err := s.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithSession(ctx, session.ID, session.CartID.String()), "checkout session cancelled")
	return nil
}

// mutate runs fn on a copy of the session under the session lock and saves
// the copy only when fn succeeds, so a failed pass leaves the stored session untouched.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(context.Context, *Session) error) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	release, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	stored, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithSession(ctx, stored.ID, stored.CartID.String())
	ctx = s.logg.WithStep(ctx, stored.Step.String())

	session := stored.clone()
	if err := fn(ctx, session); err != nil {
		return nil, err
	}
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) lock(ctx context.Context, sessionID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return func() {
		// the request context may already be done; release on a fresh one
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "release session lock failed")
		}
	}, nil
}

// rebalance synchronizes the active amounts with the current cart total.
func (s *service) rebalance(ctx context.Context, session *Session) error {
	total, err := s.carts.GetCurrentTotal(ctx, session.CartID)
	if err != nil {
		return err
	}
	session.Total = total.Amount
	session.Currency = total.Currency

	res := allocation.Rebalance(session.Instruments, total.Amount)
	session.Instruments = res.Instruments
	session.Warnings = nil

	switch {
	case !res.Changed:
		s.metrics.IncRebalance(metrics.RebalanceUnchanged)
	case res.Clamped:
		s.metrics.IncRebalance(metrics.RebalanceClamped)
	default:
		s.metrics.IncRebalance(metrics.RebalanceAdjusted)
	}

	if res.Inconsistent {
		s.flagInconsistency(ctx, session, allocation.Verify(res.Instruments, total.Amount))
	}
	return nil
}

func (s *service) flagInconsistency(ctx context.Context, session *Session, err error) {
	if err == nil {
		return
	}
	s.metrics.IncInconsistency()
	session.Warnings = append(session.Warnings, err.Error())
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"total":     session.Total.StringFixed(money.Scale),
		"allocated": allocation.SumActive(session.Instruments).StringFixed(money.Scale),
	}), "allocation does not match cart total")
}

func (s *service) submitShipping(ctx context.Context, session *Session) error {
	started := time.Now()
	res, err := s.submitter.SetShippingMethods(ctx, shippingRequest(session))
	if err != nil {
		s.submissionFailed(ctx, session.Step, started, err)
		return err
	}
	s.metrics.ObserveSubmission(session.Step.String(), metrics.OutcomeSuccess, time.Since(started))

	session.ShippingMethods = res.ShippingMethods
	s.advance(ctx, session)
	if session.InstrumentsEdited {
		return s.verifyAgainstTotal(ctx, session)
	}
	return s.rebalance(ctx, session)
}

// verifyAgainstTotal refreshes the cart total and keeps shopper-entered amounts
// as they are, recording a warning when they no longer cover the total.
func (s *service) verifyAgainstTotal(ctx context.Context, session *Session) error {
	total, err := s.carts.GetCurrentTotal(ctx, session.CartID)
	if err != nil {
		return err
	}
	session.Total = total.Amount
	session.Currency = total.Currency
	session.Warnings = nil
	if allocation.ActiveCount(session.Instruments) > 0 {
		s.flagInconsistency(ctx, session, allocation.Verify(session.Instruments, total.Amount))
	}
	return nil
}

func (s *service) submitPayment(ctx context.Context, session *Session) error {
	if allocation.ActiveCount(session.Instruments) == 0 {
		return stepConflict(session.Step, "at least one payment instrument must be active")
	}

	total, err := s.carts.GetCurrentTotal(ctx, session.CartID)
	if err != nil {
		return err
	}
	session.Total = total.Amount
	session.Currency = total.Currency
	session.Warnings = nil
	if err := allocation.Verify(session.Instruments, total.Amount); err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeAllocationInconsistency) {
			return err
		}
		// submitted anyway; the service's totals are authoritative
		s.flagInconsistency(ctx, session, err)
	}

	started := time.Now()
	if _, err := s.submitter.SetPaymentMethods(ctx, paymentRequest(session)); err != nil {
		s.submissionFailed(ctx, session.Step, started, err)
		return err
	}
	s.metrics.ObserveSubmission(session.Step.String(), metrics.OutcomeSuccess, time.Since(started))

	s.advance(ctx, session)
	return nil
}

func (s *service) submitOrder(ctx context.Context, session *Session) error {
	started := time.Now()
	res, err := s.submitter.SubmitOrder(ctx, checkoutapi.SubmitRequest{
		CartID:         session.CartID.String(),
		IdempotencyKey: session.ID,
	})
	if err != nil {
		s.submissionFailed(ctx, session.Step, started, err)
		return err
	}
	s.metrics.ObserveSubmission(session.Step.String(), metrics.OutcomeSuccess, time.Since(started))

	summary := types.OrderSummary{
		OrderNumber: res.OrderNumber,
		ConfirmURL:  res.ConfirmURL,
		TotalAmount: session.Total,
		Payments:    paymentLines(session.Instruments),
		SubmittedAt: s.now(),
	}
	if err := s.carts.ApplySummary(ctx, session.CartID, summary); err != nil {
		// the order is placed; a retry resubmits with the same idempotency key
		s.logg.Error(ctx, "apply order summary to cart", err)
		return err
	}

	session.OrderNumber = res.OrderNumber
	session.ConfirmURL = res.ConfirmURL
	s.advance(ctx, session)
	return nil
}

func (s *service) submissionFailed(ctx context.Context, step enums.CheckoutStep, started time.Time, err error) {
	s.metrics.ObserveSubmission(step.String(), metrics.OutcomeFailure, time.Since(started))
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout submission failed")
}

func (s *service) transition(ctx context.Context, session *Session, to enums.CheckoutStep) {
	from := session.Step
	session.Step = to
	s.metrics.IncTransition(from.String(), to.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"from": from.String(), "to": to.String()}), "checkout step changed")
}

// advance moves the session one step forward; submitted has no successor.
func (s *service) advance(ctx context.Context, session *Session) {
	if next, ok := session.Step.Next(); ok {
		s.transition(ctx, session, next)
	}
}

func stepConflict(step enums.CheckoutStep, msg string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).
		WithDetails(map[string]string{"step": step.String()})
}
